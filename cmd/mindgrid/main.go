// mindgrid - A persistent cognitive control loop over a simulated grid world
// License: MIT
//
// Copyright (c) 2026 mindgrid contributors

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/dotsetgreg/mindgrid/pkg/bus"
	"github.com/dotsetgreg/mindgrid/pkg/config"
	"github.com/dotsetgreg/mindgrid/pkg/experiments"
	"github.com/dotsetgreg/mindgrid/pkg/logger"
	"github.com/dotsetgreg/mindgrid/pkg/mind"
	"github.com/dotsetgreg/mindgrid/pkg/runner"
	"github.com/dotsetgreg/mindgrid/pkg/store"
	"github.com/dotsetgreg/mindgrid/pkg/world"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const appName = "mindgrid"

// formatVersion returns the version string with optional git commit
func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// formatBuildInfo returns build time and go version info
func formatBuildInfo() (build string, goVer string) {
	if buildTime != "" {
		build = buildTime
	}
	goVer = goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return
}

func printVersion() {
	fmt.Printf("%s %s\n", appName, formatVersion())
	build, goVer := formatBuildInfo()
	if build != "" {
		fmt.Printf("  Build: %s\n", build)
	}
	if goVer != "" {
		fmt.Printf("  Go: %s\n", goVer)
	}
}

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "onboard":
		onboard()
	case "session":
		sessionCmd()
	case "run":
		runCmd()
	case "experiment":
		experimentCmd()
	case "status":
		statusCmd()
	case "version", "--version", "-v":
		printVersion()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf("%s - Persistent cognitive control loop v%s\n\n", appName, version)
	fmt.Println("Usage: mindgrid <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  onboard     Initialize mindgrid configuration")
	fmt.Println("  session     Run an interactive session (teach, ask, steer)")
	fmt.Println("  run         Run an unattended autonomous session")
	fmt.Println("  experiment  Run a scripted experiment (grounding, curiosity)")
	fmt.Println("  status      Show configuration and state readiness")
	fmt.Println("  version     Show version information")
}

func getConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mindgrid", "config.json")
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(getConfigPath())
}

func onboard() {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config already exists at %s\n", configPath)
		fmt.Print("Overwrite? (y/n): ")
		reader := bufio.NewReader(os.Stdin)
		response, readErr := reader.ReadString('\n')
		if readErr != nil {
			fmt.Printf("Error reading input: %v\n", readErr)
			fmt.Println("Aborted.")
			return
		}
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	cfg := config.DefaultConfig()
	if err := config.SaveConfig(configPath, cfg); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s is ready!\n", appName)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Adjust the grid and memory settings in", configPath)
	fmt.Println("  2. Start an interactive session: mindgrid session")
	fmt.Println("  3. Run unattended: mindgrid run --ticks 500")
	fmt.Println("  4. Check readiness: mindgrid status")
}

func sessionCmd() {
	args := os.Args[2:]
	for _, arg := range args {
		if arg == "--debug" || arg == "-d" {
			logger.SetLevel(logger.DEBUG)
			fmt.Println("Debug mode enabled")
			break
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	kernel, err := mind.NewKernel(cfg)
	if err != nil {
		fmt.Printf("Error initializing kernel: %v\n", err)
		os.Exit(1)
	}
	defer kernel.Close()

	st := openStore(cfg)
	if st != nil {
		defer st.Close()
		restoreConcepts(kernel, st)
		defer persistState(kernel, st)
	}

	fmt.Printf("%s Interactive session (Ctrl+C to exit)\n", appName)
	fmt.Println("Commands: up/down/left/right/stay, tick, this is <label>,")
	fmt.Println("          what is this?, path is <label>, what path?, grid, state, exit")
	fmt.Println()
	fmt.Println(kernel.World().GridString())
	fmt.Println()
	interactiveMode(kernel)
}

func interactiveMode(kernel *mind.Kernel) {
	prompt := fmt.Sprintf("%s> ", appName)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(os.TempDir(), ".mindgrid_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})

	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		simpleInteractiveMode(kernel)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		if !handleSessionInput(kernel, line) {
			return
		}
	}
}

func simpleInteractiveMode(kernel *mind.Kernel) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s> ", appName)
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		if !handleSessionInput(kernel, line) {
			return
		}
	}
}

// handleSessionInput processes one REPL line. Returns false when the
// session should end.
func handleSessionInput(kernel *mind.Kernel, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}
	lower := strings.ToLower(input)

	switch {
	case lower == "exit" || lower == "quit":
		fmt.Println("Goodbye!")
		return false

	case lower == "grid":
		fmt.Println(kernel.World().GridString())

	case lower == "state" || lower == "status":
		printSnapshot(kernel.Snapshot())

	case lower == "tick":
		stepAndReport(kernel)

	case strings.HasPrefix(lower, "this is "):
		label := strings.TrimSpace(input[len("this is "):])
		if label == "" {
			fmt.Println("Usage: this is <label>")
			break
		}
		kernel.Teach(label)
		kernel.ForceAction(world.ActionStay)
		state, err := kernel.Step()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		if state.Grounding != nil && state.Grounding.Result.Known {
			fmt.Printf("Learned %q (confidence %.2f)\n", label, state.Grounding.Result.Best.Confidence)
		} else {
			fmt.Printf("Could not ground %q: need exactly one shape in view\n", label)
		}

	case lower == "what is this?" || lower == "what is this":
		result := kernel.Ask()
		if result.Known {
			fmt.Printf("This is %s (confidence %.2f)\n", result.Best.Label, result.Best.Confidence)
		} else if len(result.Candidates) > 0 {
			fmt.Printf("Not sure. Maybe %s (confidence %.2f)\n", result.Candidates[0].Label, result.Candidates[0].Confidence)
		} else {
			fmt.Println("I don't know this yet.")
		}

	case strings.HasPrefix(lower, "path is "):
		label := strings.TrimSpace(input[len("path is "):])
		if label == "" {
			fmt.Println("Usage: path is <label>")
			break
		}
		concept := kernel.TeachTrajectory(label)
		fmt.Printf("Learned path %q (confidence %.2f)\n", label, concept.Confidence)

	case lower == "what path?" || lower == "what path":
		result := kernel.AskTrajectory()
		if result.Known {
			fmt.Printf("That path is %s (confidence %.2f)\n", result.Best.Label, result.Best.Confidence)
		} else {
			fmt.Println("I don't recognize the recent path.")
		}

	default:
		action, err := world.ParseAction(lower)
		if err != nil {
			fmt.Printf("Unknown command: %s\n", input)
			break
		}
		kernel.ForceAction(action)
		stepAndReport(kernel)
	}
	return true
}

func stepAndReport(kernel *mind.Kernel) {
	state, err := kernel.Step()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(kernel.World().GridString())
	fmt.Printf("tick=%d action=%s novelty=%.2f boredom=%.2f curiosity=%.2f\n",
		state.Tick, state.LastAction, state.Affect.Novelty, state.Affect.Boredom, state.Affect.Curiosity)
}

func printSnapshot(state mind.MindState) {
	data, err := state.JSON()
	if err != nil {
		fmt.Printf("Error encoding state: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func runCmd() {
	ticks := 0
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--debug", "-d":
			logger.SetLevel(logger.DEBUG)
			fmt.Println("Debug mode enabled")
		case "-t", "--ticks":
			if i+1 < len(args) {
				n, err := strconv.Atoi(args[i+1])
				if err != nil {
					fmt.Printf("Invalid tick count: %s\n", args[i+1])
					os.Exit(1)
				}
				ticks = n
				i++
			}
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if ticks > 0 {
		cfg.Runner.MaxTicks = ticks
	}

	kernel, err := mind.NewKernel(cfg)
	if err != nil {
		fmt.Printf("Error initializing kernel: %v\n", err)
		os.Exit(1)
	}
	defer kernel.Close()

	st := openStore(cfg)
	if st != nil {
		defer st.Close()
		restoreConcepts(kernel, st)
	}

	snapBus := bus.NewSnapshotBus()
	defer snapBus.Close()

	sessionRunner, err := runner.New(cfg.Runner, kernel, snapBus, st)
	if err != nil {
		fmt.Printf("Error creating runner: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sessionRunner.Start(ctx); err != nil {
		fmt.Printf("Error starting runner: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Session %s started\n", kernel.SessionID())
	fmt.Println("Press Ctrl+C to stop")

	// Echo snapshots while the session runs.
	go func() {
		for {
			state, ok := snapBus.SubscribeSnapshot(ctx)
			if !ok {
				return
			}
			fmt.Printf("tick=%d pos=(%d,%d) boredom=%.2f concepts=%d\n",
				state.Tick,
				state.Observation.AgentPosition.Row, state.Observation.AgentPosition.Col,
				state.Affect.Boredom, state.ConceptCount)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for sessionRunner.IsRunning() {
		select {
		case <-sigChan:
			fmt.Println("\nShutting down...")
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := sessionRunner.Stop(stopCtx); err != nil {
				fmt.Printf("Error stopping runner: %v\n", err)
			}
			stopCancel()
		case <-ticker.C:
		}
	}

	if st != nil {
		persistState(kernel, st)
	}
	fmt.Printf("Session stopped at tick %d\n", kernel.Tick())
}

func experimentCmd() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: mindgrid experiment <grounding|curiosity>")
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[2] {
	case "grounding":
		out, err := experiments.RunGrounding(cfg, 3)
		if err != nil {
			fmt.Printf("Experiment failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Grounding experiment:")
		fmt.Printf("  Taught A:   known=%v label=%s confidence=%.2f\n", out.TaughtA.Known, out.TaughtA.Best.Label, out.TaughtA.Best.Confidence)
		fmt.Printf("  Taught B:   known=%v label=%s confidence=%.2f\n", out.TaughtB.Known, out.TaughtB.Best.Label, out.TaughtB.Best.Confidence)
		fmt.Printf("  Recalled A: known=%v label=%s confidence=%.2f\n", out.RecalledA.Known, out.RecalledA.Best.Label, out.RecalledA.Best.Confidence)
		fmt.Printf("  Concepts:   %d over %d ticks\n", out.ConceptsNow, out.Ticks)

	case "curiosity":
		out, err := experiments.RunCuriosity(cfg, 300)
		if err != nil {
			fmt.Printf("Experiment failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Curiosity experiment:")
		fmt.Printf("  Ticks:          %d\n", out.Ticks)
		fmt.Printf("  Peak boredom:   %.2f\n", out.PeakBoredom)
		fmt.Printf("  Boredom resets: %d\n", out.BoredomResets)
		fmt.Printf("  Distinct cells: %d\n", out.DistinctCells)

	default:
		fmt.Printf("Unknown experiment: %s\n", os.Args[2])
		os.Exit(1)
	}
}

func statusCmd() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return
	}

	configPath := getConfigPath()

	fmt.Printf("%s Status\n", appName)
	fmt.Printf("Version: %s\n", formatVersion())
	build, _ := formatBuildInfo()
	if build != "" {
		fmt.Printf("Build: %s\n", build)
	}
	fmt.Println()

	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("Config:", configPath, "ok")
	} else {
		fmt.Println("Config:", configPath, "missing (run: mindgrid onboard)")
	}

	fmt.Printf("Grid: %dx%d with %d objects (seed %d)\n",
		cfg.World.Rows, cfg.World.Cols, cfg.World.NumObjects, cfg.World.Seed)
	fmt.Printf("Memory: working=%d episodic=%d\n",
		cfg.Memory.WorkingCapacity, cfg.Memory.EpisodicCeiling)

	storePath := cfg.StorePath()
	if !cfg.Store.Enabled {
		fmt.Println("State DB: disabled")
	} else if _, err := os.Stat(storePath); err == nil {
		fmt.Println("State DB:", storePath, "ok")
	} else {
		fmt.Println("State DB:", storePath, "not initialized")
	}
}

func openStore(cfg *config.Config) *store.SQLiteStore {
	if !cfg.Store.Enabled {
		return nil
	}
	st, err := store.NewSQLiteStore(cfg.StorePath())
	if err != nil {
		fmt.Printf("Warning: persistence disabled: %v\n", err)
		return nil
	}
	return st
}

func restoreConcepts(kernel *mind.Kernel, st *store.SQLiteStore) {
	concepts, err := st.LoadConcepts(context.Background())
	if err != nil {
		fmt.Printf("Warning: could not restore concepts: %v\n", err)
		return
	}
	if len(concepts) > 0 {
		kernel.Semantic().Load(concepts)
		fmt.Printf("Restored %d learned concepts\n", len(concepts))
	}
}

func persistState(kernel *mind.Kernel, st *store.SQLiteStore) {
	ctx := context.Background()
	if err := st.SaveConcepts(ctx, kernel.Semantic().Concepts()); err != nil {
		fmt.Printf("Warning: could not persist concepts: %v\n", err)
	}
	if kernel.Tick() > 0 {
		if err := st.SaveSnapshot(ctx, kernel.Snapshot()); err != nil {
			fmt.Printf("Warning: could not persist snapshot: %v\n", err)
		}
	}
}
