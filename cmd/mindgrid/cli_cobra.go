package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func executeCLI() error {
	root := buildRootCommand()
	if err := root.Execute(); err != nil {
		return err
	}
	return nil
}

func buildRootCommand() *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   "mindgrid",
		Short: "Persistent cognitive control loop over a simulated grid world",
		Long: strings.TrimSpace(`mindgrid runs a tick-based mind kernel in a deterministic grid world.

Use CLI commands to onboard, steer interactive sessions, run unattended
autonomous sessions, and replay scripted grounding and curiosity experiments.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion()
				return nil
			}
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show build/version metadata")

	root.AddCommand(newOnboardCommand())
	root.AddCommand(newSessionCommand())
	root.AddCommand(newRunCommand())
	root.AddCommand(newExperimentCommand())
	root.AddCommand(newStatusCommand())
	root.AddCommand(newVersionCommand())

	return root
}

func runLegacyWithArgs(args []string, fn func()) error {
	original := os.Args
	os.Args = append([]string{original[0]}, args...)
	defer func() {
		os.Args = original
	}()
	fn()
	return nil
}

func newOnboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "onboard",
		Short:   "Initialize ~/.mindgrid configuration",
		Long:    "Create the default configuration file for a new mindgrid installation.",
		Example: "  mindgrid onboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLegacyWithArgs([]string{"onboard"}, onboard)
		},
	}
}

func newSessionCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Run an interactive session (teach, ask, steer)",
		Long:  "Start an interactive REPL against the kernel: steer the agent, teach shape labels, and query what it knows.",
		Example: strings.Join([]string{
			"  mindgrid session",
			"  mindgrid session --debug",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			legacyArgs := []string{"session"}
			if debug {
				legacyArgs = append(legacyArgs, "--debug")
			}
			return runLegacyWithArgs(legacyArgs, sessionCmd)
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func newRunCommand() *cobra.Command {
	var (
		ticks int
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an unattended autonomous session",
		Long:  "Let the kernel tick on its own drives, persisting snapshots on the configured cadence.",
		Example: strings.Join([]string{
			"  mindgrid run",
			"  mindgrid run --ticks 500",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			legacyArgs := []string{"run"}
			if debug {
				legacyArgs = append(legacyArgs, "--debug")
			}
			if ticks > 0 {
				legacyArgs = append(legacyArgs, "--ticks", strconv.Itoa(ticks))
			}
			return runLegacyWithArgs(legacyArgs, runCmd)
		},
	}

	cmd.Flags().IntVarP(&ticks, "ticks", "t", 0, "Stop after N ticks (0 = run until interrupted)")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func newExperimentCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "experiment <grounding|curiosity>",
		Short:     "Run a scripted experiment",
		Long:      "Replay a scripted scenario: symbol grounding (teach and recall shapes) or curiosity (boredom/exploration cycles).",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"grounding", "curiosity"},
		Example: strings.Join([]string{
			"  mindgrid experiment grounding",
			"  mindgrid experiment curiosity",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLegacyWithArgs([]string{"experiment", args[0]}, experimentCmd)
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show configuration and state readiness",
		Example: "  mindgrid status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLegacyWithArgs([]string{"status"}, statusCmd)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Show build/version metadata",
		Example: "  mindgrid version",
		RunE: func(cmd *cobra.Command, args []string) error {
			printVersion()
			return nil
		},
	}
}
