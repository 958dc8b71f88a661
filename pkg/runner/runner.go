package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/dotsetgreg/mindgrid/pkg/bus"
	"github.com/dotsetgreg/mindgrid/pkg/config"
	"github.com/dotsetgreg/mindgrid/pkg/logger"
	"github.com/dotsetgreg/mindgrid/pkg/mind"
	"github.com/dotsetgreg/mindgrid/pkg/store"
)

// Runner drives the kernel through unattended sessions: it ticks the
// kernel on an interval, services inbound signals from the bus, and
// persists snapshots on a tick cadence or a cron schedule.
type Runner struct {
	cfg    config.RunnerConfig
	kernel *mind.Kernel
	bus    *bus.SnapshotBus
	store  *store.SQLiteStore
	gron   *gronx.Gronx

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds a runner. The store may be nil; persistence is then
// skipped entirely.
func New(cfg config.RunnerConfig, kernel *mind.Kernel, snapBus *bus.SnapshotBus, st *store.SQLiteStore) (*Runner, error) {
	g := gronx.New()
	if cfg.SnapshotSchedule != "" && !g.IsValid(cfg.SnapshotSchedule) {
		return nil, fmt.Errorf("invalid snapshot schedule %q", cfg.SnapshotSchedule)
	}
	return &Runner{
		cfg:    cfg,
		kernel: kernel,
		bus:    snapBus,
		store:  st,
		gron:   g,
	}, nil
}

// Start launches the tick loop. It returns immediately; the loop runs
// until Stop, context cancellation, or MaxTicks.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("runner already started")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	logger.InfoCF("runner", "Session started", map[string]interface{}{
		"session":   r.kernel.SessionID(),
		"max_ticks": r.cfg.MaxTicks,
		"schedule":  r.cfg.SnapshotSchedule,
	})

	go r.loop(loopCtx)
	return nil
}

// Stop halts the loop and waits for it to drain.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the tick loop is active.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	interval := time.Duration(r.cfg.TickIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			logger.InfoCF("runner", "Session stopped", map[string]interface{}{
				"session": r.kernel.SessionID(),
				"ticks":   ticks,
			})
			return
		case <-ticker.C:
		}

		r.drainSignals()

		state, err := r.kernel.Step()
		if err != nil {
			logger.ErrorCF("runner", "Tick failed", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		ticks++

		if r.bus != nil {
			r.bus.PublishSnapshot(state)
		}
		r.maybePersist(ctx, state)

		if r.cfg.MaxTicks > 0 && ticks >= r.cfg.MaxTicks {
			logger.InfoCF("runner", "Tick budget reached", map[string]interface{}{
				"session": r.kernel.SessionID(),
				"ticks":   ticks,
			})
			r.persist(ctx, state)
			return
		}
	}
}

// drainSignals services all pending inbound signals before the next
// tick so teach/ask requests land on the observation they were issued
// against.
func (r *Runner) drainSignals() {
	if r.bus == nil {
		return
	}
	for {
		sig, ok := r.bus.TrySignal()
		if !ok {
			return
		}
		switch sig.Kind {
		case bus.SignalTeach:
			r.kernel.Teach(sig.Label)
		case bus.SignalAsk:
			result := r.kernel.Ask()
			logger.InfoCF("runner", "Grounding query", map[string]interface{}{
				"known": result.Known,
				"label": result.Best.Label,
			})
		case bus.SignalTeachTrajectory:
			r.kernel.TeachTrajectory(sig.Label)
		case bus.SignalAskTrajectory:
			result := r.kernel.AskTrajectory()
			logger.InfoCF("runner", "Trajectory query", map[string]interface{}{
				"known": result.Known,
				"label": result.Best.Label,
			})
		case bus.SignalStop:
			r.kernel.Close()
		default:
			logger.WarnCF("runner", "Unknown signal", map[string]interface{}{
				"kind": string(sig.Kind),
			})
		}
	}
}

// maybePersist saves state when the cron schedule fires or every
// SnapshotEvery ticks. The schedule takes precedence when set.
func (r *Runner) maybePersist(ctx context.Context, state mind.MindState) {
	if r.store == nil {
		return
	}

	due := false
	if r.cfg.SnapshotSchedule != "" {
		ok, err := r.gron.IsDue(r.cfg.SnapshotSchedule, time.Now())
		if err != nil {
			logger.WarnCF("runner", "Snapshot schedule check failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		due = ok
	} else if r.cfg.SnapshotEvery > 0 && state.Tick%r.cfg.SnapshotEvery == 0 {
		due = true
	}

	if due {
		r.persist(ctx, state)
	}
}

func (r *Runner) persist(ctx context.Context, state mind.MindState) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveSnapshot(ctx, state); err != nil {
		logger.ErrorCF("runner", "Snapshot persist failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := r.store.SaveConcepts(ctx, r.kernel.Semantic().Concepts()); err != nil {
		logger.ErrorCF("runner", "Concept persist failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if last, ok := r.kernel.Episodic().Last(); ok {
		if err := r.store.AppendEpisodic(ctx, state.SessionID, last); err != nil {
			logger.DebugCF("runner", "Episodic persist skipped", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}
