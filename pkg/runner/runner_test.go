package runner

import (
	"context"
	"testing"
	"time"

	"github.com/dotsetgreg/mindgrid/pkg/bus"
	"github.com/dotsetgreg/mindgrid/pkg/config"
	"github.com/dotsetgreg/mindgrid/pkg/mind"
)

func newTestKernel(t *testing.T) *mind.Kernel {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.World.NumObjects = 0
	cfg.Store.Enabled = false
	k, err := mind.NewKernel(cfg)
	if err != nil {
		t.Fatalf("NewKernel failed: %v", err)
	}
	return k
}

func TestNew_RejectsInvalidSchedule(t *testing.T) {
	k := newTestKernel(t)
	if _, err := New(config.RunnerConfig{SnapshotSchedule: "not a cron"}, k, nil, nil); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestRunner_StopsAtMaxTicks(t *testing.T) {
	k := newTestKernel(t)
	sb := bus.NewSnapshotBus()
	defer sb.Close()

	r, err := New(config.RunnerConfig{MaxTicks: 3, TickIntervalMS: 1}, k, sb, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for i := 0; i < 3; i++ {
		subCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		state, ok := sb.SubscribeSnapshot(subCtx)
		cancel()
		if !ok {
			t.Fatalf("missing snapshot %d", i+1)
		}
		if state.Tick != i+1 {
			t.Fatalf("expected tick %d, got %d", i+1, state.Tick)
		}
	}

	for r.IsRunning() {
		select {
		case <-deadline:
			t.Fatal("runner did not stop at max ticks")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if k.Tick() != 3 {
		t.Fatalf("expected kernel at tick 3, got %d", k.Tick())
	}
}

func TestRunner_StartTwiceFails(t *testing.T) {
	k := newTestKernel(t)
	r, err := New(config.RunnerConfig{TickIntervalMS: 10}, k, nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_ = r.Stop(stopCtx)
	}()

	if err := r.Start(ctx); err == nil {
		t.Fatal("second Start must fail while running")
	}
}

func TestRunner_TeachSignalGroundsNextTick(t *testing.T) {
	k := newTestKernel(t)
	sb := bus.NewSnapshotBus()
	defer sb.Close()

	r, err := New(config.RunnerConfig{MaxTicks: 5, TickIntervalMS: 1}, k, sb, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	sb.PublishSignal(bus.Signal{Kind: bus.SignalTeach, Label: "A"})

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_ = r.Stop(stopCtx)
	}()

	subCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	state, ok := sb.SubscribeSnapshot(subCtx)
	cancel()
	if !ok {
		t.Fatal("missing first snapshot")
	}
	if state.Grounding == nil || state.Grounding.Label != "A" {
		t.Fatalf("teach signal must reach the kernel before the first tick, got %+v", state.Grounding)
	}
}

func TestRunner_StopHaltsLoop(t *testing.T) {
	k := newTestKernel(t)
	r, err := New(config.RunnerConfig{TickIntervalMS: 1}, k, nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if r.IsRunning() {
		t.Fatal("runner should not report running after Stop")
	}
}
