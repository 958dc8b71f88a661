package bus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dotsetgreg/mindgrid/pkg/mind"
)

// SignalKind classifies an inbound signal to the kernel.
type SignalKind string

const (
	SignalTeach           SignalKind = "teach"
	SignalAsk             SignalKind = "ask"
	SignalTeachTrajectory SignalKind = "teach_trajectory"
	SignalAskTrajectory   SignalKind = "ask_trajectory"
	SignalStop            SignalKind = "stop"
)

// Signal is one inbound request from a host (REPL, runner, experiment)
// to the kernel's control loop.
type Signal struct {
	Kind  SignalKind
	Label string
}

// SnapshotBus decouples the kernel's tick loop from whoever consumes
// its state snapshots. Snapshots flow outbound, signals flow inbound;
// neither direction may block the tick loop, so a full buffer drops
// after a short grace period and counts the drop.
type SnapshotBus struct {
	signals   chan Signal
	snapshots chan mind.MindState
	closed    bool
	dropped   droppedCounters
	mu        sync.RWMutex
}

type droppedCounters struct {
	signals   atomic.Uint64
	snapshots atomic.Uint64
}

const publishTimeout = 100 * time.Millisecond

func NewSnapshotBus() *SnapshotBus {
	return &SnapshotBus{
		signals:   make(chan Signal, 100),
		snapshots: make(chan mind.MindState, 100),
	}
}

// PublishSignal enqueues an inbound signal for the kernel.
func (sb *SnapshotBus) PublishSignal(sig Signal) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	if sb.closed {
		return
	}

	select {
	case sb.signals <- sig:
	default:
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case sb.signals <- sig:
		case <-timer.C:
			sb.dropped.signals.Add(1)
		}
	}
}

// ConsumeSignal blocks until a signal arrives, the context ends, or
// the bus closes.
func (sb *SnapshotBus) ConsumeSignal(ctx context.Context) (Signal, bool) {
	select {
	case sig, ok := <-sb.signals:
		if !ok {
			return Signal{}, false
		}
		return sig, true
	case <-ctx.Done():
		return Signal{}, false
	}
}

// TrySignal is the non-blocking consume used inside the tick loop.
func (sb *SnapshotBus) TrySignal() (Signal, bool) {
	select {
	case sig, ok := <-sb.signals:
		if !ok {
			return Signal{}, false
		}
		return sig, true
	default:
		return Signal{}, false
	}
}

// PublishSnapshot enqueues the per-tick state for consumers.
func (sb *SnapshotBus) PublishSnapshot(state mind.MindState) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	if sb.closed {
		return
	}

	select {
	case sb.snapshots <- state:
	default:
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case sb.snapshots <- state:
		case <-timer.C:
			sb.dropped.snapshots.Add(1)
		}
	}
}

// SubscribeSnapshot blocks until a snapshot arrives, the context ends,
// or the bus closes.
func (sb *SnapshotBus) SubscribeSnapshot(ctx context.Context) (mind.MindState, bool) {
	select {
	case state, ok := <-sb.snapshots:
		if !ok {
			return mind.MindState{}, false
		}
		return state, true
	case <-ctx.Done():
		return mind.MindState{}, false
	}
}

func (sb *SnapshotBus) Close() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.closed {
		return
	}
	sb.closed = true
	close(sb.signals)
	close(sb.snapshots)
}

func (sb *SnapshotBus) DroppedSignals() uint64 {
	return sb.dropped.signals.Load()
}

func (sb *SnapshotBus) DroppedSnapshots() uint64 {
	return sb.dropped.snapshots.Load()
}
