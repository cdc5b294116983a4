package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/feedhq/feedmanager/internal/task"
)

type countingGenerator struct {
	calls atomic.Int32
	block chan struct{} // when non-nil, GenerateAll blocks until closed
}

func (g *countingGenerator) GenerateAll(ctx context.Context) error {
	g.calls.Add(1)
	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
		}
	}
	return nil
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	gen := &countingGenerator{}
	runner := task.NewRunner(gen, nil, nil)
	sched := New(20*time.Millisecond, runner, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for gen.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 runs, got %d", gen.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	gen := &countingGenerator{block: make(chan struct{})}
	runner := task.NewRunner(gen, nil, nil)
	sched := New(10*time.Millisecond, runner, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Start(ctx)

	// Give several ticks a chance to fire while the first run is blocked.
	time.Sleep(100 * time.Millisecond)
	if got := gen.calls.Load(); got != 1 {
		t.Errorf("expected a single in-flight run, got %d", got)
	}
	close(gen.block)
}
