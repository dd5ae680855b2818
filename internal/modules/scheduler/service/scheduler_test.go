package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var t0 = time.Unix(1_700_000_000, 0)

func newTestScheduler(running *atomic.Bool) *Scheduler {
	s := NewScheduler(time.Millisecond, running.Load, zap.NewNop())
	s.now = func() time.Time { return t0 }
	return s
}

func TestTickRunsDueTasksInOrder(t *testing.T) {
	var running atomic.Bool
	running.Store(true)
	s := newTestScheduler(&running)

	var order []string
	s.Register("fast", Every(10*time.Second), func(context.Context) error { order = append(order, "fast"); return nil })
	s.Register("slow", Every(60*time.Second), func(context.Context) error { order = append(order, "slow"); return nil })
	s.Register("mid", Every(30*time.Second), func(context.Context) error { order = append(order, "mid"); return nil })

	assert.Equal(t, 0, s.Tick(context.Background(), t0.Add(5*time.Second)))
	assert.Equal(t, 1, s.Tick(context.Background(), t0.Add(10*time.Second)))
	assert.Equal(t, 3, s.Tick(context.Background(), t0.Add(70*time.Second)))
	assert.Equal(t, []string{"fast", "fast", "slow", "mid"}, order)
}

func TestTickSurvivesErrorsAndPanics(t *testing.T) {
	var running atomic.Bool
	running.Store(true)
	s := newTestScheduler(&running)

	after := 0
	s.Register("fails", Every(time.Second), func(context.Context) error { return errors.New("boom") })
	s.Register("panics", Every(time.Second), func(context.Context) error { panic("oops") })
	s.Register("after", Every(time.Second), func(context.Context) error { after++; return nil })

	now := t0.Add(time.Second)
	assert.Equal(t, 3, s.Tick(context.Background(), now))
	assert.Equal(t, 1, after)
	for _, task := range s.Tasks() {
		assert.Equal(t, now, task.LastRun, task.Name)
	}
	assert.Equal(t, 0, s.Tick(context.Background(), now.Add(500*time.Millisecond)))
}

func TestTickStopsWhenTradingStops(t *testing.T) {
	var running atomic.Bool
	running.Store(true)
	s := newTestScheduler(&running)

	second := false
	s.Register("stopper", Every(time.Second), func(context.Context) error { running.Store(false); return nil })
	s.Register("second", Every(time.Second), func(context.Context) error { second = true; return nil })

	assert.Equal(t, 1, s.Tick(context.Background(), t0.Add(time.Second)))
	assert.False(t, second)
}

func TestDynamicInterval(t *testing.T) {
	var running atomic.Bool
	running.Store(true)
	s := newTestScheduler(&running)

	fast := false
	runs := 0
	s.Register("tier", func() time.Duration {
		if fast {
			return 15 * time.Second
		}
		return 30 * time.Second
	}, func(context.Context) error { runs++; return nil })

	s.Tick(context.Background(), t0.Add(15*time.Second))
	assert.Equal(t, 0, runs)
	fast = true
	s.Tick(context.Background(), t0.Add(15*time.Second))
	assert.Equal(t, 1, runs)
}

func TestRunExitsWhenNotRunning(t *testing.T) {
	var running atomic.Bool
	running.Store(false)
	s := NewScheduler(time.Millisecond, running.Load, zap.NewNop())

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit")
	}
}

func TestRunExitsOnContextCancel(t *testing.T) {
	var running atomic.Bool
	running.Store(true)
	s := NewScheduler(time.Millisecond, running.Load, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit")
	}
}
