package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

type TaskFunc func(ctx context.Context) error

// Interval может зависеть от режима (low balance), поэтому функция.
type Interval func() time.Duration

func Every(d time.Duration) Interval { return func() time.Duration { return d } }

type Task struct {
	Name     string
	Interval Interval
	LastRun  time.Time
	Fn       TaskFunc
}

// Scheduler — единственный поток, принимающий торговые решения.
// Задачи выполняются последовательно в порядке регистрации.
type Scheduler struct {
	tick    time.Duration
	running func() bool
	tasks   []*Task
	log     *zap.Logger
	now     func() time.Time
}

func NewScheduler(tick time.Duration, running func() bool, log *zap.Logger) *Scheduler {
	if tick <= 0 {
		tick = time.Second
	}
	return &Scheduler{
		tick:    tick,
		running: running,
		log:     log.Named("scheduler"),
		now:     time.Now,
	}
}

// Register: первый запуск через один интервал после регистрации.
func (s *Scheduler) Register(name string, every Interval, fn TaskFunc) {
	s.tasks = append(s.tasks, &Task{Name: name, Interval: every, LastRun: s.now(), Fn: fn})
}

func (s *Scheduler) Tasks() []Task {
	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	return out
}

// Tick запускает все просроченные задачи. Возвращает число запущенных.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	ran := 0
	for _, t := range s.tasks {
		if !s.running() || ctx.Err() != nil {
			return ran
		}
		if now.Sub(t.LastRun) < t.Interval() {
			continue
		}
		s.run(ctx, t)
		t.LastRun = now
		ran++
	}
	return ran
}

func (s *Scheduler) run(ctx context.Context, t *Task) {
	start := s.now()
	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("[SCHEDULER] task panic",
					zap.String("task", t.Name),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				err = fmt.Errorf("task %s panicked: %v", t.Name, rec)
			}
		}()
		return t.Fn(ctx)
	}()
	if err != nil {
		s.log.Warn("[SCHEDULER] task failed", zap.String("task", t.Name), zap.Error(err))
		return
	}
	s.log.Debug("[SCHEDULER] task done", zap.String("task", t.Name), zap.Duration("took", s.now().Sub(start)))
}

// Run тикает до отмены контекста или остановки торговли.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.log.Info("[SCHEDULER] started", zap.Int("tasks", len(s.tasks)), zap.Duration("tick", s.tick))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("[SCHEDULER] context done")
			return
		case <-ticker.C:
			if !s.running() {
				s.log.Warn("[SCHEDULER] trading stopped, driver exits")
				return
			}
			s.Tick(ctx, s.now())
		}
	}
}
