// Package scheduler runs the periodic maintenance tasks (job expiry sweep,
// external job import) on robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"educonnect/placement-service/internal/logging"
)

// Task is one scheduled unit of work.
type Task struct {
	Name string
	Spec string // cron spec, e.g. "@every 6h"
	Run  func(ctx context.Context) error
}

// Scheduler wraps robfig/cron. Overlapping runs of the same task are
// skipped.
type Scheduler struct {
	cron  *cron.Cron
	log   *logging.Logger
	tasks []Task
}

// New creates an empty Scheduler.
func New(log *logging.Logger) *Scheduler {
	l := log.With("component", "scheduler")
	cl := cronLogger{l}
	return &Scheduler{
		cron: cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		log:  l,
	}
}

// Add registers t. A task with an empty Spec is ignored so a deployment can
// switch it off.
func (s *Scheduler) Add(t Task) {
	if t.Spec == "" {
		s.log.Info("task disabled", "task", t.Name)
		return
	}
	s.tasks = append(s.tasks, t)
}

// Start registers every task and starts the scheduler. It also runs each
// task once immediately so state is fresh without waiting for the first
// tick.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, t := range s.tasks {
		if _, err := s.cron.AddFunc(t.Spec, func() { s.run(ctx, t) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", t.Name, t.Spec, err)
		}
	}

	s.cron.Start()
	s.log.Info("cron started", "tasks", len(s.tasks))

	for _, t := range s.tasks {
		go s.run(ctx, t)
	}
	return nil
}

// Stop halts the scheduler and waits for running tasks to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("cron stopped")
}

func (s *Scheduler) run(ctx context.Context, t Task) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := t.Run(ctx); err != nil {
		s.log.Error("task failed", "task", t.Name, "err", err)
		return
	}
	s.log.Debug("task done", "task", t.Name, "dur", time.Since(start))
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct{ l *logging.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "err", err)...)
}
