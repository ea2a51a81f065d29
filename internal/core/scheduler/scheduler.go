// Package scheduler runs named maintenance tasks on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Task is one scheduled unit of work.
type Task func(ctx context.Context) error

// Scheduler wraps a seconds-resolution cron. A task that is still running
// when its next tick arrives is skipped, and a panicking task is recovered.
type Scheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
	mu      sync.RWMutex
	timeout time.Duration
	ctx     context.Context
}

// New creates a scheduler; every task run gets ctx with the given timeout.
func New(ctx context.Context, timeout time.Duration) *Scheduler {
	logger := cronLogger{log.Logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
			cron.WithLogger(logger),
		),
		entries: make(map[string]cron.EntryID),
		timeout: timeout,
		ctx:     ctx,
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("tasks", len(s.Names())).Msg("⏰ Scheduler started")
}

// Stop prevents new runs and waits for running tasks to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("⏰ Scheduler stopped")
}

// Add schedules task under name, replacing any task with the same name.
// spec is a six-field cron expression (seconds first).
func (s *Scheduler) Add(name, spec string, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}

	id, err := s.cron.AddFunc(spec, func() { s.run(name, task) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}
	s.entries[name] = id
	log.Info().Str("task", name).Str("schedule", spec).Msg("✅ Scheduled task")
	return nil
}

func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
}

// Names lists scheduled task names in sorted order.
func (s *Scheduler) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Next returns the next run time of a task.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.RLock()
	id, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

func (s *Scheduler) run(name string, task Task) {
	ctx := s.ctx
	var cancel context.CancelFunc
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := task(ctx); err != nil {
		log.Error().Err(err).Str("task", name).Msg("❌ Scheduled task failed")
		return
	}
	log.Info().Str("task", name).Dur("elapsed", time.Since(start)).Msg("✅ Scheduled task done")
}

// cronLogger routes cron's internal logging to zerolog.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
