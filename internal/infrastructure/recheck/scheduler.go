// Package recheck schedules deferred grant re-confirmation.
package recheck

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/permgate-dev/permgate/internal/domain/capabilities"
)

// Scheduler arms a one-shot timer that invokes a callback after a fixed
// delay. Re-arming while a recheck is pending is a no-op, so at most one
// recheck is ever outstanding.
type Scheduler struct {
	delay    time.Duration
	callback func()
	logger   *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

var _ capabilities.DeferredRecheckScheduler = (*Scheduler)(nil)

// NewScheduler creates a scheduler. The callback runs on the timer's
// goroutine once the delay elapses.
func NewScheduler(delay time.Duration, callback func(), logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		delay:    delay,
		callback: callback,
		logger:   logger,
	}
}

// ScheduleSoon arms the recheck timer unless one is already pending.
func (s *Scheduler) ScheduleSoon(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		return
	}

	s.logger.Debug("recheck scheduled", "delay", s.delay)
	s.timer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		s.timer = nil
		s.mu.Unlock()

		if s.callback != nil {
			s.callback()
		}
	})
}

// Stop cancels a pending recheck, if any.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Recorder counts schedule requests without arming timers.
type Recorder struct {
	mu    sync.Mutex
	count int
}

var _ capabilities.DeferredRecheckScheduler = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// ScheduleSoon counts the request.
func (r *Recorder) ScheduleSoon(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
}

// Count returns how many times a recheck was requested.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
