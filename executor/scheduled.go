package executor

import (
	"log/slog"
	"time"
)

// Scheduled wraps a Delegate with the ability to run a task once after
// a delay, or repeatedly on an interval, still capturing and applying
// a fresh snapshot at the moment each occurrence actually fires — not
// at the moment Schedule was called.
type Scheduled struct {
	*Executor
	logger *slog.Logger
}

// NewScheduled builds a Scheduled executor around delegate and
// provider. Pass a nil logger to use slog's default logger.
func NewScheduled(delegate Delegate, provider SnapshotProvider, logger *slog.Logger) *Scheduled {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduled{Executor: New(delegate, provider), logger: logger}
}

// Schedule runs fn once after delay, capturing the snapshot when the
// timer fires (so the ambient state observed is whatever is current
// at fire time, via provider — typically bound to the state present
// on whichever goroutine provider reads from). It returns a stop
// function that cancels the timer if it hasn't fired yet.
func (s *Scheduled) Schedule(delay time.Duration, fn func()) (stop func() bool) {
	timer := time.AfterFunc(delay, func() {
		s.Execute(fn)
	})
	return timer.Stop
}

// ScheduleAtFixedRate runs fn repeatedly every interval, each
// occurrence wrapped with a freshly captured snapshot, until stop is
// called. A panic raised synchronously by Execute itself (e.g. from a
// misbehaving provider) is logged and does not stop the ticker loop;
// a panic raised inside fn once it is actually running on the
// delegate is the delegate's own concern to recover from, since by
// then it is most likely executing on another goroutine.
func (s *Scheduled) ScheduleAtFixedRate(interval time.Duration, fn func()) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				ticker.Stop()
				return
			case <-ticker.C:
				s.runGuarded(fn)
			}
		}
	}()

	var stopped bool
	return func() {
		if stopped {
			return
		}
		stopped = true
		close(done)
	}
}

func (s *Scheduled) runGuarded(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("executor: scheduled occurrence panicked", "recovered", r)
		}
	}()
	s.Execute(fn)
}
