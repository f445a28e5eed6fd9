package scheduler

import (
	"context"
	"time"

	"vigil/internal/logger"
)

// FixedDelayScheduler runs a task sequentially, waiting Interval after each
// completion before starting the next run. Ticks therefore never overlap: a
// slow tick pushes the next one out instead of stacking up behind it.
type FixedDelayScheduler struct {
	Interval       time.Duration
	RunImmediately bool
	Name           string

	ctx   context.Context
	nowFn func() time.Time
}

func NewFixedDelayScheduler(ctx context.Context, interval time.Duration) *FixedDelayScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &FixedDelayScheduler{
		Interval: interval,
		ctx:      ctx,
		nowFn:    time.Now,
	}
}

// Start blocks until the context is cancelled, running task once per cycle.
func (s *FixedDelayScheduler) Start(task func()) {
	if s == nil {
		return
	}
	if task == nil {
		logger.Warnf("scheduler %s: task is nil, exit", s.Name)
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("scheduler %s: invalid interval=%s, exit", s.Name, s.Interval)
		return
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}

	startAt := s.nowFn().UTC()
	logger.Infof("scheduler %s: started interval=%s run_immediately=%v at=%s",
		s.Name, s.Interval, s.RunImmediately, startAt.Format(time.RFC3339))

	if s.RunImmediately {
		task()
	}

	for {
		timer := time.NewTimer(s.Interval)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			logger.Infof("scheduler %s: ctx done, exit", s.Name)
			return
		case <-timer.C:
		}
		began := s.nowFn()
		task()
		logger.Debugf("scheduler %s: run complete duration=%s uptime=%s",
			s.Name, s.nowFn().Sub(began).Truncate(time.Millisecond),
			s.nowFn().UTC().Sub(startAt).Truncate(time.Second))
	}
}
