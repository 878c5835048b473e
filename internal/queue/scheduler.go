package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Scheduler flushes a Queue on a cron schedule and whenever a
// connectivity-restored signal arrives for its tag.
type Scheduler struct {
	q        *Queue
	d        Deliverer
	schedule cron.Schedule
	signals  chan struct{}
}

// NewScheduler parses expr and returns a Scheduler. An empty expr disables
// the periodic flush; signals still trigger one.
func NewScheduler(q *Queue, d Deliverer, expr string) (*Scheduler, error) {
	s := &Scheduler{q: q, d: d, signals: make(chan struct{}, 1)}
	if expr != "" {
		sched, err := cronParser.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("queue: parse schedule %q: %w", expr, err)
		}
		s.schedule = sched
	}
	return s, nil
}

// Signal requests a flush. Only the queue's own tag triggers one; other
// tags report false. Signals arriving while a flush is pending coalesce.
func (s *Scheduler) Signal(tag string) bool {
	if tag != s.q.Tag() {
		return false
	}
	select {
	case s.signals <- struct{}{}:
	default:
	}
	return true
}

// Run flushes on schedule and on signal until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	var timer *time.Timer
	if d := s.next(); d > 0 {
		timer = time.NewTimer(d)
		defer timer.Stop()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.signals:
			s.flush(ctx, "signal")
		case <-timerChan(timer):
			s.flush(ctx, "schedule")
			if d := s.next(); d > 0 {
				timer.Reset(d)
			}
		}
	}
}

func (s *Scheduler) flush(ctx context.Context, reason string) {
	res, err := s.q.Flush(ctx, s.d)
	if err != nil {
		log.Printf("queue: %s flush: %v", reason, err)
		return
	}
	if res.Delivered > 0 || res.Failed > 0 {
		log.Printf("queue: %s flush: %d delivered, %d failed", reason, res.Delivered, res.Failed)
	}
}

// next returns the duration until the next scheduled flush, or 0 if none.
func (s *Scheduler) next() time.Duration {
	if s.schedule == nil {
		return 0
	}
	d := time.Until(s.schedule.Next(time.Now()))
	if d < 0 {
		return 0
	}
	return d
}

// timerChan returns the timer's channel, or nil if the timer is nil.
func timerChan(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}
