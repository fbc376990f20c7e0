package engine

import (
	"context"
	"time"

	"github.com/aicity/aicity/internal/decision"
)

// Scheduler drives City.RunDay on a cadence, grounded on the teacher's
// internal/engine/tick.go Engine/Run/step loop, collapsed from a
// minute-granular Tick counter down to one call per simulated day (AIcity's
// day is itself decomposed into eight phases by City.RunDay, so no
// additional sub-day callback layering is needed here).
type Scheduler struct {
	City     *City
	Pool     *decision.Pool
	Interval time.Duration
	OnDay    func(day int, err error)

	running bool
	stop    chan struct{}
}

// NewScheduler constructs a Scheduler for city, firing one day every
// interval through pool.
func NewScheduler(city *City, pool *decision.Pool, interval time.Duration) *Scheduler {
	return &Scheduler{City: city, Pool: pool, Interval: interval, stop: make(chan struct{})}
}

// Run blocks, advancing one day every Interval until ctx is cancelled or
// Stop is called.
func (s *Scheduler) Run(ctx context.Context) {
	s.running = true
	defer func() { s.running = false }()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			err := s.City.RunDay(ctx, s.Pool)
			if s.OnDay != nil {
				s.OnDay(s.City.Day, err)
			}
		}
	}
}

// Stop halts a running scheduler.
func (s *Scheduler) Stop() {
	if s.running {
		close(s.stop)
	}
}
