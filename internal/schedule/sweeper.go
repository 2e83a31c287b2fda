// Package schedule auto-starts pending launches whose launch date has
// arrived. A cron-driven sweep lists due launches and hands each one to the
// workflow manager; launches without a launch date are never swept.
package schedule

import (
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/launchforge/launch-orchestrator/internal/domain"
)

// Starter dispatches a launch run. Start must reject launches that are not
// pending, so a sweep racing a manual start is harmless.
type Starter interface {
	Start(launchID string) error
}

// LaunchSource lists launches whose scheduled date has passed
type LaunchSource interface {
	ListDue(now time.Time) ([]*domain.Launch, error)
}

// Sweeper runs the periodic sweep
type Sweeper struct {
	source  LaunchSource
	starter Starter
	sched   cron.Schedule

	mu       sync.Mutex
	lastRun  time.Time
	stopChan chan struct{}
	stopOnce sync.Once

	now func() time.Time
}

// NewSweeper creates a Sweeper firing on the given cron expression.
// Standard five-field expressions and descriptors like "@every 1m" are
// accepted.
func NewSweeper(source LaunchSource, starter Starter, cronExpr string) (*Sweeper, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, err
	}

	return &Sweeper{
		source:   source,
		starter:  starter,
		sched:    sched,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}, nil
}

// SweepOnce starts every due pending launch and returns how many were
// started. A launch that lost the race to a manual start is skipped, not an
// error.
func (s *Sweeper) SweepOnce() (int, error) {
	now := s.now()
	due, err := s.source.ListDue(now)
	if err != nil {
		return 0, err
	}

	started := 0
	for _, l := range due {
		if err := s.starter.Start(l.ID); err != nil {
			log.Printf("sweep: launch %s not started: %v", l.ID, err)
			continue
		}
		log.Printf("sweep: launch %s (%s) started on schedule", l.ID, l.Name)
		started++
	}

	s.mu.Lock()
	s.lastRun = now
	s.mu.Unlock()

	return started, nil
}

// NextRun returns the next time the sweep will fire
func (s *Sweeper) NextRun() time.Time {
	return s.sched.Next(s.now())
}

// LastRun returns when the last sweep ran, zero if none has
func (s *Sweeper) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// Run blocks, sweeping on the cron schedule until Stop is called
func (s *Sweeper) Run() {
	for {
		next := s.sched.Next(s.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.SweepOnce(); err != nil {
				log.Printf("sweep failed: %v", err)
			}
		}
	}
}

// Stop terminates the Run loop
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}
