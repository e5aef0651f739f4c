// Package sweeper periodically moves unpaid pending payments past their due
// date to overdue.
package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Dan9191/payplanner/internal/money"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultSchedule runs the sweep once a minute
const DefaultSchedule = "@every 1m"

// Store performs the bulk status update. All qualifying rows must change in
// one transaction.
type Store interface {
	MarkOverdue(ctx context.Context, today time.Time) (int64, error)
}

// Clock returns the current time in the business time zone
type Clock func() time.Time

// Sweeper runs the overdue correction on a cron schedule
type Sweeper struct {
	store Store
	now   Clock
	log   *logrus.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// New creates a sweeper. A nil clock uses time.Now.
func New(store Store, now Clock, log *logrus.Logger) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{store: store, now: now, log: log}
}

// Tick runs a single sweep. Errors are logged and returned; they never stop
// later ticks.
func (s *Sweeper) Tick(ctx context.Context) (int64, error) {
	today := money.Date(s.now())
	entry := s.log.WithField("today", today.Format("2006-01-02"))

	n, err := s.store.MarkOverdue(ctx, today)
	if err != nil {
		entry.WithError(err).Error("Overdue sweep failed")
		return 0, err
	}
	if n > 0 {
		entry.WithField("updated", n).Info("Marked payments overdue")
	} else {
		entry.Debug("No payments became overdue")
	}
	return n, nil
}

// Start parses a cron spec such as "@every 1m" or "*/5 * * * *" and starts
// the sweep in the background.
func (s *Sweeper) Start(ctx context.Context, spec string) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return s.StartSchedule(ctx, schedule)
}

// StartSchedule starts the sweep on an already built schedule. Ticks run on a
// context that keeps the values of ctx but is never cancelled, so a running
// tick always completes; use Stop to end the loop.
func (s *Sweeper) StartSchedule(ctx context.Context, schedule cron.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("sweeper already started")
	}

	logger := cron.PrintfLogger(s.log)
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	tickCtx := context.WithoutCancel(ctx)
	c.Schedule(schedule, cron.FuncJob(func() {
		_, _ = s.Tick(tickCtx)
	}))
	c.Start()
	s.cron = c

	s.log.Info("Overdue sweeper started")
	return nil
}

// Stop halts the schedule and waits for a tick in progress to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.log.Info("Overdue sweeper stopped")
}
