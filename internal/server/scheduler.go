package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/dbauto/orgchart/pkg/config"
	"github.com/dbauto/orgchart/pkg/errors"
)

// RefreshFunc performs one directory refresh.
type RefreshFunc func(ctx context.Context) error

// Scheduler runs the nightly refresh and serves manual triggers. Manual
// triggers coalesce: a trigger while a refresh is running returns the
// running job instead of queueing another fetch against the provider.
type Scheduler struct {
	refresh RefreshFunc
	logger  *log.Logger
	cron    *cron.Cron

	mu         sync.Mutex
	running    bool
	currentJob string
	lastRun    time.Time
	lastErr    error
}

// NewScheduler prepares the scheduler; Start arms the cron entry.
func NewScheduler(refresh RefreshFunc, logger *log.Logger) *Scheduler {
	return &Scheduler{refresh: refresh, logger: logger}
}

// Start schedules the nightly refresh per cfg. Disabled refresh leaves
// manual triggers available but arms no timer.
func (s *Scheduler) Start(cfg config.RefreshConfig) error {
	if !cfg.Enabled {
		s.logger.Info("scheduled refresh disabled")
		return nil
	}
	if err := errors.ValidateUpdateTime(cfg.Time); err != nil {
		return err
	}

	loc := time.Local
	if cfg.Timezone != "" && cfg.Timezone != "Local" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSettings, err, "invalid timezone %q", cfg.Timezone)
		}
	}

	var hh, mm int
	fmt.Sscanf(cfg.Time, "%d:%d", &hh, &mm)
	spec := fmt.Sprintf("%d %d * * *", mm, hh)

	s.cron = cron.New(cron.WithLocation(loc))
	if _, err := s.cron.AddFunc(spec, func() {
		id, started := s.Trigger(context.Background())
		if started {
			s.logger.Info("scheduled refresh started", "job", id)
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("scheduled refresh armed", "at", cfg.Time, "tz", loc.String())
	return nil
}

// Stop halts the cron timer. A refresh already in flight finishes.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Trigger starts a refresh unless one is already running. It returns the
// job ID and whether a new job was started; when coalesced the returned
// ID is the running job's.
func (s *Scheduler) Trigger(ctx context.Context) (string, bool) {
	s.mu.Lock()
	if s.running {
		id := s.currentJob
		s.mu.Unlock()
		return id, false
	}
	id := uuid.NewString()
	s.running = true
	s.currentJob = id
	s.mu.Unlock()

	go func() {
		err := s.refresh(ctx)

		s.mu.Lock()
		s.running = false
		s.lastRun = time.Now()
		s.lastErr = err
		s.mu.Unlock()

		if err != nil {
			s.logger.Error("refresh failed", "job", id, "err", err)
		} else {
			s.logger.Info("refresh finished", "job", id)
		}
	}()
	return id, true
}

// Status reports the scheduler state for the health endpoint.
func (s *Scheduler) Status() (running bool, lastRun time.Time, lastErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running, s.lastRun, s.lastErr
}
