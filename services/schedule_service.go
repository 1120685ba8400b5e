package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"duomatch_server/logger"
	"duomatch_server/matching"

	"github.com/robfig/cron/v3"
)

// WeekRunner is the part of MatchService the schedule triggers
type WeekRunner interface {
	CurrentWeek() time.Time
	Run(ctx context.Context, week time.Time, force bool) (*matching.Result, error)
}

// ScheduleService runs the current week's matching on a cron spec, in UTC
type ScheduleService struct {
	runner  WeekRunner
	force   bool
	timeout time.Duration
	log     *logger.Logger
	cron    *cron.Cron
	entry   cron.EntryID
}

// NewScheduleService parses spec (standard five fields) and registers the weekly job
func NewScheduleService(spec string, runner WeekRunner, force bool, log *logger.Logger) (*ScheduleService, error) {
	s := &ScheduleService{
		runner:  runner,
		force:   force,
		timeout: 5 * time.Minute,
		log:     log,
		cron:    cron.New(cron.WithLocation(time.UTC)),
	}
	entry, err := s.cron.AddFunc(spec, s.RunOnce)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.entry = entry
	return s, nil
}

// Start starts the scheduler
func (s *ScheduleService) Start() {
	s.cron.Start()
	s.log.Info("Match schedule started", "next", s.Next())
}

// Stop stops the scheduler and waits for a running job to finish
func (s *ScheduleService) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Match schedule stopped")
}

// Next is the next time the job fires; zero before Start
func (s *ScheduleService) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// RunOnce matches the current week
func (s *ScheduleService) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	week := s.runner.CurrentWeek()
	_, err := s.runner.Run(ctx, week, s.force)
	switch {
	case errors.Is(err, matching.ErrWeekAlreadyMatched):
		s.log.Info("Scheduled run skipped, week already matched")
	case err != nil:
		s.log.Error("Scheduled matching run failed", "error", err)
	}
}
