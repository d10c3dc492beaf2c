package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SchedulerService wraps cron-based jobs.
type SchedulerService struct {
	cron *cron.Cron
	log  zerolog.Logger
}

func NewSchedulerService(loc *time.Location, log zerolog.Logger) *SchedulerService {
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// ScheduleInterval registers job to run every interval. Each run gets its own
// context bounded by timeout; failures are logged, not propagated.
func (s *SchedulerService) ScheduleInterval(name string, interval, timeout time.Duration, job func(ctx context.Context) error) (cron.EntryID, error) {
	spec, err := intervalSpec(interval)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		started := time.Now()
		if err := job(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error().Err(err).Str("job", name).Msg("scheduled job failed")
			return
		}
		s.log.Debug().Str("job", name).Dur("took", time.Since(started)).Msg("scheduled job done")
	})
}

func intervalSpec(interval time.Duration) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return fmt.Sprintf("@every %ds", seconds), nil
}
