package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Janitor purges expired browser sessions on a cron schedule.
type Janitor struct {
	backend Backend
	cron    *cron.Cron
	logger  zerolog.Logger
	now     func() time.Time
	// OnPurge, if set, is called with the number of sessions removed.
	OnPurge func(n int64)
}

// NewJanitor schedules purges of backend. schedule accepts standard
// five-field cron expressions and descriptors such as "@every 1h".
func NewJanitor(backend Backend, schedule string, logger zerolog.Logger) (*Janitor, error) {
	j := &Janitor{
		backend: backend,
		cron:    cron.New(),
		logger:  logger.With().Str("component", "janitor").Logger(),
		now:     time.Now,
	}
	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start runs the schedule in the background.
func (j *Janitor) Start() {
	j.cron.Start()
	j.logger.Info().Msg("Session janitor started")
}

// Stop halts the schedule and waits for a running purge to finish or ctx
// to expire.
func (j *Janitor) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// PurgeNow runs one purge synchronously.
func (j *Janitor) PurgeNow(ctx context.Context) (int64, error) {
	n, err := j.backend.PurgeExpired(ctx, j.now())
	if err != nil {
		return 0, err
	}
	if j.OnPurge != nil {
		j.OnPurge(n)
	}
	return n, nil
}

func (j *Janitor) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := j.PurgeNow(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("Failed to purge expired sessions")
		return
	}
	if n > 0 {
		j.logger.Info().Int64("purged", n).Msg("Purged expired sessions")
	}
}
