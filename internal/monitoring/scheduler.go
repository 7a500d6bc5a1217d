package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/anon-messaging-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const pruneTimeout = 30 * time.Second

// Scheduler runs periodic housekeeping. It only ever touches the audit
// trail; users and messages are never pruned.
type Scheduler struct {
	eventSvc  services.EventServiceProvider
	retention time.Duration
	cron      *cron.Cron
	now       func() time.Time
}

// NewScheduler creates a scheduler that prunes events older than retention
// on the given cron schedule (standard five-field syntax or descriptors such
// as @daily).
func NewScheduler(eventSvc services.EventServiceProvider, schedule string, retention time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		eventSvc:  eventSvc,
		retention: retention,
		cron:      cron.New(),
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, s.pruneEvents); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Run starts the scheduler in its own goroutine.
func (s *Scheduler) Run() {
	log.Info().Dur("retention", s.retention).Msg("Starting background scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped background scheduler")
}

// pruneEvents deletes audit events older than the retention window.
func (s *Scheduler) pruneEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	removed, err := s.eventSvc.PruneEventsBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Time("cutoff", cutoff).Msg("Scheduler: failed to prune events")
		return
	}
	log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("Scheduler: pruned events")
}
