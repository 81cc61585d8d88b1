package diagnostics

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// retentionSchedule runs the purge nightly, off-peak.
const retentionSchedule = "30 3 * * *"

// Retention purges old integration log entries on a cron schedule.
type Retention struct {
	service *Service
	window  time.Duration
	logger  *slog.Logger
	cron    *cron.Cron
}

// NewRetention creates a retention job keeping the given number of days.
func NewRetention(log *slog.Logger, service *Service, days int) *Retention {
	if log == nil {
		log = slog.Default()
	}
	if days <= 0 {
		days = 30
	}
	return &Retention{
		service: service,
		window:  time.Duration(days) * 24 * time.Hour,
		logger:  log.With(slog.String("service", "diagnostics_retention")),
		cron:    cron.New(),
	}
}

// Start schedules the nightly purge.
func (r *Retention) Start() error {
	_, err := r.cron.AddFunc(retentionSchedule, r.run)
	if err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running purge to finish.
func (r *Retention) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Retention) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := r.service.Purge(ctx, r.window)
	if err != nil {
		r.logger.Error("retention purge failed", slog.String("error", err.Error()))
		return
	}
	if removed > 0 {
		r.logger.Info("purged integration logs", slog.Int64("removed", removed))
	}
}
