// Package jobs runs the periodic maintenance tasks.
package jobs

import (
	"context"
	"time"

	"petopia/models"
	"petopia/service"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	WarmAnalyticsSpec = "@every 5m"
	PurgeTokensSpec   = "@hourly"

	jobTimeout = time.Minute
)

type SummaryWarmer interface {
	Summary(ctx context.Context, r service.Range) (models.DashboardSummary, error)
}

type TokenPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type Scheduler struct {
	sched  *cron.Cron
	warmer SummaryWarmer
	purger TokenPurger
	now    func() time.Time
}

func New(warmer SummaryWarmer, purger TokenPurger) (*Scheduler, error) {
	s := &Scheduler{
		sched:  cron.New(cron.WithLocation(time.UTC), cron.WithParser(cronParser)),
		warmer: warmer,
		purger: purger,
		now:    time.Now,
	}
	if _, err := s.sched.AddFunc(WarmAnalyticsSpec, s.WarmAnalytics); err != nil {
		return nil, err
	}
	if _, err := s.sched.AddFunc(PurgeTokensSpec, s.PurgeTokens); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	zap.L().Info("scheduler started", zap.Int("jobs", len(s.sched.Entries())))
}

// Stop halts the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.sched.Stop().Done():
	case <-ctx.Done():
		zap.L().Warn("scheduler stop timed out")
	}
}

// WarmAnalytics loads the unbounded dashboard summary so the first admin
// page view after an invalidation does not pay for the aggregation.
func (s *Scheduler) WarmAnalytics() {
	defer recoverJob("warm analytics")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if _, err := s.warmer.Summary(ctx, service.Range{}); err != nil {
		zap.L().Error("warm analytics failed", zap.Error(err))
		return
	}
	zap.L().Debug("analytics warmed", zap.Duration("took", time.Since(start)))
}

// PurgeTokens deletes blacklist entries whose tokens have expired.
func (s *Scheduler) PurgeTokens() {
	defer recoverJob("purge tokens")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.purger.PurgeExpired(ctx, s.now().UTC())
	if err != nil {
		zap.L().Error("purge expired tokens failed", zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Info("purged expired tokens", zap.Int64("count", n))
	}
}

func recoverJob(name string) {
	if err := recover(); err != nil {
		zap.L().Error("job panicked", zap.String("job", name), zap.Any("panic", err))
	}
}
