package server

import (
	"context"
	"fmt"
	"time"

	"movieflix/internal/biz"
	"movieflix/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// refreshTimeout bounds one scheduled refresh run.
const refreshTimeout = 5 * time.Minute

// RefreshScheduler runs the materialized view refresh on a cron schedule.
// It implements transport.Server so it shares the app lifecycle with the
// HTTP server. An empty schedule turns it into a no-op.
type RefreshScheduler struct {
	cron     *cron.Cron
	schedule string
	views    *biz.ViewUseCase
	log      *log.Helper
}

// NewRefreshScheduler creates a scheduler for the configured cron expression, which
// accepts an optional leading seconds field.
func NewRefreshScheduler(c *conf.Refresh, views *biz.ViewUseCase, logger log.Logger) (*RefreshScheduler, error) {
	s := &RefreshScheduler{
		views: views,
		log:   log.NewHelper(logger),
	}
	if c == nil || c.Schedule == "" {
		return s, nil
	}

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Schedule); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", c.Schedule, err)
	}
	cl := cronLogger{log.NewHelper(log.With(logger, "component", "cron"))}
	s.schedule = c.Schedule
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return s, nil
}

// Start registers the refresh job and starts the scheduler.
func (s *RefreshScheduler) Start(ctx context.Context) error {
	if s.cron == nil {
		s.log.Info("materialized view refresh schedule disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, func() { s.run(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Infof("materialized view refresh scheduled: %s", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (s *RefreshScheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *RefreshScheduler) run(ctx context.Context) {
	rctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	res := s.views.RefreshAll(rctx)
	if !res.Refreshed() {
		s.log.Errorf("scheduled refresh failed: %v", res.Err)
		return
	}
	s.log.Infof("scheduled refresh done, mode=%s", res.Mode)
}

// cronLogger adapts a kratos helper to cron.Logger
type cronLogger struct {
	h *log.Helper
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.h.Debugw(append([]interface{}{"msg", msg}, keysAndValues...)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.h.Errorw(append([]interface{}{"msg", msg, "error", err}, keysAndValues...)...)
}
