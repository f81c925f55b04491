package etl

import (
	"context"
	"fmt"
	"time"

	"movieflix/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// Report summarises one pipeline run.
type Report struct {
	RunID     string
	Movies    int
	Credits   int
	Matched   int
	Loaded    int64
	StartedAt time.Time
	Duration  time.Duration
}

// Pipeline runs extract, transform, load and view build as one offline pass.
type Pipeline struct {
	source    Source
	warehouse biz.WarehouseRepo
	views     *biz.ViewUseCase
	logger    log.Logger
}

// NewPipeline creates a Pipeline
func NewPipeline(source Source, warehouse biz.WarehouseRepo, views *biz.ViewUseCase, logger log.Logger) *Pipeline {
	return &Pipeline{
		source:    source,
		warehouse: warehouse,
		views:     views,
		logger:    logger,
	}
}

// Run executes the job. Re-running it on the same input yields the same
// warehouse content because the load replaces the whole table.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run ID: %w", err)
	}
	report := &Report{RunID: runID.String(), StartedAt: time.Now()}
	l := log.NewHelper(log.With(p.logger, "run_id", report.RunID))

	l.Info("extract: reading sources")
	movies, err := p.source.ReadMovies(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract movies: %w", err)
	}
	credits, err := p.source.ReadCredits(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract credits: %w", err)
	}
	report.Movies = len(movies)
	report.Credits = len(credits)

	merged := Merge(movies, credits)
	for i := range merged {
		if merged[i].Credits != nil {
			report.Matched++
		}
	}
	l.Infof("transform: merged %d movies, %d with credits", len(merged), report.Matched)

	rows := Project(merged)
	loaded, err := p.warehouse.ReplaceAll(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	report.Loaded = loaded
	l.Infof("load: replaced warehouse with %d rows", loaded)

	if err := p.views.BuildViews(ctx); err != nil {
		return nil, fmt.Errorf("views: %w", err)
	}
	l.Infof("views: ensured %d materialized views", len(biz.Views))

	// Views that survived from an earlier run still hold the old table.
	res := p.views.RefreshAll(ctx)
	if !res.Refreshed() {
		return nil, fmt.Errorf("views: refresh after load: %w", res.Err)
	}
	l.Infof("views: refreshed (%s)", res.Mode)

	report.Duration = time.Since(report.StartedAt)
	l.Infof("done in %s", report.Duration)
	return report, nil
}
