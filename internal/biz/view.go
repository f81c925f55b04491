package biz

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
)

// View describes a materialized aggregate over the warehouse table.
// Rows are ordered by rating count then average, both descending.
type View struct {
	Name string
	// Genre restricts rows to movies whose genero contains it, case-insensitive.
	Genre string
	// Limit caps the row count, zero keeps every row.
	Limit int
}

// Views are the data marts built by the batch job and refreshed on demand.
var Views = []View{
	{Name: "filme_top10_nota", Limit: 10},
	{Name: "filme_comedia_top", Genre: "Comedy"},
	{Name: "filme_animacao_top", Genre: "Animation"},
}

// LookupView finds a view definition by name
func LookupView(name string) (View, error) {
	for _, v := range Views {
		if v.Name == name {
			return v, nil
		}
	}
	return View{}, fmt.Errorf("%w: %q", ErrUnknownView, name)
}

// RefreshMode selects how REFRESH MATERIALIZED VIEW runs
type RefreshMode int

const (
	// RefreshConcurrent keeps views queryable; needs a unique index per view.
	RefreshConcurrent RefreshMode = iota
	// RefreshBlocking locks views for reads until done.
	RefreshBlocking
)

func (m RefreshMode) String() string {
	if m == RefreshConcurrent {
		return "concurrent"
	}
	return "blocking"
}

// RefreshState is a step of one refresh invocation
type RefreshState int

const (
	StateRequestingConcurrent RefreshState = iota
	StateConcurrentFailed
	StateRequestingBlocking
	StateSucceeded
	StateFatal
)

var refreshStateNames = map[RefreshState]string{
	StateRequestingConcurrent: "requesting-concurrent",
	StateConcurrentFailed:     "concurrent-failed",
	StateRequestingBlocking:   "requesting-blocking",
	StateSucceeded:            "succeeded",
	StateFatal:                "fatal",
}

func (s RefreshState) String() string {
	if name, ok := refreshStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("RefreshState(%d)", int(s))
}

// Terminal reports whether no further transition is possible
func (s RefreshState) Terminal() bool {
	return s == StateSucceeded || s == StateFatal
}

// RefreshResult is the outcome of refreshing every view
type RefreshResult struct {
	State RefreshState
	// Mode is the mode of the last attempt.
	Mode RefreshMode
	// ConcurrentErr is set when the concurrent attempt failed.
	ConcurrentErr error
	// Err is set when the blocking fallback failed.
	Err error
}

// Refreshed reports whether the whole batch succeeded
func (r *RefreshResult) Refreshed() bool {
	return r.State == StateSucceeded
}

// ViewUseCase builds, refreshes and reads materialized views
type ViewUseCase struct {
	repo ViewRepo
	log  *log.Helper
}

// NewViewUseCase creates a new ViewUseCase instance
func NewViewUseCase(repo ViewRepo, logger log.Logger) *ViewUseCase {
	return &ViewUseCase{
		repo: repo,
		log:  log.NewHelper(logger),
	}
}

// BuildViews creates any missing view
func (uc *ViewUseCase) BuildViews(ctx context.Context) error {
	if err := uc.repo.BuildViews(ctx, Views); err != nil {
		return fmt.Errorf("failed to build views: %w", err)
	}
	return nil
}

// RefreshAll refreshes every view, concurrently first and falling back once
// to a blocking refresh.
func (uc *ViewUseCase) RefreshAll(ctx context.Context) *RefreshResult {
	res := &RefreshResult{State: StateRequestingConcurrent, Mode: RefreshConcurrent}
	for !res.State.Terminal() {
		uc.step(ctx, res)
	}
	if res.State == StateFatal {
		uc.log.Errorf("materialized view refresh failed: concurrent: %v, blocking: %v", res.ConcurrentErr, res.Err)
	} else {
		uc.log.Infof("materialized views refreshed (%s)", res.Mode)
	}
	return res
}

func (uc *ViewUseCase) step(ctx context.Context, res *RefreshResult) {
	switch res.State {
	case StateRequestingConcurrent:
		if err := uc.repo.RefreshViews(ctx, Views, RefreshConcurrent); err != nil {
			res.ConcurrentErr = err
			res.State = StateConcurrentFailed
			return
		}
		res.State = StateSucceeded
	case StateConcurrentFailed:
		uc.log.Warnf("concurrent refresh failed, falling back to blocking refresh: %v", res.ConcurrentErr)
		res.Mode = RefreshBlocking
		res.State = StateRequestingBlocking
	case StateRequestingBlocking:
		if err := uc.repo.RefreshViews(ctx, Views, RefreshBlocking); err != nil {
			res.Err = err
			res.State = StateFatal
			return
		}
		res.State = StateSucceeded
	}
}

// ListView reads the current snapshot of a view
func (uc *ViewUseCase) ListView(ctx context.Context, name string, limit int) ([]*ViewRow, error) {
	view, err := LookupView(name)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}
	rows, err := uc.repo.ListView(ctx, view, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read view %s: %w", name, err)
	}
	return rows, nil
}
