package biz

import (
	"context"
	"time"
)

// Movie domain model, one row of the warehouse table
type Movie struct {
	ID            int64
	Titulo        string
	NotaMedia     float64
	QtdAvaliacoes int64
	Genero        string
	Pais          string
	AnoLancamento *int
	Diretor       *string
	Atores        *string
}

// CreateMovieRequest domain model
type CreateMovieRequest struct {
	Titulo        string
	AnoLancamento *int
	Genero        *string
	Pais          *string
	Diretor       *string
	Atores        *string
}

// Rating domain model
type Rating struct {
	ID        int64
	MovieID   int64
	Usuario   *string
	Rating    float64
	CreatedAt time.Time
}

// RatingResult is the recomputed aggregate returned after a submission
type RatingResult struct {
	MovieID       int64
	NotaMedia     float64
	QtdAvaliacoes int64
}

// RankingEntry is one member of a live ranking
type RankingEntry struct {
	MovieID int64
	Score   float64
}

// ViewRow is one row of a materialized view
type ViewRow struct {
	ID            int64
	Titulo        string
	Genero        *string
	NotaMedia     float64
	QtdAvaliacoes int64
	AnoLancamento *int
	Pais          *string
}

// MovieRepo defines the repository interface for movies
type MovieRepo interface {
	CreateMovie(ctx context.Context, movie *Movie) error
	GetMovie(ctx context.Context, id int64) (*Movie, error)
	ListMovies(ctx context.Context, limit, offset int) ([]*Movie, error)
}

// RatingRepo defines the repository interface for ratings
type RatingRepo interface {
	// SubmitRating inserts the rating and rewrites the parent movie aggregates
	// in one transaction. It returns ErrMovieNotFound without mutating anything
	// when the movie does not exist.
	SubmitRating(ctx context.Context, rating *Rating) (*RatingResult, error)
	Rankings(ctx context.Context, kind RankingKind, limit int) ([]*RankingEntry, error)
}

// WarehouseRepo replaces the whole warehouse table
type WarehouseRepo interface {
	ReplaceAll(ctx context.Context, movies []*Movie) (int64, error)
}

// ViewRepo defines the repository interface for materialized views
type ViewRepo interface {
	BuildViews(ctx context.Context, views []View) error
	// RefreshViews refreshes every view in views that exists, in one
	// transaction, using the given mode.
	RefreshViews(ctx context.Context, views []View, mode RefreshMode) error
	ListView(ctx context.Context, view View, limit int) ([]*ViewRow, error)
}
