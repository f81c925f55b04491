package biz

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// MovieUseCase handles movie-related business logic
type MovieUseCase struct {
	repo MovieRepo
	log  *log.Helper
}

// NewMovieUseCase creates a new MovieUseCase instance
func NewMovieUseCase(repo MovieRepo, logger log.Logger) *MovieUseCase {
	return &MovieUseCase{
		repo: repo,
		log:  log.NewHelper(logger),
	}
}

// CreateMovie inserts a movie outside the batch path. Aggregates start at zero
// and are owned by the rating aggregator from then on.
func (uc *MovieUseCase) CreateMovie(ctx context.Context, req *CreateMovieRequest) (*Movie, error) {
	movie := &Movie{
		Titulo:        req.Titulo,
		AnoLancamento: req.AnoLancamento,
		Diretor:       req.Diretor,
		Atores:        req.Atores,
	}
	if req.Genero != nil {
		movie.Genero = *req.Genero
	}
	if req.Pais != nil {
		movie.Pais = *req.Pais
	}

	if err := uc.repo.CreateMovie(ctx, movie); err != nil {
		return nil, fmt.Errorf("failed to create movie: %w", err)
	}

	uc.log.Infof("created movie %d %q", movie.ID, movie.Titulo)
	return movie, nil
}

// GetMovie retrieves a movie by its identifier
func (uc *MovieUseCase) GetMovie(ctx context.Context, id int64) (*Movie, error) {
	movie, err := uc.repo.GetMovie(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return movie, nil
}

// ListMovies retrieves a page of movies ordered by id
func (uc *MovieUseCase) ListMovies(ctx context.Context, limit, offset int) ([]*Movie, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	movies, err := uc.repo.ListMovies(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}
