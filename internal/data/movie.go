package data

import (
	"context"
	"errors"
	"fmt"

	"movieflix/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

type movieRepo struct {
	data *Data
	log  *log.Helper
}

// NewMovieRepo creates a new movie repository
func NewMovieRepo(data *Data, logger log.Logger) biz.MovieRepo {
	return &movieRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *movieRepo) CreateMovie(ctx context.Context, movie *biz.Movie) error {
	dbMovie := movieToModel(movie)
	dbMovie.ID = 0
	dbMovie.NotaMedia = 0
	dbMovie.QtdAvaliacoes = 0

	if err := r.data.db.WithContext(ctx).Create(dbMovie).Error; err != nil {
		return fmt.Errorf("failed to create movie: %w", err)
	}

	movie.ID = dbMovie.ID
	movie.NotaMedia = 0
	movie.QtdAvaliacoes = 0
	return nil
}

// GetMovie always reads the row: nota_media and qtd_avaliacoes must reflect
// every committed rating, so filme rows are never cached.
func (r *movieRepo) GetMovie(ctx context.Context, id int64) (*biz.Movie, error) {
	var dbMovie Movie
	err := r.data.db.WithContext(ctx).Take(&dbMovie, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, biz.ErrMovieNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get movie %d: %w", id, err)
	}

	return modelToMovie(&dbMovie), nil
}

func (r *movieRepo) ListMovies(ctx context.Context, limit, offset int) ([]*biz.Movie, error) {
	var dbMovies []Movie
	err := r.data.db.WithContext(ctx).
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&dbMovies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}

	movies := make([]*biz.Movie, 0, len(dbMovies))
	for i := range dbMovies {
		movies = append(movies, modelToMovie(&dbMovies[i]))
	}
	return movies, nil
}
