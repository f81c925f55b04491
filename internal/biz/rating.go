package biz

import (
	"context"
	"fmt"
	"math"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	MinRating = 0.0
	MaxRating = 5.0
)

// RankingKind names a live ranking
type RankingKind string

const (
	RankingPopular RankingKind = "popular"
	RankingTop     RankingKind = "top"
)

// ParseRankingKind validates a ranking name
func ParseRankingKind(s string) (RankingKind, error) {
	switch k := RankingKind(s); k {
	case RankingPopular, RankingTop:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRanking, s)
}

// RatingUseCase handles rating-related business logic
type RatingUseCase struct {
	ratingRepo RatingRepo
	log        *log.Helper
}

// NewRatingUseCase creates a new RatingUseCase instance
func NewRatingUseCase(ratingRepo RatingRepo, logger log.Logger) *RatingUseCase {
	return &RatingUseCase{
		ratingRepo: ratingRepo,
		log:        log.NewHelper(logger),
	}
}

// SubmitRating records a rating and returns the movie aggregates recomputed
// from all of its ratings.
func (uc *RatingUseCase) SubmitRating(ctx context.Context, movieID int64, usuario *string, score float64) (*RatingResult, error) {
	if math.IsNaN(score) || score < MinRating || score > MaxRating {
		return nil, ErrInvalidRating
	}
	if usuario != nil && *usuario == "" {
		usuario = nil
	}

	rating := &Rating{
		MovieID: movieID,
		Usuario: usuario,
		Rating:  score,
	}

	result, err := uc.ratingRepo.SubmitRating(ctx, rating)
	if err != nil {
		return nil, fmt.Errorf("failed to submit rating for movie %d: %w", movieID, err)
	}

	uc.log.Debugf("movie %d now has %d ratings, average %.3f", result.MovieID, result.QtdAvaliacoes, result.NotaMedia)
	return result, nil
}

// Rankings returns the live ranking of the given kind
func (uc *RatingUseCase) Rankings(ctx context.Context, kind RankingKind, limit int) ([]*RankingEntry, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = 10
	}
	entries, err := uc.ratingRepo.Rankings(ctx, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s ranking: %w", kind, err)
	}
	return entries, nil
}
