package data

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"movieflix/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ratingRepo struct {
	data *Data
	log  *log.Helper
}

// NewRatingRepo creates a new rating repository
func NewRatingRepo(data *Data, logger log.Logger) biz.RatingRepo {
	return &ratingRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// SubmitRating locks the movie row, inserts the rating, recomputes the
// aggregates from ratings_user and writes them back, all in one transaction.
// The row lock serializes concurrent submissions for the same movie.
func (r *ratingRepo) SubmitRating(ctx context.Context, rating *biz.Rating) (*biz.RatingResult, error) {
	var agg RatingAggregate

	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.data.beginOnline(tx); err != nil {
			return err
		}

		var movie Movie
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Take(&movie, rating.MovieID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return biz.ErrMovieNotFound
		}
		if err != nil {
			return err
		}

		dbRating := &Rating{
			MovieID: rating.MovieID,
			Usuario: rating.Usuario,
			Rating:  rating.Rating,
		}
		if err := tx.Create(dbRating).Error; err != nil {
			return err
		}
		rating.ID = dbRating.ID

		err = tx.Model(&Rating{}).
			Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
			Where("movie_id = ?", rating.MovieID).
			Scan(&agg).Error
		if err != nil {
			return err
		}

		return tx.Model(&Movie{}).
			Where("id = ?", rating.MovieID).
			Updates(map[string]interface{}{
				"nota_media":     agg.Average,
				"qtd_avaliacoes": agg.Count,
			}).Error
	})
	if errors.Is(err, biz.ErrMovieNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, transient(err)
	}

	r.updateRankings(ctx, rating.MovieID, agg)

	return &biz.RatingResult{
		MovieID:       rating.MovieID,
		NotaMedia:     agg.Average,
		QtdAvaliacoes: agg.Count,
	}, nil
}

func (r *ratingRepo) Rankings(ctx context.Context, kind biz.RankingKind, limit int) ([]*biz.RankingEntry, error) {
	entries := []*biz.RankingEntry{}
	if r.data.rdb == nil {
		return entries, nil
	}

	key := rankPopularKey
	if kind == biz.RankingTop {
		key = rankTopKey
	}
	members, err := r.data.rdb.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking %s: %w", key, err)
	}
	for _, z := range members {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, &biz.RankingEntry{MovieID: id, Score: z.Score})
	}
	return entries, nil
}

// updateRankings updates Redis ZSet rankings
func (r *ratingRepo) updateRankings(ctx context.Context, movieID int64, agg RatingAggregate) {
	if r.data.rdb == nil {
		return
	}
	member := strconv.FormatInt(movieID, 10)

	pipe := r.data.rdb.TxPipeline()
	// Popular movies ranking (by rating count)
	pipe.ZAdd(ctx, rankPopularKey, redis.Z{Score: float64(agg.Count), Member: member})
	// Top-rated movies ranking (by average rating)
	if agg.Count > 0 {
		pipe.ZAdd(ctx, rankTopKey, redis.Z{Score: agg.Average, Member: member})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Warnf("failed to update rankings for movie %d: %v", movieID, err)
	}
}
