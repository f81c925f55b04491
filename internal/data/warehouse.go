package data

import (
	"context"
	"fmt"

	"movieflix/internal/biz"
	"movieflix/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

const defaultBatchSize = 1000

type warehouseRepo struct {
	data      *Data
	batchSize int
	log       *log.Helper
}

// NewWarehouseRepo creates the batch loader of the filme table
func NewWarehouseRepo(data *Data, c *conf.ETL, logger log.Logger) biz.WarehouseRepo {
	batch := defaultBatchSize
	if c != nil && c.BatchSize > 0 {
		batch = c.BatchSize
	}
	return &warehouseRepo{
		data:      data,
		batchSize: batch,
		log:       log.NewHelper(logger),
	}
}

// ReplaceAll truncates filme and inserts movies in one transaction. Readers
// see either the previous table or the new one. Ratings of the replaced
// movies go with them through the cascade, and identifiers restart at 1 so
// the same input always loads the same rows.
func (r *warehouseRepo) ReplaceAll(ctx context.Context, movies []*biz.Movie) (int64, error) {
	if err := r.data.EnsureSchema(ctx); err != nil {
		return 0, err
	}

	rows := make([]*Movie, 0, len(movies))
	for _, m := range movies {
		row := movieToModel(m)
		row.ID = 0
		rows = append(rows, row)
	}

	var loaded int64
	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", biz.WarehouseLockKey).Error; err != nil {
			return fmt.Errorf("failed to take warehouse lock: %w", err)
		}
		if err := tx.Exec("TRUNCATE TABLE filme RESTART IDENTITY CASCADE").Error; err != nil {
			return fmt.Errorf("failed to truncate filme: %w", err)
		}
		for start := 0; start < len(rows); start += r.batchSize {
			end := start + r.batchSize
			if end > len(rows) {
				end = len(rows)
			}
			res := tx.Create(rows[start:end])
			if res.Error != nil {
				return fmt.Errorf("failed to insert rows %d-%d: %w", start, end, res.Error)
			}
			loaded += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		r.log.Errorf("warehouse load rolled back: %v", err)
		return 0, err
	}

	// Cached view rows and rankings refer to the old identifiers
	r.data.bumpViewGeneration(ctx)
	r.data.cacheDel(ctx, rankPopularKey, rankTopKey)

	return loaded, nil
}
