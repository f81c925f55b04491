package data

import (
	"context"
	"fmt"
	"strings"

	"movieflix/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

const viewColumns = "id, titulo, genero, nota_media, qtd_avaliacoes, ano_lancamento, pais"

type viewRepo struct {
	data *Data
	log  *log.Helper
}

// NewViewRepo creates the materialized view repository
func NewViewRepo(data *Data, logger log.Logger) biz.ViewRepo {
	return &viewRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// BuildViews creates missing views together with the unique index on id that
// concurrent refresh requires.
func (r *viewRepo) BuildViews(ctx context.Context, views []biz.View) error {
	return r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, v := range views {
			if err := tx.Exec(buildViewSQL(v)).Error; err != nil {
				return fmt.Errorf("failed to create view %s: %w", v.Name, err)
			}
			if err := tx.Exec(buildIndexSQL(v)).Error; err != nil {
				return fmt.Errorf("failed to index view %s: %w", v.Name, err)
			}
		}
		return nil
	})
}

// RefreshViews refreshes the views that exist, skipping the others, in a
// single transaction so that one failure rolls back the whole batch.
func (r *viewRepo) RefreshViews(ctx context.Context, views []biz.View, mode biz.RefreshMode) error {
	names := make([]string, 0, len(views))
	for _, v := range views {
		names = append(names, v.Name)
	}

	var refreshed int
	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []string
		err := tx.Raw(
			"SELECT matviewname FROM pg_matviews WHERE schemaname = current_schema() AND matviewname IN ?",
			names,
		).Scan(&existing).Error
		if err != nil {
			return fmt.Errorf("failed to list materialized views: %w", err)
		}

		present := make(map[string]bool, len(existing))
		for _, name := range existing {
			present[name] = true
		}
		for _, v := range views {
			if !present[v.Name] {
				continue
			}
			if err := tx.Exec(buildRefreshSQL(v, mode)).Error; err != nil {
				return fmt.Errorf("failed to refresh %s: %w", v.Name, err)
			}
			refreshed++
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Infof("%s refresh of %d/%d materialized views committed", mode, refreshed, len(views))
	r.data.bumpViewGeneration(ctx)
	return nil
}

func (r *viewRepo) ListView(ctx context.Context, view biz.View, limit int) ([]*biz.ViewRow, error) {
	gen, cacheable := r.data.viewGeneration(ctx)
	key := viewCacheKey(gen, view.Name, limit)
	var cached []*biz.ViewRow
	if cacheable && r.data.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	var rows []ViewRow
	err := r.data.db.WithContext(ctx).
		Table(view.Name).
		Select(viewColumns).
		Order("qtd_avaliacoes DESC, nota_media DESC, id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query view %s: %w", view.Name, err)
	}

	out := make([]*biz.ViewRow, 0, len(rows))
	for i := range rows {
		out = append(out, viewRowToBiz(&rows[i]))
	}
	if cacheable {
		r.data.cacheSet(ctx, key, out)
	}
	return out, nil
}

// buildViewSQL renders the CREATE statement of a view. DDL cannot take bind
// parameters, so the genre filter is inlined as a quoted literal.
func buildViewSQL(v biz.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE MATERIALIZED VIEW IF NOT EXISTS %s AS\n", quoteIdent(v.Name))
	fmt.Fprintf(&b, "SELECT %s\nFROM filme\n", viewColumns)
	if v.Genre != "" {
		fmt.Fprintf(&b, "WHERE genero ILIKE %s\n", quoteLiteral("%"+v.Genre+"%"))
	}
	b.WriteString("ORDER BY qtd_avaliacoes DESC, nota_media DESC")
	if v.Limit > 0 {
		fmt.Fprintf(&b, "\nLIMIT %d", v.Limit)
	}
	return b.String()
}

func buildIndexSQL(v biz.View) string {
	return fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (id)",
		quoteIdent(v.Name+"_id_idx"), quoteIdent(v.Name))
}

func buildRefreshSQL(v biz.View, mode biz.RefreshMode) string {
	if mode == biz.RefreshConcurrent {
		return "REFRESH MATERIALIZED VIEW CONCURRENTLY " + quoteIdent(v.Name)
	}
	return "REFRESH MATERIALIZED VIEW " + quoteIdent(v.Name)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
