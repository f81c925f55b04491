package etl

import (
	"movieflix/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet is etl providers.
var ProviderSet = wire.NewSet(
	NewPipeline,
	NewSource,
	wire.Bind(new(Source), new(*CSVSource)),
)

// NewSource builds the CSV source from configuration
func NewSource(c *conf.ETL, logger log.Logger) *CSVSource {
	return NewCSVSource(c.MoviesPath, c.CreditsPath, c.CastLimit, logger)
}
