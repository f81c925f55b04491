//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"movieflix/internal/biz"
	"movieflix/internal/conf"
	"movieflix/internal/data"
	"movieflix/internal/etl"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireJob init the batch pipeline.
func wireJob(*conf.Data, *conf.ETL, log.Logger) (*etl.Pipeline, func(), error) {
	panic(wire.Build(
		data.ProviderSet,
		biz.ProviderSet,
		etl.ProviderSet,
	))
}
