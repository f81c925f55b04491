package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"movieflix/internal/conf"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/env"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"

	_ "go.uber.org/automaxprocs"
)

var (
	// Name is the name of the compiled software.
	Name = "movieflix-etl"
	// Version is the version of the compiled software.
	Version string

	flagconf    string
	flagMovies  string
	flagCredits string
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs", "config path, eg: -conf config.yaml")
	flag.StringVar(&flagMovies, "movies", "", "movies metadata CSV, overrides etl.movies_path")
	flag.StringVar(&flagCredits, "credits", "", "credits CSV, overrides etl.credits_path")
}

func main() {
	flag.Parse()
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", Name,
		"service.version", Version,
	)
	helper := log.NewHelper(logger)

	c := config.New(
		config.WithSource(
			env.NewSource("MOVIEFLIX_"),
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}
	if bc.ETL == nil {
		bc.ETL = &conf.ETL{}
	}
	if flagMovies != "" {
		bc.ETL.MoviesPath = flagMovies
	}
	if flagCredits != "" {
		bc.ETL.CreditsPath = flagCredits
	}

	pipeline, cleanup, err := wireJob(bc.Data, bc.ETL, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := pipeline.Run(ctx)
	if err != nil {
		helper.Errorf("etl failed: %v", err)
		cleanup()
		os.Exit(1)
	}
	helper.Infow(
		"msg", "etl finished",
		"run_id", report.RunID,
		"movies", report.Movies,
		"credits", report.Credits,
		"matched", report.Matched,
		"loaded", report.Loaded,
		"duration", report.Duration.String(),
	)
}
