package service

import (
	"context"
	"net/http"

	"github.com/go-kratos/kratos/v2/errors"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

const (
	OperationHealthCheck  = "/movieflix.v1.Movies/HealthCheck"
	OperationListMovies   = "/movieflix.v1.Movies/ListMovies"
	OperationGetMovie     = "/movieflix.v1.Movies/GetMovie"
	OperationCreateMovie  = "/movieflix.v1.Movies/CreateMovie"
	OperationSubmitRating = "/movieflix.v1.Movies/SubmitRating"
	OperationRefreshViews = "/movieflix.v1.Movies/RefreshViews"
	OperationListView     = "/movieflix.v1.Movies/ListView"
	OperationRankings     = "/movieflix.v1.Movies/Rankings"
)

// RegisterMovieHTTPServer registers every movieflix route on s.
func RegisterMovieHTTPServer(s *khttp.Server, svc *MovieService) {
	r := s.Route("/")
	r.GET("/health", healthCheckHandler(svc))
	r.GET("/movies", listMoviesHandler(svc))
	r.GET("/movies/{id}", getMovieHandler(svc))
	r.POST("/movies", createMovieHandler(svc))
	r.POST("/ratings", submitRatingHandler(svc))
	r.POST("/admin/refresh-materialized-views", refreshViewsHandler(svc))
	r.GET("/views/{name}", listViewHandler(svc))
	r.GET("/rankings/{kind}", rankingsHandler(svc))
}

func healthCheckHandler(svc *MovieService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		var in HealthCheckRequest
		khttp.SetOperation(ctx, OperationHealthCheck)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return svc.HealthCheck(ctx, req.(*HealthCheckRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out)
	}
}

func listMoviesHandler(svc *MovieService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		var in ListMoviesRequest
		var err error
		if in.Limit, err = parseIntQuery(ctx.Query().Get("limit"), 0); err != nil {
			return err
		}
		if in.Offset, err = parseIntQuery(ctx.Query().Get("offset"), 0); err != nil {
			return err
		}
		khttp.SetOperation(ctx, OperationListMovies)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return svc.ListMovies(ctx, req.(*ListMoviesRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out)
	}
}

func getMovieHandler(svc *MovieService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		id, err := parseID(ctx.Vars().Get("id"))
		if err != nil {
			return err
		}
		in := GetMovieRequest{ID: id}
		khttp.SetOperation(ctx, OperationGetMovie)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return svc.GetMovie(ctx, req.(*GetMovieRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out)
	}
}

func createMovieHandler(svc *MovieService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		var in CreateMovieRequest
		if err := ctx.Bind(&in); err != nil {
			return errors.BadRequest("INVALID_ARGUMENT", err.Error())
		}
		khttp.SetOperation(ctx, OperationCreateMovie)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return svc.CreateMovie(ctx, req.(*CreateMovieRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusCreated, out)
	}
}

func submitRatingHandler(svc *MovieService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		var in SubmitRatingRequest
		if err := ctx.Bind(&in); err != nil {
			return errors.BadRequest("INVALID_ARGUMENT", err.Error())
		}
		khttp.SetOperation(ctx, OperationSubmitRating)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return svc.SubmitRating(ctx, req.(*SubmitRatingRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusCreated, out)
	}
}

func refreshViewsHandler(svc *MovieService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		var in RefreshViewsRequest
		khttp.SetOperation(ctx, OperationRefreshViews)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return svc.RefreshViews(ctx, req.(*RefreshViewsRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out)
	}
}

func listViewHandler(svc *MovieService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		in := ListViewRequest{Name: ctx.Vars().Get("name")}
		var err error
		if in.Limit, err = parseIntQuery(ctx.Query().Get("limit"), 0); err != nil {
			return err
		}
		khttp.SetOperation(ctx, OperationListView)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return svc.ListView(ctx, req.(*ListViewRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out)
	}
}

func rankingsHandler(svc *MovieService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		in := RankingsRequest{Kind: ctx.Vars().Get("kind")}
		var err error
		if in.Limit, err = parseIntQuery(ctx.Query().Get("limit"), 0); err != nil {
			return err
		}
		khttp.SetOperation(ctx, OperationRankings)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return svc.Rankings(ctx, req.(*RankingsRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out)
	}
}
