package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"

	"movieflix/internal/biz"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-playground/validator/v10"
	"github.com/google/wire"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewMovieService)

// validate is a reusable validator instance
var validate = validator.New()

// MovieService implements the movie, rating and view endpoints
type MovieService struct {
	movieUC  *biz.MovieUseCase
	ratingUC *biz.RatingUseCase
	viewUC   *biz.ViewUseCase
	log      *log.Helper
}

// NewMovieService creates a new MovieService
func NewMovieService(movieUC *biz.MovieUseCase, ratingUC *biz.RatingUseCase, viewUC *biz.ViewUseCase, logger log.Logger) *MovieService {
	return &MovieService{
		movieUC:  movieUC,
		ratingUC: ratingUC,
		viewUC:   viewUC,
		log:      log.NewHelper(logger),
	}
}

// HealthCheck implements health check
func (s *MovieService) HealthCheck(ctx context.Context, req *HealthCheckRequest) (*HealthCheckReply, error) {
	return &HealthCheckReply{Status: "ok"}, nil
}

// ListMovies implements movie listing
func (s *MovieService) ListMovies(ctx context.Context, req *ListMoviesRequest) ([]*MovieReply, error) {
	movies, err := s.movieUC.ListMovies(ctx, req.Limit, req.Offset)
	if err != nil {
		return nil, s.toStatus(err)
	}
	reply := make([]*MovieReply, 0, len(movies))
	for _, m := range movies {
		reply = append(reply, movieToReply(m))
	}
	return reply, nil
}

// GetMovie implements movie lookup by id
func (s *MovieService) GetMovie(ctx context.Context, req *GetMovieRequest) (*MovieReply, error) {
	movie, err := s.movieUC.GetMovie(ctx, req.ID)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return movieToReply(movie), nil
}

// CreateMovie implements movie creation
func (s *MovieService) CreateMovie(ctx context.Context, req *CreateMovieRequest) (*MovieReply, error) {
	if err := validate.Struct(req); err != nil {
		return nil, errors.BadRequest("INVALID_ARGUMENT", err.Error())
	}

	movie, err := s.movieUC.CreateMovie(ctx, &biz.CreateMovieRequest{
		Titulo:        req.Titulo,
		AnoLancamento: req.AnoLancamento,
		Genero:        req.Genero,
		Pais:          req.Pais,
		Diretor:       req.Diretor,
		Atores:        req.Atores,
	})
	if err != nil {
		return nil, s.toStatus(err)
	}
	return movieToReply(movie), nil
}

// SubmitRating implements rating submission
func (s *MovieService) SubmitRating(ctx context.Context, req *SubmitRatingRequest) (*SubmitRatingReply, error) {
	if err := validate.Struct(req); err != nil {
		return nil, errors.BadRequest("INVALID_ARGUMENT", err.Error())
	}

	res, err := s.ratingUC.SubmitRating(ctx, req.MovieID, req.Usuario, *req.Rating)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &SubmitRatingReply{
		MovieID:       res.MovieID,
		NotaMedia:     res.NotaMedia,
		QtdAvaliacoes: res.QtdAvaliacoes,
	}, nil
}

// RefreshViews implements the administrative refresh of all materialized views
func (s *MovieService) RefreshViews(ctx context.Context, req *RefreshViewsRequest) (*RefreshViewsReply, error) {
	res := s.viewUC.RefreshAll(ctx)
	if !res.Refreshed() {
		return nil, errors.InternalServer("REFRESH_FAILED", fmt.Sprintf("materialized view refresh failed: %v", res.Err))
	}
	return &RefreshViewsReply{Refreshed: true, Mode: res.Mode.String()}, nil
}

// ListView implements reading a materialized view
func (s *MovieService) ListView(ctx context.Context, req *ListViewRequest) ([]*ViewRowReply, error) {
	rows, err := s.viewUC.ListView(ctx, req.Name, req.Limit)
	if err != nil {
		return nil, s.toStatus(err)
	}
	reply := make([]*ViewRowReply, 0, len(rows))
	for _, r := range rows {
		reply = append(reply, &ViewRowReply{
			ID:            r.ID,
			Titulo:        r.Titulo,
			Genero:        r.Genero,
			NotaMedia:     r.NotaMedia,
			QtdAvaliacoes: r.QtdAvaliacoes,
			AnoLancamento: r.AnoLancamento,
			Pais:          r.Pais,
		})
	}
	return reply, nil
}

// Rankings implements reading a live ranking
func (s *MovieService) Rankings(ctx context.Context, req *RankingsRequest) ([]*RankingReply, error) {
	kind, err := biz.ParseRankingKind(req.Kind)
	if err != nil {
		return nil, s.toStatus(err)
	}
	entries, err := s.ratingUC.Rankings(ctx, kind, req.Limit)
	if err != nil {
		return nil, s.toStatus(err)
	}
	reply := make([]*RankingReply, 0, len(entries))
	for _, e := range entries {
		reply = append(reply, &RankingReply{MovieID: e.MovieID, Score: e.Score})
	}
	return reply, nil
}

// toStatus maps domain errors onto HTTP statuses. Store failures keep their
// detail in the log only.
func (s *MovieService) toStatus(err error) error {
	switch {
	case stderrors.Is(err, biz.ErrMovieNotFound):
		return errors.NotFound("MOVIE_NOT_FOUND", "Movie not found")
	case stderrors.Is(err, biz.ErrUnknownView):
		return errors.NotFound("VIEW_NOT_FOUND", err.Error())
	case stderrors.Is(err, biz.ErrUnknownRanking):
		return errors.NotFound("RANKING_NOT_FOUND", err.Error())
	case stderrors.Is(err, biz.ErrInvalidRating):
		return errors.BadRequest("INVALID_RATING", err.Error())
	case stderrors.Is(err, biz.ErrTransient):
		s.log.Warnf("transient failure: %v", err)
		return errors.ServiceUnavailable("TRANSIENT", "temporary failure, retry the request")
	}
	s.log.Errorf("internal failure: %v", err)
	return errors.InternalServer("INTERNAL", "internal failure")
}

func movieToReply(m *biz.Movie) *MovieReply {
	return &MovieReply{
		ID:            m.ID,
		Titulo:        m.Titulo,
		NotaMedia:     m.NotaMedia,
		QtdAvaliacoes: m.QtdAvaliacoes,
		Genero:        optional(m.Genero),
		Pais:          optional(m.Pais),
		AnoLancamento: m.AnoLancamento,
		Diretor:       m.Diretor,
		Atores:        m.Atores,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.BadRequest("INVALID_ARGUMENT", fmt.Sprintf("invalid id %q", s))
	}
	return id, nil
}

func parseIntQuery(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.BadRequest("INVALID_ARGUMENT", fmt.Sprintf("invalid integer %q", s))
	}
	return v, nil
}
