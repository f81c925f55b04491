package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"movieflix/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = log.NewFilter(log.DefaultLogger, log.FilterLevel(log.LevelFatal))

// store is an in-memory MovieRepo and RatingRepo
type store struct {
	mu      sync.Mutex
	movies  map[int64]*biz.Movie
	ratings map[int64][]float64
	nextID  int64
	err     error
}

func newStore(movies ...*biz.Movie) *store {
	s := &store{movies: map[int64]*biz.Movie{}, ratings: map[int64][]float64{}}
	for _, m := range movies {
		s.movies[m.ID] = m
		if m.ID > s.nextID {
			s.nextID = m.ID
		}
	}
	return s
}

func (s *store) CreateMovie(_ context.Context, movie *biz.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	movie.ID = s.nextID
	s.movies[movie.ID] = movie
	return nil
}

func (s *store) GetMovie(_ context.Context, id int64) (*biz.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	m, ok := s.movies[id]
	if !ok {
		return nil, biz.ErrMovieNotFound
	}
	return m, nil
}

func (s *store) ListMovies(_ context.Context, limit, offset int) ([]*biz.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*biz.Movie
	for id := int64(1); id <= s.nextID && len(out) < limit; id++ {
		if m, ok := s.movies[id]; ok {
			if offset > 0 {
				offset--
				continue
			}
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *store) SubmitRating(_ context.Context, r *biz.Rating) (*biz.RatingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	m, ok := s.movies[r.MovieID]
	if !ok {
		return nil, biz.ErrMovieNotFound
	}
	s.ratings[r.MovieID] = append(s.ratings[r.MovieID], r.Rating)
	var sum float64
	for _, v := range s.ratings[r.MovieID] {
		sum += v
	}
	m.QtdAvaliacoes = int64(len(s.ratings[r.MovieID]))
	m.NotaMedia = sum / float64(m.QtdAvaliacoes)
	return &biz.RatingResult{MovieID: m.ID, NotaMedia: m.NotaMedia, QtdAvaliacoes: m.QtdAvaliacoes}, nil
}

func (s *store) Rankings(_ context.Context, kind biz.RankingKind, limit int) ([]*biz.RankingEntry, error) {
	return []*biz.RankingEntry{{MovieID: 1, Score: 4.5}}, nil
}

// views is a ViewRepo whose refresh outcome is controlled per mode
type views struct {
	fail map[biz.RefreshMode]error
	rows []*biz.ViewRow
}

func (v *views) BuildViews(context.Context, []biz.View) error { return nil }

func (v *views) RefreshViews(_ context.Context, _ []biz.View, mode biz.RefreshMode) error {
	return v.fail[mode]
}

func (v *views) ListView(_ context.Context, _ biz.View, limit int) ([]*biz.ViewRow, error) {
	if limit < len(v.rows) {
		return v.rows[:limit], nil
	}
	return v.rows, nil
}

func newTestServer(s *store, v *views) *khttp.Server {
	svc := NewMovieService(
		biz.NewMovieUseCase(s, testLogger),
		biz.NewRatingUseCase(s, testLogger),
		biz.NewViewUseCase(v, testLogger),
		testLogger,
	)
	srv := khttp.NewServer()
	RegisterMovieHTTPServer(srv, svc)
	return srv
}

func do(t *testing.T, srv *khttp.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func toyStory() *biz.Movie {
	year := 1995
	return &biz.Movie{ID: 1, Titulo: "Toy Story", Genero: "Animation, Comedy", AnoLancamento: &year}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(newStore(), &views{})
	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGetMovie(t *testing.T) {
	srv := newTestServer(newStore(toyStory()), &views{})

	rec := do(t, srv, http.MethodGet, "/movies/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got MovieReply
	decode(t, rec, &got)
	assert.Equal(t, "Toy Story", got.Titulo)
	require.NotNil(t, got.Genero)
	assert.Equal(t, "Animation, Comedy", *got.Genero)
	assert.Nil(t, got.Pais)

	rec = do(t, srv, http.MethodGet, "/movies/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "MOVIE_NOT_FOUND")

	rec = do(t, srv, http.MethodGet, "/movies/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMovies(t *testing.T) {
	s := newStore()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreateMovie(context.Background(), &biz.Movie{Titulo: fmt.Sprintf("m%d", i)}))
	}
	srv := newTestServer(s, &views{})

	rec := do(t, srv, http.MethodGet, "/movies?limit=2&offset=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []MovieReply
	decode(t, rec, &got)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)

	rec = do(t, srv, http.MethodGet, "/movies?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, newTestServer(newStore(), &views{}), http.MethodGet, "/movies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateMovie(t *testing.T) {
	srv := newTestServer(newStore(), &views{})

	rec := do(t, srv, http.MethodPost, "/movies", `{"titulo":"Novo","genero":"Drama","ano_lancamento":2020}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got MovieReply
	decode(t, rec, &got)
	assert.Equal(t, int64(1), got.ID)
	assert.Zero(t, got.NotaMedia)
	assert.Zero(t, got.QtdAvaliacoes)

	rec = do(t, srv, http.MethodPost, "/movies", `{"genero":"Drama"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitRating(t *testing.T) {
	srv := newTestServer(newStore(toyStory()), &views{})

	rec := do(t, srv, http.MethodPost, "/ratings", `{"movie_id":1,"usuario":"ana","rating":4}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, srv, http.MethodPost, "/ratings", `{"movie_id":1,"rating":5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got SubmitRatingReply
	decode(t, rec, &got)
	assert.Equal(t, int64(1), got.MovieID)
	assert.Equal(t, int64(2), got.QtdAvaliacoes)
	assert.InDelta(t, 4.5, got.NotaMedia, 1e-9)
}

func TestSubmitRatingRejects(t *testing.T) {
	srv := newTestServer(newStore(toyStory()), &views{})

	tests := []struct {
		name string
		body string
		code int
	}{
		{"unknown movie", `{"movie_id":999,"rating":3}`, http.StatusNotFound},
		{"above range", `{"movie_id":1,"rating":5.5}`, http.StatusBadRequest},
		{"below range", `{"movie_id":1,"rating":-1}`, http.StatusBadRequest},
		{"missing rating", `{"movie_id":1}`, http.StatusBadRequest},
		{"missing movie", `{"rating":3}`, http.StatusBadRequest},
		{"malformed", `{"movie_id":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/ratings", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestSubmitRatingTransientIsUnavailable(t *testing.T) {
	s := newStore(toyStory())
	s.err = fmt.Errorf("%w: canceling statement due to statement timeout", biz.ErrTransient)
	srv := newTestServer(s, &views{})

	rec := do(t, srv, http.MethodPost, "/ratings", `{"movie_id":1,"rating":3}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "statement timeout")
}

func TestInternalErrorHidesDetail(t *testing.T) {
	s := newStore(toyStory())
	s.err = errors.New("pq: password authentication failed")
	srv := newTestServer(s, &views{})

	rec := do(t, srv, http.MethodGet, "/movies/1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRefreshViews(t *testing.T) {
	rec := do(t, newTestServer(newStore(), &views{}), http.MethodPost, "/admin/refresh-materialized-views", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"refreshed":true,"mode":"concurrent"}`, rec.Body.String())

	fallback := &views{fail: map[biz.RefreshMode]error{biz.RefreshConcurrent: errors.New("no unique index")}}
	rec = do(t, newTestServer(newStore(), fallback), http.MethodPost, "/admin/refresh-materialized-views", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"refreshed":true,"mode":"blocking"}`, rec.Body.String())

	broken := &views{fail: map[biz.RefreshMode]error{
		biz.RefreshConcurrent: errors.New("down"),
		biz.RefreshBlocking:   errors.New("down"),
	}}
	rec = do(t, newTestServer(newStore(), broken), http.MethodPost, "/admin/refresh-materialized-views", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "REFRESH_FAILED")
}

func TestListView(t *testing.T) {
	v := &views{rows: []*biz.ViewRow{{ID: 1, Titulo: "Toy Story"}, {ID: 2, Titulo: "Jumanji"}}}
	srv := newTestServer(newStore(), v)

	rec := do(t, srv, http.MethodGet, "/views/filme_top10_nota?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []ViewRowReply
	decode(t, rec, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "Toy Story", got[0].Titulo)

	rec = do(t, srv, http.MethodGet, "/views/filme_nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRankings(t *testing.T) {
	srv := newTestServer(newStore(), &views{})

	rec := do(t, srv, http.MethodGet, "/rankings/popular", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"movie_id":1,"score":4.5}]`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/rankings/worst", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
