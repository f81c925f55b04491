package biz

import (
	"context"
	"errors"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
)

var testLogger = log.NewFilter(log.DefaultLogger, log.FilterLevel(log.LevelError))

// memStore is an in-memory MovieRepo and RatingRepo
type memStore struct {
	mu      sync.Mutex
	movies  map[int64]*Movie
	ratings []*Rating
	nextID  int64
	failErr error
}

func newMemStore(movies ...*Movie) *memStore {
	s := &memStore{movies: map[int64]*Movie{}}
	for _, m := range movies {
		s.movies[m.ID] = m
		if m.ID > s.nextID {
			s.nextID = m.ID
		}
	}
	return s
}

func (s *memStore) CreateMovie(_ context.Context, movie *Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	movie.ID = s.nextID
	cp := *movie
	s.movies[movie.ID] = &cp
	return nil
}

func (s *memStore) GetMovie(_ context.Context, id int64) (*Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) ListMovies(_ context.Context, limit, offset int) ([]*Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Movie
	for id := int64(1); id <= s.nextID && len(out) < limit; id++ {
		m, ok := s.movies[id]
		if !ok {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memStore) SubmitRating(_ context.Context, rating *Rating) (*RatingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[rating.MovieID]
	if !ok {
		return nil, ErrMovieNotFound
	}
	if s.failErr != nil {
		return nil, s.failErr
	}
	rating.ID = int64(len(s.ratings) + 1)
	s.ratings = append(s.ratings, rating)

	var count int64
	var sum float64
	for _, r := range s.ratings {
		if r.MovieID == rating.MovieID {
			count++
			sum += r.Rating
		}
	}
	m.QtdAvaliacoes = count
	m.NotaMedia = sum / float64(count)
	return &RatingResult{MovieID: m.ID, NotaMedia: m.NotaMedia, QtdAvaliacoes: m.QtdAvaliacoes}, nil
}

func (s *memStore) Rankings(_ context.Context, kind RankingKind, limit int) ([]*RankingEntry, error) {
	return []*RankingEntry{{MovieID: 1, Score: float64(limit)}}, nil
}

// fakeViewRepo records refresh attempts and fails the modes listed in fail
type fakeViewRepo struct {
	fail     map[RefreshMode]error
	attempts []RefreshMode
	built    []View
	rows     []*ViewRow
}

func (f *fakeViewRepo) BuildViews(_ context.Context, views []View) error {
	f.built = append(f.built, views...)
	return nil
}

func (f *fakeViewRepo) RefreshViews(_ context.Context, _ []View, mode RefreshMode) error {
	f.attempts = append(f.attempts, mode)
	return f.fail[mode]
}

func (f *fakeViewRepo) ListView(_ context.Context, _ View, limit int) ([]*ViewRow, error) {
	if limit < len(f.rows) {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

var errStore = errors.New("store unavailable")
