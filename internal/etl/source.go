package etl

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
)

// ErrMissingColumn reports a source file without an expected column. It is a
// configuration error and stops the job before any row is read.
var ErrMissingColumn = errors.New("missing source column")

var (
	movieColumns  = []string{"id", "title", "vote_average", "vote_count", "genres", "production_countries", "release_date"}
	creditColumns = []string{"cast", "crew", "id"}
)

// Source extracts the two raw record sets.
type Source interface {
	ReadMovies(ctx context.Context) ([]MovieRecord, error)
	ReadCredits(ctx context.Context) ([]CreditRecord, error)
}

// CSVSource reads movies_metadata.csv and credits.csv from disk.
type CSVSource struct {
	MoviesPath  string
	CreditsPath string
	CastLimit   int
	log         *log.Helper
}

// NewCSVSource creates a CSVSource
func NewCSVSource(moviesPath, creditsPath string, castLimit int, logger log.Logger) *CSVSource {
	return &CSVSource{
		MoviesPath:  moviesPath,
		CreditsPath: creditsPath,
		CastLimit:   castLimit,
		log:         log.NewHelper(logger),
	}
}

func (s *CSVSource) ReadMovies(ctx context.Context) ([]MovieRecord, error) {
	f, err := os.Open(s.MoviesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open movies source: %w", err)
	}
	defer f.Close()

	movies, skipped, err := ReadMovies(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.MoviesPath, err)
	}
	s.log.Infof("read %d movies from %s (%d malformed rows skipped)", len(movies), s.MoviesPath, skipped)
	return movies, nil
}

func (s *CSVSource) ReadCredits(ctx context.Context) ([]CreditRecord, error) {
	f, err := os.Open(s.CreditsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open credits source: %w", err)
	}
	defer f.Close()

	credits, skipped, err := ReadCredits(ctx, f, s.CastLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.CreditsPath, err)
	}
	s.log.Infof("read %d credits from %s (%d malformed rows skipped)", len(credits), s.CreditsPath, skipped)
	return credits, nil
}

// ReadMovies parses movie metadata CSV. It returns the records and the number
// of rows skipped for having a different field count than the header.
func ReadMovies(ctx context.Context, r io.Reader) ([]MovieRecord, int, error) {
	var movies []MovieRecord
	skipped, err := readRows(ctx, r, movieColumns, func(row columnRow) {
		movies = append(movies, MovieRecord{
			ID:          ParseKey(row.get("id")),
			Title:       row.get("title"),
			VoteAverage: parseFloat(row.get("vote_average")),
			VoteCount:   parseCount(row.get("vote_count")),
			Genres:      ParseField(row.get("genres"), "name"),
			Countries:   ParseField(row.get("production_countries"), "name"),
			ReleaseYear: parseYear(row.get("release_date")),
		})
	})
	return movies, skipped, err
}

// ReadCredits parses credits CSV, keeping the director and the first
// castLimit actors of each row.
func ReadCredits(ctx context.Context, r io.Reader, castLimit int) ([]CreditRecord, int, error) {
	var credits []CreditRecord
	skipped, err := readRows(ctx, r, creditColumns, func(row columnRow) {
		credits = append(credits, CreditRecord{
			ID:       ParseKey(row.get("id")),
			Director: Director(row.get("crew")),
			Actors:   Cast(row.get("cast"), castLimit),
		})
	})
	return credits, skipped, err
}

type columnRow struct {
	index  map[string]int
	fields []string
}

func (r columnRow) get(name string) string {
	return r.fields[r.index[name]]
}

func readRows(ctx context.Context, r io.Reader, required []string, fn func(columnRow)) (int, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}

	skipped := 0
	for line := 1; ; line++ {
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return skipped, err
			}
		}
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return skipped, nil
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped++
				continue
			}
			return skipped, fmt.Errorf("failed to read row %d: %w", line, err)
		}
		if len(fields) != len(header) {
			skipped++
			continue
		}
		fn(columnRow{index: index, fields: fields})
	}
}

func parseFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// parseCount accepts integers and whole-number floats such as "862.0".
// Values outside the int64 range are treated as missing.
func parseCount(s string) *int64 {
	if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return &n
	}
	f := parseFloat(s)
	if f == nil || *f < math.MinInt64 || *f >= math.MaxInt64 {
		return nil
	}
	n := int64(*f)
	return &n
}

// parseYear takes the year of a YYYY-MM-DD date.
func parseYear(s string) *int {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return nil
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil || y <= 0 {
		return nil
	}
	if len(s) > 4 && s[4] != '-' {
		return nil
	}
	return &y
}
