package etl

import (
	"strconv"
	"strings"
)

// MovieRecord is one row of the movie metadata source after field parsing.
type MovieRecord struct {
	// ID is nil when the source identifier is not an integer.
	ID          *int64
	Title       string
	VoteAverage *float64
	VoteCount   *int64
	Genres      []string
	Countries   []string
	ReleaseYear *int
}

// CreditRecord is one row of the credits source after field parsing.
type CreditRecord struct {
	ID       *int64
	Director *string
	Actors   []string
}

// MergedRecord is a movie left-joined with its credits.
type MergedRecord struct {
	MovieRecord
	// Credits is nil when no credit row matched.
	Credits *CreditRecord
}

// ParseKey coerces a join key to an integer. Blank, non-numeric and
// fractional values give nil.
func ParseKey(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &i
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return nil
	}
	i := int64(f)
	return &i
}

// Merge left-joins movies with credits on ID. Every movie appears once, in
// input order. The first credit seen for a key wins and records with a nil
// key never match.
func Merge(movies []MovieRecord, credits []CreditRecord) []MergedRecord {
	byID := make(map[int64]*CreditRecord, len(credits))
	for i := range credits {
		c := &credits[i]
		if c.ID == nil {
			continue
		}
		if _, seen := byID[*c.ID]; !seen {
			byID[*c.ID] = c
		}
	}

	out := make([]MergedRecord, 0, len(movies))
	for _, m := range movies {
		merged := MergedRecord{MovieRecord: m}
		if m.ID != nil {
			merged.Credits = byID[*m.ID]
		}
		out = append(out, merged)
	}
	return out
}
