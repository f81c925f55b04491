package biz

import (
	"errors"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(NewMovieUseCase, NewRatingUseCase, NewViewUseCase)

// Custom errors
var (
	ErrMovieNotFound  = errors.New("movie not found")
	ErrUnknownView    = errors.New("unknown materialized view")
	ErrUnknownRanking = errors.New("unknown ranking")
	ErrInvalidRating  = errors.New("rating must be between 0 and 5")
	// ErrTransient wraps store failures worth retrying, such as timeouts.
	ErrTransient = errors.New("transient store failure")
)

// WarehouseLockKey is the advisory lock shared by rating transactions and
// taken exclusively by the warehouse replace.
const WarehouseLockKey int64 = 0x6d6f76696566
