// Package quotes holds the historical quote providers. Every provider
// returns a raw market.Frame; cleaning is left to the caller.
package quotes

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/nasfeed/market"
)

// ErrDataUnavailable means the provider failed or had no bars for the
// request. Callers may fall back to synthetic data.
var ErrDataUnavailable = errors.New("data unavailable")

// Request selects one timeframe over [Start, End).
type Request struct {
	Symbol   string
	Start    time.Time
	End      time.Time
	Interval market.Interval
}

// Source is a historical quote provider.
type Source interface {
	History(ctx context.Context, req Request) (*market.Frame, error)
	Name() string
}

func inRange(t time.Time, req Request) bool {
	if !req.Start.IsZero() && t.Before(req.Start) {
		return false
	}
	if !req.End.IsZero() && !t.Before(req.End) {
		return false
	}
	return true
}
