// Package synth generates reproducible NAS100-like OHLCV series for
// testing and for runs where no real data can be fetched.
package synth

import (
	"math"
	"math/rand"
	"time"

	"github.com/rustyeddy/nasfeed/market"
)

// Options parameterises the random walk and the bar grid.
type Options struct {
	Seed      int64
	BasePrice float64

	// Per-bar return, high/low excursion and open offset are drawn from
	// normal distributions with these standard deviations.
	ReturnStdDev float64
	RangeStdDev  float64
	OpenStdDev   float64

	// Volume is drawn uniformly from [MinVolume, MaxVolume).
	MinVolume int
	MaxVolume int

	Interval market.Interval
	Session  market.Session

	// LooseOHLC skips clamping high and low around open and close.
	LooseOHLC bool
}

// DefaultOptions reproduces the reference NAS100 sample: seed 42, base
// 15000, 15 minute bars in the New York session.
func DefaultOptions() Options {
	return Options{
		Seed:         42,
		BasePrice:    15000,
		ReturnStdDev: 0.002,
		RangeStdDev:  0.001,
		OpenStdDev:   0.0005,
		MinVolume:    1000,
		MaxVolume:    10000,
		Interval:     market.Minute15,
		Session:      market.DefaultSession(),
	}
}

// Generator produces synthetic intraday and daily series.
type Generator struct {
	Options

	// Now anchors the end of the generated range. Fix it for output that
	// is identical across runs.
	Now func() time.Time
}

// New returns a generator anchored at the wall clock.
func New(opts Options) *Generator {
	return &Generator{Options: opts, Now: time.Now}
}

// Generate builds an intraday series covering the last days calendar days
// of session bars, and the daily series aggregated from it.
func (g *Generator) Generate(days int) (intraday, daily *market.Series) {
	iv := g.Interval
	if iv <= 0 {
		iv = market.Minute15
	}
	intraday = &market.Series{Interval: iv}
	daily = &market.Series{Interval: market.Daily}
	if days <= 0 {
		return intraday, daily
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	end := now().UTC().Truncate(iv.Duration())
	start := end.Add(-time.Duration(days) * 24 * time.Hour)

	var stamps []time.Time
	for t := start; !t.After(end); t = t.Add(iv.Duration()) {
		if g.Session.Contains(t) {
			stamps = append(stamps, t)
		}
	}

	rng := rand.New(rand.NewSource(g.Seed))

	returns := make([]float64, len(stamps))
	for i := range returns {
		returns[i] = rng.NormFloat64() * g.ReturnStdDev
	}

	// the first return is drawn but unused; the path starts at BasePrice
	closes := make([]float64, len(stamps))
	for i := range closes {
		if i == 0 {
			closes[i] = g.BasePrice
			continue
		}
		closes[i] = closes[i-1] * (1 + returns[i])
	}

	span := g.MaxVolume - g.MinVolume
	candles := make([]market.Candle, len(stamps))
	for i, c := range closes {
		high := c * (1 + math.Abs(rng.NormFloat64()*g.RangeStdDev))
		low := c * (1 - math.Abs(rng.NormFloat64()*g.RangeStdDev))
		open := c * (1 + rng.NormFloat64()*g.OpenStdDev)
		vol := g.MinVolume
		if span > 0 {
			vol += rng.Intn(span)
		}

		if !g.LooseOHLC {
			high = math.Max(high, math.Max(open, c))
			low = math.Min(low, math.Min(open, c))
		}

		candles[i] = market.Candle{
			Open:   open,
			High:   high,
			Low:    low,
			Close:  c,
			Time:   stamps[i],
			Volume: float64(vol),
		}
	}
	if len(candles) > 0 {
		intraday.Candles = candles
	}

	daily.Candles = market.AggregateDaily(candles, g.Session, start, end, 1)
	return intraday, daily
}
