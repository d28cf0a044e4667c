// Package loader obtains the intraday and daily series for a run: from a
// quote provider when it can, from the synthetic generator when it can't.
package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/nasfeed/market"
	"github.com/rustyeddy/nasfeed/quotes"
	"github.com/rustyeddy/nasfeed/synth"
)

// DefaultMinIntradayBars is the smallest fetched intraday series Load
// accepts before falling back to synthetic data.
const DefaultMinIntradayBars = 100

// Loader produces the series for a run from Source, or from Generator
// when the source has nothing usable.
type Loader struct {
	Source    quotes.Source
	Generator *synth.Generator
	Session   market.Session

	// Symbol labels the returned series; Ticker is what the provider is
	// asked for. Ticker defaults to Symbol.
	Symbol string
	Ticker string

	Intraday market.Interval
	Daily    market.Interval

	Logger *zap.Logger
	Now    func() time.Time
}

// New returns a loader with the default session, 15m and 1d intervals and
// a no-op logger.
func New(src quotes.Source, gen *synth.Generator, symbol string) *Loader {
	return &Loader{
		Source:    src,
		Generator: gen,
		Session:   market.DefaultSession(),
		Symbol:    symbol,
		Intraday:  market.Minute15,
		Daily:     market.Daily,
		Logger:    zap.NewNop(),
		Now:       time.Now,
	}
}

// LoadOptions controls Load. MinIntradayBars defaults to
// DefaultMinIntradayBars.
type LoadOptions struct {
	Days            int
	UseReal         bool
	MinIntradayBars int
}

// Result is what Load produced and where it came from.
type Result struct {
	Intraday  *market.Series
	Daily     *market.Series
	Synthetic bool

	// Source names the provider, or "synthetic".
	Source string

	// Reason is set when a fetch was attempted and abandoned.
	Reason string
}

func (l *Loader) log() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

func (l *Loader) ticker() string {
	if l.Ticker != "" {
		return l.Ticker
	}
	return l.Symbol
}

// Fetch requests both timeframes over the calendar dates [start, end) in
// the session timezone and cleans them. Provider failures and empty
// results match quotes.ErrDataUnavailable. Cleaning errors such as
// market.ErrMissingColumn are returned unchanged.
func (l *Loader) Fetch(ctx context.Context, start, end time.Time, intraday, daily market.Interval) (*market.Series, *market.Series, error) {
	if l.Source == nil {
		return nil, nil, fmt.Errorf("%w: no quote source configured", quotes.ErrDataUnavailable)
	}
	from := l.Session.Date(start)
	to := l.Session.Date(end)

	is, err := l.fetchOne(ctx, from, to, intraday)
	if err != nil {
		return nil, nil, err
	}
	ds, err := l.fetchOne(ctx, from, to, daily)
	if err != nil {
		return nil, nil, err
	}
	return is, ds, nil
}

func (l *Loader) fetchOne(ctx context.Context, from, to time.Time, iv market.Interval) (*market.Series, error) {
	req := quotes.Request{Symbol: l.ticker(), Start: from, End: to, Interval: iv}
	l.log().Debug("fetching history",
		zap.String("source", l.Source.Name()),
		zap.String("symbol", req.Symbol),
		zap.Stringer("interval", iv),
		zap.Time("start", from),
		zap.Time("end", to))

	frame, err := l.Source.History(ctx, req)
	if err != nil {
		if errors.Is(err, quotes.ErrDataUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s %s: %w", quotes.ErrDataUnavailable, l.Source.Name(), iv, err)
	}
	if frame.Empty() {
		return nil, fmt.Errorf("%w: %s returned no %s bars", quotes.ErrDataUnavailable, l.Source.Name(), iv)
	}

	s, err := market.Clean(frame)
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", iv, err)
	}
	if s.Empty() {
		return nil, fmt.Errorf("%w: no complete %s bars after cleaning", quotes.ErrDataUnavailable, iv)
	}
	s.Symbol = l.Symbol
	s.Interval = iv
	return s, nil
}

// GenerateSample returns synthetic series labelled with the loader's symbol.
func (l *Loader) GenerateSample(days int) (*market.Series, *market.Series) {
	gen := l.Generator
	if gen == nil {
		gen = synth.New(synth.DefaultOptions())
	}
	intraday, daily := gen.Generate(days)
	intraday.Symbol = l.Symbol
	daily.Symbol = l.Symbol
	return intraday, daily
}

// Load fetches the last opts.Days calendar days and falls back to
// synthetic data when the provider has nothing usable.
func (l *Loader) Load(ctx context.Context, opts LoadOptions) (*Result, error) {
	minBars := opts.MinIntradayBars
	if minBars <= 0 {
		minBars = DefaultMinIntradayBars
	}

	if !opts.UseReal {
		return l.sample(opts.Days, ""), nil
	}

	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	end := now().AddDate(0, 0, 1)
	start := now().AddDate(0, 0, -opts.Days)

	intraday, daily, err := l.Fetch(ctx, start, end, l.intradayInterval(), l.dailyInterval())
	switch {
	case errors.Is(err, quotes.ErrDataUnavailable):
		l.log().Warn("real data unavailable, using synthetic data", zap.Error(err))
		return l.sample(opts.Days, err.Error()), nil
	case err != nil:
		return nil, err
	case intraday.Len() < minBars:
		reason := fmt.Sprintf("only %d intraday bars, need %d", intraday.Len(), minBars)
		l.log().Warn("not enough real data, using synthetic data", zap.String("reason", reason))
		return l.sample(opts.Days, reason), nil
	}

	l.log().Info("loaded real data",
		zap.String("source", l.Source.Name()),
		zap.Int("intraday", intraday.Len()),
		zap.Int("daily", daily.Len()))
	return &Result{
		Intraday: intraday,
		Daily:    daily,
		Source:   l.Source.Name(),
	}, nil
}

func (l *Loader) sample(days int, reason string) *Result {
	intraday, daily := l.GenerateSample(days)
	l.log().Info("generated synthetic data",
		zap.Int("days", days),
		zap.Int("intraday", intraday.Len()),
		zap.Int("daily", daily.Len()))
	return &Result{
		Intraday:  intraday,
		Daily:     daily,
		Synthetic: true,
		Source:    "synthetic",
		Reason:    reason,
	}
}

func (l *Loader) intradayInterval() market.Interval {
	if l.Intraday > 0 {
		return l.Intraday
	}
	return market.Minute15
}

func (l *Loader) dailyInterval() market.Interval {
	if l.Daily > 0 {
		return l.Daily
	}
	return market.Daily
}
