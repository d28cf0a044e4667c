package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rustyeddy/nasfeed/config"
	"github.com/rustyeddy/nasfeed/journal"
	"github.com/rustyeddy/nasfeed/loader"
	"github.com/rustyeddy/nasfeed/market"
	"github.com/rustyeddy/nasfeed/quotes"
	"github.com/rustyeddy/nasfeed/synth"
	"github.com/rustyeddy/nasfeed/tradelocker"
)

// newSource builds the configured provider. The synthetic provider has
// no source.
func newSource(cfg *config.Config, log *zap.Logger) (quotes.Source, error) {
	timeout, err := cfg.Source.ParseTimeout()
	if err != nil {
		return nil, fmt.Errorf("source.timeout: %w", err)
	}

	switch cfg.Source.Provider {
	case "yahoo":
		y := quotes.NewYahoo(timeout)
		if cfg.Source.BaseURL != "" {
			y.BaseURL = cfg.Source.BaseURL
		}
		y.Logger = log
		return y, nil
	case "oanda":
		o := quotes.NewOANDA(cfg.Source.Token, cfg.Source.Practice, timeout)
		if cfg.Source.BaseURL != "" {
			o.BaseURL = cfg.Source.BaseURL
		}
		o.Logger = log
		return o, nil
	case "dukascopy":
		d := quotes.NewDukascopy(timeout)
		if cfg.Source.BaseURL != "" {
			d.BaseURL = cfg.Source.BaseURL
		}
		if sess, err := cfg.MarketSession(); err == nil {
			d.Session = sess
		}
		d.CacheDir = cfg.Source.CacheDir
		d.Logger = log
		return d, nil
	case "csv":
		return &quotes.CSVDir{Dir: cfg.Source.CSVDir}, nil
	case "synthetic":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Source.Provider)
}

func newLoader(cfg *config.Config, src quotes.Source, log *zap.Logger) (*loader.Loader, error) {
	opts, err := cfg.SynthOptions()
	if err != nil {
		return nil, err
	}
	gen := synth.New(opts)
	gen.Now = now

	l := loader.New(src, gen, cfg.Symbol)
	l.Ticker = cfg.Source.Ticker
	l.Session = opts.Session
	l.Intraday = cfg.Intervals.Intraday
	l.Daily = cfg.Intervals.Daily
	l.Logger = log
	l.Now = now
	return l, nil
}

// export writes both consumer files and, when enabled, the manifest.
func export(out io.Writer, cfg *config.Config, res *loader.Result) (*journal.Run, error) {
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", tradelocker.ErrIOFailure, cfg.Output.Dir, err)
	}

	run := journal.NewRun(now(), cfg.Symbol, res.Source, res.Synthetic, res.Reason)

	intraday, err := save(out, cfg, cfg.Output.IntradayFile, res.Intraday)
	if err != nil {
		return nil, err
	}
	daily, err := save(out, cfg, cfg.Output.DailyFile, res.Daily)
	if err != nil {
		return nil, err
	}
	run.Intraday = journal.Describe(res.Intraday, intraday)
	run.Daily = journal.Describe(res.Daily, daily)

	if cfg.Output.Manifest {
		path, err := journal.WriteRun(cfg.Output.Dir, run)
		if err != nil {
			return nil, err
		}
		logger.Debug("wrote manifest", zap.String("path", path), zap.String("id", run.ID))
	}
	return run, nil
}

func save(out io.Writer, cfg *config.Config, pattern string, s *market.Series) (string, error) {
	name := tradelocker.FileName(pattern, cfg.Symbol, s.Interval)
	path := filepath.Join(cfg.Output.Dir, name)
	if err := tradelocker.Save(tradelocker.Format(s, cfg.Symbol), path); err != nil {
		return "", err
	}
	fmt.Fprintf(out, "Data saved to %s\n", path)
	return name, nil
}

func printSummary(out io.Writer, run *journal.Run) {
	source := run.Source
	if run.Synthetic {
		source = "synthetic data"
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s from %s\n", run.Symbol, source)
	if run.Reason != "" {
		fmt.Fprintf(out, "  Fallback: %s\n", run.Reason)
	}
	printEntry(out, "Intraday", run.Intraday)
	printEntry(out, "Daily", run.Daily)
}

func printEntry(out io.Writer, label string, e journal.Entry) {
	if e.Bars == 0 {
		fmt.Fprintf(out, "  %s: no bars\n", label)
		return
	}
	fmt.Fprintf(out, "  %s: %d bars (%s to %s)\n", label, e.Bars,
		e.First.Format(tradelocker.TimeLayout), e.Last.Format(tradelocker.TimeLayout))
}
