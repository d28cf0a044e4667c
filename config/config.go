package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/nasfeed/market"
	"github.com/rustyeddy/nasfeed/synth"
)

// Providers lists the accepted source.provider values.
var Providers = []string{"yahoo", "oanda", "dukascopy", "csv", "synthetic"}

// Config represents the complete run configuration
type Config struct {
	Symbol          string          `json:"symbol" yaml:"symbol"`
	Source          SourceConfig    `json:"source" yaml:"source"`
	Intervals       IntervalsConfig `json:"intervals" yaml:"intervals"`
	Days            int             `json:"days" yaml:"days"`
	MinIntradayBars int             `json:"min_intraday_bars" yaml:"min_intraday_bars"`
	Sample          SampleConfig    `json:"sample" yaml:"sample"`
	Session         SessionConfig   `json:"session" yaml:"session"`
	Output          OutputConfig    `json:"output" yaml:"output"`
}

// SourceConfig selects the quote provider
type SourceConfig struct {
	Provider string `json:"provider" yaml:"provider"`
	Ticker   string `json:"ticker" yaml:"ticker"`
	BaseURL  string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`
	Practice bool   `json:"practice" yaml:"practice"`
	CSVDir   string `json:"csv_dir,omitempty" yaml:"csv_dir,omitempty"`
	CacheDir string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`
	Timeout  string `json:"timeout" yaml:"timeout"` // e.g. "30s"
}

// ParseTimeout converts the timeout string to time.Duration
func (s SourceConfig) ParseTimeout() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Timeout)
}

type IntervalsConfig struct {
	Intraday market.Interval `json:"intraday" yaml:"intraday"`
	Daily    market.Interval `json:"daily" yaml:"daily"`
}

// SampleConfig parameterises the synthetic generator
type SampleConfig struct {
	Seed         int64   `json:"seed" yaml:"seed"`
	BasePrice    float64 `json:"base_price" yaml:"base_price"`
	ReturnStdDev float64 `json:"return_stddev" yaml:"return_stddev"`
	RangeStdDev  float64 `json:"range_stddev" yaml:"range_stddev"`
	OpenStdDev   float64 `json:"open_stddev" yaml:"open_stddev"`
	MinVolume    int     `json:"min_volume" yaml:"min_volume"`
	MaxVolume    int     `json:"max_volume" yaml:"max_volume"`
	LooseOHLC    bool    `json:"loose_ohlc" yaml:"loose_ohlc"`
}

type SessionConfig struct {
	Timezone string `json:"timezone" yaml:"timezone"`
	Open     string `json:"open" yaml:"open"`
	Close    string `json:"close" yaml:"close"`
}

// OutputConfig names the exported files. File patterns may use {symbol}
// and {interval}.
type OutputConfig struct {
	Dir          string `json:"dir" yaml:"dir"`
	IntradayFile string `json:"intraday_file" yaml:"intraday_file"`
	DailyFile    string `json:"daily_file" yaml:"daily_file"`
	Manifest     bool   `json:"manifest" yaml:"manifest"`
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
// over the defaults, then applies the environment.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv fills the OANDA token from OANDA_TOKEN when the file has none.
func (c *Config) ApplyEnv() {
	if c.Source.Token == "" {
		c.Source.Token = os.Getenv("OANDA_TOKEN")
	}
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if !validProvider(c.Source.Provider) {
		return fmt.Errorf("source.provider must be one of %s", strings.Join(Providers, ", "))
	}
	if c.Source.Provider != "synthetic" && c.Source.Ticker == "" {
		return fmt.Errorf("source.ticker is required for provider %s", c.Source.Provider)
	}
	if c.Source.Provider == "oanda" && c.Source.Token == "" {
		return fmt.Errorf("source.token (or OANDA_TOKEN) is required for provider oanda")
	}
	if c.Source.Provider == "csv" && c.Source.CSVDir == "" {
		return fmt.Errorf("source.csv_dir is required for provider csv")
	}
	if d, err := c.Source.ParseTimeout(); err != nil || d < 0 {
		return fmt.Errorf("source.timeout must be a non-negative duration")
	}
	if c.Intervals.Intraday <= 0 {
		return fmt.Errorf("intervals.intraday is required")
	}
	if c.Intervals.Intraday.IsDaily() {
		return fmt.Errorf("intervals.intraday must be shorter than a day")
	}
	if c.Intervals.Daily <= 0 {
		return fmt.Errorf("intervals.daily is required")
	}
	if c.Days <= 0 {
		return fmt.Errorf("days must be positive")
	}
	if c.MinIntradayBars < 0 {
		return fmt.Errorf("min_intraday_bars must not be negative")
	}
	if c.Sample.BasePrice <= 0 {
		return fmt.Errorf("sample.base_price must be positive")
	}
	if c.Sample.ReturnStdDev < 0 || c.Sample.RangeStdDev < 0 || c.Sample.OpenStdDev < 0 {
		return fmt.Errorf("sample standard deviations must not be negative")
	}
	if c.Sample.MinVolume < 0 || c.Sample.MaxVolume <= c.Sample.MinVolume {
		return fmt.Errorf("sample.max_volume must be greater than sample.min_volume")
	}
	if _, err := c.MarketSession(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if c.Output.IntradayFile == "" || c.Output.DailyFile == "" {
		return fmt.Errorf("output.intraday_file and output.daily_file are required")
	}
	if c.Output.IntradayFile == c.Output.DailyFile {
		return fmt.Errorf("output.intraday_file and output.daily_file must differ")
	}
	return nil
}

func validProvider(p string) bool {
	for _, v := range Providers {
		if p == v {
			return true
		}
	}
	return false
}

// MarketSession builds the exchange session described by the config.
func (c *Config) MarketSession() (market.Session, error) {
	return market.NewSession(c.Session.Timezone, c.Session.Open, c.Session.Close)
}

// SynthOptions maps the sample section onto generator options.
func (c *Config) SynthOptions() (synth.Options, error) {
	sess, err := c.MarketSession()
	if err != nil {
		return synth.Options{}, err
	}
	return synth.Options{
		Seed:         c.Sample.Seed,
		BasePrice:    c.Sample.BasePrice,
		ReturnStdDev: c.Sample.ReturnStdDev,
		RangeStdDev:  c.Sample.RangeStdDev,
		OpenStdDev:   c.Sample.OpenStdDev,
		MinVolume:    c.Sample.MinVolume,
		MaxVolume:    c.Sample.MaxVolume,
		Interval:     c.Intervals.Intraday,
		Session:      sess,
		LooseOHLC:    c.Sample.LooseOHLC,
	}, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	opts := synth.DefaultOptions()
	return &Config{
		Symbol: "NAS100",
		Source: SourceConfig{
			Provider: "yahoo",
			Ticker:   "^NDX",
			Practice: true,
			Timeout:  "30s",
		},
		Intervals: IntervalsConfig{
			Intraday: market.Minute15,
			Daily:    market.Daily,
		},
		Days:            30,
		MinIntradayBars: 100,
		Sample: SampleConfig{
			Seed:         opts.Seed,
			BasePrice:    opts.BasePrice,
			ReturnStdDev: opts.ReturnStdDev,
			RangeStdDev:  opts.RangeStdDev,
			OpenStdDev:   opts.OpenStdDev,
			MinVolume:    opts.MinVolume,
			MaxVolume:    opts.MaxVolume,
		},
		Session: SessionConfig{
			Timezone: market.ExchangeTimezone,
			Open:     market.SessionOpen,
			Close:    market.SessionClose,
		},
		Output: OutputConfig{
			Dir:          ".",
			IntradayFile: "{symbol}_15m_data.csv",
			DailyFile:    "{symbol}_daily_data.csv",
			Manifest:     true,
		},
	}
}
