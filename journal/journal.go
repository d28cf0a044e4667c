// Package journal records what a run produced: where the data came from
// and what was written, as a YAML manifest beside the CSV files.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/nasfeed/market"
	"github.com/rustyeddy/nasfeed/pkg/id"
)

// Entry describes one exported series.
type Entry struct {
	Interval market.Interval `yaml:"interval,omitempty"`
	Bars     int             `yaml:"bars"`
	First    time.Time       `yaml:"first,omitempty"`
	Last     time.Time       `yaml:"last,omitempty"`
	File     string          `yaml:"file"`
}

// Run is the manifest of one export.
type Run struct {
	ID        string    `yaml:"id"`
	CreatedAt time.Time `yaml:"created_at"`
	Symbol    string    `yaml:"symbol"`
	Source    string    `yaml:"source"`
	Synthetic bool      `yaml:"synthetic"`
	Reason    string    `yaml:"reason,omitempty"`
	Intraday  Entry     `yaml:"intraday"`
	Daily     Entry     `yaml:"daily"`
}

// NewRun stamps a run with a fresh ID taken at now.
func NewRun(now time.Time, symbol, source string, synthetic bool, reason string) *Run {
	return &Run{
		ID:        id.At(now),
		CreatedAt: now.UTC(),
		Symbol:    symbol,
		Source:    source,
		Synthetic: synthetic,
		Reason:    reason,
	}
}

// Describe summarises s as written to file.
func Describe(s *market.Series, file string) Entry {
	e := Entry{Bars: s.Len(), File: file}
	if s != nil {
		e.Interval = s.Interval
	}
	if !s.Empty() {
		e.First = s.First().Time.UTC()
		e.Last = s.Last().Time.UTC()
	}
	return e
}

// ManifestName is the manifest file name for symbol.
func ManifestName(symbol string) string {
	return strings.ToLower(symbol) + "_manifest.yaml"
}

// WriteRun writes r to dir/<symbol>_manifest.yaml and returns the path.
func WriteRun(dir string, r *Run) (string, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestName(r.Symbol))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// ReadRun loads a manifest written by WriteRun.
func ReadRun(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	r := &Run{}
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return r, nil
}
