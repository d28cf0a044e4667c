// Package tradelocker reshapes canonical series into the TradeLocker
// import layout and reads and writes that layout as CSV.
package tradelocker

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/nasfeed/market"
)

// Header is the consumer column order.
var Header = []string{"symbol", "timestamp", "open", "high", "low", "close", "volume"}

// TimeLayout matches the "2024-01-02 14:30:00+00:00" form the importer expects.
const TimeLayout = "2006-01-02 15:04:05-07:00"

// ErrIOFailure is matched by every error from writing or reading a file.
var ErrIOFailure = errors.New("io failure")

// Record is one row of the TradeLocker import file.
type Record struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Format derives consumer records from s. The series is not modified.
// Timestamps are moved to UTC.
func Format(s *market.Series, symbol string) []Record {
	out := make([]Record, 0, s.Len())
	if s == nil {
		return out
	}
	for _, c := range s.Candles {
		out = append(out, Record{
			Symbol:    symbol,
			Timestamp: c.Time.UTC(),
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		})
	}
	return out
}

func (r Record) row() []string {
	return []string{
		r.Symbol,
		r.Timestamp.UTC().Format(TimeLayout),
		f(r.Open),
		f(r.High),
		f(r.Low),
		f(r.Close),
		f(r.Volume),
	}
}

// Save writes records to filename, replacing any existing file.
func Save(records []Record, filename string) error {
	fh, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIOFailure, filename, err)
	}

	w := csv.NewWriter(fh)
	if err := w.Write(Header); err != nil {
		fh.Close()
		return fmt.Errorf("%w: write header: %w", ErrIOFailure, err)
	}
	for _, r := range records {
		if err := w.Write(r.row()); err != nil {
			fh.Close()
			return fmt.Errorf("%w: write row: %w", ErrIOFailure, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		fh.Close()
		return fmt.Errorf("%w: flush %s: %w", ErrIOFailure, filename, err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIOFailure, filename, err)
	}
	return nil
}

// Load reads a file written by Save.
func Load(filename string) ([]Record, error) {
	fh, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIOFailure, filename, err)
	}
	defer fh.Close()

	rows, err := csv.NewReader(fh).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIOFailure, filename, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: missing header", filename)
	}
	if strings.Join(rows[0], ",") != strings.Join(Header, ",") {
		return nil, fmt.Errorf("%s: unexpected header %v", filename, rows[0])
	}

	out := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", filename, i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(row []string) (Record, error) {
	ts, err := time.Parse(TimeLayout, row[1])
	if err != nil {
		return Record{}, err
	}
	vals := make([]float64, 5)
	for i := range vals {
		if vals[i], err = strconv.ParseFloat(row[i+2], 64); err != nil {
			return Record{}, fmt.Errorf("column %s: %w", Header[i+2], err)
		}
	}
	return Record{
		Symbol:    row[0],
		Timestamp: ts.UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}

// FileName expands {symbol} (lower-cased) and {interval} in pattern.
func FileName(pattern, symbol string, iv market.Interval) string {
	return strings.NewReplacer(
		"{symbol}", strings.ToLower(symbol),
		"{interval}", iv.String(),
	).Replace(pattern)
}

// shortest representation that parses back to the same float64
func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
