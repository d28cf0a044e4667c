package quotes

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/rustyeddy/nasfeed/market"
)

// DefaultCSVPattern names one file per symbol and interval.
const DefaultCSVPattern = "{symbol}_{interval}.csv"

// CSVDir serves bars from OHLCV files exported by another tool.
type CSVDir struct {
	Dir     string
	Pattern string
}

func (c *CSVDir) Name() string { return "csv" }

// Path is the file CSVDir reads for symbol and iv; a leading "^" is dropped.
func (c *CSVDir) Path(symbol string, iv market.Interval) string {
	pattern := c.Pattern
	if pattern == "" {
		pattern = DefaultCSVPattern
	}
	name := strings.NewReplacer(
		"{symbol}", strings.TrimPrefix(symbol, "^"),
		"{interval}", iv.String(),
	).Replace(pattern)
	return filepath.Join(c.Dir, name)
}

func (c *CSVDir) History(ctx context.Context, req Request) (*market.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := c.Path(req.Symbol, req.Interval)
	f, err := ReadCSVFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("csv %s: %w", path, ErrDataUnavailable)
	}
	if err != nil {
		return nil, err
	}
	return filterFrame(f, req), nil
}

func filterFrame(f *market.Frame, req Request) *market.Frame {
	if req.Start.IsZero() && req.End.IsZero() {
		return f
	}
	var keep []int
	for i, t := range f.Index {
		if inRange(t, req) {
			keep = append(keep, i)
		}
	}

	index := make([]time.Time, len(keep))
	for j, i := range keep {
		index[j] = f.Index[i]
	}
	out := market.NewFrame(index)
	for _, name := range f.Columns {
		src, _ := f.Column(name)
		vals := make([]float64, len(keep))
		for j, i := range keep {
			vals[j] = src[i]
		}
		_ = out.Set(name, vals)
	}
	return out
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string) (*market.Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	f, err := ReadCSV(fh)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return f, nil
}

var timestampHeaders = map[string]bool{
	"timestamp": true,
	"datetime":  true,
	"date":      true,
	"time":      true,
}

// ReadCSV parses a header-first OHLCV CSV into a raw frame. The timestamp
// column is the first one named timestamp, datetime, date or time, else
// the first column. Columns that hold non-numeric text (a symbol column,
// say) are left out; empty and "nan" cells are nulls. UTF-8 and UTF-16
// input with a byte order mark are both accepted.
func ReadCSV(r io.Reader) (*market.Frame, error) {
	tr := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(tr)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return market.NewFrame(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	tsCol := 0
	for i, h := range header {
		if timestampHeaders[strings.ToLower(strings.TrimSpace(h))] {
			tsCol = i
			break
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	index := make([]time.Time, len(rows))
	for i, row := range rows {
		if tsCol < len(row) {
			// unparseable timestamps stay zero and are dropped by Clean
			index[i], _ = ParseTimestamp(row[tsCol])
		}
	}

	f := market.NewFrame(index)
	for col, name := range header {
		if col == tsCol {
			continue
		}
		vals, ok := numericColumn(rows, col, priceColumns[strings.ToLower(strings.TrimSpace(name))])
		if !ok {
			continue
		}
		if err := f.Set(strings.TrimSpace(name), vals); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// priceColumns keep their place in the frame even with stray text cells;
// those cells become nulls and the row is dropped by Clean.
var priceColumns = map[string]bool{
	"open":      true,
	"high":      true,
	"low":       true,
	"close":     true,
	"volume":    true,
	"adj close": true,
	"adjclose":  true,
	"adj_close": true,
}

func numericColumn(rows [][]string, col int, lenient bool) ([]float64, bool) {
	vals := make([]float64, len(rows))
	for i, row := range rows {
		if col >= len(row) {
			vals[i] = market.Null
			continue
		}
		cell := strings.TrimSpace(row[col])
		switch strings.ToLower(cell) {
		case "", "nan", "null", "none", "na", "n/a", "#n/a", "-":
			vals[i] = market.Null
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			if lenient {
				vals[i] = market.Null
				continue
			}
			return nil, false
		}
		vals[i] = v
	}
	return vals, true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"20060102 150405",
}

// ParseTimestamp accepts the common CSV timestamp forms plus unix seconds
// or milliseconds. Values without a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e11 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
