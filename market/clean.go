package market

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// RequiredColumns is the canonical column set, in canonical order.
var RequiredColumns = []string{"open", "high", "low", "close", "volume"}

var closeSynonyms = map[string]bool{
	"adj close": true,
	"adjclose":  true,
	"adj_close": true,
}

// ErrMissingColumn is matched by every MissingColumnError.
var ErrMissingColumn = errors.New("missing required column")

type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q not found in data", e.Column)
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// Clean normalizes a raw frame into a canonical Series.
//
// Labels are lower-cased and adjusted-close synonyms become "close" unless
// an explicit close column exists. A missing volume column is filled with
// zeros; any other missing required column is a MissingColumnError. Rows
// with a null in any column are dropped, the rest are sorted by time and
// duplicate timestamps keep their first row. A nil or empty frame yields
// an empty series. A frame whose columns do not match its index is an
// error.
func Clean(f *Frame) (*Series, error) {
	if f.Empty() {
		return &Series{}, nil
	}
	if err := f.check(); err != nil {
		return nil, err
	}

	cols := lowerColumns(f)
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; ok {
			continue
		}
		if name != "volume" {
			return nil, &MissingColumnError{Column: name}
		}
		cols[name] = make([]float64, f.Len())
	}

	candles := make([]Candle, 0, f.Len())
rows:
	for i, ts := range f.Index {
		if ts.IsZero() {
			continue
		}
		for _, name := range f.Columns {
			if math.IsNaN(f.data[name][i]) {
				continue rows
			}
		}
		candles = append(candles, Candle{
			Open:   cols["open"][i],
			High:   cols["high"][i],
			Low:    cols["low"][i],
			Close:  cols["close"][i],
			Time:   ts,
			Volume: cols["volume"][i],
		})
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	// keep-first policy for duplicate timestamps
	out := candles[:0]
	for _, c := range candles {
		if len(out) > 0 && out[len(out)-1].Time.Equal(c.Time) {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		out = nil
	}

	return &Series{Candles: out}, nil
}

// lowerColumns maps lower-cased labels to their data. The first column to
// claim a label keeps it.
func lowerColumns(f *Frame) map[string][]float64 {
	hasClose := false
	for _, name := range f.Columns {
		if normalizeLabel(name) == "close" {
			hasClose = true
			break
		}
	}

	cols := make(map[string][]float64, len(f.Columns))
	for _, name := range f.Columns {
		key := normalizeLabel(name)
		if closeSynonyms[key] {
			if hasClose {
				continue
			}
			key = "close"
		}
		if _, ok := cols[key]; ok {
			continue
		}
		cols[key] = f.data[name]
	}
	return cols
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
