package market

import (
	"fmt"
	"time"
)

// Series is the canonical OHLCV table: bars sorted by time with no
// duplicate timestamps and no missing fields.
type Series struct {
	Symbol   string
	Interval Interval
	Candles  []Candle
}

// Len is the number of bars; a nil series has none.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Candles)
}

func (s *Series) Empty() bool {
	return s.Len() == 0
}

func (s *Series) First() Candle {
	return s.Candles[0]
}

func (s *Series) Last() Candle {
	return s.Candles[len(s.Candles)-1]
}

// Clone returns a deep copy; the candle slice is not shared.
func (s *Series) Clone() *Series {
	out := *s
	out.Candles = append([]Candle(nil), s.Candles...)
	return &out
}

// Frame converts the series back into a raw table with the five canonical
// columns, so it can be fed through Clean again.
func (s *Series) Frame() *Frame {
	n := s.Len()
	index := make([]time.Time, n)
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	cl := make([]float64, n)
	vol := make([]float64, n)
	for i, c := range s.Candles {
		index[i] = c.Time
		open[i], high[i], low[i], cl[i], vol[i] = c.Open, c.High, c.Low, c.Close, c.Volume
	}

	f := NewFrame(index)
	f.Columns = append(f.Columns, RequiredColumns...)
	f.data["open"] = open
	f.data["high"] = high
	f.data["low"] = low
	f.data["close"] = cl
	f.data["volume"] = vol
	return f
}

// Validate checks the canonical invariants.
func (s *Series) Validate() error {
	for i, c := range s.Candles {
		if !c.complete() {
			return fmt.Errorf("bar %d at %s has a missing field", i, c.Time)
		}
		if c.Volume < 0 {
			return fmt.Errorf("bar %d at %s has negative volume %v", i, c.Time, c.Volume)
		}
		if i > 0 && !s.Candles[i-1].Time.Before(c.Time) {
			return fmt.Errorf("bar %d at %s is not after %s", i, c.Time, s.Candles[i-1].Time)
		}
	}
	return nil
}
