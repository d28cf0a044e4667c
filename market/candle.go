package market

import (
	"math"
	"time"
)

// Candle represents OHLCV (Open, High, Low, Close, Volume) bar data
type Candle struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
	time.Time
	Volume float64
}

// complete reports whether every price and volume field holds a value.
func (c Candle) complete() bool {
	for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) {
			return false
		}
	}
	return !c.Time.IsZero()
}
