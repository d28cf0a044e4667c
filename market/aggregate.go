package market

import "time"

// AggregateDaily rolls intraday bars up into one bar per business day of
// the session between the calendar dates of from and to, inclusive. Open
// is the first open, High the max high, Low the min low, Close the last
// close and Volume the sum. A day with fewer than minBars intraday bars
// produces no row. Daily bars are stamped with exchange-local midnight,
// expressed in UTC.
func AggregateDaily(intraday []Candle, sess Session, from, to time.Time, minBars int) []Candle {
	if minBars < 1 {
		minBars = 1
	}

	byDay := make(map[time.Time][]Candle)
	for _, c := range intraday {
		d := sess.Date(c.Time)
		byDay[d] = append(byDay[d], c)
	}

	var out []Candle
	last := sess.Date(to)
	for d := sess.Date(from); !d.After(last); d = nextDay(d) {
		if !sess.IsBusinessDay(d) {
			continue
		}
		bars := byDay[d]
		if len(bars) < minBars {
			continue
		}

		agg := Candle{
			Open: bars[0].Open,
			High: bars[0].High,
			Low:  bars[0].Low,
			Time: d.UTC(),
		}
		for _, b := range bars {
			if b.High > agg.High {
				agg.High = b.High
			}
			if b.Low < agg.Low {
				agg.Low = b.Low
			}
			agg.Close = b.Close
			agg.Volume += b.Volume
		}
		out = append(out, agg)
	}
	return out
}

// nextDay steps one calendar day in d's location, so DST changes do not
// shift the result off midnight.
func nextDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, d.Location())
}
