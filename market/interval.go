package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
)

// Interval is the bar size of a series.
type Interval time.Duration

const (
	Minute15 = Interval(15 * time.Minute)
	Hour1    = Interval(time.Hour)
	Daily    = Interval(day)
	Weekly   = Interval(week)
)

// ParseInterval accepts provider style strings ("15m", "1h", "1d", "1wk")
// and timeframe strings ("M15", "H1", "D1", "W1").
func ParseInterval(s string) (Interval, error) {
	tf := strings.TrimSpace(s)
	if tf == "" {
		return 0, fmt.Errorf("empty interval")
	}

	switch strings.ToUpper(tf) {
	case "D", "D1":
		return Daily, nil
	case "W", "W1":
		return Weekly, nil
	}

	// M15, H4
	if len(tf) > 1 && (tf[0] == 'M' || tf[0] == 'H') {
		if n, err := strconv.Atoi(tf[1:]); err == nil && n > 0 {
			unit := time.Minute
			if tf[0] == 'H' {
				unit = time.Hour
			}
			return Interval(time.Duration(n) * unit), nil
		}
	}

	lower := strings.ToLower(tf)
	for _, u := range []struct {
		suffix string
		unit   time.Duration
	}{
		{"min", time.Minute},
		{"wk", week},
		{"m", time.Minute},
		{"h", time.Hour},
		{"d", day},
	} {
		if !strings.HasSuffix(lower, u.suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(lower, u.suffix))
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("unsupported interval: %s", s)
		}
		return Interval(time.Duration(n) * u.unit), nil
	}
	return 0, fmt.Errorf("unsupported interval: %s", s)
}

func (iv Interval) Duration() time.Duration {
	return time.Duration(iv)
}

func (iv Interval) IsDaily() bool {
	return iv.Duration() >= day
}

// String renders the provider style form: 15m, 1h, 1d, 1wk.
func (iv Interval) String() string {
	d := iv.Duration()
	switch {
	case d <= 0:
		return "0m"
	case d%week == 0:
		return fmt.Sprintf("%dwk", d/week)
	case d%day == 0:
		return fmt.Sprintf("%dd", d/day)
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	default:
		return fmt.Sprintf("%dm", d/time.Minute)
	}
}

// Timeframe renders the M15/H1/D1/W1 form.
func (iv Interval) Timeframe() (string, error) {
	sec := int64(iv.Duration() / time.Second)
	if sec <= 0 || sec%60 != 0 {
		return "", fmt.Errorf("invalid timeframe seconds: %d", sec)
	}

	if sec < 3600 {
		return fmt.Sprintf("M%d", sec/60), nil
	}
	if sec < 86400 && sec%3600 == 0 {
		return fmt.Sprintf("H%d", sec/3600), nil
	}
	if sec%86400 == 0 {
		days := sec / 86400
		if days == 7 {
			return "W1", nil
		}
		return fmt.Sprintf("D%d", days), nil
	}
	return "", fmt.Errorf("cannot map timeframe: %d seconds", sec)
}

func (iv Interval) MarshalText() ([]byte, error) {
	return []byte(iv.String()), nil
}

func (iv *Interval) UnmarshalText(b []byte) error {
	v, err := ParseInterval(string(b))
	if err != nil {
		return err
	}
	*iv = v
	return nil
}
