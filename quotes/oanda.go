package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/nasfeed/market"
)

const (
	// PracticeURL is the URL for OANDA's practice/demo environment
	PracticeURL = "https://api-fxpractice.oanda.com"
	// LiveURL is the URL for OANDA's live trading environment
	LiveURL = "https://api-fxtrade.oanda.com"
)

// OANDA fetches mid-price candles from the OANDA v20 REST API.
type OANDA struct {
	BaseURL string
	Token   string
	HTTP    *http.Client

	// Instruments maps a ticker to an OANDA instrument name. Unmapped
	// tickers are sent as-is.
	Instruments map[string]string

	Logger *zap.Logger
}

func NewOANDA(token string, practice bool, timeout time.Duration) *OANDA {
	baseURL := LiveURL
	if practice {
		baseURL = PracticeURL
	}
	return &OANDA{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
		Instruments: map[string]string{
			"^NDX":   "NAS100_USD",
			"NAS100": "NAS100_USD",
		},
		Logger: zap.NewNop(),
	}
}

func (o *OANDA) Name() string { return "oanda" }

// candleData represents the OHLC data in the API response
type candleData struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type apiCandle struct {
	Complete bool        `json:"complete"`
	Volume   int         `json:"volume"`
	Time     string      `json:"time"`
	Mid      *candleData `json:"mid,omitempty"`
}

type candlesResponse struct {
	Instrument  string      `json:"instrument"`
	Granularity string      `json:"granularity"`
	Candles     []apiCandle `json:"candles"`
}

// Granularity maps an interval to an OANDA candle granularity.
func Granularity(iv market.Interval) (string, error) {
	tf, err := iv.Timeframe()
	if err != nil {
		return "", err
	}
	switch tf {
	case "D1":
		return "D", nil
	case "W1":
		return "W", nil
	case "M1", "M2", "M4", "M5", "M10", "M15", "M30",
		"H1", "H2", "H3", "H4", "H6", "H8", "H12":
		return tf, nil
	}
	return "", fmt.Errorf("oanda: no granularity for %s", iv)
}

func (o *OANDA) History(ctx context.Context, req Request) (*market.Frame, error) {
	if o.Token == "" {
		return nil, fmt.Errorf("oanda: missing token")
	}
	if o.BaseURL == "" {
		return nil, fmt.Errorf("oanda: missing base url")
	}
	if req.Symbol == "" {
		return nil, fmt.Errorf("oanda: missing instrument")
	}
	gran, err := Granularity(req.Interval)
	if err != nil {
		return nil, err
	}
	instrument := req.Symbol
	if mapped, ok := o.Instruments[req.Symbol]; ok {
		instrument = mapped
	}

	u, err := url.Parse(o.BaseURL)
	if err != nil {
		return nil, err
	}
	u.Path = fmt.Sprintf("/v3/instruments/%s/candles", instrument)

	q := u.Query()
	q.Set("granularity", gran)
	q.Set("price", "M")
	if !req.Start.IsZero() {
		q.Set("from", req.Start.UTC().Format(time.RFC3339))
	}
	if !req.End.IsZero() {
		q.Set("to", req.End.UTC().Format(time.RFC3339))
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.Token)
	httpReq.Header.Set("Content-Type", "application/json")

	client := o.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	if o.Logger != nil {
		o.Logger.Debug("oanda candles request",
			zap.String("instrument", instrument), zap.String("granularity", gran))
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, fmt.Errorf("oanda candles http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var cr candlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var (
		index                     []time.Time
		open, high, low, cl, vols []float64
	)
	for _, ac := range cr.Candles {
		// Skip incomplete candles
		if !ac.Complete || ac.Mid == nil {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, ac.Time)
		if err != nil {
			return nil, fmt.Errorf("parse time %s: %w", ac.Time, err)
		}
		index = append(index, t)
		open = append(open, parsePrice(ac.Mid.O))
		high = append(high, parsePrice(ac.Mid.H))
		low = append(low, parsePrice(ac.Mid.L))
		cl = append(cl, parsePrice(ac.Mid.C))
		vols = append(vols, float64(ac.Volume))
	}

	f := market.NewFrame(index)
	for _, col := range []struct {
		name string
		vals []float64
	}{
		{"open", open}, {"high", high}, {"low", low}, {"close", cl}, {"volume", vols},
	} {
		if err := f.Set(col.name, col.vals); err != nil {
			return nil, fmt.Errorf("oanda: %w", err)
		}
	}
	return f, nil
}

// parsePrice maps an unparseable price to market.Null so Clean drops the row.
func parsePrice(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return market.Null
	}
	return v
}
