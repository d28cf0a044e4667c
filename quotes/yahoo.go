package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/nasfeed/market"
)

// YahooURL is the public chart API host.
const YahooURL = "https://query1.finance.yahoo.com"

// Yahoo fetches bars from the Yahoo Finance v8 chart API.
type Yahoo struct {
	BaseURL string
	HTTP    *http.Client

	// AutoAdjust emits the adjusted close as "Adj Close" in place of the
	// raw close when the response carries one.
	AutoAdjust bool

	Logger *zap.Logger
}

func NewYahoo(timeout time.Duration) *Yahoo {
	return &Yahoo{
		BaseURL:    YahooURL,
		HTTP:       &http.Client{Timeout: timeout},
		AutoAdjust: true,
		Logger:     zap.NewNop(),
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *Yahoo) History(ctx context.Context, req Request) (*market.Frame, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("yahoo: missing symbol")
	}
	base := y.BaseURL
	if base == "" {
		base = YahooURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	u.Path = "/v8/finance/chart/" + req.Symbol

	q := u.Query()
	q.Set("interval", req.Interval.String())
	q.Set("period1", strconv.FormatInt(req.Start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(req.End.Unix(), 10))
	q.Set("includePrePost", "false")
	q.Set("events", "div,splits")
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0")

	client := y.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	log := y.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log.Debug("yahoo chart request", zap.String("url", u.String()))

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, fmt.Errorf("yahoo: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var chart yahooChart
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo %s: no data returned: %w", req.Symbol, ErrDataUnavailable)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: no quote block: %w", req.Symbol, ErrDataUnavailable)
	}
	quote := result.Indicators.Quote[0]

	loc := time.UTC
	if tz := result.Meta.ExchangeTimezoneName; tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			log.Warn("unknown exchange timezone, using UTC", zap.String("tz", tz))
		}
	}

	n := len(result.Timestamp)
	index := make([]time.Time, n)
	for i, sec := range result.Timestamp {
		index[i] = time.Unix(sec, 0).In(loc)
	}

	open := nullable(quote.Open, n)
	high := nullable(quote.High, n)
	low := nullable(quote.Low, n)
	closeLabel, closes := "Close", nullable(quote.Close, n)
	if y.AutoAdjust && len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) == n {
		adj := nullable(result.Indicators.AdjClose[0].AdjClose, n)
		adjustPrices(closes, adj, open, high, low)
		closeLabel, closes = "Adj Close", adj
	}

	f := market.NewFrame(index)
	for _, col := range []struct {
		name string
		vals []float64
	}{
		{"Open", open},
		{"High", high},
		{"Low", low},
		{closeLabel, closes},
		{"Volume", nullable(quote.Volume, n)},
	} {
		if err := f.Set(col.name, col.vals); err != nil {
			return nil, fmt.Errorf("yahoo: %w", err)
		}
	}
	return f, nil
}

// adjustPrices scales each row of cols by adj/raw so the bar stays
// consistent with its adjusted close. Rows without a usable ratio become
// nulls.
func adjustPrices(raw, adj []float64, cols ...[]float64) {
	for i := range raw {
		ratio := adj[i] / raw[i]
		if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			ratio = market.Null
		}
		for _, c := range cols {
			c[i] *= ratio
		}
	}
}

// nullable turns JSON nulls, and cells past the end of a short array,
// into market.Null.
func nullable(vals []*float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i < len(vals) && vals[i] != nil {
			out[i] = *vals[i]
		} else {
			out[i] = market.Null
		}
	}
	return out
}
