package quotes

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ulikunitz/xz/lzma"
	"go.uber.org/zap"

	"github.com/rustyeddy/nasfeed/market"
)

// DukascopyURL is the public tick datafeed.
const DukascopyURL = "https://datafeed.dukascopy.com/datafeed"

// tick record: ms offset, ask, bid, ask volume, bid volume; big endian
const tickSize = 20

// Dukascopy builds bars from hourly LZMA tick archives (.bi5).
type Dukascopy struct {
	BaseURL string
	HTTP    *http.Client

	// Instruments maps a ticker to a datafeed symbol. Unmapped tickers
	// are upper-cased and sent as-is.
	Instruments map[string]string

	// PointScale divides the integer prices in the archives.
	PointScale float64

	// Session limits bars to the regular trading window.
	Session market.Session

	// CacheDir, when set, keeps downloaded archives and reuses them.
	CacheDir string

	Workers int
	Logger  *zap.Logger
}

func NewDukascopy(timeout time.Duration) *Dukascopy {
	return &Dukascopy{
		BaseURL: DukascopyURL,
		HTTP:    &http.Client{Timeout: timeout},
		Instruments: map[string]string{
			"^NDX":   "USATECHIDXUSD",
			"NAS100": "USATECHIDXUSD",
		},
		PointScale: 1000,
		Session:    market.DefaultSession(),
		Workers:    4,
		Logger:     zap.NewNop(),
	}
}

func (d *Dukascopy) Name() string { return "dukascopy" }

type tick struct {
	time   time.Time
	ask    float64
	bid    float64
	volume float64
}

func (d *Dukascopy) symbol(ticker string) string {
	if s, ok := d.Instruments[ticker]; ok {
		return s
	}
	return strings.ToUpper(strings.TrimPrefix(ticker, "^"))
}

// TickURL names the archive for the hour starting at t (UTC). Months in
// the path are zero-based.
func TickURL(base, symbol string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s/%s/%04d/%02d/%02d/%02dh_ticks.bi5",
		strings.TrimRight(base, "/"),
		symbol,
		t.Year(), int(t.Month())-1, t.Day(), t.Hour())
}

// History downloads the session hours of [Start, End) and builds bars of
// req.Interval from their ticks.
func (d *Dukascopy) History(ctx context.Context, req Request) (*market.Frame, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("dukascopy: missing symbol")
	}
	if req.Start.IsZero() || !req.End.After(req.Start) {
		return nil, fmt.Errorf("dukascopy: bad range %s - %s", req.Start, req.End)
	}
	base := d.BaseURL
	if base == "" {
		base = DukascopyURL
	}
	sym := d.symbol(req.Symbol)

	var hours []time.Time
	for h := req.Start.UTC().Truncate(time.Hour); h.Before(req.End); h = h.Add(time.Hour) {
		if d.Session.Contains(h) || d.Session.Contains(h.Add(time.Hour-time.Minute)) {
			hours = append(hours, h)
		}
	}

	workers := d.Workers
	if workers <= 0 {
		workers = 1
	}

	// the first failed hour stops the rest of the downloads
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobCh := make(chan time.Time)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var ticks []tick
	var firstErr error
	var miss int

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for h := range jobCh {
				if fetchCtx.Err() != nil {
					continue
				}
				ts, found, err := d.hour(fetchCtx, base, sym, h)
				mu.Lock()
				switch {
				case err != nil:
					if firstErr == nil {
						firstErr = err
						cancel()
					}
				case !found:
					miss++
				default:
					ticks = append(ticks, ts...)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, h := range hours {
		select {
		case jobCh <- h:
		case <-fetchCtx.Done():
			break feed
		}
	}
	close(jobCh)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.log().Debug("dukascopy ticks",
		zap.String("symbol", sym),
		zap.Int("hours", len(hours)),
		zap.Int("missing", miss),
		zap.Int("ticks", len(ticks)))

	var kept []tick
	for _, t := range ticks {
		if inRange(t.time, req) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: dukascopy has no ticks for %s", ErrDataUnavailable, sym)
	}
	return d.bars(kept, req.Interval), nil
}

func (d *Dukascopy) log() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// bars buckets session ticks by interval on mid price. Daily buckets are
// keyed by exchange-local date.
func (d *Dukascopy) bars(ticks []tick, iv market.Interval) *market.Frame {
	sort.SliceStable(ticks, func(i, j int) bool { return ticks[i].time.Before(ticks[j].time) })

	type bar struct{ o, h, l, c, v float64 }
	var keys []time.Time
	buckets := map[time.Time]*bar{}
	for _, t := range ticks {
		if !d.Session.Contains(t.time) {
			continue
		}
		key := t.time.Truncate(iv.Duration())
		if iv.IsDaily() {
			key = d.Session.Date(t.time)
		}

		mid := (t.ask + t.bid) / 2
		b, ok := buckets[key]
		if !ok {
			b = &bar{o: mid, h: mid, l: mid}
			buckets[key] = b
			keys = append(keys, key)
		}
		b.h = math.Max(b.h, mid)
		b.l = math.Min(b.l, mid)
		b.c = mid
		b.v += t.volume
	}

	f := market.NewFrame(keys)
	cols := map[string][]float64{}
	for _, k := range keys {
		b := buckets[k]
		cols["open"] = append(cols["open"], b.o)
		cols["high"] = append(cols["high"], b.h)
		cols["low"] = append(cols["low"], b.l)
		cols["close"] = append(cols["close"], b.c)
		cols["volume"] = append(cols["volume"], b.v)
	}
	if len(keys) == 0 {
		return f
	}
	for _, name := range market.RequiredColumns {
		_ = f.Set(name, cols[name])
	}
	return f
}

// hour returns the ticks of one archive. found is false for hours the
// feed has no file for.
func (d *Dukascopy) hour(ctx context.Context, base, sym string, h time.Time) ([]tick, bool, error) {
	raw, found, err := d.archive(ctx, TickURL(base, sym, h), d.cachePath(sym, h))
	if err != nil || !found {
		return nil, found, err
	}
	if len(raw) == 0 {
		return nil, true, nil
	}

	r, err := lzma.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, false, fmt.Errorf("dukascopy %s: %w", h.Format("2006-01-02T15"), err)
	}
	ticks, err := decodeTicks(r, h, d.scale())
	if err != nil {
		return nil, false, fmt.Errorf("dukascopy %s: %w", h.Format("2006-01-02T15"), err)
	}
	return ticks, true, nil
}

func (d *Dukascopy) scale() float64 {
	if d.PointScale > 0 {
		return d.PointScale
	}
	return 1000
}

func (d *Dukascopy) cachePath(sym string, h time.Time) string {
	if d.CacheDir == "" {
		return ""
	}
	return filepath.Join(d.CacheDir, sym,
		fmt.Sprintf("%04d", h.Year()), fmt.Sprintf("%02d", h.Month()), fmt.Sprintf("%02d", h.Day()),
		fmt.Sprintf("%02dh_ticks.bi5", h.Hour()))
}

// archive downloads url, or reads it from the cache when present.
func (d *Dukascopy) archive(ctx context.Context, url, cache string) ([]byte, bool, error) {
	if cache != "" {
		if b, err := os.ReadFile(cache); err == nil {
			return b, true, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", "nasfeed/1.0")

	client := d.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("dukascopy: status %d for %s", resp.StatusCode, url)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	if cache != "" {
		if err := writeCache(cache, b); err != nil {
			d.log().Warn("cache write failed", zap.String("path", cache), zap.Error(err))
		}
	}
	return b, true, nil
}

func writeCache(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".part"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func decodeTicks(r io.Reader, hour time.Time, scale float64) ([]tick, error) {
	var out []tick
	buf := make([]byte, tickSize)
	for {
		_, err := io.ReadFull(r, buf)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("short tick record: %w", err)
		}
		ms := binary.BigEndian.Uint32(buf[0:4])
		ask := binary.BigEndian.Uint32(buf[4:8])
		bid := binary.BigEndian.Uint32(buf[8:12])
		askVol := math.Float32frombits(binary.BigEndian.Uint32(buf[12:16]))
		bidVol := math.Float32frombits(binary.BigEndian.Uint32(buf[16:20]))
		out = append(out, tick{
			time:   hour.Add(time.Duration(ms) * time.Millisecond),
			ask:    float64(ask) / scale,
			bid:    float64(bid) / scale,
			volume: float64(askVol) + float64(bidVol),
		})
	}
}
