package cmd

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rustyeddy/nasfeed/config"
	"github.com/rustyeddy/nasfeed/journal"
	"github.com/rustyeddy/nasfeed/loader"
	"github.com/rustyeddy/nasfeed/quotes"
	"github.com/rustyeddy/nasfeed/tradelocker"
)

func fixClock(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(2024, 3, 13, 19, 7, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prev })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "nasfeed version "+version)
}

func TestSampleCommand(t *testing.T) {
	fixClock(t)
	dir := t.TempDir()

	out, err := execute(t, "sample", "--days", "10", "--seed", "42", "--out", dir)
	require.NoError(t, err)

	intraday := filepath.Join(dir, "nas100_15m_data.csv")
	daily := filepath.Join(dir, "nas100_daily_data.csv")
	assert.Contains(t, out, "Data saved to "+intraday)
	assert.Contains(t, out, "Data saved to "+daily)
	assert.Contains(t, out, "NAS100 from synthetic data")

	recs, err := tradelocker.Load(intraday)
	require.NoError(t, err)
	assert.NotEmpty(t, recs)
	assert.Equal(t, "NAS100", recs[0].Symbol)

	run, err := journal.ReadRun(filepath.Join(dir, "nas100_manifest.yaml"))
	require.NoError(t, err)
	assert.True(t, run.Synthetic)
	assert.Equal(t, len(recs), run.Intraday.Bars)
	assert.Equal(t, "nas100_15m_data.csv", run.Intraday.File)

	// same seed and clock give the same file
	dir2 := t.TempDir()
	_, err = execute(t, "sample", "--days", "10", "--seed", "42", "--out", dir2)
	require.NoError(t, err)
	a, err := os.ReadFile(intraday)
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dir2, "nas100_15m_data.csv"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRunFallsBackToSynthetic(t *testing.T) {
	fixClock(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Source.BaseURL = server.URL
	cfg.Output.Dir = dir
	cfg.Days = 10
	cfgPath := filepath.Join(dir, "nasfeed.yaml")
	require.NoError(t, cfg.SaveToFile(cfgPath))

	out, err := execute(t, "run", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Fallback:")

	run, err := journal.ReadRun(filepath.Join(dir, "nas100_manifest.yaml"))
	require.NoError(t, err)
	assert.True(t, run.Synthetic)
	assert.Equal(t, "synthetic", run.Source)
	assert.Contains(t, run.Reason, "data unavailable")
	assert.Positive(t, run.Daily.Bars)
}

const rawCSV = `Date,Open,High,Low,Close,Adj Close,Volume
2024-01-02 14:45:00,15010,15020,15000,15015,15015,800
2024-01-02 14:30:00,15000,15012,14990,15010,15010,1200
2024-01-02 15:00:00,15015,,15005,15011,15011,900
`

func TestConvertAndInspect(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "raw.csv")
	dst := filepath.Join(dir, "nas100_15m_data.csv")
	require.NoError(t, os.WriteFile(in, []byte(rawCSV), 0o644))

	out, err := execute(t, "convert", "--in", in, "--out", dst, "--symbol", "NAS100")
	require.NoError(t, err)
	assert.Contains(t, out, "Data saved to "+dst)
	assert.Contains(t, out, "2 of 3 rows kept")

	recs, err := tradelocker.Load(dst)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].Timestamp.Before(recs[1].Timestamp))
	assert.Equal(t, 15000.0, recs[0].Open)

	out, err = execute(t, "inspect", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "2 bars")
	assert.Contains(t, out, "Range:  14990.00 - 15020.00")
}

func TestConfigInitValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nasfeed.yaml")

	out, err := execute(t, "config", "init", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")

	out, err = execute(t, "config", "validate", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "NAS100 (^NDX via yahoo)")
}

func TestNewSource(t *testing.T) {
	log := zaptest.NewLogger(t)
	tests := []struct {
		provider string
		check    func(t *testing.T, src quotes.Source)
	}{
		{"yahoo", func(t *testing.T, src quotes.Source) { assert.IsType(t, &quotes.Yahoo{}, src) }},
		{"oanda", func(t *testing.T, src quotes.Source) {
			require.IsType(t, &quotes.OANDA{}, src)
			assert.Equal(t, "tok", src.(*quotes.OANDA).Token)
		}},
		{"dukascopy", func(t *testing.T, src quotes.Source) { assert.IsType(t, &quotes.Dukascopy{}, src) }},
		{"csv", func(t *testing.T, src quotes.Source) { assert.IsType(t, &quotes.CSVDir{}, src) }},
		{"synthetic", func(t *testing.T, src quotes.Source) { assert.Nil(t, src) }},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := config.Default()
			cfg.Source.Provider = tt.provider
			cfg.Source.Token = "tok"
			cfg.Source.CSVDir = t.TempDir()
			src, err := newSource(cfg, log)
			require.NoError(t, err)
			tt.check(t, src)
		})
	}

	cfg := config.Default()
	cfg.Source.Provider = "ftp"
	_, err := newSource(cfg, log)
	assert.Error(t, err)
}

func TestExportBadDirectory(t *testing.T) {
	fixClock(t)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	cfg := config.Default()
	cfg.Output.Dir = filepath.Join(file, "sub")
	l, err := newLoader(cfg, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	intraday, daily := l.GenerateSample(5)

	_, err = export(&bytes.Buffer{}, cfg, &loader.Result{Intraday: intraday, Daily: daily, Synthetic: true, Source: "synthetic"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, tradelocker.ErrIOFailure))
}

func TestPrintSummary(t *testing.T) {
	buf := &bytes.Buffer{}
	first := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	printSummary(buf, &journal.Run{
		Symbol:   "NAS100",
		Source:   "yahoo",
		Intraday: journal.Entry{Bars: 2, First: first, Last: first.Add(15 * time.Minute)},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "NAS100 from yahoo", lines[0])
	assert.Equal(t, "  Intraday: 2 bars (2024-01-02 14:30:00+00:00 to 2024-01-02 14:45:00+00:00)", lines[1])
	assert.Equal(t, "  Daily: no bars", lines[2])
}
