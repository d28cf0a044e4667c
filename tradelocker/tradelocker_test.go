package tradelocker

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/nasfeed/market"
	"github.com/rustyeddy/nasfeed/synth"
)

func testSeries() *market.Series {
	ny, _ := time.LoadLocation("America/New_York")
	return &market.Series{
		Symbol:   "NAS100",
		Interval: market.Minute15,
		Candles: []market.Candle{
			{Open: 15000.25, High: 15010.5, Low: 14995.125, Close: 15005.1, Time: time.Date(2024, 1, 2, 9, 30, 0, 0, ny), Volume: 1234},
			{Open: 15005.1, High: 15020, Low: 15001, Close: 15018.333333333334, Time: time.Date(2024, 1, 2, 9, 45, 0, 0, ny), Volume: 987},
		},
	}
}

func TestFormat(t *testing.T) {
	s := testSeries()
	before := s.Clone()

	recs := Format(s, "NAS100")
	require.Len(t, recs, 2)

	assert.Equal(t, before, s, "input series must not change")
	for i, r := range recs {
		assert.Equal(t, "NAS100", r.Symbol)
		assert.Equal(t, time.UTC, r.Timestamp.Location())
		assert.True(t, r.Timestamp.Equal(s.Candles[i].Time))
		assert.Equal(t, s.Candles[i].Close, r.Close)
	}
	assert.Equal(t, 14, recs[0].Timestamp.Hour())
	assert.Equal(t, 30, recs[0].Timestamp.Minute())
}

func TestFormatEmpty(t *testing.T) {
	assert.Empty(t, Format(nil, "NAS100"))
	assert.Empty(t, Format(&market.Series{}, "NAS100"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testSeries()
	recs := Format(s, "NAS100")

	fname := filepath.Join(t.TempDir(), "nas100_15m_data.csv")
	require.NoError(t, Save(recs, fname))

	got, err := Load(fname)
	require.NoError(t, err)
	require.Len(t, got, len(recs))
	for i := range recs {
		assert.Equal(t, recs[i].Symbol, got[i].Symbol)
		assert.True(t, recs[i].Timestamp.Equal(got[i].Timestamp))
		assert.Equal(t, recs[i].Open, got[i].Open)
		assert.Equal(t, recs[i].High, got[i].High)
		assert.Equal(t, recs[i].Low, got[i].Low)
		assert.Equal(t, recs[i].Close, got[i].Close)
		assert.Equal(t, recs[i].Volume, got[i].Volume)
	}
}

func TestSaveLayout(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, Save(Format(testSeries(), "NAS100"), fname))

	raw, err := os.ReadFile(fname)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "symbol,timestamp,open,high,low,close,volume", lines[0])
	assert.Equal(t, "NAS100,2024-01-02 14:30:00+00:00,15000.25,15010.5,14995.125,15005.1,1234", lines[1])
}

func TestSaveOverwrites(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(fname, []byte("junk\njunk\njunk\njunk\njunk\n"), 0o644))

	recs := Format(testSeries(), "NAS100")
	require.NoError(t, Save(recs[:1], fname))

	got, err := Load(fname)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSaveDeterministic(t *testing.T) {
	gen := synth.New(synth.DefaultOptions())
	gen.Now = func() time.Time { return time.Date(2024, 3, 13, 19, 7, 0, 0, time.UTC) }

	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")

	intraday, _ := gen.Generate(10)
	require.NoError(t, Save(Format(intraday, "NAS100"), a))
	intraday, _ = gen.Generate(10)
	require.NoError(t, Save(Format(intraday, "NAS100"), b))

	ab, err := os.ReadFile(a)
	require.NoError(t, err)
	bb, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, ab, bb)
}

func TestSaveMissingDirectory(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "missing", "out.csv")
	err := Save(Format(testSeries(), "NAS100"), fname)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIOFailure))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "nope.csv"))
	assert.True(t, errors.Is(err, ErrIOFailure))

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("a,b,c\n1,2,3\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "unexpected header")

	badRow := filepath.Join(dir, "badrow.csv")
	require.NoError(t, os.WriteFile(badRow, []byte(strings.Join(Header, ",")+"\nNAS100,2024-01-02 14:30:00+00:00,x,1,1,1,1\n"), 0o644))
	_, err = Load(badRow)
	assert.ErrorContains(t, err, "line 2")
}

func TestFileName(t *testing.T) {
	tests := []struct {
		pattern string
		iv      market.Interval
		want    string
	}{
		{"{symbol}_15m_data.csv", market.Minute15, "nas100_15m_data.csv"},
		{"{symbol}_daily_data.csv", market.Daily, "nas100_daily_data.csv"},
		{"{symbol}-{interval}.csv", market.Hour1, "nas100-1h.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.pattern, "NAS100", tt.iv))
		})
	}
}
