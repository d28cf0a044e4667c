package quotes

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/rustyeddy/nasfeed/market"
)

const sampleCSV = `Datetime,Open,High,Low,Close,Adj Close,Volume,Symbol
2024-01-02 14:30:00+00:00,100,101,99,100.5,100.4,10,NAS100
2024-01-02 14:45:00+00:00,100.5,102,100,101.5,101.4,,NAS100
2024-01-03 14:30:00+00:00,101.5,103,101,102.5,nan,30,NAS100
`

func TestReadCSV(t *testing.T) {
	t.Parallel()

	f, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Equal(t, 3, f.Len())
	assert.Equal(t, []string{"Open", "High", "Low", "Close", "Adj Close", "Volume"}, f.Columns, "text columns are skipped")
	assert.True(t, f.Index[0].Equal(time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)))

	s, err := market.Clean(f)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, 100.5, s.Candles[0].Close, "explicit close wins over adj close")
}

func TestReadCSVStrayPriceText(t *testing.T) {
	t.Parallel()

	in := `Date,Open,High,Low,Close,Volume,Note
2024-01-02 14:30:00,100,101,99,100.5,10,ok
2024-01-02 14:45:00,N/A,102,100,101.5,20,gap
2024-01-02 15:00:00,101,102,100,holiday,30,x
2024-01-02 15:15:00,101,103,100,102,n/a,y
`
	f, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"Open", "High", "Low", "Close", "Volume"}, f.Columns)

	s, err := market.Clean(f)
	require.NoError(t, err, "a stray cell must not turn into a missing column")
	require.Equal(t, 1, s.Len())
	assert.Equal(t, 100.5, s.Candles[0].Close)
}

func TestReadCSVUTF16(t *testing.T) {
	t.Parallel()

	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	b, err := enc.Bytes([]byte(sampleCSV))
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF, 0xFE}, b[:2])

	f, err := ReadCSV(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, "Open", f.Columns[0])
}

func TestReadCSVEmpty(t *testing.T) {
	t.Parallel()

	f, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, f.Empty())
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-01-02T14:30:00Z",
		"2024-01-02 14:30:00+00:00",
		"2024-01-02 09:30:00-05:00",
		"2024-01-02 14:30:00",
		"2024-01-02T14:30:00",
		"1704205800",
		"1704205800000",
	} {
		t.Run(in, func(t *testing.T) {
			got, err := ParseTimestamp(in)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestCSVDirHistory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := &CSVDir{Dir: dir}
	path := src.Path("^NDX", market.Minute15)
	assert.Equal(t, filepath.Join(dir, "NDX_15m.csv"), path)
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	f, err := src.History(context.Background(), Request{
		Symbol:   "^NDX",
		Interval: market.Minute15,
		Start:    time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Len(t, f.Columns, 6)

	_, err = src.History(context.Background(), Request{Symbol: "^NDX", Interval: market.Daily})
	assert.ErrorIs(t, err, ErrDataUnavailable)
}
