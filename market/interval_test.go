package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    Interval
		wantErr bool
	}{
		{"15m", Minute15, false},
		{"15min", Minute15, false},
		{"M15", Minute15, false},
		{"1h", Hour1, false},
		{"H1", Hour1, false},
		{"60m", Hour1, false},
		{"1d", Daily, false},
		{"D", Daily, false},
		{"D1", Daily, false},
		{"1wk", Weekly, false},
		{"W1", Weekly, false},
		{"", 0, true},
		{"0m", 0, true},
		{"1mo", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInterval(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntervalString(t *testing.T) {
	assert.Equal(t, "15m", Minute15.String())
	assert.Equal(t, "1h", Hour1.String())
	assert.Equal(t, "4h", Interval(4*time.Hour).String())
	assert.Equal(t, "1d", Daily.String())
	assert.Equal(t, "1wk", Weekly.String())
	assert.True(t, Daily.IsDaily())
	assert.False(t, Minute15.IsDaily())
}

func TestIntervalTimeframe(t *testing.T) {
	tests := []struct {
		iv   Interval
		want string
	}{
		{Minute15, "M15"},
		{Hour1, "H1"},
		{Interval(4 * time.Hour), "H4"},
		{Daily, "D1"},
		{Weekly, "W1"},
	}
	for _, tt := range tests {
		got, err := tt.iv.Timeframe()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := Interval(90 * time.Second).Timeframe()
	assert.Error(t, err)
}

func TestIntervalText(t *testing.T) {
	var iv Interval
	require.NoError(t, iv.UnmarshalText([]byte("M15")))
	assert.Equal(t, Minute15, iv)

	b, err := iv.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "15m", string(b))

	assert.Error(t, iv.UnmarshalText([]byte("bogus")))
}
