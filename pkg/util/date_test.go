package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in string
		ok bool
	}{
		{"2024-10-10", true},
		{"2024-10-10T00:00:00Z", true},
		{"2024/10/10", true},
		{"1728518400", true},
		{"", false},
		{"yesterday", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, want.Equal(got), "got %v", got)
			}
		})
	}
}

func TestTradingDay(t *testing.T) {
	taipei := time.FixedZone("CST", 8*3600)
	ts := time.Date(2024, 10, 9, 20, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 10, 10, 0, 0, 0, 0, taipei), TradingDay(ts, taipei))
	assert.Equal(t, time.Date(2024, 10, 9, 0, 0, 0, 0, time.UTC), TradingDay(ts, nil))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "2330.TW", NormalizeSymbol(" 2330.tw "))
}
