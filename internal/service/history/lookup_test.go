package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30m", 30 * time.Minute},
		{"1h", time.Hour},
		{"24h", 24 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{" 1D ", 24 * time.Hour},
		{"", DefaultTimeframe},
		{"yesterday", DefaultTimeframe},
		{"-3h", DefaultTimeframe},
		{"0d", DefaultTimeframe},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTimeframe(tt.in))
		})
	}
}
