package yahoo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetYahooSymbol(t *testing.T) {
	tests := []struct {
		name     string
		symbol   string
		expected string
	}{
		{"korean stock", "005930.KR", "005930.KS"},
		{"us stock", "AAPL.US", "AAPL"},
		{"index passes through", "^KS11", "^KS11"},
		{"bare symbol unchanged", "SPY", "SPY"},
		{"already yahoo format", "005930.KS", "005930.KS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetYahooSymbol(tt.symbol))
		})
	}
}
