package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "33.33", FormatMoney(100.0/3))
	assert.Equal(t, "0.00", FormatMoney(0))
	assert.Equal(t, "-12.50", FormatMoney(-12.5))
	assert.Equal(t, "1.01", FormatMoney(1.005))
	assert.Equal(t, "33.3", FormatPercent(100.0/3))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr error
	}{
		{"12.34", 12.34, nil},
		{"12,50", 12.5, nil},
		{"  8 ", 8, nil},
		{"", 0, ErrAmountRequired},
		{"   ", 0, ErrAmountRequired},
		{"0", 0, ErrInvalidAmount},
		{"-3", 0, ErrInvalidAmount},
		{"ten", 0, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
