package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericStringToCents_Success(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
	}{
		{"whole dollars", "100", 10000},
		{"dollars with cents", "100.50", 10050},
		{"cents only", "0.99", 99},
		{"zero", "0", 0},
		{"small amount", "1.23", 123},
		{"large amount", "9999.99", 999999},
		{"rounding up", "99.999", 10000},
		{"rounding down", "99.994", 9999},
		{"with whitespace", "  50.25  ", 5025},
		{"negative amount", "-10.50", -1050},
		{"single decimal", "5.5", 550},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := numericStringToCents(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNumericStringToCents_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"invalid format", "abc"},
		{"special characters", "$100.00"},
		{"multiple decimals", "10.5.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := numericStringToCents(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestCentsToNumericString(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		expected string
	}{
		{"whole dollars", 10000, "100.00"},
		{"dollars with cents", 10050, "100.50"},
		{"cents only", 99, "0.99"},
		{"zero", 0, "0.00"},
		{"single cent", 1, "0.01"},
		{"negative", -1050, "-10.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, centsToNumericString(tt.cents))
		})
	}
}

func TestMoneyConversion_RoundTrip(t *testing.T) {
	for _, cents := range []int64{1, 99, 100, 10050, 999999} {
		s := centsToNumericString(cents)
		back, err := numericStringToCents(s)
		require.NoError(t, err)
		assert.Equal(t, cents, back)
	}
}
