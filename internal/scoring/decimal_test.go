package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFixed(t *testing.T) {
	tcases := []struct {
		name     string
		input    float64
		digits   int
		expected string
	}{
		{name: "integer", input: 100, digits: 2, expected: "100.00"},
		{name: "zero", input: 0, digits: 2, expected: "0.00"},
		{name: "negative zero", input: math.Copysign(0, -1), digits: 2, expected: "0.00"},
		{name: "repeating decimal", input: 16.0 / 3, digits: 2, expected: "5.33"},
		{name: "exact half rounds up", input: 2.125, digits: 2, expected: "2.13"},
		{name: "exact half below one", input: 0.125, digits: 2, expected: "0.13"},
		{name: "negative exact half rounds away from zero", input: -2.125, digits: 2, expected: "-2.13"},
		{name: "inexact half keeps binary value", input: 1.005, digits: 2, expected: "1.00"},
		{name: "no decimals", input: 2.5, digits: 0, expected: "3"},
		{name: "negative", input: -25, digits: 2, expected: "-25.00"},
		{name: "NaN", input: math.NaN(), digits: 2, expected: "NaN"},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatFixed(tc.input, tc.digits), "unexpected formatting of %v", tc.input)
		})
	}
}
