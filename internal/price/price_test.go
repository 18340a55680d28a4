package price

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		input    string
		value    float64
		currency Currency
		ok       bool
	}{
		{"₹1,299.00", 1299.00, INR, true},
		{"1.299,00", 1299.00, USD, true},
		{"€1.299,00", 1299.00, EUR, true},
		{"£ 45.50", 45.50, GBP, true},
		{"¥12,000", 12000, JPY, true},
		{"$19.99", 19.99, USD, true},
		{"1,234,567.89", 1234567.89, USD, true},
		{"1.234.567,89", 1234567.89, USD, true},
		{"  799  ", 799, USD, true},
		// lone comma is a thousands separator, even in decimal-comma locales
		{"99,90", 9990, USD, true},
		{"", 0, USD, false},
		{"   ", 0, USD, false},
		{"abc", 0, USD, false},
		{"₹", 0, USD, false},
		{"1.2.3", 0, USD, false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			value, currency, ok := Normalize(tc.input)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.value, value, 0.0001)
				assert.Equal(t, tc.currency, currency)
			} else {
				assert.Zero(t, value)
			}
		})
	}
}

func TestNormalizeIsPure(t *testing.T) {
	v1, c1, ok1 := Normalize("₹51,999")
	v2, c2, ok2 := Normalize("₹51,999")
	assert.Equal(t, v1, v2)
	assert.Equal(t, c1, c2)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, 51999.0, v1)
}

func TestCurrencyOf(t *testing.T) {
	assert.Equal(t, INR, CurrencyOf("Rs ₹ 100"))
	assert.Equal(t, EUR, CurrencyOf("100 €"))
	assert.Equal(t, USD, CurrencyOf("100"))
	// rupee wins when several symbols are present
	assert.Equal(t, INR, CurrencyOf("€ ₹"))
}

func TestDetect(t *testing.T) {
	c, ok := Detect("$ 12")
	assert.True(t, ok)
	assert.Equal(t, USD, c)

	c, ok = Detect("₹12")
	assert.True(t, ok)
	assert.Equal(t, INR, c)

	_, ok = Detect("12")
	assert.False(t, ok)
}

func TestFromCode(t *testing.T) {
	c, ok := FromCode(" inr ")
	assert.True(t, ok)
	assert.Equal(t, INR, c)

	_, ok = FromCode("CHF")
	assert.False(t, ok)
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, IsNumeric("1,299"))
	assert.True(t, IsNumeric("1.299,00"))
	assert.False(t, IsNumeric("₹1,299"))
	assert.False(t, IsNumeric(""))
}

func TestDealScore(t *testing.T) {
	assert.Equal(t, 100, DealScore(100, 100))
	assert.Equal(t, 100, DealScore(50, 100))
	assert.Equal(t, 0, DealScore(200, 100))
	assert.Equal(t, 66, DealScore(200, 150))
	assert.Equal(t, 0, DealScore(0, 100))
}

func TestPercentBelowTarget(t *testing.T) {
	pct, ok := PercentBelowTarget(80, 100)
	assert.True(t, ok)
	assert.Equal(t, 20.0, pct)

	pct, ok = PercentBelowTarget(66.66, 100)
	assert.True(t, ok)
	assert.Equal(t, 33.3, pct)

	_, ok = PercentBelowTarget(120, 100)
	assert.False(t, ok)
}
