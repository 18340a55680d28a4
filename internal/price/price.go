package price

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Currency is the display symbol of a detected currency
type Currency string

const (
	INR Currency = "₹"
	USD Currency = "$"
	EUR Currency = "€"
	GBP Currency = "£"
	JPY Currency = "¥"
)

// DefaultCurrency is assumed when no symbol can be found in the text
const DefaultCurrency = USD

// detectable symbols in the order they are checked; $ is the fallback
var symbols = []Currency{INR, EUR, GBP, JPY}

var (
	nonPriceChars = regexp.MustCompile(`[^\d.,]`)
	numericOnly   = regexp.MustCompile(`^[\d,.]+$`)
)

// CurrencyOf returns the first known currency symbol found in text,
// or DefaultCurrency when none is present.
func CurrencyOf(text string) Currency {
	for _, sym := range symbols {
		if strings.Contains(text, string(sym)) {
			return sym
		}
	}
	return DefaultCurrency
}

// Detect returns the currency whose symbol appears in text, including $.
// ok is false when the text carries no symbol at all.
func Detect(text string) (Currency, bool) {
	for _, sym := range symbols {
		if strings.Contains(text, string(sym)) {
			return sym, true
		}
	}
	if strings.Contains(text, string(USD)) {
		return USD, true
	}
	return "", false
}

// FromCode maps an ISO 4217 code such as "INR" to its symbol
func FromCode(code string) (Currency, bool) {
	c, ok := isoCodes[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

var isoCodes = map[string]Currency{
	"INR": INR,
	"USD": USD,
	"EUR": EUR,
	"GBP": GBP,
	"JPY": JPY,
}

// IsNumeric reports whether text consists only of digits and separators.
func IsNumeric(text string) bool {
	return numericOnly.MatchString(text)
}

// Normalize turns locale-formatted price text into a number and a currency.
//
// When both '.' and ',' occur, whichever comes first is the thousands
// separator. A lone ',' is always a thousands separator, so "99,90" reads
// as 9990. The boolean is false when no number could be recovered.
func Normalize(text string) (float64, Currency, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, DefaultCurrency, false
	}

	currency := CurrencyOf(text)
	digits := nonPriceChars.ReplaceAllString(text, "")

	comma := strings.Index(digits, ",")
	dot := strings.Index(digits, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma < dot {
			digits = strings.ReplaceAll(digits, ",", "")
		} else {
			digits = strings.ReplaceAll(digits, ".", "")
			digits = strings.ReplaceAll(digits, ",", ".")
		}
	case comma >= 0:
		digits = strings.ReplaceAll(digits, ",", "")
	}

	value, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, DefaultCurrency, false
	}
	return value, currency, true
}

// DealScore rates a current price against a target on a 0-100 scale.
// Prices at or below the target score by how far below they are, capped
// at 100; prices above it decay towards 0.
func DealScore(current, target float64) int {
	if current <= 0 || target <= 0 {
		return 0
	}
	ratio := target / current
	if ratio >= 1 {
		return min(100, int(ratio*100))
	}
	return max(0, int((2-1/ratio)*100))
}

// PercentBelowTarget returns how far current sits below target, as a
// percentage rounded to one decimal. ok is false unless current < target.
func PercentBelowTarget(current, target float64) (pct float64, ok bool) {
	if current <= 0 || target <= 0 || current >= target {
		return 0, false
	}
	return math.Round((target-current)/target*1000) / 10, true
}
