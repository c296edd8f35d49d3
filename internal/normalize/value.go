package normalize

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Amount converts a locale-formatted numeric string into a float.
// It never fails: anything unparseable yields 0.
//
// A single comma is the decimal separator ("1.234,56", "12,5"); when both
// separators appear, whichever comes last is the decimal one ("1,234.56").
func Amount(s string) float64 {
	s = stripCurrency(s)
	if s == "" {
		return 0
	}
	dots, commas := strings.Count(s, "."), strings.Count(s, ",")
	switch {
	case dots > 0 && commas == 1 && strings.LastIndex(s, ",") > strings.LastIndex(s, "."):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dots == 1 && commas > 0 && strings.LastIndex(s, ".") > strings.LastIndex(s, ","):
		s = strings.ReplaceAll(s, ",", "")
	case commas == 1:
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimalToFloat(s)
}

// NonNegative clamps monetary values at zero.
func NonNegative(f float64) float64 {
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	return f
}

// maxExponent bounds exponent notation ("1e5"); beyond it a float64 is
// either infinite or zero, and expanding 10^exp would not terminate in
// reasonable time.
const maxExponent = 400

func decimalToFloat(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	if e := d.Exponent(); e > maxExponent || e < -maxExponent {
		return 0
	}
	f, _ := d.Float64()
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// stripCurrency trims whitespace (including NBSP) and currency markers
// such as "R$", "US$", "€" or a trailing "BRL".
func stripCurrency(s string) string {
	isNoise := func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsLetter(r) || unicode.Is(unicode.Sc, r)
	}
	s = strings.TrimFunc(s, isNoise)
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		s = "-" + strings.TrimFunc(rest, isNoise)
	}
	// space-grouped thousands: "1 234,56"
	return strings.Join(strings.Fields(s), "")
}

var groupedInt = regexp.MustCompile(`^\d{1,3}([.,]\d{3})+$`)

// Count parses an integer-valued cell such as impressions or clicks, where
// "1.234" and "1,234" both mean one thousand two hundred thirty-four.
func Count(s string) float64 {
	s = stripCurrency(s)
	if groupedInt.MatchString(s) {
		s = strings.NewReplacer(".", "", ",", "").Replace(s)
	}
	return NonNegative(Amount(s))
}
