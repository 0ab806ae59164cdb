package extract

import (
	"math"
	"strconv"
	"strings"
)

// NormalizePrice converts a scraped price string to a canonical decimal
// string with "." as the separator. Handles currency symbols, decimal
// commas ("129,90") and thousands separators ("1.299,90"). Returns ""
// when no number can be found.
func NormalizePrice(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return ""
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	var decimalSep byte
	switch {
	case lastComma >= 0 && lastDot >= 0:
		// Both present: the rightmost one is the decimal separator.
		if lastComma > lastDot {
			decimalSep = ','
		} else {
			decimalSep = '.'
		}
	case lastComma >= 0:
		decimalSep = ','
	case lastDot >= 0:
		decimalSep = '.'
	}

	if decimalSep == 0 {
		return cleaned
	}

	sepIdx := strings.LastIndexByte(cleaned, decimalSep)
	intPart := strings.NewReplacer(",", "", ".", "").Replace(cleaned[:sepIdx])
	fracPart := strings.NewReplacer(",", "", ".", "").Replace(cleaned[sepIdx+1:])

	// A three-digit tail after the only separator is a thousands group,
	// not cents: "1.299" means 1299.
	if len(fracPart) == 3 && !strings.ContainsRune(cleaned[:sepIdx], ',') && !strings.ContainsRune(cleaned[:sepIdx], '.') && intPart != "0" && len(intPart) <= 3 {
		return intPart + fracPart
	}

	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}

// DiscountPercentage computes the rounded discount from original to
// current price. Returns 0 unless both parse and original is higher.
func DiscountPercentage(price, originalPrice string) int {
	p, err1 := strconv.ParseFloat(NormalizePrice(price), 64)
	o, err2 := strconv.ParseFloat(NormalizePrice(originalPrice), 64)
	if err1 != nil || err2 != nil || o <= 0 || p >= o {
		return 0
	}
	return int(math.Round((o - p) / o * 100))
}
