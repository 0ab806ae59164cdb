// Package preprocessor analyzes fetched page content before LLM
// extraction. The hints it produces are appended to the prompt so the
// model anchors on evidence from the page instead of guessing.
package preprocessor

import (
	"fmt"
	"regexp"
	"strings"
)

// Hints holds signals discovered in the page content.
type Hints struct {
	// Prices are distinct price strings seen on the page, in order.
	Prices []string

	// Currency is the ISO code inferred from symbols, or "".
	Currency string

	// VariantGroups are option group names mentioned on the page
	// (Color, Size, ...), deduplicated.
	VariantGroups []string

	// ManyPrices is set when the page carries so many distinct prices
	// that it probably includes related-product noise.
	ManyPrices bool
}

var (
	priceRegex = regexp.MustCompile(`(?:[$€£]\s?\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{2})?)|(?:\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{2})?\s?(?:USD|EUR|GBP|BRL))`)

	// Option group labels as they appear on storefronts, e.g.
	// "Color: Black" or "Size: M / L / XL".
	variantRegex = regexp.MustCompile(`(?i)\b(colou?r|size|style|material|model|length|capacity)\b\s*[:：]`)

	currencyBySymbol = []struct {
		marker string
		code   string
	}{
		{"€", "EUR"},
		{"£", "GBP"},
		{"R$", "BRL"},
		{"$", "USD"},
	}
)

// maxPriceHints caps how many price strings are quoted in the prompt.
const maxPriceHints = 5

// manyPricesThreshold marks the point where a page stops looking like a
// single listing.
const manyPricesThreshold = 8

// Analyze scans page markdown for pricing and variant evidence.
func Analyze(markdown string) *Hints {
	h := &Hints{}

	seen := make(map[string]bool)
	distinct := 0
	for _, match := range priceRegex.FindAllString(markdown, -1) {
		match = strings.TrimSpace(match)
		if seen[match] {
			continue
		}
		seen[match] = true
		distinct++
		if len(h.Prices) < maxPriceHints {
			h.Prices = append(h.Prices, match)
		}
	}
	h.ManyPrices = distinct >= manyPricesThreshold

	for _, c := range currencyBySymbol {
		if strings.Contains(markdown, c.marker) {
			h.Currency = c.code
			break
		}
	}

	seenGroup := make(map[string]bool)
	for _, m := range variantRegex.FindAllStringSubmatch(markdown, -1) {
		name := normalizeGroup(m[1])
		if seenGroup[name] {
			continue
		}
		seenGroup[name] = true
		h.VariantGroups = append(h.VariantGroups, name)
	}

	return h
}

// Empty reports whether analysis found nothing worth telling the model.
func (h *Hints) Empty() bool {
	return len(h.Prices) == 0 && h.Currency == "" && len(h.VariantGroups) == 0
}

// Render formats the hints as a prompt fragment. Returns "" when there
// is nothing to say.
func (h *Hints) Render() string {
	if h.Empty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("Page evidence:\n")
	if len(h.Prices) > 0 {
		fmt.Fprintf(&b, "- Prices seen on the page: %s\n", strings.Join(h.Prices, ", "))
	}
	if h.Currency != "" {
		fmt.Fprintf(&b, "- Likely currency: %s\n", h.Currency)
	}
	if len(h.VariantGroups) > 0 {
		fmt.Fprintf(&b, "- Variant option groups mentioned: %s\n", strings.Join(h.VariantGroups, ", "))
	}
	if h.ManyPrices {
		b.WriteString("- Many distinct prices found; the page likely includes related products. Extract only the main listing.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func normalizeGroup(name string) string {
	name = strings.ToLower(name)
	if name == "colour" {
		name = "color"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
