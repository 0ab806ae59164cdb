package preprocessor

import (
	"fmt"
	"strings"
	"testing"
)

func TestAnalyzePrices(t *testing.T) {
	markdown := `# Wireless Earbuds Pro

~~$59.99~~ **$39.99**

Free shipping on orders over $50.00.`

	h := Analyze(markdown)

	if len(h.Prices) != 3 {
		t.Fatalf("Prices = %v, want 3 entries", h.Prices)
	}
	if h.Prices[0] != "$59.99" || h.Prices[1] != "$39.99" {
		t.Errorf("prices out of page order: %v", h.Prices)
	}
	if h.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", h.Currency)
	}
	if h.ManyPrices {
		t.Error("three prices should not trip the many-prices flag")
	}
}

func TestAnalyzeEuroPage(t *testing.T) {
	h := Analyze("Jetzt nur €129,90 statt €179,90")

	if h.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", h.Currency)
	}
	if len(h.Prices) != 2 {
		t.Errorf("Prices = %v, want 2 entries", h.Prices)
	}
}

func TestAnalyzeVariantGroups(t *testing.T) {
	markdown := `Color: Black / White / Navy

Size: S, M, L, XL

Colour: also mentioned in the FAQ`

	h := Analyze(markdown)

	if len(h.VariantGroups) != 2 {
		t.Fatalf("VariantGroups = %v, want [Color Size]", h.VariantGroups)
	}
	if h.VariantGroups[0] != "Color" || h.VariantGroups[1] != "Size" {
		t.Errorf("VariantGroups = %v", h.VariantGroups)
	}
}

func TestAnalyzeManyPrices(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&b, "Related item %d: $%d.99\n", i, i*10)
	}

	h := Analyze(b.String())

	if !h.ManyPrices {
		t.Error("expected many-prices flag on a listing-like page")
	}
	if len(h.Prices) != maxPriceHints {
		t.Errorf("Prices capped at %d, got %d", maxPriceHints, len(h.Prices))
	}
	if !strings.Contains(h.Render(), "related products") {
		t.Errorf("Render() missing listing warning:\n%s", h.Render())
	}
}

func TestRenderEmpty(t *testing.T) {
	h := Analyze("Just a paragraph about shipping times and returns policy.")

	if !h.Empty() {
		t.Fatalf("expected no hints, got %+v", h)
	}
	if h.Render() != "" {
		t.Errorf("Render() = %q, want empty", h.Render())
	}
}

func TestRenderContent(t *testing.T) {
	h := Analyze("Price: $24.99\n\nColor: Red / Blue")

	out := h.Render()
	for _, want := range []string{"$24.99", "USD", "Color"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}
}
