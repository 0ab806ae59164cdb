package llm

import (
	"errors"
	"testing"
)

func TestParseProductCleanJSON(t *testing.T) {
	raw := `{"title":"Wireless Earbuds","description":"<p>Great sound</p>","price":"29.99","originalPrice":"59.99","currency":"USD","variants":{"Color":["Black","White"]},"mainImages":["https://cdn.example.com/1.jpg"],"descriptionImages":[]}`

	data, err := ParseProduct(raw)
	if err != nil {
		t.Fatalf("ParseProduct() error = %v", err)
	}
	if data.Title != "Wireless Earbuds" {
		t.Errorf("Title = %q", data.Title)
	}
	if data.Price.String() != "29.99" {
		t.Errorf("Price = %q, want 29.99", data.Price.String())
	}
	if len(data.Variants["Color"]) != 2 {
		t.Errorf("Variants[Color] = %v", data.Variants["Color"])
	}
}

func TestParseProductCodeFences(t *testing.T) {
	raw := "Here is the extracted data:\n```json\n{\"title\":\"Desk Lamp\",\"description\":\"LED lamp\",\"price\":19.5,\"currency\":\"EUR\"}\n```\nLet me know if you need anything else."

	data, err := ParseProduct(raw)
	if err != nil {
		t.Fatalf("ParseProduct() error = %v", err)
	}
	if data.Title != "Desk Lamp" {
		t.Errorf("Title = %q", data.Title)
	}
	if data.Currency != "EUR" {
		t.Errorf("Currency = %q", data.Currency)
	}
}

func TestParseProductDecimalCommaPrice(t *testing.T) {
	raw := `{"title":"Sneakers","description":"d","price":"129,90","currency":"BRL"}`

	data, err := ParseProduct(raw)
	if err != nil {
		t.Fatalf("ParseProduct() error = %v", err)
	}
	if data.Price.String() != "129.90" {
		t.Errorf("Price = %q, want 129.90", data.Price.String())
	}
}

func TestParseProductRegexFallback(t *testing.T) {
	// Truncated JSON: the closing braces never arrived.
	raw := `{"title": "Garden Hose", "description": "Expandable 50ft hose", "price": "24.99", "currency": "usd", "mainImages": ["https://cdn.exam`

	data, err := ParseProduct(raw)
	if err != nil {
		t.Fatalf("ParseProduct() error = %v", err)
	}
	if data.Title != "Garden Hose" {
		t.Errorf("Title = %q", data.Title)
	}
	if data.Price.String() != "24.99" {
		t.Errorf("Price = %q", data.Price.String())
	}
	if data.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", data.Currency)
	}
}

func TestParseProductUnparsable(t *testing.T) {
	if _, err := ParseProduct("I could not find any product on this page."); !errors.Is(err, ErrUnparsableResponse) {
		t.Errorf("ParseProduct() error = %v, want ErrUnparsableResponse", err)
	}
}

func TestParseProductEscapedQuotes(t *testing.T) {
	raw := `{"title": "The \"Best\" Mug", "description": "d"`

	data, err := ParseProduct(raw)
	if err != nil {
		t.Fatalf("ParseProduct() error = %v", err)
	}
	if data.Title != `The "Best" Mug` {
		t.Errorf("Title = %q", data.Title)
	}
}

func TestParseReviews(t *testing.T) {
	raw := "```json\n[{\"author\":\"Maria\",\"rating\":5,\"content\":\"Love it!\",\"country\":\"BR\"},{\"author\":\"Tom\",\"rating\":4,\"content\":\"Works well.\",\"country\":\"US\"}]\n```"

	reviews, err := ParseReviews(raw)
	if err != nil {
		t.Fatalf("ParseReviews() error = %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("len(reviews) = %d, want 2", len(reviews))
	}
	if reviews[0].Author != "Maria" || reviews[0].Country != "BR" {
		t.Errorf("reviews[0] = %+v", reviews[0])
	}
}

func TestParseReviewsWrappedObject(t *testing.T) {
	raw := `{"reviews":[{"author":"Ana","rating":5,"content":"Perfect fit."}]}`

	reviews, err := ParseReviews(raw)
	if err != nil {
		t.Fatalf("ParseReviews() error = %v", err)
	}
	if len(reviews) != 1 || reviews[0].Author != "Ana" {
		t.Errorf("reviews = %+v", reviews)
	}
}

func TestParseReviewsSkipsEmptyContent(t *testing.T) {
	raw := `[{"author":"A","rating":5,"content":"Good"},{"author":"B","rating":5,"content":"  "}]`

	reviews, err := ParseReviews(raw)
	if err != nil {
		t.Fatalf("ParseReviews() error = %v", err)
	}
	if len(reviews) != 1 {
		t.Errorf("len(reviews) = %d, want 1", len(reviews))
	}
}

func TestParseField(t *testing.T) {
	got, err := ParseField("```json\n{\"description\":\"New copy\"}\n```", "description")
	if err != nil {
		t.Fatalf("ParseField() error = %v", err)
	}
	if got != "New copy" {
		t.Errorf("ParseField() = %q", got)
	}
}

func TestParseFieldPlainText(t *testing.T) {
	got, err := ParseField("This is just the rewritten description itself.", "description")
	if err != nil {
		t.Fatalf("ParseField() error = %v", err)
	}
	if got != "This is just the rewritten description itself." {
		t.Errorf("ParseField() = %q", got)
	}
}

func TestStripTags(t *testing.T) {
	got := stripTags("<p>Hello <b>world</b></p>")
	if got != "Hello world" {
		t.Errorf("stripTags() = %q", got)
	}
}
