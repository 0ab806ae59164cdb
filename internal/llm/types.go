// Package llm turns scraped page content and screenshots into
// structured product data via chat-completion providers.
package llm

import (
	"errors"

	"github.com/dropfy/dropfy-api/internal/models"
)

var (
	// ErrEmptyResponse is returned when the model produced no content.
	ErrEmptyResponse = errors.New("llm returned empty response")
	// ErrUnparsableResponse is returned when no product data could be
	// recovered from the model output, even with the regex fallback.
	ErrUnparsableResponse = errors.New("llm response could not be parsed")
)

// Mode selects the copywriting tier for extraction and enrichment.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeProCopy  Mode = "pro_copy"
)

// ProductData is the structured result of an extraction or enrichment
// call. Numeric fields are flexible because models frequently return
// prices as strings, with currency symbols or decimal commas.
type ProductData struct {
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	Price              models.FlexFloat    `json:"price"`
	OriginalPrice      models.FlexFloat    `json:"originalPrice"`
	DiscountPercentage models.FlexFloat    `json:"discountPercentage"`
	Currency           string              `json:"currency"`
	Variants           map[string][]string `json:"variants"`
	MainImages         []string            `json:"mainImages"`
	DescriptionImages  []string            `json:"descriptionImages"`
}

// ReviewData is a single generated or enhanced customer review.
type ReviewData struct {
	Author  string           `json:"author"`
	Rating  models.FlexFloat `json:"rating"`
	Content string           `json:"content"`
	Country string           `json:"country"`
}
