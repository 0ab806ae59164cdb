package llm

import (
	"fmt"
	"strings"
)

const productJSONShape = `{
  "title": "string",
  "description": "string, HTML or markdown, keep image references",
  "price": "string, e.g. 19.99",
  "originalPrice": "string, pre-discount price or empty",
  "discountPercentage": 0,
  "currency": "ISO 4217 code, e.g. USD",
  "variants": {"Color": ["Red", "Blue"], "Size": ["S", "M", "L"]},
  "mainImages": ["url"],
  "descriptionImages": ["url"]
}`

const extractionSystemPrompt = `You are a product data extraction engine for an e-commerce import tool.
You receive the content of a product listing page and return ONLY a JSON object, no prose, no code fences, matching this shape:
` + productJSONShape + `
Rules:
- Extract the real selling price and, if the listing shows a crossed-out price, the original price.
- Keep every product image URL you find; put gallery images in mainImages and in-description images in descriptionImages.
- Omit navigation, recommendations and unrelated products.
- If a field is unknown, use an empty string, empty array or empty object.`

const proCopyInstruction = `
- Rewrite the title and description as persuasive, benefit-led sales copy while keeping all factual claims from the source.`

// ExtractionPrompt builds the system and user messages for turning
// page markdown into product data.
func ExtractionPrompt(markdown, pageURL string, mode Mode) (system, user string) {
	system = extractionSystemPrompt
	if mode == ModeProCopy {
		system += proCopyInstruction
	}
	user = fmt.Sprintf("Product page URL: %s\n\nPage content:\n\n%s", pageURL, markdown)
	return system, user
}

// VisionPrompt builds the messages for extracting product data from a
// full-page screenshot.
func VisionPrompt(pageURL string, mode Mode) (system, user string) {
	system = extractionSystemPrompt
	if mode == ModeProCopy {
		system += proCopyInstruction
	}
	user = fmt.Sprintf("This screenshot shows the product listing at %s. Extract the product data from what is visible. Image URLs are not readable from a screenshot, so leave mainImages and descriptionImages empty.", pageURL)
	return system, user
}

// TranslatePrompt builds the messages for translating product copy.
func TranslatePrompt(title, description, targetLanguage string) (system, user string) {
	system = `You translate e-commerce product copy. Return ONLY a JSON object {"title": "...", "description": "..."}, no prose, no code fences. Preserve HTML tags and image references exactly; translate only human-readable text.`
	user = fmt.Sprintf("Translate to %s.\n\nTitle: %s\n\nDescription:\n%s", targetLanguage, title, description)
	return system, user
}

// ImproveDescriptionPrompt builds the messages for rewriting a product
// description as stronger sales copy.
func ImproveDescriptionPrompt(title, description string) (system, user string) {
	system = `You are an e-commerce copywriter. Rewrite the product description as persuasive, scannable sales copy. Keep every factual claim and every HTML image tag from the original. Return ONLY a JSON object {"description": "..."}, no prose, no code fences.`
	user = fmt.Sprintf("Product: %s\n\nCurrent description:\n%s", title, description)
	return system, user
}

// GenerateReviewsPrompt builds the messages for synthesizing customer
// reviews for a product.
func GenerateReviewsPrompt(title, description string, count int, language string) (system, user string) {
	if language == "" {
		language = "English"
	}
	system = fmt.Sprintf(`You write realistic customer reviews for e-commerce products. Return ONLY a JSON array of %d objects, no prose, no code fences, each shaped as {"author": "first name", "rating": 4, "content": "...", "country": "ISO 3166-1 alpha-2"}.
Rules:
- Write in %s.
- Ratings between 4 and 5, mostly 5.
- Vary length, tone and specificity; mention concrete product details.`, count, language)
	user = fmt.Sprintf("Product: %s\n\nDescription:\n%s", title, truncate(stripTags(description), 2000))
	return system, user
}

// EnhanceReviewPrompt builds the messages for polishing a single
// imported review.
func EnhanceReviewPrompt(content string) (system, user string) {
	system = `You polish customer reviews for display. Fix grammar and machine-translation artifacts, keep the original sentiment, length and first-person voice. Return ONLY a JSON object {"content": "..."}, no prose, no code fences.`
	user = content
	return system, user
}

func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
