package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	codeFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

	titleFallback    = regexp.MustCompile(`"title"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	descFallback     = regexp.MustCompile(`"description"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	priceFallback    = regexp.MustCompile(`"price"\s*:\s*"?([0-9][0-9.,]*)"?`)
	currencyFallback = regexp.MustCompile(`"currency"\s*:\s*"([A-Za-z]{3})"`)
)

// CleanJSON strips code fences and surrounding prose, returning the
// first JSON value in the text. Models wrap output in markdown fences
// despite instructions often enough that this is always applied.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if m := codeFencePattern.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	// Trim prose before the first brace or bracket.
	if i := strings.IndexAny(s, "{["); i > 0 {
		s = s[i:]
	}
	// And after the matching close.
	if i := strings.LastIndexAny(s, "}]"); i >= 0 && i < len(s)-1 {
		s = s[:i+1]
	}
	return s
}

// ParseProduct decodes the model output into ProductData. When strict
// JSON decoding fails it falls back to per-field regex recovery, so a
// truncated or slightly malformed response still yields the core
// fields instead of a hard failure.
func ParseProduct(raw string) (*ProductData, error) {
	cleaned := CleanJSON(raw)

	if gjson.Valid(cleaned) {
		var data ProductData
		if err := json.Unmarshal([]byte(cleaned), &data); err == nil && data.Title != "" {
			return &data, nil
		}
	}

	data := &ProductData{}
	if m := titleFallback.FindStringSubmatch(cleaned); m != nil {
		data.Title = unescapeJSON(m[1])
	}
	if m := descFallback.FindStringSubmatch(cleaned); m != nil {
		data.Description = unescapeJSON(m[1])
	}
	if m := priceFallback.FindStringSubmatch(cleaned); m != nil {
		_ = data.Price.UnmarshalJSON([]byte(`"` + m[1] + `"`))
	}
	if m := currencyFallback.FindStringSubmatch(cleaned); m != nil {
		data.Currency = strings.ToUpper(m[1])
	}

	if data.Title == "" && data.Description == "" {
		return nil, ErrUnparsableResponse
	}
	return data, nil
}

// ParseReviews decodes a model-generated review array.
func ParseReviews(raw string) ([]ReviewData, error) {
	cleaned := CleanJSON(raw)

	var reviews []ReviewData
	if err := json.Unmarshal([]byte(cleaned), &reviews); err != nil {
		// Some models wrap the array in an object.
		if arr := gjson.Get(cleaned, "reviews"); arr.IsArray() {
			if err := json.Unmarshal([]byte(arr.Raw), &reviews); err != nil {
				return nil, ErrUnparsableResponse
			}
		} else {
			return nil, ErrUnparsableResponse
		}
	}

	out := reviews[:0]
	for _, r := range reviews {
		if strings.TrimSpace(r.Content) != "" {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, ErrUnparsableResponse
	}
	return out, nil
}

// ParseField extracts a single string field from a JSON object
// response, used for single-field calls like description rewrites.
func ParseField(raw, field string) (string, error) {
	cleaned := CleanJSON(raw)
	if v := gjson.Get(cleaned, field); v.Exists() && v.String() != "" {
		return v.String(), nil
	}
	// Model may have answered with plain text instead of JSON.
	if plain := strings.TrimSpace(raw); plain != "" && !strings.HasPrefix(plain, "{") {
		return plain, nil
	}
	return "", ErrUnparsableResponse
}

func unescapeJSON(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}
