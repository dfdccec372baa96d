package validation

import (
	"errors"
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// maxDecodePasses bounds how many layers of entity encoding are unwrapped.
const maxDecodePasses = 4

// SanitizeText strips all markup from s and trims surrounding whitespace.
// Output is decoded so stored text stays plain, and decoding repeats until
// the text is stable so entity-encoded markup cannot reappear. Input still
// changing after maxDecodePasses is returned in escaped form.
func SanitizeText(s string) string {
	for range maxDecodePasses {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			return strings.TrimSpace(next)
		}
		s = next
	}
	return strings.TrimSpace(strict.Sanitize(s))
}

// SanitizeOptional sanitizes *s, returning nil when the result is empty.
func SanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := SanitizeText(*s)
	if clean == "" {
		return nil
	}
	return &clean
}

// SanitizeValue walks a decoded JSON value and sanitizes every string in place.
func SanitizeValue(v any) any {
	switch t := v.(type) {
	case string:
		return SanitizeText(t)
	case map[string]any:
		for k, val := range t {
			t[k] = SanitizeValue(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = SanitizeValue(val)
		}
		return t
	default:
		return v
	}
}

// ValidateHTTPURL requires an absolute http or https URL.
func ValidateHTTPURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
}
