package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// slugRegex matches example slugs: a file stem without path components.
var slugRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._()'-]*$`)

// ValidateSlug validates an example slug before it is turned into a file path.
// It rejects slugs that could be used for path traversal.
//
// The validation rules are intentionally conservative:
//   - No empty slugs
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 200 characters
func ValidateSlug(slug string) error {
	if slug == "" {
		return New(ErrCodeInvalidSlug, "slug cannot be empty")
	}
	if len(slug) > 200 {
		return New(ErrCodeInvalidSlug, "slug too long (max 200 characters)")
	}
	for _, r := range slug {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSlug, "slug contains invalid control characters")
		}
	}
	if strings.Contains(slug, "..") || strings.ContainsAny(slug, `/\`) {
		return New(ErrCodeInvalidSlug, "slug cannot contain path components: %q", slug)
	}
	if !slugRegex.MatchString(slug) {
		return New(ErrCodeInvalidSlug, "invalid slug: %q", slug)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
