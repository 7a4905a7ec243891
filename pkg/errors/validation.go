package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits applied to user-supplied text that leaves the process.
const (
	MaxQueryLength  = 512
	MaxPromptLength = 4000
	MaxReportLength = 1 << 20
)

// ValidateQuery validates a search query before it is sent to a remote
// search provider. Queries must be non-blank single-line text.
func ValidateQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return New(ErrCodeInvalidInput, "query cannot be empty")
	}
	if utf8.RuneCountInString(q) > MaxQueryLength {
		return New(ErrCodeInvalidInput, "query too long (max %d characters)", MaxQueryLength)
	}
	for _, r := range q {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "query contains control characters")
		}
	}
	return nil
}

// ValidatePrompt validates a generation prompt. Prompts may span lines but
// must not contain other control characters or null bytes.
func ValidatePrompt(p string) error {
	if strings.TrimSpace(p) == "" {
		return New(ErrCodeInvalidInput, "prompt cannot be empty")
	}
	if utf8.RuneCountInString(p) > MaxPromptLength {
		return New(ErrCodeInvalidInput, "prompt too long (max %d characters)", MaxPromptLength)
	}
	for _, r := range p {
		if r == '\n' || r == '\t' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "prompt contains control characters")
		}
	}
	return nil
}

// ValidateModel validates an LLM model identifier of the form
// "vendor/model" (for example "openai/gpt-4o-mini").
func ValidateModel(m string) error {
	if m == "" {
		return New(ErrCodeInvalidInput, "model cannot be empty")
	}
	vendor, name, ok := strings.Cut(m, "/")
	if !ok || vendor == "" || name == "" {
		return New(ErrCodeInvalidInput, "model must look like vendor/name: %q", m)
	}
	if strings.ContainsAny(m, " \\\x00") || strings.Contains(m, "..") {
		return New(ErrCodeInvalidInput, "model contains invalid characters: %q", m)
	}
	return nil
}

// ValidateReport validates the text body of an export report.
func ValidateReport(body string) error {
	if len(body) > MaxReportLength {
		return New(ErrCodeInvalidInput, "report too large (max %d bytes)", MaxReportLength)
	}
	if strings.ContainsRune(body, '\x00') {
		return New(ErrCodeInvalidInput, "report contains null bytes")
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
