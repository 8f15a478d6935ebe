package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateEntityID validates an entity identifier for safety and correctness.
// IDs travel through store keys, DOT output, and URL paths, so the rules are
// intentionally conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateEntityID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "entity ID cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "entity ID too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "entity ID contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "entity ID contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// familyHashRegex matches a full lowercase hex SHA-256 digest.
var familyHashRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ValidateFamilyHash validates a family hash as used for cache keys and URL
// path segments. Hashes are always the full 64-character lowercase hex form.
func ValidateFamilyHash(hash string) error {
	if hash == "" {
		return New(ErrCodeInvalidHash, "family hash cannot be empty")
	}

	if !familyHashRegex.MatchString(hash) {
		return New(ErrCodeInvalidHash, "family hash must be 64 lowercase hex characters: %q", hash)
	}

	return nil
}

// ValidateYear validates a calendar year used for foundings, dissolutions,
// and succession events. The range is generous but rules out sentinel values
// and obvious data corruption.
func ValidateYear(year int) error {
	const (
		minYear = -5000
		maxYear = 3000
	)
	if year < minYear || year > maxYear {
		return New(ErrCodeInvalidInput, "year %d out of range [%d, %d]", year, minYear, maxYear)
	}
	return nil
}

// ValidateOutputPath validates a file path for exported artifacts.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
