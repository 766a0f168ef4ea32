package errors

import (
	"strconv"
	"strings"
	"unicode"
)

const (
	maxNodeIDLength = 64
	maxLabelLength  = 255
)

// ValidateNodeID validates a graph node identifier supplied by a caller,
// for instance the node selected in an ancestor query.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or whitespace
//   - Maximum length of 64 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}
	if len(id) > maxNodeIDLength {
		return New(ErrCodeInvalidInput, "node id too long (max %d characters)", maxNodeIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid characters: %q", id)
		}
	}
	return nil
}

// ValidateCourseID parses and validates a course identifier taken from a URL
// path or command-line argument. Course ids are positive integers.
func ValidateCourseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, Wrap(ErrCodeInvalidInput, err, "invalid course id %q", raw)
	}
	if id <= 0 {
		return 0, New(ErrCodeInvalidInput, "course id must be positive, got %d", id)
	}
	return id, nil
}

// ValidateLabel validates a display label such as the localized name of the
// missing-activity placeholder.
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return New(ErrCodeInvalidInput, "label cannot be empty")
	}
	if len(label) > maxLabelLength {
		return New(ErrCodeInvalidInput, "label too long (max %d characters)", maxLabelLength)
	}
	for _, r := range label {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "label contains invalid control characters")
		}
	}
	return nil
}
