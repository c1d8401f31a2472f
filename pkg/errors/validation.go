package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxNameLength bounds person and topic names accepted from a dataset.
const MaxNameLength = 256

// ValidateName validates a person or topic name taken from a dataset.
//
// The validation rules are intentionally conservative:
//   - No empty names (after trimming)
//   - No control characters
//   - Maximum length of 256 characters (runes, not bytes)
func ValidateName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidRecord, "%s name cannot be empty", kind)
	}

	if utf8.RuneCountInString(name) > MaxNameLength {
		return New(ErrCodeInvalidRecord, "%s name too long (max %d characters)", kind, MaxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidRecord, "%s name contains invalid control characters", kind)
		}
	}

	return nil
}
