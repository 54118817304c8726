package ingest

import (
	"errors"
	"strings"
)

// ErrValidation marks content rejected before it reaches the processor.
var ErrValidation = errors.New("invalid message content")

// ValidateContent rejects content that is empty after trimming whitespace.
// Accepted content is stored untrimmed.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrValidation
	}
	return nil
}
