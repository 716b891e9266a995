package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrUnknownRetailer   = errors.New("unknown retailer")
	ErrTemplate          = errors.New("template error")
	ErrNotFound          = errors.New("not found")
	ErrPortalUnavailable = errors.New("portal unavailable")
	ErrRunActive         = errors.New("run already active")
	ErrMissingField      = errors.New("missing required field")
	ErrWriteConflict     = errors.New("write conflict")
	ErrConfiguration     = errors.New("configuration error")
	ErrTransient         = errors.New("transient failure")
)

// Wrap builds an error message that includes pipeline context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether an error is worth another attempt against the
// portal. Only transient transport failures qualify; NotFound and the
// per-item classification errors are terminal.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPortalUnavailable) || errors.Is(err, ErrTransient)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
