package layout

import (
	"errors"
	"fmt"
)

var (
	// ErrPageTooSmall is returned when header and footer leave no room for body text.
	ErrPageTooSmall = errors.New("printable area too small for header and footer")
	// ErrPageTooNarrow is returned when the gutter consumes the full content width.
	ErrPageTooNarrow = errors.New("printable area too narrow for line-number gutter")
	// ErrInvalidPage covers malformed page descriptions.
	ErrInvalidPage = errors.New("invalid page description")
	// ErrInvalidConfig covers out-of-range pagination constants.
	ErrInvalidConfig = errors.New("invalid pagination settings")
)

// ConfigurationError describes a print job that cannot be laid out.
type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
