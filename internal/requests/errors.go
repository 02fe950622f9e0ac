package requests

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthenticated indicates no valid caller identity was supplied.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnauthorized indicates the caller is authenticated but not permitted.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound indicates the referenced request or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientCredits indicates the owner's balance cannot cover the cost.
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// ValidationError reports per-field validation failures on a create payload.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
