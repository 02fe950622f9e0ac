package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"
)

// ErrUnavailable indicates no storage backend is configured.
var ErrUnavailable = errors.New("storage unavailable")

// Store persists uploaded media and lists previously stored candidates.
// Save returns the public URL of the stored object.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.]`)

// SanitizeFilename replaces any character outside [a-zA-Z0-9.] with '-'.
func SanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "-")
}

// TimestampedName prefixes a sanitized filename with a millisecond timestamp,
// the naming scheme for in-progress uploads.
func TimestampedName(now time.Time, name string) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), SanitizeFilename(name))
}
