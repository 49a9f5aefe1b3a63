// Package formatting renders byte sizes and timestamps for table cells and
// parses human-entered sizes from configuration.
package formatting

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// DateLayout is the created_at display format.
const DateLayout = "2006-01-02"

// Bytes renders n with base-1024 units, e.g. "1.5 KiB". Negative values render as "0 B".
func Bytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// ParseBytes parses a size such as "50MB", "50 MiB" or "1024".
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("byte size out of range: %q", s)
	}
	return int64(n), nil
}

// Date renders t in DateLayout, or "" for the zero time.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
