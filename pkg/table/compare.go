package table

import (
	"cmp"
	"fmt"
	"strings"
	"time"
)

// compareValues orders two column values. Numbers compare numerically,
// times chronologically and strings byte-wise; mixed or unknown types fall
// back to comparing their printed form.
func compareValues(a, b any) int {
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return cmp.Compare(x, y)
		}
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case *int:
		if n == nil {
			return 0, true
		}
		return float64(*n), true
	}
	return 0, false
}

func contains(value any, query string) bool {
	if query == "" {
		return true
	}
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprint(value)
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(query))
}
