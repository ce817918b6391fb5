package blackboard

import (
	"encoding/json"
	"math"
)

// Int converts a stored numeric value into an int.
// Restored snapshots carry float64 or json.Number, so both are accepted.
func Int(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

// Bool converts a stored value into a bool. Missing values are false.
func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}
