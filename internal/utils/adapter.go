package utils

import (
	"fmt"
	"strconv"
)

// ParseID converts a path or query value into a positive entity id.
func ParseID(s string) (uint, error) {
	if s == "" {
		return 0, fmt.Errorf("empty id")
	}

	val, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	if val == 0 {
		return 0, fmt.Errorf("invalid id %q: must be positive", s)
	}
	return uint(val), nil
}
