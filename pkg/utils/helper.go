package utils

import (
	"strconv"
)

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}

// ParseOptionalInt returns nil for an empty value. Unlike ParseInt it reports bad input.
func ParseOptionalInt(value string) (*int, error) {
	if value == "" {
		return nil, nil
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return nil, err
	}

	return &result, nil
}
