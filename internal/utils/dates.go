package utils

import (
	"errors"
	"time"
)

var ErrInvalidDate = errors.New("date must be YYYY-MM-DD or RFC3339")

const dateLayout = "2006-01-02"

// ParseDateParam parses a query date. A date-only value means midnight UTC of
// that day, or of the following day when it closes a range so that the whole
// day is included. An empty value yields nil.
func ParseDateParam(value string, closesRange bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	if t, err := time.ParseInLocation(dateLayout, value, time.UTC); err == nil {
		if closesRange {
			t = t.AddDate(0, 0, 1)
		}
		return &t, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, ErrInvalidDate
	}
	t = t.UTC()
	return &t, nil
}

// IsDateOnly reports whether value is a bare YYYY-MM-DD date
func IsDateOnly(value string) bool {
	_, err := time.ParseInLocation(dateLayout, value, time.UTC)
	return err == nil
}
