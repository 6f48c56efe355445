package app

import (
	"math"
	"strings"
	"time"

	"hotel_storefront/internal/domain"
)

var dateLayouts = []string{domain.DateLayout, time.RFC3339, "2006-01-02T15:04:05"}

// ParseDate accepts a plain date or a full timestamp.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Nights counts the nights between two date strings. Missing, malformed or
// inverted bounds give 0.
func Nights(checkIn, checkOut string) int {
	in, ok := ParseDate(checkIn)
	if !ok {
		return 0
	}
	out, ok := ParseDate(checkOut)
	if !ok {
		return 0
	}
	return NightsBetween(in, out)
}

// NightsBetween rounds partial days up.
func NightsBetween(checkIn, checkOut time.Time) int {
	if checkIn.IsZero() || checkOut.IsZero() || !checkOut.After(checkIn) {
		return 0
	}
	return int(math.Ceil(float64(checkOut.Sub(checkIn)) / float64(24*time.Hour)))
}
