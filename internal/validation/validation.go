package validation

import (
	"errors"
	"strconv"
	"strings"

	"github.com/pmartell/flight-delay-frontend/internal/models"
)

// ErrDayEmpty is returned when no day was selected.
var ErrDayEmpty = errors.New("day of week is required")

// ErrDayInvalid is returned when the day is not an integer in 1..7.
var ErrDayInvalid = errors.New("day of week must be between 1 (Monday) and 7 (Sunday)")

// ErrAirportEmpty is returned when no airport was selected.
var ErrAirportEmpty = errors.New("airport is required")

// ErrAirportInvalid is returned when the airport value is not an integer ID.
var ErrAirportInvalid = errors.New("airport must be a numeric airport ID")

// ParseDay trims and parses a raw day-of-week form value. Returns an error
// suitable for direct display; nothing reaches the network on failure.
func ParseDay(raw string) (models.DayOfWeek, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrDayEmpty
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrDayInvalid
	}
	day := models.DayOfWeek(n)
	if !day.Valid() {
		return 0, ErrDayInvalid
	}
	return day, nil
}

// ParseAirportID trims and parses a raw airport form value. Membership in
// the loaded airport list is checked by the flow controller, not here.
func ParseAirportID(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrAirportEmpty
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, ErrAirportInvalid
	}
	return id, nil
}
