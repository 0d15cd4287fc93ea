package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalid marks malformed user input. Operations reject it before any
// store access.
var ErrInvalid = errors.New("invalid input")

var (
	dateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`)
)

const (
	clientIDMin = 1000000
	clientIDMax = 99999999
)

// Date parses a strict YYYY-MM-DD string in the given location.
func Date(s string, loc *time.Location) (time.Time, error) {
	if !dateRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: date must be in format YYYY-MM-DD, got %q", ErrInvalid, s)
	}

	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a valid date", ErrInvalid, s)
	}

	return t, nil
}

// DateTime parses a strict "YYYY-MM-DD HH:MM" string in the given location.
func DateTime(s string, loc *time.Location) (time.Time, error) {
	if !dateTimeRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: date must be in format YYYY-MM-DD HH:MM, got %q", ErrInvalid, s)
	}

	t, err := time.ParseInLocation("2006-01-02 15:04", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a valid date and time", ErrInvalid, s)
	}

	return t, nil
}

// ClientID checks the numeric client identifier range and returns it in
// normalized form (no leading zeros).
func ClientID(s string) (string, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return "", fmt.Errorf("%w: client id must be a number, got %q", ErrInvalid, s)
	}

	if id < clientIDMin || id > clientIDMax {
		return "", fmt.Errorf("%w: client id must be between %d and %d", ErrInvalid, clientIDMin, clientIDMax)
	}

	return strconv.Itoa(id), nil
}
