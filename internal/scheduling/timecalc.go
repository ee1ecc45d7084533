package scheduling

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const MinutesPerDay = 24 * 60

const (
	isoDateLayout    = "2006-01-02"
	germanDateLayout = "02.01.2006"
)

var (
	ErrMalformedTime = errors.New("malformed time")
	ErrMalformedDate = errors.New("malformed date")
)

type MalformedTimeError struct {
	Input  string
	Reason string
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("malformed time %q: %s", e.Input, e.Reason)
}

func (e *MalformedTimeError) Unwrap() error {
	return ErrMalformedTime
}

// ToMinutes converts "H:MM", "HH:MM" or "HH:MM:SS" into minutes after midnight.
// Seconds, when present, must be zero.
func ToMinutes(s string) (int, error) {
	raw := strings.TrimSpace(s)
	parts := strings.Split(raw, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, &MalformedTimeError{Input: s, Reason: "expected H:MM"}
	}

	if len(parts[0]) < 1 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, &MalformedTimeError{Input: s, Reason: "expected H:MM"}
	}
	for _, p := range parts {
		if !isDigits(p) {
			return 0, &MalformedTimeError{Input: s, Reason: "not a number"}
		}
	}

	hour, _ := strconv.Atoi(parts[0])
	minute, _ := strconv.Atoi(parts[1])
	if hour > 23 {
		return 0, &MalformedTimeError{Input: s, Reason: "hour out of range"}
	}
	if minute > 59 {
		return 0, &MalformedTimeError{Input: s, Reason: "minute out of range"}
	}

	if len(parts) == 3 {
		if sec, _ := strconv.Atoi(parts[2]); sec != 0 {
			return 0, &MalformedTimeError{Input: s, Reason: "seconds are not supported"}
		}
	}

	return hour*60 + minute, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ToTimeString renders minutes after midnight as zero-padded "HH:MM".
func ToTimeString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps tests half-open intervals [startA, endA) and [startB, endB).
// Touching endpoints do not overlap.
func Overlaps(startA, endA, startB, endB int) bool {
	return startA < endB && endA > startB
}

// ParseDate accepts "DD.MM.YYYY" and "YYYY-MM-DD" and returns midnight UTC.
func ParseDate(s string) (time.Time, error) {
	raw := strings.TrimSpace(s)
	for _, layout := range []string{germanDateLayout, isoDateLayout} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
}

// FormatDate renders the internal "YYYY-MM-DD" form.
func FormatDate(t time.Time) string {
	return t.Format(isoDateLayout)
}

// FormatGermanDate renders the "DD.MM.YYYY" form used on the wire.
func FormatGermanDate(t time.Time) string {
	return t.Format(germanDateLayout)
}

// AddDays moves a calendar date without touching wall-clock time, so DST
// transitions never shift the result.
func AddDays(date time.Time, n int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, time.UTC)
}

// DateOnly strips the clock part and pins the date to UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
