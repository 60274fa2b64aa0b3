package models

import (
	"fmt"
	"time"
)

// PauseWindow is a recurring daily quiet window during which no messages are
// sent. Start and End are "HH:MM" times of day in the given IANA timezone;
// the window may wrap midnight (e.g. 22:00 to 07:00).
type PauseWindow struct {
	Start    string `json:"start"    validate:"required"`
	End      string `json:"end"      validate:"required"`
	Timezone string `json:"timezone" validate:"required"`
}

func (w PauseWindow) location() (*time.Location, error) {
	if w.Timezone == "" {
		return time.UTC, nil
	}

	return time.LoadLocation(w.Timezone)
}

func parseClock(s string) (int, error) {
	var hh, mm int

	_, err := fmt.Sscanf(s, "%d:%d", &hh, &mm)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}

	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}

	return hh*60 + mm, nil
}

// Validate checks the window's times and timezone.
func (w PauseWindow) Validate() error {
	if _, err := parseClock(w.Start); err != nil {
		return err
	}

	if _, err := parseClock(w.End); err != nil {
		return err
	}

	_, err := w.location()

	return err
}

// Active reports whether the quiet window covers the given instant. A
// window whose start equals its end never activates.
func (w PauseWindow) Active(now time.Time) bool {
	loc, err := w.location()
	if err != nil {
		return false
	}

	start, err := parseClock(w.Start)
	if err != nil {
		return false
	}

	end, err := parseClock(w.End)
	if err != nil || start == end {
		return false
	}

	local := now.In(loc)
	minute := local.Hour()*60 + local.Minute()

	if start < end {
		return minute >= start && minute < end
	}

	// Wraps midnight.
	return minute >= start || minute < end
}

// NextEnd returns the instant the currently active window closes. Only
// meaningful while Active(now) is true.
func (w PauseWindow) NextEnd(now time.Time) time.Time {
	loc, err := w.location()
	if err != nil {
		return now
	}

	end, err := parseClock(w.End)
	if err != nil {
		return now
	}

	local := now.In(loc)
	boundary := time.Date(local.Year(), local.Month(), local.Day(),
		end/60, end%60, 0, 0, loc)

	if !boundary.After(local) {
		boundary = boundary.Add(24 * time.Hour)
	}

	return boundary
}
