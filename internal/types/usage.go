package types

import (
	"time"

	ierr "github.com/proxynest/proxynest/internal/errors"
)

// WindowSize is the bucket width used when aggregating usage samples
type WindowSize string

const (
	WindowSizeMinute WindowSize = "minute"
	WindowSizeHour   WindowSize = "hour"
	WindowSizeDay    WindowSize = "day"
)

func (w WindowSize) Validate() error {
	switch w {
	case WindowSizeMinute, WindowSizeHour, WindowSizeDay:
		return nil
	default:
		return ierr.NewError("invalid granularity").
			WithHintf("granularity must be one of minute, hour, day, got: %s", w).
			Mark(ierr.ErrValidation)
	}
}

// Truncate truncates ts to the bucket boundary in UTC, the Go-side
// equivalent of date_trunc.
func (w WindowSize) Truncate(ts time.Time) time.Time {
	ts = ts.UTC()
	switch w {
	case WindowSizeMinute:
		return ts.Truncate(time.Minute)
	case WindowSizeHour:
		return ts.Truncate(time.Hour)
	case WindowSizeDay:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return ts
	}
}

// TimeRange is an inclusive [From, To] window over sample timestamps
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r TimeRange) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return ierr.NewError("time range is required").
			WithHint("both from and to must be set").
			Mark(ierr.ErrValidation)
	}
	if r.To.Before(r.From) {
		return ierr.NewError("malformed time range").
			WithHint("to must not be before from").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Contains reports whether ts falls inside the range.
func (r TimeRange) Contains(ts time.Time) bool {
	return !ts.Before(r.From) && !ts.After(r.To)
}
