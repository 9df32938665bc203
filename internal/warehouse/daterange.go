package warehouse

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DateRange is an inclusive calendar date span. Start is never after End and
// both ends are always inside the dataset validity window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Window is the dataset validity span against which ranges are clamped.
type Window struct {
	Min time.Time
	Max time.Time
}

// ParseWindow parses the min/max dates of a validity window (YYYY-MM-DD).
func ParseWindow(minDate, maxDate string) (Window, error) {
	min, err := time.Parse(dateLayout, minDate)
	if err != nil {
		return Window{}, fmt.Errorf("parse window min: %w", err)
	}
	max, err := time.Parse(dateLayout, maxDate)
	if err != nil {
		return Window{}, fmt.Errorf("parse window max: %w", err)
	}
	if max.Before(min) {
		return Window{}, fmt.Errorf("window max %s before min %s", maxDate, minDate)
	}
	return Window{Min: min, Max: max}, nil
}

// Full returns the range covering the whole window.
func (w Window) Full() DateRange {
	return DateRange{Start: w.Min, End: w.Max}
}

// Range builds a DateRange from start/end, clamping both ends into the
// window. A reversed range falls back to the full window, matching the
// dashboard's date-picker correction.
func (w Window) Range(start, end time.Time) DateRange {
	start = w.clamp(start)
	end = w.clamp(end)
	if start.After(end) {
		return w.Full()
	}
	return DateRange{Start: start, End: end}
}

// ParseRange parses start/end date strings and clamps them into the window.
// Empty strings default to the window's own bound.
func (w Window) ParseRange(start, end string) (DateRange, error) {
	s, e := w.Min, w.Max
	var err error
	if start != "" {
		if s, err = time.Parse(dateLayout, start); err != nil {
			return DateRange{}, fmt.Errorf("parse start date: %w", err)
		}
	}
	if end != "" {
		if e, err = time.Parse(dateLayout, end); err != nil {
			return DateRange{}, fmt.Errorf("parse end date: %w", err)
		}
	}
	return w.Range(s, e), nil
}

func (w Window) clamp(t time.Time) time.Time {
	if t.Before(w.Min) {
		return w.Min
	}
	if t.After(w.Max) {
		return w.Max
	}
	return t
}

// Days returns the inclusive day count of the range.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// StartISO returns the start date in YYYY-MM-DD form for query predicates.
func (r DateRange) StartISO() string { return r.Start.Format(dateLayout) }

// EndISO returns the end date in YYYY-MM-DD form for query predicates.
func (r DateRange) EndISO() string { return r.End.Format(dateLayout) }

// Label formats the range the way the dashboard shows it, with the
// inclusive day count.
func (r DateRange) Label() string {
	return fmt.Sprintf("%s to %s (%d days selected)",
		r.Start.Format("Jan 02, 2006"), r.End.Format("Jan 02, 2006"), r.Days())
}
