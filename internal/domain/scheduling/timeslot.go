package scheduling

import "github.com/hms/hms/internal/platform/validate"

// SlotStep is the spacing of the availability grid in minutes.
const SlotStep = 30

// Interval is a half-open range [Start, End) of minutes after midnight.
type Interval struct {
	Start int
	End   int
}

// NewInterval builds the interval covering duration minutes from an "HH:MM" start.
func NewInterval(clock string, duration int) (Interval, error) {
	start, err := validate.ParseClock(clock)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: start + duration}, nil
}

// Overlaps reports whether the two intervals share any minute.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start < b.End && a.End > b.Start
}

// Within reports whether a lies entirely inside outer.
func (a Interval) Within(outer Interval) bool {
	return a.Start >= outer.Start && a.End <= outer.End
}

// OverlapsAny reports whether a overlaps any of busy.
func (a Interval) OverlapsAny(busy []Interval) bool {
	for _, b := range busy {
		if a.Overlaps(b) {
			return true
		}
	}
	return false
}

// Slot is one entry of the availability grid.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// SlotGrid lays SlotStep-minute starts from work.Start while the start is
// before work.End. A slot is available when duration minutes from its start
// fit in the working hours and overlap nothing in busy.
func SlotGrid(work Interval, duration int, busy []Interval) []Slot {
	var slots []Slot
	for t := work.Start; t < work.End; t += SlotStep {
		iv := Interval{Start: t, End: t + duration}
		slots = append(slots, Slot{
			Time:      validate.FormatClock(t),
			Available: iv.Within(work) && !iv.OverlapsAny(busy),
		})
	}
	return slots
}
