package slots

import (
	"time"

	"labbook/models"
)

// Selector walks NoDateSelected -> DateSelected -> DateAndTimeSelected.
// Choosing a date always drops the chosen time.
type Selector struct {
	sel models.SlotSelection
	now func() time.Time
}

func NewSelector(current models.SlotSelection, now func() time.Time) *Selector {
	if now == nil {
		now = time.Now
	}
	return &Selector{sel: current, now: now}
}

func (s *Selector) Selection() models.SlotSelection { return s.sel }

func (s *Selector) State() models.SlotState { return s.sel.State() }

// SelectDate accepts only dates inside the offered window.
func (s *Selector) SelectDate(value string) error {
	if _, err := ParseDate(value); err != nil {
		return ErrUnknownDate
	}
	offered := false
	for _, d := range GenerateDates(s.now()) {
		if d.Value == value {
			offered = true
			break
		}
	}
	if !offered {
		return ErrUnknownDate
	}
	s.sel = models.SlotSelection{Date: value}
	return nil
}

// SelectTime requires a selected date and one of its generated slots.
func (s *Selector) SelectTime(value string) error {
	if s.sel.Date == "" {
		return ErrNoDateSelected
	}
	times, err := TimesFor(s.sel.Date)
	if err != nil {
		return ErrUnknownDate
	}
	for _, t := range times {
		if t.Value == value {
			s.sel.Time = value
			return nil
		}
	}
	return ErrUnknownSlot
}
