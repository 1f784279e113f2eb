package models

// DateOption is one of the bookable calendar days.
type DateOption struct {
	Value   string `json:"value"`   // ISO date, e.g. "2024-06-15"
	Display string `json:"display"` // e.g. "Sat, Jun 15"
}

// TimeSlot is a bookable start time on a chosen date.
type TimeSlot struct {
	Value   string `json:"value"`   // 24-hour "HH:MM"
	Display string `json:"display"` // e.g. "7:30 AM"
}

// SlotState names the selection progress.
type SlotState string

const (
	NoDateSelected      SlotState = "no_date_selected"
	DateSelected        SlotState = "date_selected"
	DateAndTimeSelected SlotState = "date_and_time_selected"
)

// SlotSelection is the chosen date and time; empty strings mean "not chosen".
type SlotSelection struct {
	Date string `json:"date,omitempty"`
	Time string `json:"time,omitempty"`
}

func (s SlotSelection) State() SlotState {
	switch {
	case s.Date == "":
		return NoDateSelected
	case s.Time == "":
		return DateSelected
	default:
		return DateAndTimeSelected
	}
}
