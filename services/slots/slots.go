package slots

import (
	"errors"
	"fmt"
	"time"

	"labbook/models"
)

// ServiceOffset is the fixed offset of the lab's customers (UTC+05:30).
const ServiceOffset = 5*time.Hour + 30*time.Minute

// ServiceZone is used for every calendar computation instead of the host zone.
var ServiceZone = time.FixedZone("+05:30", int(ServiceOffset/time.Second))

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	dateDisplayLayout = "Mon, Jan 2"
	timeDisplayLayout = "3:04 PM"

	// DaysOffered is the length of the bookable window, today inclusive.
	DaysOffered = 7
	Step        = 30 * time.Minute
)

var (
	dayStart   = clock{7, 30}
	weekdayEnd = clock{20, 0}
	sundayEnd  = clock{13, 0}
)

var (
	ErrNoDateSelected = errors.New("select a date before choosing a time")
	ErrUnknownSlot    = errors.New("time slot not offered on the selected date")
	ErrUnknownDate    = errors.New("date outside the bookable window")
	ErrInvalidDate    = errors.New("invalid date")
)

type clock struct{ hour, minute int }

func (c clock) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.hour, c.minute, 0, 0, ServiceZone)
}

// ParseDate reads an ISO date in the service zone.
func ParseDate(value string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, value, ServiceZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q", ErrInvalidDate, value)
	}
	return d, nil
}

// GenerateDates returns today and the following six days.
func GenerateDates(now time.Time) []models.DateOption {
	today := now.In(ServiceZone)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, ServiceZone)

	dates := make([]models.DateOption, 0, DaysOffered)
	for i := 0; i < DaysOffered; i++ {
		d := today.AddDate(0, 0, i)
		dates = append(dates, models.DateOption{
			Value:   d.Format(DateLayout),
			Display: d.Format(dateDisplayLayout),
		})
	}
	return dates
}

// GenerateTimes lists half-hour starts from 07:30 to 20:00, or to 13:00 on
// Sundays. Both boundaries are bookable.
func GenerateTimes(date time.Time) []models.TimeSlot {
	date = date.In(ServiceZone)
	end := weekdayEnd
	if date.Weekday() == time.Sunday {
		end = sundayEnd
	}

	var slots []models.TimeSlot
	last := end.on(date)
	for t := dayStart.on(date); !t.After(last); t = t.Add(Step) {
		slots = append(slots, models.TimeSlot{
			Value:   t.Format(TimeLayout),
			Display: t.Format(timeDisplayLayout),
		})
	}
	return slots
}

// TimesFor is GenerateTimes for an ISO date string.
func TimesFor(value string) ([]models.TimeSlot, error) {
	d, err := ParseDate(value)
	if err != nil {
		return nil, err
	}
	return GenerateTimes(d), nil
}

// Start combines a selected date and time into an instant in the service zone.
func Start(sel models.SlotSelection) (time.Time, error) {
	if sel.State() != models.DateAndTimeSelected {
		return time.Time{}, ErrNoDateSelected
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, sel.Date+" "+sel.Time, ServiceZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slot %s %s: %w", sel.Date, sel.Time, err)
	}
	return t, nil
}
