package booking

import (
	"strings"
	"time"

	"labbook/services/slots"
)

// ServiceOffset is the fixed offset appended to every provider timestamp.
const ServiceOffset = slots.ServiceOffset

// AppointmentLength is the fixed duration of a booked slot.
const AppointmentLength = time.Hour

const offsetLayout = "2006-01-02T15:04:05-07:00"

// FormatOffset renders t in the service zone with an explicit +05:30 suffix,
// whatever the host's local zone is.
func FormatOffset(t time.Time) string {
	return t.In(slots.ServiceZone).Format(offsetLayout)
}

// AppointmentWindow returns start and end of the chosen slot.
func AppointmentWindow(date, clock string) (time.Time, time.Time, error) {
	start, err := slots.Start(slotSelection(date, clock))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.Add(AppointmentLength), nil
}

func designation(g string) string {
	switch strings.ToLower(g) {
	case "male":
		return "Mr."
	case "female":
		return "Ms."
	default:
		return "Mx."
	}
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
