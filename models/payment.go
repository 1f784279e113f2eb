package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexID accepts provider identifiers sent either as JSON strings or numbers.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// AppointmentPayload is the provider's appointment-creation body.
type AppointmentPayload struct {
	CountryCode    string          `json:"countryCode"`
	Mobile         string          `json:"mobile"`
	Email          string          `json:"email"`
	Designation    string          `json:"designation"`
	FullName       string          `json:"fullName"`
	Age            int             `json:"age"`
	AgeType        string          `json:"ageType"`
	Gender         string          `json:"gender"`
	DOB            string          `json:"dob"`
	Area           string          `json:"area"`
	City           string          `json:"city"`
	Pincode        string          `json:"pincode"`
	CollectionType string          `json:"collectionType"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
	HomeCollection *HomeCollection `json:"homeCollection,omitempty"`
	Centre         *CentreVisit    `json:"collectionCentre,omitempty"`
	BillDetails    BillDetails     `json:"billDetails"`
}

// HomeCollection is only present for home sample pickup.
type HomeCollection struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// CentreVisit is only present for clinic visits.
type CentreVisit struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type BillDetails struct {
	BillDate       string        `json:"billDate"`
	OrderNumber    string        `json:"orderNumber"`
	TotalAmount    Price         `json:"totalAmount"`
	OriginalAmount Price         `json:"originalAmount"`
	Discount       Price         `json:"discount"`
	TestList       []BillTest    `json:"testList"`
	PaymentList    []BillPayment `json:"paymentList"`
}

type BillTest struct {
	TestID   string `json:"testID"`
	TestName string `json:"testName"`
	Quantity int    `json:"quantity"`
	Amount   Price  `json:"amount"`
}

type BillPayment struct {
	PaymentType   string `json:"paymentType"`
	PaymentAmount Price  `json:"paymentAmount"`
}

// PaymentEnvelope is the body of the online payment-initialization call.
type PaymentEnvelope struct {
	AppointmentData AppointmentPayload `json:"appointmentData"`
	AppointmentType string             `json:"appointmentType"`
}

// ProviderResponse covers both the appointment and the payment-initialization answers.
type ProviderResponse struct {
	Data    ProviderData `json:"data"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type ProviderData struct {
	Code          FlexID `json:"code,omitempty"`
	PatientID     FlexID `json:"patientId,omitempty"`
	BillID        FlexID `json:"billId,omitempty"`
	AppointmentID FlexID `json:"appointmentId,omitempty"`
	PaymentURL    string `json:"paymentUrl,omitempty"`
}

// Confirmation is shown locally after a successful cash booking.
type Confirmation struct {
	PatientID     string `json:"patientId"`
	BillID        string `json:"billId"`
	AppointmentID string `json:"appointmentId"`
}

// Checkout outcome statuses.
const (
	OutcomeConfirmed = "confirmed"
	OutcomeRedirect  = "redirect"
)

// CheckoutOutcome is returned by a successful submission.
type CheckoutOutcome struct {
	Status       string        `json:"status"`
	BookingID    string        `json:"bookingId"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
	PaymentURL   string        `json:"paymentUrl,omitempty"`
}
