package models

import "time"

type CollectionMethod string

const (
	CollectionHome   CollectionMethod = "home"
	CollectionClinic CollectionMethod = "clinic"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentOnline PaymentMethod = "online"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// LatLng is a map coordinate.
type LatLng struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// BookingDraft is the checkout form state of one visitor session.
// Exactly one of ClinicID or Address(+SelectedLocation) is authoritative,
// depending on CollectionMethod.
type BookingDraft struct {
	Name    string `json:"name" validate:"required,notblank"`
	Email   string `json:"email" validate:"required,basic_email"`
	Phone   string `json:"phone" validate:"required,in_mobile"`
	DOB     string `json:"dob" validate:"required,not_future"`
	Age     string `json:"age" validate:"required,age_years"`
	Gender  Gender `json:"gender"`
	Pincode string `json:"pincode" validate:"required,notblank"`
	Area    string `json:"area"`
	City    string `json:"city"`

	CollectionMethod CollectionMethod `json:"collectionMethod" validate:"required,oneof=home clinic"`
	ClinicID         string           `json:"clinicId,omitempty" validate:"required_if=CollectionMethod clinic"`
	Address          string           `json:"address" validate:"required_if=CollectionMethod home,omitempty,notblank"`
	SelectedLocation *LatLng          `json:"selectedLocation,omitempty" validate:"required_if=CollectionMethod home"`

	SelectedDate string `json:"selectedDate,omitempty"`
	SelectedTime string `json:"selectedTime,omitempty"`

	PaymentMethod PaymentMethod `json:"paymentMethod" validate:"required,oneof=cash online"`

	Errors    map[string]string `json:"errors,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// DraftUpdate carries the fields a storefront edit touched; nil means untouched.
type DraftUpdate struct {
	Name          *string        `json:"name"`
	Email         *string        `json:"email"`
	Phone         *string        `json:"phone"`
	DOB           *string        `json:"dob"`
	Gender        *Gender        `json:"gender"`
	Pincode       *string        `json:"pincode"`
	Area          *string        `json:"area"`
	City          *string        `json:"city"`
	Address       *string        `json:"address"`
	PaymentMethod *PaymentMethod `json:"paymentMethod"`
}

// Clinic is a physical collection centre.
type Clinic struct {
	ID       string `json:"id" bson:"id"`
	Name     string `json:"name" bson:"name"`
	Address  string `json:"address" bson:"address"`
	Area     string `json:"area" bson:"area"`
	City     string `json:"city" bson:"city"`
	Pincode  string `json:"pincode" bson:"pincode"`
	Location LatLng `json:"location" bson:"location"`
}

// ResolvedAddress is the outcome of a reverse geocode.
type ResolvedAddress struct {
	Location LatLng `json:"location"`
	Address  string `json:"address"`
	Area     string `json:"area"`
	City     string `json:"city,omitempty"`
	Pincode  string `json:"pincode"`
}

// Booking statuses recorded in the ledger.
const (
	BookingStatusConfirmed      = "confirmed"
	BookingStatusPaymentPending = "payment_pending"
)

// BookingRecord is the ledger entry written after a successful submission.
type BookingRecord struct {
	ID               string           `bson:"id" json:"id"`
	CustomerID       string           `bson:"customer_id" json:"customerId"`
	SessionID        string           `bson:"session_id" json:"-"`
	Status           string           `bson:"status" json:"status"`
	CollectionMethod CollectionMethod `bson:"collection_method" json:"collectionMethod"`
	PaymentMethod    PaymentMethod    `bson:"payment_method" json:"paymentMethod"`
	ClinicID         string           `bson:"clinic_id,omitempty" json:"clinicId,omitempty"`
	AppointmentStart time.Time        `bson:"appointment_start" json:"appointmentStart"`
	PatientID        string           `bson:"patient_id,omitempty" json:"patientId,omitempty"`
	BillID           string           `bson:"bill_id,omitempty" json:"billId,omitempty"`
	AppointmentID    string           `bson:"appointment_id,omitempty" json:"appointmentId,omitempty"`
	PaymentURL       string           `bson:"payment_url,omitempty" json:"paymentUrl,omitempty"`
	Total            float64          `bson:"total" json:"total"`
	Routes           []string         `bson:"routes" json:"routes"`
	CreatedAt        time.Time        `bson:"created_at" json:"createdAt"`
}
