package booking

import (
	"context"

	"labbook/models"
	"labbook/services/cart"
)

// AppointmentProvider books the appointment for the cash path.
type AppointmentProvider interface {
	CreateAppointment(ctx context.Context, payload models.AppointmentPayload) (*models.ProviderResponse, error)
}

// BookingRecorder writes the ledger entry of a completed submission.
type BookingRecorder interface {
	Create(ctx context.Context, record *models.BookingRecord) error
}

// LeadEnqueuer hands a CRM lead to the background queue.
type LeadEnqueuer interface {
	EnqueueLead(ctx context.Context, lead models.Lead) error
}

// CartOpener gives access to a visitor's cart.
type CartOpener interface {
	Open(ctx context.Context, sessionID string) *cart.Store
}

// CheckoutService runs booking submissions.
type CheckoutService interface {
	Submit(ctx context.Context, req CheckoutRequest) (*models.CheckoutOutcome, error)
	Resume(ctx context.Context, sessionID, customerID string) (*models.CheckoutOutcome, error)
}

// DraftService edits the booking form of a session.
type DraftService interface {
	Get(ctx context.Context, sessionID string) (*models.BookingDraft, error)
	Update(ctx context.Context, sessionID string, upd models.DraftUpdate) (*models.BookingDraft, error)
	Validate(ctx context.Context, sessionID string) (*models.BookingDraft, FieldErrors, error)
	SelectDate(ctx context.Context, sessionID, date string) (*models.BookingDraft, error)
	SelectTime(ctx context.Context, sessionID, value string) (*models.BookingDraft, error)
	SetCollection(ctx context.Context, sessionID string, method models.CollectionMethod) (*models.BookingDraft, error)
	SelectClinic(ctx context.Context, sessionID, clinicID string) (*models.BookingDraft, models.Clinic, error)
	ApplyAddress(ctx context.Context, sessionID string, addr models.ResolvedAddress) (*models.BookingDraft, error)
	SetDefaultCity(ctx context.Context, sessionID, city string) error
}

var (
	_ DraftService    = (*Drafts)(nil)
	_ CheckoutService = (*Orchestrator)(nil)
)
