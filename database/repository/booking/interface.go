package bookingRepo

import (
	"context"

	"labbook/models"
)

// BookingRepository stores the ledger of submitted bookings.
type BookingRepository interface {
	// Create inserts a new booking record.
	Create(ctx context.Context, record *models.BookingRecord) error
	// GetByID retrieves a booking by its id.
	GetByID(ctx context.Context, id string) (*models.BookingRecord, error)
	// ListByCustomer returns a customer's bookings, newest first.
	ListByCustomer(ctx context.Context, customerID string, limit int64) ([]models.BookingRecord, error)
}
