package customerRepo

import (
	"context"

	"labbook/models"
)

// CustomerRepository defines data access for signed-in customers.
type CustomerRepository interface {
	// UpsertByPhone returns the customer with this mobile number, creating it on
	// first sign-in, and stamps the login time.
	UpsertByPhone(ctx context.Context, phone string) (*models.Customer, error)
	// GetByID retrieves a customer by id.
	GetByID(ctx context.Context, id string) (*models.Customer, error)
}
