package models

import "time"

// Customer is a signed-in storefront user, identified by mobile number.
type Customer struct {
	ID          string    `bson:"id" json:"id"`
	Phone       string    `bson:"phone" json:"phone"`
	Name        string    `bson:"name,omitempty" json:"name,omitempty"`
	Email       string    `bson:"email,omitempty" json:"email,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	LastLoginAt time.Time `bson:"last_login_at" json:"lastLoginAt"`
}
