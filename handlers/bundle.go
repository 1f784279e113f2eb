// File: labbook/handlers/bundle.go
package handlers

import (
	"labbook/middleware"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Auth    middleware.Authenticator
	Locator middleware.CityLocator

	// Cart endpoints
	GetCart        gin.HandlerFunc
	AddCartItem    gin.HandlerFunc
	UpdateCartItem gin.HandlerFunc
	RemoveCartItem gin.HandlerFunc
	ClearCart      gin.HandlerFunc

	// Slot endpoints
	GetDates gin.HandlerFunc
	GetTimes gin.HandlerFunc

	// Booking form endpoints
	GetDraft        gin.HandlerFunc
	UpdateDraft     gin.HandlerFunc
	ValidateDraft   gin.HandlerFunc
	SelectDate      gin.HandlerFunc
	SelectTime      gin.HandlerFunc
	SetCollection   gin.HandlerFunc
	SelectClinic    gin.HandlerFunc
	ListClinics     gin.HandlerFunc
	LocationClick   gin.HandlerFunc
	LocationCurrent gin.HandlerFunc
	LocationPlace   gin.HandlerFunc

	// Search and contact
	SearchTests   gin.HandlerFunc
	SubmitContact gin.HandlerFunc

	// Customer sign-in
	RequestOTP gin.HandlerFunc
	VerifyOTP  gin.HandlerFunc
	SignOut    gin.HandlerFunc

	// Checkout and ledger
	SubmitCheckout gin.HandlerFunc
	ResumeCheckout gin.HandlerFunc
	ListBookings   gin.HandlerFunc
	GetBooking     gin.HandlerFunc

	Health gin.HandlerFunc
}
