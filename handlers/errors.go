package handlers

import (
	"context"
	"errors"
	"net/http"

	"labbook/models"
	"labbook/services/auth"
	"labbook/services/booking"
	"labbook/services/location"
	"labbook/services/search"
	"labbook/services/slots"
	"labbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResumePath is where a checkout parked for sign-in continues.
const ResumePath = "/api/checkout/resume"

// respondError maps service errors to HTTP answers.
func respondError(c *gin.Context, err error) {
	var (
		fieldErrs   booking.FieldErrors
		providerErr *booking.ProviderError
		geoErr      *location.GeolocationError
	)

	switch {
	case errors.As(err, &fieldErrs):
		utils.JSONFieldErrors(c, "Please correct the highlighted fields", fieldErrs)
	case errors.As(err, &providerErr):
		getLogger(c).Error("Provider call failed", zap.Error(providerErr.Err))
		utils.JSONError(c, http.StatusBadGateway, providerErr.Message, "")
	case errors.As(err, &geoErr):
		utils.JSONError(c, http.StatusUnprocessableEntity, geoErr.Error(), geoErr.Reason)
	case errors.Is(err, booking.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error(), "resume": ResumePath})
	case errors.Is(err, booking.ErrSubmissionInProgress), errors.Is(err, utils.ErrStale):
		utils.JSONError(c, http.StatusConflict, err.Error(), "")
	case errors.Is(err, booking.ErrNothingPending), errors.Is(err, location.ErrUnknownClinic),
		errors.Is(err, location.ErrNoResults):
		utils.JSONError(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, booking.ErrEmptyCart), errors.Is(err, booking.ErrSlotRequired),
		errors.Is(err, booking.ErrNotHomeCollection), errors.Is(err, location.ErrEmptyQuery),
		errors.Is(err, slots.ErrNoDateSelected), errors.Is(err, slots.ErrUnknownSlot),
		errors.Is(err, slots.ErrUnknownDate), errors.Is(err, slots.ErrInvalidDate),
		errors.Is(err, models.ErrInvalidRoute),
		errors.Is(err, auth.ErrInvalidPhone):
		utils.JSONError(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, auth.ErrInvalidOTP), errors.Is(err, auth.ErrUnauthorized):
		utils.JSONError(c, http.StatusUnauthorized, err.Error(), "")
	case errors.Is(err, location.ErrGeocodeFailed), errors.Is(err, search.ErrSearchFailed):
		utils.JSONError(c, http.StatusBadGateway, err.Error(), "")
	case errors.Is(err, context.DeadlineExceeded):
		utils.JSONError(c, http.StatusGatewayTimeout, "The request timed out", "")
	default:
		getLogger(c).Error("Unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred. Please try again later.")
	}
}

func badRequest(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
}
