package handlers

import (
	"errors"
	"net/http"
	"strconv"

	bookingRepo "labbook/database/repository/booking"
	"labbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxBookingsListed = 50

// BookingsHandler exposes a customer's booking ledger.
type BookingsHandler struct {
	Repo bookingRepo.BookingRepository
}

func NewBookingsHandler(repo bookingRepo.BookingRepository) *BookingsHandler {
	return &BookingsHandler{Repo: repo}
}

func (h *BookingsHandler) ListBookingsHandler(c *gin.Context) {
	limit := int64(maxBookingsListed)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			utils.JSONError(c, http.StatusBadRequest, "Invalid limit", raw)
			return
		}
		if n < limit {
			limit = n
		}
	}

	records, err := h.Repo.ListByCustomer(c.Request.Context(), c.GetString("customerID"), limit)
	if err != nil {
		getLogger(c).Error("Failed to list bookings", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to retrieve bookings", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": records})
}

// GetBookingHandler returns one booking of the signed-in customer.
func (h *BookingsHandler) GetBookingHandler(c *gin.Context) {
	record, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, bookingRepo.ErrBookingNotFound) || (err == nil && record.CustomerID != c.GetString("customerID")) {
		utils.JSONError(c, http.StatusNotFound, "Booking not found", "")
		return
	}
	if err != nil {
		getLogger(c).Error("Failed to load booking", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to retrieve booking", "")
		return
	}
	c.JSON(http.StatusOK, record)
}
