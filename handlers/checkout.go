package handlers

import (
	"net/http"

	"labbook/models"
	"labbook/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	Checkout booking.CheckoutService
}

func NewCheckoutHandler(svc booking.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{Checkout: svc}
}

type checkoutRequest struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod" binding:"omitempty,oneof=cash online"`
}

// SubmitCheckoutHandler books the appointment for the visitor's cart and
// form. Anonymous visitors get 401 with the resume path; nothing is lost.
func (h *CheckoutHandler) SubmitCheckoutHandler(c *gin.Context) {
	var req checkoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	outcome, err := h.Checkout.Submit(c.Request.Context(), booking.CheckoutRequest{
		SessionID:     sessionID(c),
		CustomerID:    c.GetString("customerID"),
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("Checkout completed", zap.String("booking", outcome.BookingID), zap.String("status", outcome.Status))
	c.JSON(http.StatusOK, outcome)
}

// ResumeCheckoutHandler continues a submission parked while the customer signed in.
func (h *CheckoutHandler) ResumeCheckoutHandler(c *gin.Context) {
	outcome, err := h.Checkout.Resume(c.Request.Context(), sessionID(c), c.GetString("customerID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}
