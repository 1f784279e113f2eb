package handlers

import (
	"net/http"
	"strings"

	"labbook/models"
	"labbook/services/booking"
	"labbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ContactHandler struct {
	Leads booking.LeadEnqueuer
}

func NewContactHandler(leads booking.LeadEnqueuer) *ContactHandler {
	return &ContactHandler{Leads: leads}
}

// SubmitContactHandler queues a contact-form lead for the CRM.
func (h *ContactHandler) SubmitContactHandler(c *gin.Context) {
	logger := getLogger(c)

	var lead models.Lead
	if err := c.ShouldBindJSON(&lead); err != nil {
		badRequest(c, err)
		return
	}
	lead.FirstName = strings.TrimSpace(lead.FirstName)
	lead.Mobile = booking.NormalizePhone(lead.Mobile)
	if !booking.IsIndianMobile(lead.Mobile) {
		utils.JSONFieldErrors(c, "Please correct the highlighted fields", map[string]string{
			"mobile": "Please enter a valid 10-digit mobile number",
		})
		return
	}

	if err := h.Leads.EnqueueLead(c.Request.Context(), lead); err != nil {
		logger.Error("Failed to queue contact lead", zap.Error(err))
		utils.JSONError(c, http.StatusServiceUnavailable, "We could not send your message right now. Please try again.", "")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Thanks! We will get back to you shortly."})
}
