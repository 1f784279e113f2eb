package handlers

import (
	"net/http"

	"labbook/models"
	"labbook/services/booking"
	"labbook/services/location"
	"labbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DraftHandler serves the checkout form of a visitor session.
type DraftHandler struct {
	Drafts booking.DraftService
}

func NewDraftHandler(drafts booking.DraftService) *DraftHandler {
	return &DraftHandler{Drafts: drafts}
}

// GetDraftHandler returns the form, pre-filling the city from the client
// location hint when the visitor has not typed one.
func (h *DraftHandler) GetDraftHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sid := sessionID(c)
	if city := c.GetString("clientCity"); city != "" {
		if err := h.Drafts.SetDefaultCity(ctx, sid, city); err != nil {
			getLogger(c).Warn("Could not apply default city", zap.String("session", sid), zap.Error(err))
		}
	}
	draft, err := h.Drafts.Get(ctx, sid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// UpdateDraftHandler applies a partial edit. Errors of edited fields are
// cleared; nothing is re-validated until the form is submitted.
func (h *DraftHandler) UpdateDraftHandler(c *gin.Context) {
	var upd models.DraftUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	draft, err := h.Drafts.Update(c.Request.Context(), sessionID(c), upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// ValidateDraftHandler runs the full form validation and stores the messages on the draft.
func (h *DraftHandler) ValidateDraftHandler(c *gin.Context) {
	draft, fieldErrs, err := h.Drafts.Validate(c.Request.Context(), sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if len(fieldErrs) > 0 {
		utils.JSONFieldErrors(c, "Please correct the highlighted fields", fieldErrs)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "draft": draft})
}

func (h *DraftHandler) SelectDateHandler(c *gin.Context) {
	var req struct {
		Date string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	draft, err := h.Drafts.SelectDate(c.Request.Context(), sessionID(c), req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *DraftHandler) SelectTimeHandler(c *gin.Context) {
	var req struct {
		Time string `json:"time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	draft, err := h.Drafts.SelectTime(c.Request.Context(), sessionID(c), req.Time)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// SetCollectionHandler switches between home collection and a clinic visit.
func (h *DraftHandler) SetCollectionHandler(c *gin.Context) {
	var req struct {
		Method models.CollectionMethod `json:"method" binding:"required,oneof=home clinic"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	draft, err := h.Drafts.SetCollection(c.Request.Context(), sessionID(c), req.Method)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *DraftHandler) SelectClinicHandler(c *gin.Context) {
	var req struct {
		ClinicID string `json:"clinicId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	draft, clinic, err := h.Drafts.SelectClinic(c.Request.Context(), sessionID(c), req.ClinicID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft, "clinic": clinic})
}

func ListClinicsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"clinics": location.Clinics()})
}
