package handlers

import (
	"context"
	"net/http"

	"labbook/models"
	"labbook/services/booking"
	"labbook/services/location"

	"github.com/gin-gonic/gin"
)

// AddressResolver is the part of location.Resolver the handlers use.
type AddressResolver interface {
	FromClick(ctx context.Context, key string, at models.LatLng, apply location.ApplyFunc) (models.ResolvedAddress, error)
	FromDevice(ctx context.Context, key string, report location.DeviceReport, apply location.ApplyFunc) (models.ResolvedAddress, error)
	FromPlace(ctx context.Context, key, query string, apply location.ApplyFunc) (models.ResolvedAddress, error)
}

// LocationHandler fills the home-collection address from the map.
type LocationHandler struct {
	Resolver AddressResolver
	Drafts   booking.DraftService
}

func NewLocationHandler(resolver AddressResolver, drafts booking.DraftService) *LocationHandler {
	return &LocationHandler{Resolver: resolver, Drafts: drafts}
}

type lookupFunc func(ctx context.Context, sid string, apply location.ApplyFunc) (models.ResolvedAddress, error)

// resolve runs a lookup and stores its result on the draft. Only home
// collection drafts take an address; a superseded lookup answers 409.
func (h *LocationHandler) resolve(c *gin.Context, lookup lookupFunc) {
	ctx := c.Request.Context()
	sid := sessionID(c)

	current, err := h.Drafts.Get(ctx, sid)
	if err != nil {
		respondError(c, err)
		return
	}
	if current.CollectionMethod != models.CollectionHome {
		respondError(c, booking.ErrNotHomeCollection)
		return
	}

	var draft *models.BookingDraft
	addr, err := lookup(ctx, sid, func(addr models.ResolvedAddress) error {
		var applyErr error
		draft, applyErr = h.Drafts.ApplyAddress(ctx, sid, addr)
		return applyErr
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr, "draft": draft})
}

// ClickHandler reverse geocodes a point picked on the map.
func (h *LocationHandler) ClickHandler(c *gin.Context) {
	var at models.LatLng
	if err := c.ShouldBindJSON(&at); err != nil {
		badRequest(c, err)
		return
	}
	h.resolve(c, func(ctx context.Context, sid string, apply location.ApplyFunc) (models.ResolvedAddress, error) {
		return h.Resolver.FromClick(ctx, sid, at, apply)
	})
}

// CurrentLocationHandler takes the device geolocation result, including failures.
func (h *LocationHandler) CurrentLocationHandler(c *gin.Context) {
	var report location.DeviceReport
	if err := c.ShouldBindJSON(&report); err != nil {
		badRequest(c, err)
		return
	}
	h.resolve(c, func(ctx context.Context, sid string, apply location.ApplyFunc) (models.ResolvedAddress, error) {
		return h.Resolver.FromDevice(ctx, sid, report, apply)
	})
}

func (h *LocationHandler) PlaceHandler(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.resolve(c, func(ctx context.Context, sid string, apply location.ApplyFunc) (models.ResolvedAddress, error) {
		return h.Resolver.FromPlace(ctx, sid, req.Query, apply)
	})
}
