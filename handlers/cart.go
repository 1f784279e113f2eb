package handlers

import (
	"net/http"

	"labbook/models"
	"labbook/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CartHandler struct {
	Carts booking.CartOpener
}

func NewCartHandler(carts booking.CartOpener) *CartHandler {
	return &CartHandler{Carts: carts}
}

type quantityRequest struct {
	Route    string `json:"route" binding:"required"`
	Quantity int    `json:"quantity"`
}

// GetCartHandler returns the line items and derived totals of the visitor's cart.
func (h *CartHandler) GetCartHandler(c *gin.Context) {
	store := h.Carts.Open(c.Request.Context(), sessionID(c))
	c.JSON(http.StatusOK, store.View())
}

// AddItemHandler adds a test or scan. Adding a route that is already in the
// cart changes nothing and reports added=false.
func (h *CartHandler) AddItemHandler(c *gin.Context) {
	var item models.CartLineItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, err)
		return
	}

	store := h.Carts.Open(c.Request.Context(), sessionID(c))
	added, err := store.Add(c.Request.Context(), item)
	if err != nil {
		respondError(c, err)
		return
	}
	if added {
		getLogger(c).Debug("Cart item added", zap.String("route", string(item.Route)))
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "cart": store.View()})
}

// UpdateQuantityHandler sets a line item's quantity; values below 1 become 1.
func (h *CartHandler) UpdateQuantityHandler(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	route, err := models.ParseRoute(req.Route)
	if err != nil {
		respondError(c, err)
		return
	}

	store := h.Carts.Open(c.Request.Context(), sessionID(c))
	updated, err := store.SetQuantity(c.Request.Context(), route, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated, "cart": store.View()})
}

// RemoveItemHandler drops the line item for ?route=. Unknown routes are ignored.
func (h *CartHandler) RemoveItemHandler(c *gin.Context) {
	store := h.Carts.Open(c.Request.Context(), sessionID(c))
	removed, err := store.Remove(c.Request.Context(), models.Route(c.Query("route")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed, "cart": store.View()})
}

func (h *CartHandler) ClearCartHandler(c *gin.Context) {
	store := h.Carts.Open(c.Request.Context(), sessionID(c))
	if err := store.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, store.View())
}
