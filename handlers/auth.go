package handlers

import (
	"context"
	"net/http"

	"labbook/services/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignInService is the OTP sign-in flow.
type SignInService interface {
	RequestOTP(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone, code string) (*auth.Result, error)
	SignOut(ctx context.Context, token string) error
}

type AuthHandler struct {
	Auth SignInService
}

func NewAuthHandler(svc SignInService) *AuthHandler {
	return &AuthHandler{Auth: svc}
}

func (h *AuthHandler) RequestOTPHandler(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.Auth.RequestOTP(c.Request.Context(), req.Phone); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "A sign-in code has been sent to your phone"})
}

// VerifyOTPHandler signs the customer in. A checkout parked for sign-in can
// then be continued at ResumePath.
func (h *AuthHandler) VerifyOTPHandler(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.Auth.Verify(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("Customer verified", zap.String("customer", res.Customer.ID))
	c.JSON(http.StatusOK, gin.H{"token": res.Token, "customer": res.Customer, "resume": ResumePath})
}

func (h *AuthHandler) SignOutHandler(c *gin.Context) {
	if err := h.Auth.SignOut(c.Request.Context(), c.GetString("token")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}
