package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	customerRepo "labbook/database/repository/customer"
	"labbook/models"
	"labbook/services/booking"
	"labbook/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var (
	ErrInvalidPhone = errors.New("please enter a valid 10-digit mobile number")
	ErrInvalidOTP   = errors.New("the code is incorrect or has expired")
	ErrUnauthorized = errors.New("insufficient authorization")
)

// session is what the auth cache keeps per issued token.
type session struct {
	CustomerID string    `json:"customerId"`
	Phone      string    `json:"phone"`
	IssuedAt   time.Time `json:"issuedAt"`
}

// Result is returned after a successful sign-in.
type Result struct {
	Token    string           `json:"token"`
	Customer *models.Customer `json:"customer"`
}

// Service signs customers in with a one-time code sent to their mobile.
type Service struct {
	otps      *utils.OTPStore
	customers customerRepo.CustomerRepository
	issuer    *utils.TokenIssuer
	cache     *redis.Client
	tokenTTL  time.Duration
	sendSMS   func(phone, message string) error
	logger    *zap.Logger
}

func NewService(otps *utils.OTPStore, customers customerRepo.CustomerRepository, issuer *utils.TokenIssuer, cache *redis.Client, logger *zap.Logger) *Service {
	return &Service{
		otps:      otps,
		customers: customers,
		issuer:    issuer,
		cache:     cache,
		tokenTTL:  utils.AuthCacheTTL,
		sendSMS:   utils.SendSMS,
		logger:    logger,
	}
}

func cacheKey(token string) string {
	return utils.AuthCachePrefix + utils.HashToken(token)
}

// RequestOTP sends a sign-in code to phone.
func (s *Service) RequestOTP(ctx context.Context, phone string) error {
	phone = booking.NormalizePhone(phone)
	if !booking.IsIndianMobile(phone) {
		return ErrInvalidPhone
	}
	code, err := s.otps.Issue(ctx, phone)
	if err != nil {
		return err
	}
	if err := s.sendSMS(phone, fmt.Sprintf("Your labbook sign-in code is %s", code)); err != nil {
		s.logger.Error("Failed to send OTP", zap.String("phone", phone), zap.Error(err))
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

// Verify checks the code, creates the customer on first sign-in and issues a token.
func (s *Service) Verify(ctx context.Context, phone, code string) (*Result, error) {
	phone = booking.NormalizePhone(phone)
	if err := s.otps.Verify(ctx, phone, code); err != nil {
		if errors.Is(err, utils.ErrOTPNotFound) || errors.Is(err, utils.ErrOTPMismatch) {
			return nil, ErrInvalidOTP
		}
		return nil, err
	}

	customer, err := s.customers.UpsertByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	token, err := s.issuer.GenerateToken(customer.ID, phone, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	sess := session{CustomerID: customer.ID, Phone: phone, IssuedAt: time.Now()}
	if err := utils.SaveSession(ctx, s.cache, cacheKey(token), sess, s.tokenTTL); err != nil {
		return nil, err
	}

	s.logger.Info("Customer signed in", zap.String("customer", customer.ID))
	return &Result{Token: token, Customer: customer}, nil
}

// Authenticate returns the customer id of a live token. Signed-out tokens are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	customerID, err := s.issuer.ExtractIDFromToken(token)
	if err != nil {
		return "", ErrUnauthorized
	}
	var sess session
	if err := utils.GetSession(ctx, s.cache, cacheKey(token), &sess); err != nil {
		if !errors.Is(err, utils.ErrSessionNotFound) {
			s.logger.Warn("Auth cache lookup failed", zap.Error(err))
		}
		return "", ErrUnauthorized
	}
	if sess.CustomerID != customerID {
		return "", ErrUnauthorized
	}
	return customerID, nil
}

// SignOut revokes the token.
func (s *Service) SignOut(ctx context.Context, token string) error {
	return utils.DeleteSession(ctx, s.cache, cacheKey(token))
}
