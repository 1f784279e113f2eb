package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrOTPNotFound = errors.New("OTP not found or expired")
	ErrOTPMismatch = errors.New("OTP does not match")
)

const (
	otpTTL         = 5 * time.Minute
	maxOTPAttempts = 5
)

// generateNumericOTP returns a zero-padded random numeric code of the given length.
func generateNumericOTP(length int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}

// SendSMS delivers a text message to the given mobile number.
// Replace the body of this function with the SMS gateway integration.
func SendSMS(phoneNumber, message string) error {
	GetLogger().Sugar().Infof("Sending SMS to %s: %s", phoneNumber, message)
	return nil
}

// OTPStore keeps bcrypt hashes of pending sign-in codes in Redis.
type OTPStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client, ttl: otpTTL}
}

func otpKey(phone string) string {
	return "otp:" + phone
}

func otpAttemptsKey(phone string) string {
	return "otp:attempts:" + phone
}

// Issue generates a 6-digit OTP for phone, stores its hash with a 5-minute TTL
// and returns the plain code for delivery.
func (s *OTPStore) Issue(ctx context.Context, phone string) (string, error) {
	otp, err := generateNumericOTP(6)
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(otp), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash OTP: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, otpKey(phone), hash, s.ttl)
		pipe.Del(ctx, otpAttemptsKey(phone))
		return nil
	})
	if err != nil {
		GetLogger().Error("Failed to cache OTP", zap.Error(err))
		return "", fmt.Errorf("failed to store OTP: %w", err)
	}
	return otp, nil
}

// Verify compares the provided code against the stored hash and deletes it on
// success. After maxOTPAttempts wrong codes the OTP is discarded and a new one
// must be requested.
func (s *OTPStore) Verify(ctx context.Context, phone, provided string) error {
	stored, err := s.client.Get(ctx, otpKey(phone)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrOTPNotFound
		}
		return fmt.Errorf("failed to retrieve OTP: %w", err)
	}

	if bcrypt.CompareHashAndPassword(stored, []byte(provided)) != nil {
		return s.recordMiss(ctx, phone)
	}

	// Delete the OTP after successful verification.
	if err := s.client.Del(ctx, otpKey(phone), otpAttemptsKey(phone)).Err(); err != nil {
		GetLogger().Error("Failed to delete OTP after verification", zap.Error(err))
	}
	return nil
}

func (s *OTPStore) recordMiss(ctx context.Context, phone string) error {
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, otpAttemptsKey(phone))
		pipe.Expire(ctx, otpAttemptsKey(phone), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to count OTP attempt: %w", err)
	}
	if incr.Val() >= maxOTPAttempts {
		GetLogger().Warn("Too many wrong OTP attempts, discarding code", zap.String("phone", phone))
		if err := s.client.Del(ctx, otpKey(phone), otpAttemptsKey(phone)).Err(); err != nil {
			return fmt.Errorf("failed to discard OTP: %w", err)
		}
	}
	return ErrOTPMismatch
}
