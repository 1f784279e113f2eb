package auth

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"labbook/models"
	"labbook/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memCustomers struct {
	mu      sync.Mutex
	byPhone map[string]*models.Customer
}

func (m *memCustomers) UpsertByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.byPhone[phone]; ok {
		c.LastLoginAt = time.Now()
		return c, nil
	}
	c := &models.Customer{ID: "cust-" + phone, Phone: phone, CreatedAt: time.Now()}
	m.byPhone[phone] = c
	return c, nil
}

func (m *memCustomers) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byPhone {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, assert.AnError
}

var codePattern = regexp.MustCompile(`\d{6}`)

func setup(t *testing.T) (*Service, *string) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := NewService(utils.NewOTPStore(client), &memCustomers{byPhone: map[string]*models.Customer{}},
		utils.NewTokenIssuer("test-secret"), client, zap.NewNop())
	var sent string
	svc.sendSMS = func(phone, message string) error {
		sent = codePattern.FindString(message)
		return nil
	}
	return svc, &sent
}

func TestRequestOTP_RejectsInvalidPhone(t *testing.T) {
	svc, _ := setup(t)
	assert.ErrorIs(t, svc.RequestOTP(context.Background(), "12345"), ErrInvalidPhone)
}

func TestSignInFlow(t *testing.T) {
	svc, sent := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, "98765 43210"))
	require.Len(t, *sent, 6)

	_, err := svc.Verify(ctx, "9876543210", "000000x")
	assert.ErrorIs(t, err, ErrInvalidOTP)

	res, err := svc.Verify(ctx, "9876543210", *sent)
	require.NoError(t, err)
	assert.Equal(t, "cust-9876543210", res.Customer.ID)

	id, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "cust-9876543210", id)

	// codes are single use
	_, err = svc.Verify(ctx, "9876543210", *sent)
	assert.ErrorIs(t, err, ErrInvalidOTP)

	require.NoError(t, svc.SignOut(ctx, res.Token))
	_, err = svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_ForeignToken(t *testing.T) {
	svc, _ := setup(t)
	other := utils.NewTokenIssuer("other-secret")
	token, err := other.GenerateToken("cust-1", "9876543210", time.Hour)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerify_DiscardsCodeAfterRepeatedMisses(t *testing.T) {
	svc, sent := setup(t)
	ctx := context.Background()
	const phone = "9876543210"

	require.NoError(t, svc.RequestOTP(ctx, phone))
	wrong := "000000"
	if *sent == wrong {
		wrong = "111111"
	}
	for i := 0; i < 5; i++ {
		_, err := svc.Verify(ctx, phone, wrong)
		assert.ErrorIs(t, err, ErrInvalidOTP)
	}

	// the real code no longer works once the attempts are used up
	_, err := svc.Verify(ctx, phone, *sent)
	assert.ErrorIs(t, err, ErrInvalidOTP)

	// a fresh code starts a new attempt budget
	require.NoError(t, svc.RequestOTP(ctx, phone))
	wrong = "000000"
	if *sent == wrong {
		wrong = "111111"
	}
	for i := 0; i < 4; i++ {
		_, err := svc.Verify(ctx, phone, wrong)
		assert.ErrorIs(t, err, ErrInvalidOTP)
	}
	res, err := svc.Verify(ctx, phone, *sent)
	require.NoError(t, err)
	assert.Equal(t, "cust-"+phone, res.Customer.ID)
}
