package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"labbook/models"
	"labbook/services/cart"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSession = "sess-1"

type fakeProvider struct {
	mu       sync.Mutex
	payloads []models.AppointmentPayload
	resp     *models.ProviderResponse
	err      error
}

func (f *fakeProvider) CreateAppointment(ctx context.Context, payload models.AppointmentPayload) (*models.ProviderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return f.resp, f.err
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type fakeGateway struct {
	envelopes []models.PaymentEnvelope
	resp      *models.ProviderResponse
	err       error
}

func (f *fakeGateway) Initialize(ctx context.Context, envelope models.PaymentEnvelope) (*models.ProviderResponse, error) {
	f.envelopes = append(f.envelopes, envelope)
	return f.resp, f.err
}

type fakeRecorder struct{ records []*models.BookingRecord }

func (f *fakeRecorder) Create(ctx context.Context, r *models.BookingRecord) error {
	f.records = append(f.records, r)
	return nil
}

type fakeLeads struct{ leads []models.Lead }

func (f *fakeLeads) EnqueueLead(ctx context.Context, lead models.Lead) error {
	f.leads = append(f.leads, lead)
	return nil
}

type fixture struct {
	mr       *miniredis.Miniredis
	client   *redis.Client
	carts    *cart.Service
	drafts   *Drafts
	provider *fakeProvider
	gateway  *fakeGateway
	records  *fakeRecorder
	leads    *fakeLeads
	orch     *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := &fixture{
		mr:       mr,
		client:   client,
		carts:    cart.NewService(cart.NewRedisSnapshots(client, time.Hour), zap.NewNop()),
		drafts:   NewDrafts(NewRedisDrafts(client, time.Hour), NewFormValidator(fixedNow), zap.NewNop()),
		provider: &fakeProvider{},
		gateway:  &fakeGateway{},
		records:  &fakeRecorder{},
		leads:    &fakeLeads{},
	}
	f.orch = NewOrchestrator(Deps{
		Carts:    f.carts,
		Drafts:   f.drafts,
		Provider: f.provider,
		Gateway:  f.gateway,
		Records:  f.records,
		Leads:    f.leads,
		Redis:    client,
		Logger:   zap.NewNop(),
	})
	f.orch.newID = func() string { return "bk-1" }
	return f
}

func strPtr(s string) *string { return &s }

// fillDraft completes a home-collection booking form for Monday 2024-06-17 09:00.
func (f *fixture) fillDraft(t *testing.T) {
	ctx := context.Background()
	gender := models.GenderFemale
	_, err := f.drafts.Update(ctx, testSession, models.DraftUpdate{
		Name:    strPtr("Asha Rao"),
		Email:   strPtr("asha@example.com"),
		Phone:   strPtr("98765 43210"),
		DOB:     strPtr("2000-06-14"),
		Gender:  &gender,
		Pincode: strPtr("400050"),
		City:    strPtr("Mumbai"),
	})
	require.NoError(t, err)
	_, err = f.drafts.ApplyAddress(ctx, testSession, models.ResolvedAddress{
		Location: models.LatLng{Lat: 19.05, Lng: 72.83},
		Address:  "12 Hill Road, Bandra West",
	})
	require.NoError(t, err)
	_, err = f.drafts.SelectDate(ctx, testSession, "2024-06-17")
	require.NoError(t, err)
	_, err = f.drafts.SelectTime(ctx, testSession, "09:00")
	require.NoError(t, err)
}

func (f *fixture) addItem(t *testing.T) {
	store := f.carts.Open(context.Background(), testSession)
	_, err := store.Add(context.Background(), models.CartLineItem{
		Route:           "/lab-test/lipid-profile",
		Title:           "Lipid Profile",
		Price:           models.NewPrice(600),
		DiscountedPrice: models.NewPrice(500),
		Quantity:        1,
		TemplateName:    models.TemplateLabTest,
		BasicInfo:       map[string]any{"testId": "LP01"},
	})
	require.NoError(t, err)
}
