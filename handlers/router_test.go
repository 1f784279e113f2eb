package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	bookingRepo "labbook/database/repository/booking"
	"labbook/handlers"
	"labbook/models"
	"labbook/routes"
	"labbook/services/auth"
	"labbook/services/booking"
	"labbook/services/cart"
	"labbook/services/location"
	"labbook/services/search"
	"labbook/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Saturday morning in the service zone.
func fixedNow() time.Time {
	return time.Date(2024, 6, 15, 10, 0, 0, 0, time.FixedZone("IST", 19800))
}

type stubProvider struct {
	mu    sync.Mutex
	calls int
	resp  *models.ProviderResponse
	err   error
}

func (s *stubProvider) CreateAppointment(ctx context.Context, p models.AppointmentPayload) (*models.ProviderResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.resp, s.err
}

func (s *stubProvider) Initialize(ctx context.Context, env models.PaymentEnvelope) (*models.ProviderResponse, error) {
	return s.CreateAppointment(ctx, env.AppointmentData)
}

type stubLedger struct {
	mu      sync.Mutex
	records []models.BookingRecord
}

func (s *stubLedger) Create(ctx context.Context, r *models.BookingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *r)
	return nil
}

func (s *stubLedger) GetByID(ctx context.Context, id string) (*models.BookingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, bookingRepo.ErrBookingNotFound
}

func (s *stubLedger) ListByCustomer(ctx context.Context, customerID string, limit int64) ([]models.BookingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.BookingRecord
	for _, r := range s.records {
		if r.CustomerID == customerID {
			out = append(out, r)
		}
	}
	return out, nil
}

type stubLeads struct {
	mu    sync.Mutex
	leads []models.Lead
	err   error
}

func (s *stubLeads) EnqueueLead(ctx context.Context, lead models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.leads = append(s.leads, lead)
	return nil
}

// stubAuth accepts the token "good" for customer "cust-1".
type stubAuth struct{ signedOut []string }

func (s *stubAuth) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "good" {
		return "cust-1", nil
	}
	return "", auth.ErrUnauthorized
}

func (s *stubAuth) RequestOTP(ctx context.Context, phone string) error {
	if booking.NormalizePhone(phone) == "" {
		return auth.ErrInvalidPhone
	}
	return nil
}

func (s *stubAuth) Verify(ctx context.Context, phone, code string) (*auth.Result, error) {
	if code != "123456" {
		return nil, auth.ErrInvalidOTP
	}
	return &auth.Result{Token: "good", Customer: &models.Customer{ID: "cust-1", Phone: phone}}, nil
}

func (s *stubAuth) SignOut(ctx context.Context, token string) error {
	s.signedOut = append(s.signedOut, token)
	return nil
}

type stubGeocoder struct {
	addr models.ResolvedAddress
	err  error
}

func (s stubGeocoder) Reverse(ctx context.Context, at models.LatLng) (models.ResolvedAddress, error) {
	if s.err != nil {
		return models.ResolvedAddress{}, s.err
	}
	a := s.addr
	a.Location = at
	return a, nil
}

func (s stubGeocoder) Forward(ctx context.Context, query string) (models.LatLng, error) {
	return models.LatLng{Lat: 19.05, Lng: 72.83}, s.err
}

type stubBackend struct{}

func (stubBackend) Search(ctx context.Context, name string) ([]models.TestSearchResult, error) {
	return []models.TestSearchResult{{Name: "Lipid Profile", Route: "/lab-test/lipid-profile", TemplateName: models.TemplateLabTest}}, nil
}

type stubLocator string

func (s stubLocator) City(ctx context.Context, ip string) string { return string(s) }

type testServer struct {
	router   *gin.Engine
	redis    *redis.Client
	provider *stubProvider
	ledger   *stubLedger
	leads    *stubLeads
	auth     *stubAuth
	session  string
}

func newTestServer(t *testing.T) *testServer {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := zap.NewNop()
	carts := cart.NewService(cart.NewRedisSnapshots(client, time.Hour), logger)
	drafts := booking.NewDrafts(booking.NewRedisDrafts(client, time.Hour), booking.NewFormValidator(fixedNow), logger)
	ts := &testServer{
		redis: client,
		provider: &stubProvider{resp: &models.ProviderResponse{Data: models.ProviderData{
			PatientID: "P1", BillID: "B1", AppointmentID: "A1",
		}}},
		ledger:  &stubLedger{},
		leads:   &stubLeads{},
		auth:    &stubAuth{},
		session: "visitor-1",
	}
	orch := booking.NewOrchestrator(booking.Deps{
		Carts:    carts,
		Drafts:   drafts,
		Provider: ts.provider,
		Gateway:  ts.provider,
		Records:  ts.ledger,
		Leads:    ts.leads,
		Redis:    client,
		Logger:   logger,
	})
	geocoder := stubGeocoder{addr: models.ResolvedAddress{
		Address: "12 Hill Road, Bandra West, Mumbai", Area: "Bandra West", City: "Mumbai", Pincode: "400050",
	}}

	cartHandler := handlers.NewCartHandler(carts)
	slotHandler := handlers.NewSlotHandler(fixedNow)
	draftHandler := handlers.NewDraftHandler(drafts)
	locationHandler := handlers.NewLocationHandler(location.NewResolver(geocoder, nil, logger), drafts)
	searchHandler := handlers.NewSearchHandler(search.NewSearcher(stubBackend{}, nil, 0, logger))
	contactHandler := handlers.NewContactHandler(ts.leads)
	authHandler := handlers.NewAuthHandler(ts.auth)
	checkoutHandler := handlers.NewCheckoutHandler(orch)
	bookingsHandler := handlers.NewBookingsHandler(ts.ledger)

	hb := &handlers.HandlerBundle{
		Auth:            ts.auth,
		Locator:         stubLocator("Mumbai"),
		GetCart:         cartHandler.GetCartHandler,
		AddCartItem:     cartHandler.AddItemHandler,
		UpdateCartItem:  cartHandler.UpdateQuantityHandler,
		RemoveCartItem:  cartHandler.RemoveItemHandler,
		ClearCart:       cartHandler.ClearCartHandler,
		GetDates:        slotHandler.GetDatesHandler,
		GetTimes:        slotHandler.GetTimesHandler,
		GetDraft:        draftHandler.GetDraftHandler,
		UpdateDraft:     draftHandler.UpdateDraftHandler,
		ValidateDraft:   draftHandler.ValidateDraftHandler,
		SelectDate:      draftHandler.SelectDateHandler,
		SelectTime:      draftHandler.SelectTimeHandler,
		SetCollection:   draftHandler.SetCollectionHandler,
		SelectClinic:    draftHandler.SelectClinicHandler,
		ListClinics:     handlers.ListClinicsHandler,
		LocationClick:   locationHandler.ClickHandler,
		LocationCurrent: locationHandler.CurrentLocationHandler,
		LocationPlace:   locationHandler.PlaceHandler,
		SearchTests:     searchHandler.SearchTestsHandler,
		SubmitContact:   contactHandler.SubmitContactHandler,
		RequestOTP:      authHandler.RequestOTPHandler,
		VerifyOTP:       authHandler.VerifyOTPHandler,
		SignOut:         authHandler.SignOutHandler,
		SubmitCheckout:  checkoutHandler.SubmitCheckoutHandler,
		ResumeCheckout:  checkoutHandler.ResumeCheckoutHandler,
		ListBookings:    bookingsHandler.ListBookingsHandler,
		GetBooking:      bookingsHandler.GetBookingHandler,
		Health:          handlers.HealthHandler,
	}

	ts.router = gin.New()
	routes.RegisterRoutes(ts.router, hb)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(utils.SessionHeader, ts.session)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

var lipid = map[string]any{
	"route":           "/lab-test/lipid-profile",
	"title":           "Lipid Profile",
	"price":           600,
	"discountedPrice": 500,
	"quantity":        1,
	"templateName":    "labtest",
	"basicInfo":       map[string]any{"testId": "LP01"},
}

func (ts *testServer) fillForm(t *testing.T) {
	t.Helper()
	w := ts.do(t, http.MethodPatch, "/api/booking/draft", map[string]any{
		"name":    "Asha Rao",
		"email":   "asha@example.com",
		"phone":   "98765 43210",
		"dob":     "2000-06-14",
		"gender":  "female",
		"pincode": "400050",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = ts.do(t, http.MethodPost, "/api/location/click", map[string]float64{"lat": 19.05, "lng": 72.83}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, "/api/booking/draft/date", map[string]string{"date": "2024-06-17"}, "").Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, "/api/booking/draft/time", map[string]string{"time": "09:00"}, "").Code)
}

func TestSessionHeaderAssignedWhenMissing(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(utils.SessionHeader))
}

func TestCartEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/cart/items", lipid, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["added"])

	// a second add of the same route is ignored
	w = ts.do(t, http.MethodPost, "/api/cart/items", lipid, "")
	body := decode(t, w)
	assert.Equal(t, false, body["added"])
	totals := body["cart"].(map[string]any)["totals"].(map[string]any)
	assert.EqualValues(t, 500, totals["total"])
	assert.EqualValues(t, 600, totals["originalTotal"])
	assert.EqualValues(t, 100, totals["savings"])

	w = ts.do(t, http.MethodPatch, "/api/cart/items", map[string]any{"route": "/lab-test/lipid-profile", "quantity": 0}, "")
	items := decode(t, w)["cart"].(map[string]any)["items"].([]any)
	assert.EqualValues(t, 1, items[0].(map[string]any)["quantity"])

	w = ts.do(t, http.MethodPost, "/api/cart/items", map[string]any{"title": "No route"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/cart/items?route=/lab-test/unknown", nil, "")
	assert.Equal(t, false, decode(t, w)["removed"])

	w = ts.do(t, http.MethodDelete, "/api/cart", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["items"])
}

func TestSlotEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/slots/dates", nil, "")
	dates := decode(t, w)["dates"].([]any)
	require.Len(t, dates, 7)
	assert.Equal(t, "2024-06-15", dates[0].(map[string]any)["value"])

	w = ts.do(t, http.MethodGet, "/api/slots/times?date=2024-06-16", nil, "")
	times := decode(t, w)["times"].([]any)
	assert.Equal(t, "13:00", times[len(times)-1].(map[string]any)["value"])

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/slots/times", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/slots/times?date=16-06-2024", nil, "").Code)
}

func TestDraftDefaultsAndValidation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/booking/draft", nil, "")
	draft := decode(t, w)
	assert.Equal(t, "home", draft["collectionMethod"])
	assert.Equal(t, "cash", draft["paymentMethod"])
	assert.Equal(t, "Mumbai", draft["city"])

	w = ts.do(t, http.MethodPost, "/api/booking/draft/validate", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fields := decode(t, w)["fields"].(map[string]any)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "address")

	// editing a field clears its error optimistically
	w = ts.do(t, http.MethodPatch, "/api/booking/draft", map[string]any{"name": "Asha Rao"}, "")
	errs, _ := decode(t, w)["errors"].(map[string]any)
	assert.NotContains(t, errs, "name")

	// selecting a time before a date is rejected
	w = ts.do(t, http.MethodPut, "/api/booking/draft/time", map[string]string{"time": "09:00"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClinicSelection(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/clinics", nil, "")
	assert.NotEmpty(t, decode(t, w)["clinics"])

	w = ts.do(t, http.MethodPut, "/api/booking/draft/clinic", map[string]string{"clinicId": "bandra"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	draft := decode(t, w)["draft"].(map[string]any)
	assert.Equal(t, "clinic", draft["collectionMethod"])
	assert.Equal(t, "bandra", draft["clinicId"])

	// address lookup does not apply to clinic visits
	w = ts.do(t, http.MethodPost, "/api/location/click", map[string]float64{"lat": 19.05, "lng": 72.83}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPut, "/api/booking/draft/clinic", map[string]string{"clinicId": "nowhere"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLocationEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/location/click", map[string]float64{"lat": 19.05, "lng": 72.83}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	draft := body["draft"].(map[string]any)
	assert.Equal(t, "12 Hill Road, Bandra West, Mumbai", draft["address"])
	assert.Equal(t, "400050", draft["pincode"])

	w = ts.do(t, http.MethodPost, "/api/location/current", map[string]string{"error": "denied"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w)["message"], "enter your address manually")

	w = ts.do(t, http.MethodPost, "/api/location/place", map[string]string{"query": " "}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/location/place", map[string]string{"query": "Hill Road"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearchAndContact(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/tests/search?q=li", nil, "")
	assert.Len(t, decode(t, w)["results"], 1)

	w = ts.do(t, http.MethodGet, "/api/tests/search?q=l", nil, "")
	assert.Empty(t, decode(t, w)["results"])

	w = ts.do(t, http.MethodPost, "/api/contact", map[string]string{"firstName": "Asha", "mobile": "12345"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = ts.do(t, http.MethodPost, "/api/contact", map[string]string{"firstName": "Asha", "mobile": "98765-43210"}, "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, ts.leads.leads, 1)
	assert.Equal(t, "9876543210", ts.leads.leads[0].Mobile)

	ts.leads.err = errors.New("redis down")
	w = ts.do(t, http.MethodPost, "/api/contact", map[string]string{"firstName": "Asha", "mobile": "9876543210"}, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAuthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/auth/otp", map[string]string{"phone": "9876543210"}, "").Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/api/auth/verify", map[string]string{"phone": "9876543210", "code": "000000"}, "").Code)

	w := ts.do(t, http.MethodPost, "/api/auth/verify", map[string]string{"phone": "9876543210", "code": "123456"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "good", body["token"])
	assert.Equal(t, handlers.ResumePath, body["resume"])

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodDelete, "/api/auth/session", nil, "").Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, "/api/auth/session", nil, "good").Code)
	assert.Equal(t, []string{"good"}, ts.auth.signedOut)
}

func TestCheckoutSuspendsForSignInThenResumes(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/cart/items", lipid, "").Code)
	ts.fillForm(t)

	w := ts.do(t, http.MethodPost, "/api/checkout", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
	assert.Equal(t, handlers.ResumePath, decode(t, w)["resume"])
	assert.Equal(t, 0, ts.provider.calls)

	// the resume endpoint itself requires a token
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/api/checkout/resume", nil, "").Code)

	w = ts.do(t, http.MethodPost, "/api/checkout/resume", nil, "good")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	outcome := decode(t, w)
	assert.Equal(t, models.OutcomeConfirmed, outcome["status"])
	assert.Equal(t, "A1", outcome["confirmation"].(map[string]any)["appointmentId"])
	assert.Equal(t, 1, ts.provider.calls)

	// cart and form are cleared after a successful booking
	w = ts.do(t, http.MethodGet, "/api/cart", nil, "")
	assert.Empty(t, decode(t, w)["items"])

	w = ts.do(t, http.MethodGet, "/api/bookings", nil, "good")
	bookings := decode(t, w)["bookings"].([]any)
	require.Len(t, bookings, 1)
	id := bookings[0].(map[string]any)["id"].(string)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/bookings/"+id, nil, "good").Code)

	// nothing is left to resume
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/api/checkout/resume", nil, "good").Code)
}

func TestCheckoutErrorsMapToStatus(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/checkout", nil, "good")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	ts.fillForm(t)
	w = ts.do(t, http.MethodPost, "/api/checkout", nil, "good")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, booking.ErrEmptyCart.Error(), decode(t, w)["message"])

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/cart/items", lipid, "").Code)
	ts.provider.err = &booking.ProviderError{Message: "Slot no longer available", Err: errors.New("status 409")}
	w = ts.do(t, http.MethodPost, "/api/checkout", map[string]string{"paymentMethod": "cash"}, "good")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Slot no longer available", decode(t, w)["message"])

	// the cart survives a failed submission
	w = ts.do(t, http.MethodGet, "/api/cart", nil, "")
	assert.Len(t, decode(t, w)["items"], 1)

	w = ts.do(t, http.MethodPost, "/api/checkout", map[string]string{"paymentMethod": "bitcoin"}, "good")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutInProgressConflict(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.redis.Set(context.Background(), "checkout:lock:"+ts.session, "other", time.Minute).Err())

	w := ts.do(t, http.MethodPost, "/api/checkout", nil, "good")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingOfAnotherCustomerIsHidden(t *testing.T) {
	ts := newTestServer(t)
	ts.ledger.records = append(ts.ledger.records, models.BookingRecord{ID: "bk-9", CustomerID: "someone-else"})

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/bookings/bk-9", nil, "good").Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/bookings", nil, "").Code)
}

func TestHealthReportsDegradedBeforeFirstCheck(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", decode(t, w)["status"])
}
