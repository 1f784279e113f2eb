package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"labbook/models"
	"labbook/services/cart"
	"labbook/services/location"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultLockTTL    = 2 * time.Minute
	defaultPendingTTL = 24 * time.Hour
)

var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func lockKey(sessionID string) string    { return "checkout:lock:" + sessionID }
func pendingKey(sessionID string) string { return "checkout:pending:" + sessionID }

// CheckoutRequest is one press of the "book now" button.
type CheckoutRequest struct {
	SessionID     string
	CustomerID    string
	PaymentMethod models.PaymentMethod
}

type pendingCheckout struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	ParkedAt      time.Time            `json:"parkedAt"`
}

// Deps wires the orchestrator.
type Deps struct {
	Carts      CartOpener
	Drafts     *Drafts
	Provider   AppointmentProvider
	Gateway    PaymentGateway
	Records    BookingRecorder
	Leads      LeadEnqueuer
	Redis      *redis.Client
	Logger     *zap.Logger
	LockTTL    time.Duration
	PendingTTL time.Duration
}

// Orchestrator turns a validated draft and the cart into a provider booking.
// Either the whole submission succeeds or nothing the visitor entered changes.
type Orchestrator struct {
	carts      CartOpener
	drafts     *Drafts
	validator  *FormValidator
	provider   AppointmentProvider
	gateway    PaymentGateway
	records    BookingRecorder
	leads      LeadEnqueuer
	redis      *redis.Client
	logger     *zap.Logger
	lockTTL    time.Duration
	pendingTTL time.Duration
	newID      func() string
}

func NewOrchestrator(d Deps) *Orchestrator {
	o := &Orchestrator{
		carts:      d.Carts,
		drafts:     d.Drafts,
		validator:  d.Drafts.validator,
		provider:   d.Provider,
		gateway:    d.Gateway,
		records:    d.Records,
		leads:      d.Leads,
		redis:      d.Redis,
		logger:     d.Logger,
		lockTTL:    d.LockTTL,
		pendingTTL: d.PendingTTL,
		newID:      uuid.NewString,
	}
	if o.lockTTL <= 0 {
		o.lockTTL = defaultLockTTL
	}
	if o.pendingTTL <= 0 {
		o.pendingTTL = defaultPendingTTL
	}
	return o
}

func (o *Orchestrator) lock(ctx context.Context, sessionID string) (func(), error) {
	token := uuid.NewString()
	ok, err := o.redis.SetNX(ctx, lockKey(sessionID), token, o.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire checkout lock: %w", err)
	}
	if !ok {
		return nil, ErrSubmissionInProgress
	}
	return func() {
		if err := releaseLock.Run(context.Background(), o.redis, []string{lockKey(sessionID)}, token).Err(); err != nil {
			o.logger.Error("Failed to release checkout lock", zap.String("session", sessionID), zap.Error(err))
		}
	}, nil
}

// Submit runs one booking attempt. It never retries.
func (o *Orchestrator) Submit(ctx context.Context, req CheckoutRequest) (*models.CheckoutOutcome, error) {
	unlock, err := o.lock(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	draft, err := o.drafts.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if req.PaymentMethod != "" {
		draft.PaymentMethod = req.PaymentMethod
	}

	// 1. full form validation
	if fieldErrs := o.validator.Validate(*draft); len(fieldErrs) > 0 {
		draft.Errors = map[string]string{}
		for k, v := range fieldErrs {
			draft.Errors[k] = v
		}
		if err := o.drafts.save(ctx, req.SessionID, draft); err != nil {
			o.logger.Warn("Could not store validation errors", zap.String("session", req.SessionID), zap.Error(err))
		}
		return nil, fieldErrs
	}

	// 2. date and time
	start, end, err := AppointmentWindow(draft.SelectedDate, draft.SelectedTime)
	if err != nil {
		return nil, ErrSlotRequired
	}

	store := o.carts.Open(ctx, req.SessionID)
	items := store.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	// 3. sign-in suspends the flow; nothing is sent to the provider
	if req.CustomerID == "" {
		if err := o.park(ctx, req.SessionID, draft.PaymentMethod); err != nil {
			return nil, err
		}
		return nil, ErrAuthRequired
	}

	var clinic *models.Clinic
	if draft.CollectionMethod == models.CollectionClinic {
		c, err := location.FindClinic(draft.ClinicID)
		if err != nil {
			return nil, FieldErrors{"clinicId": message("clinicId", "required_if")}
		}
		clinic = &c
	}

	// 4-5. payload
	bookingID := o.newID()
	totals := cart.ComputeTotals(items)
	payload := BuildPayload(PayloadInput{
		Draft:       *draft,
		Items:       items,
		Totals:      totals,
		Start:       start,
		End:         end,
		OrderNumber: bookingID,
		BilledAt:    o.validator.Now(),
		Clinic:      clinic,
	})

	// 6. payment branch
	var outcome *models.CheckoutOutcome
	switch draft.PaymentMethod {
	case models.PaymentOnline:
		resp, err := o.gateway.Initialize(ctx, models.PaymentEnvelope{
			AppointmentData: payload,
			AppointmentType: string(draft.CollectionMethod),
		})
		if err != nil {
			return nil, o.providerFailure(req.SessionID, err)
		}
		if resp.Data.PaymentURL != "" {
			outcome = &models.CheckoutOutcome{
				Status:     models.OutcomeRedirect,
				BookingID:  bookingID,
				PaymentURL: resp.Data.PaymentURL,
			}
			break
		}
		if outcome, err = confirmationOutcome(bookingID, resp); err != nil {
			return nil, o.providerFailure(req.SessionID, err)
		}
	default:
		resp, err := o.provider.CreateAppointment(ctx, payload)
		if err != nil {
			return nil, o.providerFailure(req.SessionID, err)
		}
		if outcome, err = confirmationOutcome(bookingID, resp); err != nil {
			return nil, o.providerFailure(req.SessionID, err)
		}
	}

	// The provider has accepted the booking; finish even if the caller went away.
	o.complete(context.WithoutCancel(ctx), req, draft, store, items, totals, start, outcome)
	return outcome, nil
}

// Resume continues a submission parked while the visitor signed in.
func (o *Orchestrator) Resume(ctx context.Context, sessionID, customerID string) (*models.CheckoutOutcome, error) {
	data, err := o.redis.Get(ctx, pendingKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNothingPending
	}
	if err != nil {
		return nil, fmt.Errorf("load pending checkout: %w", err)
	}

	var pending pendingCheckout
	if err := json.Unmarshal(data, &pending); err != nil {
		o.redis.Del(ctx, pendingKey(sessionID))
		return nil, ErrNothingPending
	}
	if customerID == "" {
		return nil, ErrAuthRequired
	}
	return o.Submit(ctx, CheckoutRequest{
		SessionID:     sessionID,
		CustomerID:    customerID,
		PaymentMethod: pending.PaymentMethod,
	})
}

func (o *Orchestrator) park(ctx context.Context, sessionID string, method models.PaymentMethod) error {
	data, err := json.Marshal(pendingCheckout{PaymentMethod: method, ParkedAt: o.validator.Now()})
	if err != nil {
		return fmt.Errorf("marshal pending checkout: %w", err)
	}
	if err := o.redis.Set(ctx, pendingKey(sessionID), data, o.pendingTTL).Err(); err != nil {
		return fmt.Errorf("park checkout: %w", err)
	}
	o.logger.Info("Checkout waiting for sign-in", zap.String("session", sessionID))
	return nil
}

func (o *Orchestrator) providerFailure(sessionID string, err error) error {
	var perr *ProviderError
	if !errors.As(err, &perr) {
		perr = newProviderError("", err)
	}
	o.logger.Error("Booking submission failed", zap.String("session", sessionID), zap.Error(perr.Err))
	return perr
}

func confirmationOutcome(bookingID string, resp *models.ProviderResponse) (*models.CheckoutOutcome, error) {
	if resp == nil {
		return nil, newProviderError("", errors.New("empty provider response"))
	}
	if resp.Error != "" {
		return nil, newProviderError(resp.Error, errors.New("provider reported an error"))
	}
	conf := models.Confirmation{
		PatientID:     string(resp.Data.PatientID),
		BillID:        string(resp.Data.BillID),
		AppointmentID: string(resp.Data.AppointmentID),
	}
	if conf.PatientID == "" && conf.BillID == "" && conf.AppointmentID == "" {
		return nil, newProviderError(resp.Message, errors.New("provider returned no booking identifiers"))
	}
	return &models.CheckoutOutcome{
		Status:       models.OutcomeConfirmed,
		BookingID:    bookingID,
		Confirmation: &conf,
	}, nil
}

func (o *Orchestrator) complete(ctx context.Context, req CheckoutRequest, draft *models.BookingDraft, store *cart.Store,
	items []models.CartLineItem, totals models.CartTotals, start time.Time, outcome *models.CheckoutOutcome) {
	logger := o.logger.With(zap.String("session", req.SessionID), zap.String("booking", outcome.BookingID))

	if err := store.Clear(ctx); err != nil {
		logger.Error("Failed to clear cart after booking", zap.Error(err))
	}
	if err := o.drafts.Clear(ctx, req.SessionID); err != nil {
		logger.Error("Failed to clear draft after booking", zap.Error(err))
	}
	o.redis.Del(ctx, pendingKey(req.SessionID))

	record := &models.BookingRecord{
		ID:               outcome.BookingID,
		CustomerID:       req.CustomerID,
		SessionID:        req.SessionID,
		Status:           models.BookingStatusConfirmed,
		CollectionMethod: draft.CollectionMethod,
		PaymentMethod:    draft.PaymentMethod,
		ClinicID:         draft.ClinicID,
		AppointmentStart: start,
		PaymentURL:       outcome.PaymentURL,
		Total:            totals.Total.InexactFloat64(),
		CreatedAt:        o.validator.Now(),
	}
	if outcome.Status == models.OutcomeRedirect {
		record.Status = models.BookingStatusPaymentPending
	}
	if c := outcome.Confirmation; c != nil {
		record.PatientID = c.PatientID
		record.BillID = c.BillID
		record.AppointmentID = c.AppointmentID
	}
	for _, item := range items {
		record.Routes = append(record.Routes, item.Route.String())
	}
	if o.records != nil {
		if err := o.records.Create(ctx, record); err != nil {
			logger.Error("Failed to record booking", zap.Error(err))
		}
	}

	if o.leads != nil {
		first, last := splitName(draft.Name)
		lead := models.Lead{
			FirstName: first,
			LastName:  last,
			Mobile:    NormalizePhone(draft.Phone),
			Email:     draft.Email,
			Address:   draft.Address,
		}
		if err := o.leads.EnqueueLead(ctx, lead); err != nil {
			logger.Warn("Failed to enqueue CRM lead", zap.Error(err))
		}
	}

	logger.Info("Booking submitted", zap.String("status", outcome.Status))
}
