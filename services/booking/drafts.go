package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"labbook/models"
	"labbook/services/location"
	"labbook/services/slots"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DraftStore persists one BookingDraft per visitor session.
type DraftStore interface {
	Load(ctx context.Context, sessionID string) (*models.BookingDraft, error)
	Save(ctx context.Context, sessionID string, draft *models.BookingDraft) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisDrafts stores drafts as JSON under "draft:<session>".
type RedisDrafts struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDrafts(client *redis.Client, ttl time.Duration) *RedisDrafts {
	return &RedisDrafts{client: client, ttl: ttl}
}

func draftKey(sessionID string) string { return "draft:" + sessionID }

// Load returns nil, nil when the session has no draft yet.
func (r *RedisDrafts) Load(ctx context.Context, sessionID string) (*models.BookingDraft, error) {
	data, err := r.client.Get(ctx, draftKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var draft models.BookingDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("unmarshal draft failed: %w", err)
	}
	return &draft, nil
}

func (r *RedisDrafts) Save(ctx context.Context, sessionID string, draft *models.BookingDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft failed: %w", err)
	}
	if err := r.client.Set(ctx, draftKey(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisDrafts) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, draftKey(sessionID)).Err()
}

// Drafts applies storefront edits to the booking form of a session.
type Drafts struct {
	store     DraftStore
	validator *FormValidator
	logger    *zap.Logger
}

func NewDrafts(store DraftStore, validator *FormValidator, logger *zap.Logger) *Drafts {
	return &Drafts{store: store, validator: validator, logger: logger}
}

func newDraft() *models.BookingDraft {
	return &models.BookingDraft{
		CollectionMethod: models.CollectionHome,
		PaymentMethod:    models.PaymentCash,
		Errors:           map[string]string{},
	}
}

// Get returns the session's draft, or a fresh one. An unreadable draft is replaced.
func (d *Drafts) Get(ctx context.Context, sessionID string) (*models.BookingDraft, error) {
	draft, err := d.store.Load(ctx, sessionID)
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			d.logger.Warn("Discarding unreadable booking draft", zap.String("session", sessionID), zap.Error(err))
			return newDraft(), nil
		}
		return nil, err
	}
	if draft == nil {
		return newDraft(), nil
	}
	if draft.Errors == nil {
		draft.Errors = map[string]string{}
	}
	return draft, nil
}

func (d *Drafts) save(ctx context.Context, sessionID string, draft *models.BookingDraft) error {
	draft.UpdatedAt = d.validator.Now()
	if err := d.store.Save(ctx, sessionID, draft); err != nil {
		d.logger.Error("Failed to save booking draft", zap.String("session", sessionID), zap.Error(err))
		return err
	}
	return nil
}

func (d *Drafts) mutate(ctx context.Context, sessionID string, fn func(*models.BookingDraft) error) (*models.BookingDraft, error) {
	draft, err := d.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(draft); err != nil {
		return nil, err
	}
	if err := d.save(ctx, sessionID, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Update copies the touched fields and clears their stored errors. A new
// date of birth re-derives the age.
func (d *Drafts) Update(ctx context.Context, sessionID string, upd models.DraftUpdate) (*models.BookingDraft, error) {
	return d.mutate(ctx, sessionID, func(draft *models.BookingDraft) error {
		set := func(field string, dst *string, src *string) {
			if src == nil {
				return
			}
			*dst = *src
			delete(draft.Errors, field)
		}
		set("name", &draft.Name, upd.Name)
		set("email", &draft.Email, upd.Email)
		set("phone", &draft.Phone, upd.Phone)
		set("pincode", &draft.Pincode, upd.Pincode)
		set("area", &draft.Area, upd.Area)
		set("city", &draft.City, upd.City)
		if upd.Address != nil && *upd.Address != draft.Address {
			// a typed address no longer matches the picked coordinates
			draft.SelectedLocation = nil
		}
		set("address", &draft.Address, upd.Address)

		if upd.Gender != nil {
			draft.Gender = *upd.Gender
			delete(draft.Errors, "gender")
		}
		if upd.PaymentMethod != nil {
			draft.PaymentMethod = *upd.PaymentMethod
			delete(draft.Errors, "paymentMethod")
		}
		if upd.DOB != nil {
			draft.DOB = *upd.DOB
			delete(draft.Errors, "dob")
			delete(draft.Errors, "age")
			age, err := DeriveAge(draft.DOB, d.validator.Now())
			if err != nil {
				age = ""
			}
			draft.Age = age
		}
		return nil
	})
}

// Validate runs the full form check and stores the result on the draft.
func (d *Drafts) Validate(ctx context.Context, sessionID string) (*models.BookingDraft, FieldErrors, error) {
	var fieldErrs FieldErrors
	draft, err := d.mutate(ctx, sessionID, func(draft *models.BookingDraft) error {
		fieldErrs = d.validator.Validate(*draft)
		draft.Errors = map[string]string{}
		for k, v := range fieldErrs {
			draft.Errors[k] = v
		}
		return nil
	})
	return draft, fieldErrs, err
}

// SelectDate picks an appointment day and drops any chosen time.
func (d *Drafts) SelectDate(ctx context.Context, sessionID, date string) (*models.BookingDraft, error) {
	return d.mutate(ctx, sessionID, func(draft *models.BookingDraft) error {
		sel := slots.NewSelector(selection(draft), d.validator.Now)
		if err := sel.SelectDate(date); err != nil {
			return err
		}
		setSelection(draft, sel.Selection())
		return nil
	})
}

// SelectTime picks a slot on the already chosen day.
func (d *Drafts) SelectTime(ctx context.Context, sessionID, value string) (*models.BookingDraft, error) {
	return d.mutate(ctx, sessionID, func(draft *models.BookingDraft) error {
		sel := slots.NewSelector(selection(draft), d.validator.Now)
		if err := sel.SelectTime(value); err != nil {
			return err
		}
		setSelection(draft, sel.Selection())
		return nil
	})
}

func selection(draft *models.BookingDraft) models.SlotSelection {
	return models.SlotSelection{Date: draft.SelectedDate, Time: draft.SelectedTime}
}

func setSelection(draft *models.BookingDraft, sel models.SlotSelection) {
	draft.SelectedDate = sel.Date
	draft.SelectedTime = sel.Time
}

// SetCollection switches between home pickup and a clinic visit. Changing
// method drops the location state of the other one.
func (d *Drafts) SetCollection(ctx context.Context, sessionID string, method models.CollectionMethod) (*models.BookingDraft, error) {
	if method != models.CollectionHome && method != models.CollectionClinic {
		return nil, FieldErrors{"collectionMethod": message("collectionMethod", "oneof")}
	}
	return d.mutate(ctx, sessionID, func(draft *models.BookingDraft) error {
		if draft.CollectionMethod == method {
			return nil
		}
		draft.CollectionMethod = method
		draft.Address = ""
		draft.SelectedLocation = nil
		draft.ClinicID = ""
		delete(draft.Errors, "collectionMethod")
		delete(draft.Errors, "address")
		delete(draft.Errors, "selectedLocation")
		delete(draft.Errors, "clinicId")
		return nil
	})
}

// SelectClinic copies a centre's address into the draft and returns the
// centre so the caller can re-centre its map.
func (d *Drafts) SelectClinic(ctx context.Context, sessionID, clinicID string) (*models.BookingDraft, models.Clinic, error) {
	clinic, err := location.FindClinic(clinicID)
	if err != nil {
		return nil, models.Clinic{}, err
	}
	draft, err := d.mutate(ctx, sessionID, func(draft *models.BookingDraft) error {
		draft.CollectionMethod = models.CollectionClinic
		draft.ClinicID = clinic.ID
		draft.Address = clinic.Address
		draft.SelectedLocation = nil
		if draft.Pincode == "" {
			draft.Pincode = clinic.Pincode
			delete(draft.Errors, "pincode")
		}
		if draft.City == "" {
			draft.City = clinic.City
		}
		if draft.Area == "" {
			draft.Area = clinic.Area
		}
		delete(draft.Errors, "clinicId")
		delete(draft.Errors, "collectionMethod")
		delete(draft.Errors, "selectedLocation")
		return nil
	})
	if err != nil {
		return nil, models.Clinic{}, err
	}
	return draft, clinic, nil
}

// ApplyAddress stores a resolved pickup location for home collection.
func (d *Drafts) ApplyAddress(ctx context.Context, sessionID string, addr models.ResolvedAddress) (*models.BookingDraft, error) {
	return d.mutate(ctx, sessionID, func(draft *models.BookingDraft) error {
		if draft.CollectionMethod != models.CollectionHome {
			return ErrNotHomeCollection
		}
		loc := addr.Location
		draft.SelectedLocation = &loc
		draft.Address = addr.Address
		delete(draft.Errors, "address")
		delete(draft.Errors, "selectedLocation")
		if addr.Area != "" {
			draft.Area = addr.Area
		}
		if addr.Pincode != "" {
			draft.Pincode = addr.Pincode
			delete(draft.Errors, "pincode")
		}
		if addr.City != "" {
			draft.City = addr.City
		}
		return nil
	})
}

// SetDefaultCity fills the city if the visitor has not entered one.
func (d *Drafts) SetDefaultCity(ctx context.Context, sessionID, city string) error {
	if city == "" {
		return nil
	}
	_, err := d.mutate(ctx, sessionID, func(draft *models.BookingDraft) error {
		if draft.City == "" {
			draft.City = city
		}
		return nil
	})
	return err
}

// Clear removes the draft after a completed booking.
func (d *Drafts) Clear(ctx context.Context, sessionID string) error {
	return d.store.Delete(ctx, sessionID)
}
