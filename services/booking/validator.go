package booking

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"labbook/models"
	"labbook/services/slots"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	nonDigits   = regexp.MustCompile(`\D`)
	indianPhone = regexp.MustCompile(`^[6-9]\d{9}$`)
	basicEmail  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	ageYears    = regexp.MustCompile(`^(\d+) Years$`)
)

var errInvalidDOB = errors.New("invalid date of birth")

var fieldMessages = map[string]map[string]string{
	"name":             {"required": "Name is required", "notblank": "Name is required"},
	"email":            {"required": "Email is required", "basic_email": "Please enter a valid email address"},
	"phone":            {"required": "Mobile number is required", "in_mobile": "Please enter a valid 10-digit mobile number"},
	"dob":              {"required": "Date of birth is required", "not_future": "Date of birth cannot be in the future"},
	"age":              {"required": "Age is required", "age_years": "Age must look like \"25 Years\""},
	"pincode":          {"required": "Pincode is required", "notblank": "Pincode is required"},
	"collectionMethod": {"required": "Choose home collection or a clinic visit", "oneof": "Choose home collection or a clinic visit"},
	"clinicId":         {"required_if": "Please select a clinic"},
	"address":          {"required_if": "Address is required for home collection", "notblank": "Address is required for home collection"},
	"selectedLocation": {"required_if": "Please pick your location on the map"},
	"paymentMethod":    {"required": "Choose a payment method", "oneof": "Choose cash or online payment"},
}

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}

// IsIndianMobile reports whether phone has exactly ten digits starting with 6-9.
func IsIndianMobile(phone string) bool {
	return indianPhone.MatchString(NormalizePhone(phone))
}

// DeriveAge returns "<N> Years" for a YYYY-MM-DD birth date as of today.
func DeriveAge(dob string, today time.Time) (string, error) {
	born, err := slots.ParseDate(dob)
	if err != nil {
		return "", errInvalidDOB
	}
	today = today.In(slots.ServiceZone)

	years := today.Year() - born.Year()
	if today.Month() < born.Month() || (today.Month() == born.Month() && today.Day() < born.Day()) {
		years--
	}
	if years < 0 {
		years = 0
	}
	return strconv.Itoa(years) + " Years", nil
}

// AgeNumber extracts N from "<N> Years".
func AgeNumber(age string) int {
	m := ageYears.FindStringSubmatch(age)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// FormValidator checks a BookingDraft with go-playground/validator rules.
type FormValidator struct {
	validate *validator.Validate
	now      func() time.Time
}

func NewFormValidator(now func() time.Time) *FormValidator {
	if now == nil {
		now = time.Now
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	fv := &FormValidator{validate: v, now: now}
	_ = v.RegisterValidation("in_mobile", func(fl validator.FieldLevel) bool {
		return IsIndianMobile(fl.Field().String())
	})
	_ = v.RegisterValidation("basic_email", func(fl validator.FieldLevel) bool {
		return basicEmail.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("age_years", func(fl validator.FieldLevel) bool {
		return ageYears.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("not_future", fv.notFuture)
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return fv
}

func (fv *FormValidator) notFuture(fl validator.FieldLevel) bool {
	born, err := slots.ParseDate(fl.Field().String())
	if err != nil {
		return false
	}
	now := fv.now().In(slots.ServiceZone)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, slots.ServiceZone)
	return !born.After(today)
}

// Now is the validator's clock.
func (fv *FormValidator) Now() time.Time { return fv.now() }

// Validate returns nil when every field passes.
func (fv *FormValidator) Validate(draft models.BookingDraft) FieldErrors {
	err := fv.validate.Struct(draft)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"form": err.Error()}
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(field, fe.Tag())
	}
	return out
}

// ValidateField returns the message for a single field, or "" when it passes.
func (fv *FormValidator) ValidateField(draft models.BookingDraft, field string) string {
	return fv.Validate(draft)[field]
}

func message(field, tag string) string {
	if msgs, ok := fieldMessages[field]; ok {
		if m, ok := msgs[tag]; ok {
			return m
		}
	}
	return field + " is invalid"
}
