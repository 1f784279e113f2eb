package location

import (
	"context"
	"errors"
	"strings"

	"labbook/models"
	"labbook/utils"

	"go.uber.org/zap"
)

var ErrEmptyQuery = errors.New("search for a place first")

// GeolocationError is a failed device location attempt. It never blocks the
// rest of the form; the visitor is asked to type the address instead.
type GeolocationError struct {
	Reason string
}

func (e *GeolocationError) Error() string {
	switch e.Reason {
	case "denied":
		return "Location permission was denied. Please enter your address manually."
	case "unsupported":
		return "Your device does not support location access. Please enter your address manually."
	default:
		return "Unable to get your current location. Please enter your address manually."
	}
}

// DeviceReport is what the browser's geolocation call produced.
type DeviceReport struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Error string   `json:"error,omitempty"`
}

// ApplyFunc stores a resolved address. It only runs for the latest lookup of a key.
type ApplyFunc func(models.ResolvedAddress) error

// Resolver keeps the textual address in step with the chosen map location.
// Lookups are sequenced per key: a newer lookup cancels the older one and an
// overtaken result is reported as utils.ErrStale instead of being applied.
type Resolver struct {
	geocoder Geocoder
	tracker  *utils.LatestTracker
	logger   *zap.Logger
}

func NewResolver(geocoder Geocoder, tracker *utils.LatestTracker, logger *zap.Logger) *Resolver {
	if tracker == nil {
		tracker = utils.NewLatestTracker()
	}
	return &Resolver{geocoder: geocoder, tracker: tracker, logger: logger}
}

func lookupKey(key string) string { return "location:" + key }

// FromClick reverse geocodes a point picked on the map.
func (r *Resolver) FromClick(ctx context.Context, key string, at models.LatLng, apply ApplyFunc) (models.ResolvedAddress, error) {
	return r.resolve(ctx, key, apply, func(ctx context.Context) (models.ResolvedAddress, error) {
		return r.geocoder.Reverse(ctx, at)
	})
}

// FromDevice handles "use my current location".
func (r *Resolver) FromDevice(ctx context.Context, key string, report DeviceReport, apply ApplyFunc) (models.ResolvedAddress, error) {
	if report.Error != "" || report.Lat == nil || report.Lng == nil {
		reason := report.Error
		if reason == "" {
			reason = "unavailable"
		}
		r.logger.Info("Device geolocation failed", zap.String("session", key), zap.String("reason", reason))
		return models.ResolvedAddress{}, &GeolocationError{Reason: reason}
	}
	return r.FromClick(ctx, key, models.LatLng{Lat: *report.Lat, Lng: *report.Lng}, apply)
}

// FromPlace forward geocodes a place search and then resolves the chosen point.
func (r *Resolver) FromPlace(ctx context.Context, key, query string, apply ApplyFunc) (models.ResolvedAddress, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.ResolvedAddress{}, ErrEmptyQuery
	}
	return r.resolve(ctx, key, apply, func(ctx context.Context) (models.ResolvedAddress, error) {
		at, err := r.geocoder.Forward(ctx, query)
		if err != nil {
			return models.ResolvedAddress{}, err
		}
		return r.geocoder.Reverse(ctx, at)
	})
}

func (r *Resolver) resolve(ctx context.Context, key string, apply ApplyFunc, lookup func(context.Context) (models.ResolvedAddress, error)) (models.ResolvedAddress, error) {
	tk := lookupKey(key)
	lctx, seq, done := r.tracker.Begin(ctx, tk)
	defer done()

	addr, err := lookup(lctx)
	if err != nil {
		if !r.tracker.IsLatest(tk, seq) {
			return models.ResolvedAddress{}, utils.ErrStale
		}
		r.logger.Warn("Address lookup failed", zap.String("session", key), zap.Error(err))
		return models.ResolvedAddress{}, err
	}

	err = r.tracker.Apply(tk, seq, func() error {
		if apply == nil {
			return nil
		}
		return apply(addr)
	})
	if errors.Is(err, utils.ErrStale) {
		r.logger.Debug("Discarding stale address lookup", zap.String("session", key), zap.Uint64("seq", seq))
	}
	if err != nil {
		return models.ResolvedAddress{}, err
	}
	return addr, nil
}
