package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"labbook/models"
	"labbook/utils"

	"go.uber.org/zap"
)

const DefaultGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

var (
	ErrNoResults     = errors.New("no address found for this location")
	ErrGeocodeFailed = errors.New("geocoding request failed")
	ErrMissingAPIKey = errors.New("geocoding API key not configured")
)

// Geocoder converts between coordinates and postal addresses.
type Geocoder interface {
	Reverse(ctx context.Context, at models.LatLng) (models.ResolvedAddress, error)
	Forward(ctx context.Context, query string) (models.LatLng, error)
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress  string `json:"formatted_address"`
	AddressComponents []struct {
		LongName  string   `json:"long_name"`
		ShortName string   `json:"short_name"`
		Types     []string `json:"types"`
	} `json:"address_components"`
	Geometry struct {
		Location models.LatLng `json:"location"`
	} `json:"geometry"`
}

func (r geocodeResult) component(kind string) string {
	for _, c := range r.AddressComponents {
		for _, t := range c.Types {
			if t == kind {
				return c.LongName
			}
		}
	}
	return ""
}

// GoogleGeocoder talks to the Google Geocoding REST API.
type GoogleGeocoder struct {
	endpoint string
	apiKey   string
	client   utils.HTTPDoer
	logger   *zap.Logger
}

func NewGoogleGeocoder(endpoint, apiKey string, client utils.HTTPDoer, logger *zap.Logger) *GoogleGeocoder {
	if endpoint == "" {
		endpoint = DefaultGeocodeURL
	}
	return &GoogleGeocoder{endpoint: endpoint, apiKey: apiKey, client: client, logger: logger}
}

func (g *GoogleGeocoder) lookup(ctx context.Context, params url.Values) ([]geocodeResult, error) {
	if g.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	resp, err := g.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeocodeFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrGeocodeFailed, resp.StatusCode)
	}

	var data geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrGeocodeFailed, err)
	}
	switch data.Status {
	case "OK":
		if len(data.Results) == 0 {
			return nil, ErrNoResults
		}
		return data.Results, nil
	case "ZERO_RESULTS":
		return nil, ErrNoResults
	default:
		g.logger.Error("Geocoder returned an error status",
			zap.String("status", data.Status), zap.String("message", data.ErrorMessage))
		return nil, fmt.Errorf("%w: %s", ErrGeocodeFailed, data.Status)
	}
}

// Reverse resolves coordinates to a formatted address, sublocality and postal code.
func (g *GoogleGeocoder) Reverse(ctx context.Context, at models.LatLng) (models.ResolvedAddress, error) {
	params := url.Values{}
	params.Set("latlng", strconv.FormatFloat(at.Lat, 'f', -1, 64)+","+strconv.FormatFloat(at.Lng, 'f', -1, 64))

	results, err := g.lookup(ctx, params)
	if err != nil {
		return models.ResolvedAddress{}, err
	}

	out := models.ResolvedAddress{Location: at, Address: results[0].FormattedAddress}
	// The first result carries the formatted address; components may be spread over later ones.
	for _, r := range results {
		if out.Area == "" {
			out.Area = r.component("sublocality")
		}
		if out.Pincode == "" {
			out.Pincode = r.component("postal_code")
		}
		if out.City == "" {
			out.City = r.component("locality")
		}
	}
	return out, nil
}

// Forward resolves a place query to the coordinates of its best match.
func (g *GoogleGeocoder) Forward(ctx context.Context, query string) (models.LatLng, error) {
	params := url.Values{}
	params.Set("address", query)

	results, err := g.lookup(ctx, params)
	if err != nil {
		return models.LatLng{}, err
	}
	return results[0].Geometry.Location, nil
}
