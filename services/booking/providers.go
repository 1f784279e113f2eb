package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"labbook/models"
	"labbook/utils"

	"go.uber.org/zap"
)

// ProviderClient calls the external appointment/payment backend.
type ProviderClient struct {
	baseURL string
	apiKey  string
	client  utils.HTTPDoer
	logger  *zap.Logger
}

func NewProviderClient(baseURL, apiKey string, client utils.HTTPDoer, logger *zap.Logger) *ProviderClient {
	return &ProviderClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		logger:  logger,
	}
}

// CreateAppointment posts the payload for a cash booking.
func (p *ProviderClient) CreateAppointment(ctx context.Context, payload models.AppointmentPayload) (*models.ProviderResponse, error) {
	return p.post(ctx, "/appointments", payload)
}

// InitializePayment posts the online-payment envelope.
func (p *ProviderClient) InitializePayment(ctx context.Context, envelope models.PaymentEnvelope) (*models.ProviderResponse, error) {
	return p.post(ctx, "/payments/initialize", envelope)
}

func (p *ProviderClient) post(ctx context.Context, path string, body any) (*models.ProviderResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal provider request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil && resp == nil {
		p.logger.Error("Provider request failed", zap.String("path", path), zap.Error(err))
		return nil, newProviderError("", err)
	}

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if readErr != nil {
		return nil, newProviderError("", readErr)
	}

	var out models.ProviderResponse
	decodeErr := json.Unmarshal(raw, &out)

	if err != nil || resp.StatusCode >= http.StatusBadRequest {
		msg := out.Message
		if out.Error != "" {
			msg = out.Error
		}
		p.logger.Error("Provider rejected request",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg))
		if err == nil {
			err = fmt.Errorf("provider status %d", resp.StatusCode)
		}
		return nil, newProviderError(msg, err)
	}
	if decodeErr != nil {
		return nil, newProviderError("", fmt.Errorf("decode provider response: %w", decodeErr))
	}
	return &out, nil
}
