package crm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"labbook/models"
	"labbook/utils"

	"go.uber.org/zap"
)

var ErrSubmitFailed = errors.New("crm form submission failed")

// Client submits contacts to the CRM smart form.
type Client struct {
	formURL    string
	assetKey   string
	entityType string
	client     utils.HTTPDoer
	logger     *zap.Logger
}

func NewClient(formURL, assetKey, entityType string, client utils.HTTPDoer, logger *zap.Logger) *Client {
	return &Client{
		formURL:    formURL,
		assetKey:   assetKey,
		entityType: entityType,
		client:     client,
		logger:     logger,
	}
}

// Submit posts the lead as multipart form data. Only success or failure is read back.
func (c *Client) Submit(ctx context.Context, lead models.Lead) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"contact[first_name]", lead.FirstName},
		{"contact[last_name]", lead.LastName},
		{"contact[mobile_number]", lead.Mobile},
		{"contact[email]", lead.Email},
		{"contact[address]", lead.Address},
		{"entity_type", c.entityType},
		{"asset_key", c.assetKey},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("write form field %s: %w", f[0], err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.formURL, &buf)
	if err != nil {
		return fmt.Errorf("build crm request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrSubmitFailed, resp.StatusCode)
	}
	c.logger.Info("CRM lead submitted", zap.String("mobile", lead.Mobile))
	return nil
}
