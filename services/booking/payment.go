package booking

import (
	"context"
	"fmt"

	"labbook/models"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"go.uber.org/zap"
)

// PaymentGateway starts an online payment and returns where to send the visitor.
type PaymentGateway interface {
	Initialize(ctx context.Context, envelope models.PaymentEnvelope) (*models.ProviderResponse, error)
}

// ProviderGateway initializes payment at the appointment provider itself.
type ProviderGateway struct {
	client *ProviderClient
}

func NewProviderGateway(client *ProviderClient) *ProviderGateway {
	return &ProviderGateway{client: client}
}

func (g *ProviderGateway) Initialize(ctx context.Context, envelope models.PaymentEnvelope) (*models.ProviderResponse, error) {
	return g.client.InitializePayment(ctx, envelope)
}

// StripeGateway opens a Stripe Checkout Session for the bill.
type StripeGateway struct {
	successURL string
	cancelURL  string
	currency   string
	newSession func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	logger     *zap.Logger
}

func NewStripeGateway(successURL, cancelURL string, logger *zap.Logger) *StripeGateway {
	return &StripeGateway{
		successURL: successURL,
		cancelURL:  cancelURL,
		currency:   string(stripe.CurrencyINR),
		newSession: session.New,
		logger:     logger,
	}
}

func (g *StripeGateway) Initialize(ctx context.Context, envelope models.PaymentEnvelope) (*models.ProviderResponse, error) {
	bill := envelope.AppointmentData.BillDetails

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		ClientReferenceID: stripe.String(bill.OrderNumber),
	}
	params.Context = ctx
	if envelope.AppointmentData.Email != "" {
		params.CustomerEmail = stripe.String(envelope.AppointmentData.Email)
	}
	for _, t := range bill.TestList {
		if t.Quantity < 1 {
			continue
		}
		unit := t.Amount.Div(decimal.NewFromInt(int64(t.Quantity)))
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(t.TestName),
				},
				// Stripe takes the smallest currency unit.
				UnitAmount: stripe.Int64(unit.Shift(2).Round(0).IntPart()),
			},
			Quantity: stripe.Int64(int64(t.Quantity)),
		})
	}
	params.AddMetadata("orderNumber", bill.OrderNumber)
	params.AddMetadata("appointmentType", envelope.AppointmentType)
	params.AddMetadata("startDate", envelope.AppointmentData.StartDate)

	s, err := g.newSession(params)
	if err != nil {
		g.logger.Error("Stripe checkout session failed", zap.String("order", bill.OrderNumber), zap.Error(err))
		msg := ""
		if serr, ok := err.(*stripe.Error); ok {
			msg = serr.Msg
		}
		return nil, newProviderError(msg, fmt.Errorf("stripe checkout session: %w", err))
	}
	return &models.ProviderResponse{Data: models.ProviderData{PaymentURL: s.URL}}, nil
}
