package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"salonbook/models"
	"salonbook/services/booking"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

const (
	ProviderPassthrough = "passthrough"
	ProviderStripe      = "stripe"
)

// PassthroughCheckout hands the backend order to the widget unchanged.
// Used with order/signature based checkouts hosted by the backend's gateway.
type PassthroughCheckout struct {
	DefaultCurrency string
}

func (p PassthroughCheckout) Prepare(_ context.Context, intent models.PaymentIntent) (models.Checkout, error) {
	if intent.OrderID == "" {
		return models.Checkout{}, booking.NewServerError("payment order has no id", nil)
	}
	currency := intent.Currency
	if currency == "" {
		currency = p.DefaultCurrency
	}
	return models.Checkout{
		Provider: ProviderPassthrough,
		OrderID:  intent.OrderID,
		Amount:   intent.Amount,
		Currency: strings.ToUpper(currency),
	}, nil
}

// intentCreator matches paymentintent.New.
type intentCreator func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)

// StripeCheckout mirrors the backend order as a Stripe PaymentIntent and
// returns its client secret for Stripe Elements.
type StripeCheckout struct {
	logger          *zap.Logger
	defaultCurrency string
	create          intentCreator
}

// NewStripeCheckout sets the global Stripe key and returns a provider.
func NewStripeCheckout(key, defaultCurrency string, logger *zap.Logger) *StripeCheckout {
	stripe.Key = key
	return newStripeCheckout(paymentintent.New, defaultCurrency, logger)
}

func newStripeCheckout(create intentCreator, defaultCurrency string, logger *zap.Logger) *StripeCheckout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeCheckout{logger: logger, defaultCurrency: defaultCurrency, create: create}
}

func (s *StripeCheckout) Prepare(ctx context.Context, intent models.PaymentIntent) (models.Checkout, error) {
	if intent.OrderID == "" {
		return models.Checkout{}, booking.NewServerError("payment order has no id", nil)
	}
	if intent.Amount <= 0 {
		return models.Checkout{}, booking.NewValidationError(fmt.Errorf("invalid payment amount %.2f", intent.Amount))
	}
	currency := strings.ToLower(intent.Currency)
	if currency == "" {
		currency = strings.ToLower(s.defaultCurrency)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(booking.MinorUnits(intent.Amount)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", intent.OrderID)
	params.AddMetadata("appointment_id", intent.AppointmentID)
	params.SetIdempotencyKey("order-" + intent.OrderID)

	pi, err := s.create(params)
	if err != nil {
		s.logger.Warn("stripe payment intent creation failed", zap.String("orderId", intent.OrderID), zap.Error(err))
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.Type == stripe.ErrorTypeCard {
			return models.Checkout{}, &booking.FlowError{Kind: booking.KindPaymentDeclined, Message: serr.Msg, Err: err}
		}
		return models.Checkout{}, booking.NewServerError("payment provider unavailable, please try again", err)
	}

	s.logger.Info("stripe payment intent created", zap.String("orderId", intent.OrderID), zap.String("paymentIntent", pi.ID))
	return models.Checkout{
		Provider:     ProviderStripe,
		OrderID:      intent.OrderID,
		Amount:       intent.Amount,
		Currency:     strings.ToUpper(currency),
		ClientSecret: pi.ClientSecret,
		ExternalID:   pi.ID,
	}, nil
}

// NewCheckoutProvider picks the provider named in configuration.
func NewCheckoutProvider(name, stripeKey, currency string, logger *zap.Logger) (booking.CheckoutProvider, error) {
	switch strings.ToLower(name) {
	case "", ProviderPassthrough:
		return PassthroughCheckout{DefaultCurrency: currency}, nil
	case ProviderStripe:
		if stripeKey == "" {
			return nil, errors.New("PAYMENT_PROVIDER=stripe requires STRIPE_KEY")
		}
		return NewStripeCheckout(stripeKey, currency, logger), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", name)
	}
}
