package stripepay

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
	"go.uber.org/fx"

	cfgpkg "github.com/faceflowai/ledger/pkg/config"
	"github.com/faceflowai/ledger/pkg/types"
)

// ErrInvalidSignature marks webhook payloads that fail signature
// verification. They are rejected before any state is touched.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Client wraps the Stripe SDK for the operations this service needs:
// webhook verification, customer creation, checkout and portal sessions.
type Client struct {
	sc            *stripe.Client
	webhookSecret string
	successURL    string
	cancelURL     string
	portalURL     string
}

func New(cfg *cfgpkg.Config) *Client {
	return &Client{
		sc:            stripe.NewClient(cfg.Stripe.SecretKey),
		webhookSecret: cfg.Stripe.WebhookSecret,
		successURL:    cfg.Stripe.SuccessURL,
		cancelURL:     cfg.Stripe.CancelURL,
		portalURL:     cfg.Stripe.PortalURL,
	}
}

// VerifyWebhook checks the Stripe-Signature header against the shared secret
// and returns the parsed event. Callers must not process unverified payloads.
func (c *Client) VerifyWebhook(payload []byte, sigHeader string) (*stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return &event, nil
}

func (c *Client) CreateCustomer(ctx context.Context, userID, email string) (*stripe.Customer, error) {
	params := &stripe.CustomerCreateParams{
		Email:    stripe.String(email),
		Metadata: map[string]string{"user_id": userID},
	}
	return c.sc.V1Customers.Create(ctx, params)
}

// CreateCreditCheckout opens a one-time payment session for a credit
// package. The metadata carries everything the webhook needs to grant the
// credits without a catalog lookup.
func (c *Client) CreateCreditCheckout(ctx context.Context, customerID, userID string, pkg *types.CreditPackage) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionCreateParams{
		Customer:   stripe.String(customerID),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(c.successURL),
		CancelURL:  stripe.String(c.cancelURL),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("%s - %d Credits", pkg.Name, pkg.Credits)),
						Description: stripe.String(pkg.Description),
					},
					UnitAmount: stripe.Int64(pkg.PriceCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"type":       string(types.CheckoutModeCredits),
			"package_id": pkg.ID,
			"credits":    fmt.Sprintf("%d", pkg.Credits),
			"user_id":    userID,
		},
	}
	return c.sc.V1CheckoutSessions.Create(ctx, params)
}

// CreateSubscriptionCheckout opens a recurring-payment session for a plan
// price. The plan's tier rides along in the subscription metadata so invoice
// events can resolve it later.
func (c *Client) CreateSubscriptionCheckout(ctx context.Context, customerID, userID string, plan *types.SubscriptionPlan, priceID string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionCreateParams{
		Customer:   stripe.String(customerID),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(c.successURL),
		CancelURL:  stripe.String(c.cancelURL),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SubscriptionData: &stripe.CheckoutSessionCreateSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id": userID,
				"plan_id": plan.ID,
				"tier":    string(plan.Tier),
			},
		},
	}
	return c.sc.V1CheckoutSessions.Create(ctx, params)
}

func (c *Client) CreatePortalSession(ctx context.Context, customerID string) (*stripe.BillingPortalSession, error) {
	params := &stripe.BillingPortalSessionCreateParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(c.portalURL),
	}
	return c.sc.V1BillingPortalSessions.Create(ctx, params)
}

var Module = fx.Options(
	fx.Provide(New),
)
