package paymentevent

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v84"
)

// Kind enumerates the payment-provider event kinds this service reacts to.
// Anything else parses to KindUnknown and is acknowledged without effect,
// keeping the processor forward compatible with provider schema changes.
type Kind string

const (
	KindCheckoutCompleted       Kind = "checkout_completed"
	KindInvoicePaymentSucceeded Kind = "invoice_payment_succeeded"
	KindInvoicePaymentFailed    Kind = "invoice_payment_failed"
	KindSubscriptionDeleted     Kind = "subscription_deleted"
	KindSubscriptionUpdated     Kind = "subscription_updated"
	KindUnknown                 Kind = "unknown"
)

// Event is the typed form of a verified provider notification: a tagged
// variant over the recognized kinds. Exactly one payload field matching Kind
// is non-nil; KindUnknown carries none.
type Event struct {
	// ID is the provider-assigned unique event ID, used for idempotency.
	ID string
	// OccurredAt is the provider's timestamp; it drives the
	// last-writer-by-event-time-wins rule for subscription fields.
	OccurredAt time.Time
	Kind       Kind

	CheckoutCompleted  *CheckoutCompletedData
	InvoicePayment     *InvoicePaymentData
	SubscriptionChange *SubscriptionChangeData
}

// CheckoutCompletedData describes a finished checkout session. Only credit
// purchases carry a grant; subscription checkouts are activated later by the
// invoice_payment_succeeded event.
type CheckoutCompletedData struct {
	UserID    string
	PackageID string
	Credits   int64
	// PaymentRef is the provider payment reference recorded on the
	// purchase ledger row; it doubles as the dedup key for the grant.
	PaymentRef       string
	IsCreditPurchase bool
}

type InvoicePaymentData struct {
	CustomerRef     string
	SubscriptionRef string
	// TierMeta and PlanID come from the subscription metadata; the
	// processor resolves them against the catalog.
	TierMeta  string
	PlanID    string
	PeriodEnd *time.Time
}

type SubscriptionChangeData struct {
	CustomerRef     string
	SubscriptionRef string
	PeriodEnd       *time.Time
}

// Provider payload fragments. Webhook JSON carries related objects as string
// IDs, so these decode only what the state machine needs.
type checkoutSessionPayload struct {
	ID            string            `json:"id"`
	Customer      string            `json:"customer"`
	PaymentIntent string            `json:"payment_intent"`
	Metadata      map[string]string `json:"metadata"`
}

type invoicePayload struct {
	ID                  string `json:"id"`
	Customer            string `json:"customer"`
	Subscription        string `json:"subscription"`
	PeriodEnd           int64  `json:"period_end"`
	SubscriptionDetails struct {
		Metadata map[string]string `json:"metadata"`
	} `json:"subscription_details"`
}

type subscriptionPayload struct {
	ID               string            `json:"id"`
	Customer         string            `json:"customer"`
	CurrentPeriodEnd int64             `json:"current_period_end"`
	Metadata         map[string]string `json:"metadata"`
}

func unixPtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0)
	return &t
}

// FromStripeEvent maps a signature-verified Stripe event onto the tagged
// Event variant. Unrecognized event types yield KindUnknown, never an error;
// an error means a recognized type carried an undecodable payload.
func FromStripeEvent(ev *stripe.Event) (*Event, error) {
	out := &Event{
		ID:         ev.ID,
		OccurredAt: time.Unix(ev.Created, 0),
	}

	switch ev.Type {
	case "checkout.session.completed":
		var session checkoutSessionPayload
		if err := json.Unmarshal(ev.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		data := &CheckoutCompletedData{
			UserID:     session.Metadata["user_id"],
			PackageID:  session.Metadata["package_id"],
			PaymentRef: session.PaymentIntent,
		}
		if data.PaymentRef == "" {
			data.PaymentRef = session.ID
		}
		if session.Metadata["type"] == "credits" {
			credits, err := strconv.ParseInt(session.Metadata["credits"], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid credits metadata %q: %w", session.Metadata["credits"], err)
			}
			data.Credits = credits
			data.IsCreditPurchase = true
		}
		out.Kind = KindCheckoutCompleted
		out.CheckoutCompleted = data

	case "invoice.payment_succeeded", "invoice.payment_failed":
		var inv invoicePayload
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("failed to decode invoice: %w", err)
		}
		out.Kind = KindInvoicePaymentSucceeded
		if ev.Type == "invoice.payment_failed" {
			out.Kind = KindInvoicePaymentFailed
		}
		out.InvoicePayment = &InvoicePaymentData{
			CustomerRef:     inv.Customer,
			SubscriptionRef: inv.Subscription,
			TierMeta:        inv.SubscriptionDetails.Metadata["tier"],
			PlanID:          inv.SubscriptionDetails.Metadata["plan_id"],
			PeriodEnd:       unixPtr(inv.PeriodEnd),
		}

	case "customer.subscription.deleted", "customer.subscription.updated":
		var sub subscriptionPayload
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to decode subscription: %w", err)
		}
		out.Kind = KindSubscriptionDeleted
		if ev.Type == "customer.subscription.updated" {
			out.Kind = KindSubscriptionUpdated
		}
		out.SubscriptionChange = &SubscriptionChangeData{
			CustomerRef:     sub.Customer,
			SubscriptionRef: sub.ID,
			PeriodEnd:       unixPtr(sub.CurrentPeriodEnd),
		}

	default:
		out.Kind = KindUnknown
	}

	return out, nil
}
