package paymentevent

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/faceflowai/ledger/internal/app/service/ledger"
	"github.com/faceflowai/ledger/pkg/config"
	"github.com/faceflowai/ledger/pkg/logctx"
	"github.com/faceflowai/ledger/pkg/types"
)

// Processor applies verified payment events to the ledger. Delivery is
// at-least-once and unordered, so every transition is safe to apply twice:
// credit grants dedup on the payment reference, subscription transitions
// overwrite fields and discard events older than the last applied one.
type Processor struct {
	cfg    *config.Config
	ledger *ledger.Service
	log    *zap.SugaredLogger
}

func NewProcessor(cfg *config.Config, ledgerSvc *ledger.Service, log *zap.SugaredLogger) *Processor {
	return &Processor{cfg: cfg, ledger: ledgerSvc, log: log}
}

// resolveTier picks the subscription tier for an invoice event: explicit
// tier metadata wins, then the catalog plan, then the baseline paid tier.
func (p *Processor) resolveTier(data *InvoicePaymentData) types.SubscriptionTier {
	if types.ValidTier(data.TierMeta) {
		return types.SubscriptionTier(data.TierMeta)
	}
	return p.cfg.GetPlanTier(data.PlanID)
}

// subscriptionPatch maps a subscription-lifecycle event onto the ledger
// patch it implies. ok is false for kinds that carry no subscription
// transition (credit checkouts, unknown kinds, period-less updates).
func (p *Processor) subscriptionPatch(ev *Event) (customerRef string, patch ledger.SubscriptionPatch, ok bool) {
	switch ev.Kind {
	case KindInvoicePaymentSucceeded:
		data := ev.InvoicePayment
		return data.CustomerRef, ledger.SubscriptionPatch{
			Status:             lo.ToPtr(types.SubscriptionStatusActive),
			Tier:               lo.ToPtr(p.resolveTier(data)),
			PeriodEnd:          data.PeriodEnd,
			SetPeriodEnd:       data.PeriodEnd != nil,
			SubscriptionRef:    lo.ToPtr(data.SubscriptionRef),
			SetSubscriptionRef: data.SubscriptionRef != "",
		}, true

	case KindInvoicePaymentFailed:
		return ev.InvoicePayment.CustomerRef, ledger.SubscriptionPatch{
			Status: lo.ToPtr(types.SubscriptionStatusPastDue),
		}, true

	case KindSubscriptionDeleted:
		return ev.SubscriptionChange.CustomerRef, ledger.SubscriptionPatch{
			Status:             lo.ToPtr(types.SubscriptionStatusCanceled),
			Tier:               lo.ToPtr(types.SubscriptionTierFree),
			SetPeriodEnd:       true,
			SetSubscriptionRef: true,
			FreeLimit:          lo.ToPtr(p.cfg.FreeTierLimit),
		}, true

	case KindSubscriptionUpdated:
		data := ev.SubscriptionChange
		if data.PeriodEnd == nil {
			return "", ledger.SubscriptionPatch{}, false
		}
		return data.CustomerRef, ledger.SubscriptionPatch{
			PeriodEnd:    data.PeriodEnd,
			SetPeriodEnd: true,
		}, true

	default:
		return "", ledger.SubscriptionPatch{}, false
	}
}

// Process runs one event through the per-account state machine. A nil
// return acknowledges the event to the provider; unknown kinds and
// unresolvable accounts are acknowledged and discarded so the provider
// stops retrying.
func (p *Processor) Process(ctx context.Context, ev *Event) error {
	log := logctx.FromCtx(ctx, p.log)

	if ev.Kind == KindCheckoutCompleted {
		return p.processCheckoutCompleted(ctx, ev)
	}

	customerRef, patch, ok := p.subscriptionPatch(ev)
	if !ok {
		log.Infow("payment event acknowledged without effect", "event_id", ev.ID, "kind", ev.Kind)
		return nil
	}
	return p.applyToCustomer(ctx, ev, customerRef, patch)
}

func (p *Processor) processCheckoutCompleted(ctx context.Context, ev *Event) error {
	log := logctx.FromCtx(ctx, p.log)
	data := ev.CheckoutCompleted

	if !data.IsCreditPurchase {
		// Subscription checkouts are activated by invoice_payment_succeeded.
		log.Infow("non-credit checkout acknowledged", "event_id", ev.ID)
		return nil
	}
	if data.UserID == "" {
		log.Warnw("checkout event without user_id discarded", "event_id", ev.ID)
		return nil
	}

	acct, err := p.ledger.GetAccountByUserID(ctx, data.UserID)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		log.Warnw("checkout event for unknown account discarded", "event_id", ev.ID, "user_id", data.UserID)
		return nil
	}
	if err != nil {
		return err
	}

	granted, err := p.ledger.GrantCredits(ctx, acct.ID, data.Credits,
		fmt.Sprintf("Purchased %d credits", data.Credits), data.PaymentRef)
	if err != nil {
		return fmt.Errorf("failed to grant credits: %w", err)
	}
	log.Infow("credit grant processed",
		"event_id", ev.ID, "account_id", acct.ID, "credits", data.Credits, "granted", granted)
	return nil
}

func (p *Processor) applyToCustomer(ctx context.Context, ev *Event, customerRef string, patch ledger.SubscriptionPatch) error {
	log := logctx.FromCtx(ctx, p.log)

	if customerRef == "" {
		log.Warnw("payment event without customer ref discarded", "event_id", ev.ID, "kind", ev.Kind)
		return nil
	}

	acct, err := p.ledger.GetAccountByCustomerRef(ctx, customerRef)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		log.Warnw("payment event for unknown customer discarded", "event_id", ev.ID, "kind", ev.Kind)
		return nil
	}
	if err != nil {
		return err
	}

	applied, err := p.ledger.ApplySubscriptionState(ctx, acct.ID, ev.OccurredAt, patch)
	if err != nil {
		return fmt.Errorf("failed to apply subscription state: %w", err)
	}
	log.Infow("subscription event processed",
		"event_id", ev.ID, "kind", ev.Kind, "account_id", acct.ID, "applied", applied)
	return nil
}
