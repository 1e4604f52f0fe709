package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/faceflowai/ledger/internal/models"
	"github.com/faceflowai/ledger/pkg/logctx"
	"github.com/faceflowai/ledger/pkg/tool"
	"github.com/faceflowai/ledger/pkg/types"
)

// GrantCredits applies a purchased credit grant. paymentRef is the external
// payment reference and acts as the durable idempotency key: a redelivered
// grant carrying a ref the ledger already records is skipped. Returns whether
// the grant was applied.
func (s *Service) GrantCredits(ctx context.Context, accountID string, amount int64, description, paymentRef string) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("invalid grant amount: %d", amount)
	}
	if paymentRef == "" {
		return false, errors.New("missing payment reference")
	}

	var granted bool
	err := s.withRetry(ctx, func() error {
		granted = false
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.LedgerTransaction{}).
				Where("stripe_payment_ref = ?", paymentRef).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				logctx.FromCtx(ctx, s.log).Infow("duplicate credit grant skipped", "payment_ref", paymentRef)
				return nil
			}

			var acct models.Account
			if err := tx.Where("id = ?", accountID).First(&acct).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrAccountNotFound
				}
				return err
			}

			if err := casUpdate(tx, &acct, map[string]any{
				"credit_balance":        acct.CreditBalance + amount,
				"credit_lifetime_total": acct.CreditLifetimeTotal + amount,
			}); err != nil {
				return err
			}

			entry := &models.LedgerTransaction{
				ID:               tool.GenerateUUIDV7(),
				AccountID:        acct.ID,
				Amount:           amount,
				Kind:             types.LedgerEntryKindPurchase,
				Description:      description,
				StripePaymentRef: lo.ToPtr(paymentRef),
			}
			if err := tx.Create(entry).Error; err != nil {
				return fmt.Errorf("failed to append purchase transaction: %w", err)
			}
			granted = true
			return nil
		})
	})
	return granted, err
}

// AdjustCredits applies a manual balance change (admin adjustment or refund
// compensation). Negative deltas may not push the balance below zero;
// lifetime total is untouched because it records purchases only.
func (s *Service) AdjustCredits(ctx context.Context, accountID string, delta int64, kind types.LedgerEntryKind, description string) error {
	if delta == 0 {
		return fmt.Errorf("%w: zero delta", ErrInvalidAdjustment)
	}
	if kind != types.LedgerEntryKindAdjustment && kind != types.LedgerEntryKindRefund {
		return fmt.Errorf("%w: kind %s is not an adjustment kind", ErrInvalidAdjustment, kind)
	}

	return s.withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var acct models.Account
			if err := tx.Where("id = ?", accountID).First(&acct).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrAccountNotFound
				}
				return err
			}
			if acct.CreditBalance+delta < 0 {
				return fmt.Errorf("%w: balance would go negative (balance=%d, delta=%d)", ErrInvalidAdjustment, acct.CreditBalance, delta)
			}

			if err := casUpdate(tx, &acct, map[string]any{
				"credit_balance": acct.CreditBalance + delta,
			}); err != nil {
				return err
			}

			entry := &models.LedgerTransaction{
				ID:          tool.GenerateUUIDV7(),
				AccountID:   acct.ID,
				Amount:      delta,
				Kind:        kind,
				Description: description,
			}
			return tx.Create(entry).Error
		})
	})
}

// SubscriptionPatch describes a partial update of the subscription fields.
// Pointer fields left nil are not touched; the Set* flags distinguish
// "clear this field" from "leave it alone".
type SubscriptionPatch struct {
	Status *types.SubscriptionStatus
	Tier   *types.SubscriptionTier

	PeriodEnd    *time.Time
	SetPeriodEnd bool

	SubscriptionRef    *string
	SetSubscriptionRef bool

	FreeLimit *int64
}

func (p SubscriptionPatch) updates() map[string]any {
	u := map[string]any{}
	if p.Status != nil {
		u["subscription_status"] = *p.Status
	}
	if p.Tier != nil {
		u["subscription_tier"] = *p.Tier
	}
	if p.SetPeriodEnd {
		u["subscription_period_end"] = p.PeriodEnd
	}
	if p.SetSubscriptionRef {
		u["stripe_subscription_id"] = p.SubscriptionRef
	}
	if p.FreeLimit != nil {
		u["free_limit"] = *p.FreeLimit
	}
	return u
}

// staleEvent implements last-writer-by-event-time-wins: an event older than
// the newest one already applied to the account must not clobber state.
func staleEvent(account *models.Account, eventTime time.Time) bool {
	return account.LastPaymentEventAt != nil && eventTime.Before(*account.LastPaymentEventAt)
}

// ApplySubscriptionState applies a subscription-field patch driven by a
// payment event. The patch overwrites rather than accumulates, so replays
// are naturally idempotent; out-of-order deliveries are discarded by the
// event-time guard. Returns whether the patch was applied.
func (s *Service) ApplySubscriptionState(ctx context.Context, accountID string, eventTime time.Time, patch SubscriptionPatch) (bool, error) {
	var applied bool
	err := s.withRetry(ctx, func() error {
		applied = false
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var acct models.Account
			if err := tx.Where("id = ?", accountID).First(&acct).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrAccountNotFound
				}
				return err
			}

			if staleEvent(&acct, eventTime) {
				logctx.FromCtx(ctx, s.log).Infow("stale payment event discarded",
					"account_id", accountID, "event_time", eventTime, "last_applied", acct.LastPaymentEventAt)
				return nil
			}

			updates := patch.updates()
			if len(updates) == 0 {
				return nil
			}
			updates["last_payment_event_at"] = eventTime

			if err := casUpdate(tx, &acct, updates); err != nil {
				return err
			}
			applied = true
			return nil
		})
	})
	return applied, err
}
