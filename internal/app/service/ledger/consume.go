package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/faceflowai/ledger/internal/app/service/entitlement"
	"github.com/faceflowai/ledger/internal/models"
	"github.com/faceflowai/ledger/pkg/logctx"
	"github.com/faceflowai/ledger/pkg/tool"
	"github.com/faceflowai/ledger/pkg/types"
)

type ConsumeResult struct {
	Source           types.EntitlementSource   `json:"source"`
	RemainingFree    int64                     `json:"remaining_free"`
	RemainingCredits int64                     `json:"remaining_credits"`
	Record           *models.ConsumptionRecord `json:"record"`
}

// consumptionMutation maps a resolver decision onto the single balance
// change it implies. Subscription-paid consumptions change no balances.
func consumptionMutation(account *models.Account, source types.EntitlementSource, cost int64) map[string]any {
	switch source {
	case types.EntitlementSourceFree:
		return map[string]any{"free_used": account.FreeUsed + cost}
	case types.EntitlementSourceCredit:
		return map[string]any{"credit_balance": account.CreditBalance - cost}
	default:
		return nil
	}
}

func consumptionEntryKind(source types.EntitlementSource) types.LedgerEntryKind {
	if source == types.EntitlementSourceFree {
		return types.LedgerEntryKindConsumptionFree
	}
	return types.LedgerEntryKindConsumptionCredit
}

// Consume atomically spends one unit of entitlement for the user: it
// re-reads the account, re-runs the resolver against that fresh state,
// applies the single implied mutation, and appends the ledger transaction
// and consumption record, all-or-nothing. Conflicting writers trigger a
// bounded retry with fresh state.
//
// The paid-for side effect (producing the artifact) happens after this
// commits; a later production failure does not refund the spent unit.
func (s *Service) Consume(ctx context.Context, userID string, cost int64) (*ConsumeResult, error) {
	if cost <= 0 {
		cost = 1
	}

	var result *ConsumeResult
	err := s.withRetry(ctx, func() error {
		var err error
		result, err = s.consumeOnce(ctx, userID, cost)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) consumeOnce(ctx context.Context, userID string, cost int64) (*ConsumeResult, error) {
	var result *ConsumeResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acct, err := accountByUserIDTx(tx, userID)
		if err != nil {
			return err
		}

		decision := entitlement.Resolve(acct, cost, s.now())
		if !decision.OK {
			return &NoEntitlementError{Reason: decision.Reason}
		}

		var ledgerTxnID *string
		if updates := consumptionMutation(acct, decision.Source, cost); updates != nil {
			if err := casUpdate(tx, acct, updates); err != nil {
				return err
			}

			entry := &models.LedgerTransaction{
				ID:          tool.GenerateUUIDV7(),
				AccountID:   acct.ID,
				Amount:      -cost,
				Kind:        consumptionEntryKind(decision.Source),
				Description: fmt.Sprintf("Used %d generation(s)", cost),
			}
			if err := tx.Create(entry).Error; err != nil {
				return fmt.Errorf("failed to append ledger transaction: %w", err)
			}
			ledgerTxnID = lo.ToPtr(entry.ID)
		}

		record := &models.ConsumptionRecord{
			ID:                  tool.GenerateUUIDV7(),
			AccountID:           acct.ID,
			Source:              decision.Source,
			Cost:                cost,
			LedgerTransactionID: ledgerTxnID,
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create consumption record: %w", err)
		}

		result = &ConsumeResult{
			Source:           decision.Source,
			RemainingFree:    acct.FreeLimit - acct.FreeUsed,
			RemainingCredits: acct.CreditBalance,
			Record:           record,
		}
		switch decision.Source {
		case types.EntitlementSourceFree:
			result.RemainingFree -= cost
		case types.EntitlementSourceCredit:
			result.RemainingCredits -= cost
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("consumption committed",
		"user_id", userID, "source", result.Source, "cost", cost)
	return result, nil
}

func accountByUserIDTx(tx *gorm.DB, userID string) (*models.Account, error) {
	var acct models.Account
	err := tx.Where("user_id = ?", userID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}
