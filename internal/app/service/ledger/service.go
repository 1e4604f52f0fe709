package ledger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/faceflowai/ledger/internal/models"
	"github.com/faceflowai/ledger/pkg/config"
	"github.com/faceflowai/ledger/pkg/logctx"
	"github.com/faceflowai/ledger/pkg/tool"
)

const (
	maxRetries     = 3
	retryBaseDelay = 25 * time.Millisecond
)

// Service is the ledger store: the only component allowed to mutate Account
// balance fields, always through a per-account optimistic check-and-set
// inside a database transaction.
type Service struct {
	cfg *config.Config
	db  *gorm.DB
	log *zap.SugaredLogger

	// now is injected for tests; all time comparisons inside one operation
	// use a single value from it.
	now func() time.Time
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, db: db, log: log, now: time.Now}
}

// withRetry runs op, retrying on ErrConcurrentModification with a short
// backoff. Any other error aborts immediately.
func (s *Service) withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBaseDelay << (attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
			logctx.FromCtx(ctx, s.log).Infow("retrying after concurrent modification", "attempt", attempt)
		}
		err = op()
		if !errors.Is(err, ErrConcurrentModification) {
			return err
		}
	}
	return err
}

// casUpdate applies updates to the account row only if its version is still
// the one observed. RowsAffected 0 means another writer won the race.
func casUpdate(tx *gorm.DB, account *models.Account, updates map[string]any) error {
	updates["version"] = account.Version + 1
	res := tx.Model(&models.Account{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (s *Service) GetAccountByUserID(ctx context.Context, userID string) (*models.Account, error) {
	var acct models.Account
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// GetAccountByCustomerRef resolves an account from the payment provider's
// customer reference.
func (s *Service) GetAccountByCustomerRef(ctx context.Context, customerID string) (*models.Account, error) {
	var acct models.Account
	err := s.db.WithContext(ctx).Where("stripe_customer_id = ?", customerID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// EnsureAccount returns the account for userID, creating it with the
// baseline free-tier quota on first sight.
func (s *Service) EnsureAccount(ctx context.Context, userID string) (*models.Account, error) {
	acct, err := s.GetAccountByUserID(ctx, userID)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	fresh := &models.Account{
		ID:        tool.GenerateUUIDV7(),
		UserID:    userID,
		FreeLimit: s.cfg.FreeTierLimit,
	}
	if err := s.db.WithContext(ctx).Create(fresh).Error; err != nil {
		// Lost a creation race; the row exists now.
		if existing, gerr := s.GetAccountByUserID(ctx, userID); gerr == nil {
			return existing, nil
		}
		return nil, err
	}
	return fresh, nil
}

// SetStripeCustomerID records the provider customer reference. The field is
// immutable once set: a concurrent first-checkout race keeps the earlier
// value and the stored one is returned.
func (s *Service) SetStripeCustomerID(ctx context.Context, accountID, customerID string) (string, error) {
	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND stripe_customer_id IS NULL", accountID).
		Update("stripe_customer_id", customerID)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 1 {
		return customerID, nil
	}

	var acct models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", accountID).First(&acct).Error; err != nil {
		return "", err
	}
	if acct.StripeCustomerID == nil {
		return "", errors.New("stripe customer id not set")
	}
	return *acct.StripeCustomerID, nil
}

// MarkArtifact records the produced artifact on a consumption record. This
// is the only post-creation mutation a ConsumptionRecord ever receives.
func (s *Service) MarkArtifact(ctx context.Context, consumptionID, artifactRef string) error {
	return s.db.WithContext(ctx).Model(&models.ConsumptionRecord{}).
		Where("id = ?", consumptionID).
		Update("artifact_ref", artifactRef).Error
}
