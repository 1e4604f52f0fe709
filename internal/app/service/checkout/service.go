package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/faceflowai/ledger/internal/app/service/ledger"
	"github.com/faceflowai/ledger/internal/platform/stripepay"
	"github.com/faceflowai/ledger/pkg/config"
	"github.com/faceflowai/ledger/pkg/logctx"
	"github.com/faceflowai/ledger/pkg/types"
)

var (
	ErrUnknownPackage = errors.New("unknown credit package")
	ErrUnknownPlan    = errors.New("unknown subscription plan")
	// ErrPlanNotPurchasable means the catalog entry exists but carries no
	// provider price reference for the requested interval.
	ErrPlanNotPurchasable = errors.New("plan has no price for this interval")
)

// Service builds provider checkout and portal sessions. It owns the lazy
// creation of provider customers: an account gets a customer reference the
// first time it starts a checkout, never earlier.
type Service struct {
	cfg    *config.Config
	stripe *stripepay.Client
	ledger *ledger.Service
	log    *zap.SugaredLogger
}

func NewService(cfg *config.Config, stripe *stripepay.Client, ledgerSvc *ledger.Service, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, stripe: stripe, ledger: ledgerSvc, log: log}
}

// ensureCustomer returns the account's provider customer reference, creating
// the customer on first use. A creation race keeps the earlier reference.
func (s *Service) ensureCustomer(ctx context.Context, userID, email string) (string, error) {
	acct, err := s.ledger.EnsureAccount(ctx, userID)
	if err != nil {
		return "", err
	}
	if acct.StripeCustomerID != nil {
		return *acct.StripeCustomerID, nil
	}

	customer, err := s.stripe.CreateCustomer(ctx, userID, email)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}
	stored, err := s.ledger.SetStripeCustomerID(ctx, acct.ID, customer.ID)
	if err != nil {
		return "", err
	}
	if stored != customer.ID {
		logctx.FromCtx(ctx, s.log).Infow("kept earlier customer ref after creation race",
			"account_id", acct.ID, "stored", stored, "discarded", customer.ID)
	}
	return stored, nil
}

// StartCreditCheckout opens a one-time payment session for a catalog credit
// package and returns its redirect URL.
func (s *Service) StartCreditCheckout(ctx context.Context, userID, email, packageID string) (string, error) {
	pkg := s.cfg.GetCreditPackage(packageID)
	if pkg == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownPackage, packageID)
	}

	customerID, err := s.ensureCustomer(ctx, userID, email)
	if err != nil {
		return "", err
	}
	session, err := s.stripe.CreateCreditCheckout(ctx, customerID, userID, pkg)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("credit checkout started",
		"user_id", userID, "package_id", pkg.ID, "session_id", session.ID)
	return session.URL, nil
}

// StartSubscriptionCheckout opens a recurring-payment session for a catalog
// plan at the given billing interval and returns its redirect URL.
func (s *Service) StartSubscriptionCheckout(ctx context.Context, userID, email, planID string, interval types.BillingInterval) (string, error) {
	plan := s.cfg.GetSubscriptionPlan(planID)
	if plan == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlan, planID)
	}
	priceID := plan.PriceID(interval)
	if priceID == "" {
		return "", fmt.Errorf("%w: %s/%s", ErrPlanNotPurchasable, planID, interval)
	}

	customerID, err := s.ensureCustomer(ctx, userID, email)
	if err != nil {
		return "", err
	}
	session, err := s.stripe.CreateSubscriptionCheckout(ctx, customerID, userID, plan, priceID)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("subscription checkout started",
		"user_id", userID, "plan_id", plan.ID, "interval", interval, "session_id", session.ID)
	return session.URL, nil
}

// StartPortalSession opens a billing portal session for an account that
// already has a provider customer. Accounts that never checked out have
// nothing to manage, so a missing customer ref is ErrAccountNotFound.
func (s *Service) StartPortalSession(ctx context.Context, userID string) (string, error) {
	acct, err := s.ledger.GetAccountByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if acct.StripeCustomerID == nil {
		return "", ledger.ErrAccountNotFound
	}

	session, err := s.stripe.CreatePortalSession(ctx, *acct.StripeCustomerID)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return session.URL, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
