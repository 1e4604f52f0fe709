package ledger

import (
	"errors"
	"fmt"

	"github.com/faceflowai/ledger/pkg/types"
)

var (
	// ErrAccountNotFound is fatal for consumption requests. Webhook
	// processing treats a missing account as acknowledge-and-discard instead.
	ErrAccountNotFound = errors.New("account not found")

	// ErrNoEntitlement means no source can pay for the consumption. It is
	// not retryable without user action.
	ErrNoEntitlement = errors.New("no entitlement available")

	// ErrConcurrentModification is returned when the optimistic-concurrency
	// check fails; the transaction is retried with fresh state a bounded
	// number of times before this surfaces to the caller.
	ErrConcurrentModification = errors.New("account modified concurrently")

	// ErrInvalidAdjustment rejects a manual adjustment before anything is
	// written: zero delta, a non-adjustment kind, or an overdraw.
	ErrInvalidAdjustment = errors.New("invalid adjustment")
)

// NoEntitlementError carries the denial reason so handlers can distinguish
// "upgrade" from "buy credits". errors.Is(err, ErrNoEntitlement) matches.
type NoEntitlementError struct {
	Reason types.DenyReason
}

func (e *NoEntitlementError) Error() string {
	return fmt.Sprintf("no entitlement available (%s)", e.Reason)
}

func (e *NoEntitlementError) Is(target error) bool {
	return target == ErrNoEntitlement
}
