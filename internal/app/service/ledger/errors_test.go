package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/faceflowai/ledger/pkg/types"
)

func TestNoEntitlementError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("consume: %w", &NoEntitlementError{Reason: types.DenyReasonBuyCredits})
	require.True(t, errors.Is(err, ErrNoEntitlement))

	var noEnt *NoEntitlementError
	require.True(t, errors.As(err, &noEnt))
	require.Equal(t, types.DenyReasonBuyCredits, noEnt.Reason)
}

func TestSentinels_AreWrapFriendly(t *testing.T) {
	require.True(t, errors.Is(fmt.Errorf("x: %w", ErrAccountNotFound), ErrAccountNotFound))
	require.True(t, errors.Is(fmt.Errorf("x: %w", ErrConcurrentModification), ErrConcurrentModification))
}
