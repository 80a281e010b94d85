package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfflineAuthorizer_CreateAndConfirm(t *testing.T) {
	a := NewOfflineAuthorizer()
	ctx := context.Background()

	intent, err := a.CreateIntent(ctx, 12.50, "usd")
	require.NoError(t, err)
	assert.NotEmpty(t, intent.Ref)
	assert.Equal(t, IntentStatusRequiresConfirmation, intent.Status)

	confirmed, err := a.ConfirmIntent(ctx, intent.Ref)
	require.NoError(t, err)
	assert.Equal(t, IntentStatusSucceeded, confirmed.Status)
	assert.InDelta(t, 12.50, confirmed.Amount, 0.001)

	// Confirming twice is idempotent
	again, err := a.ConfirmIntent(ctx, intent.Ref)
	require.NoError(t, err)
	assert.Equal(t, IntentStatusSucceeded, again.Status)
}

func TestOfflineAuthorizer_Validation(t *testing.T) {
	a := NewOfflineAuthorizer()
	ctx := context.Background()

	_, err := a.CreateIntent(ctx, 0, "usd")
	require.Error(t, err)

	_, err = a.CreateIntent(ctx, -5, "usd")
	require.Error(t, err)

	_, err = a.ConfirmIntent(ctx, "pi_unknown")
	require.Error(t, err)
}

func TestOfflineAuthorizer_DefaultCurrency(t *testing.T) {
	a := NewOfflineAuthorizer()

	intent, err := a.CreateIntent(context.Background(), 1.00, "")
	require.NoError(t, err)
	assert.Equal(t, "usd", intent.Currency)
}
