package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyasudev/oyasify/internal/models"
)

func TestPaymentRequestValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.paymentSvc.Request(ctx, models.PaymentKindPlan, "plus")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	env.registerUser(t, "buyer", "buyer@gmail.com")

	_, err = env.paymentSvc.Request(ctx, models.PaymentKindPlan, "free")
	assert.ErrorIs(t, err, ErrValidation, "the free plan cannot be bought")

	_, err = env.paymentSvc.Request(ctx, models.PaymentKindPlan, "mega")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.paymentSvc.Request(ctx, models.PaymentKindGeneration, "nope")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.paymentSvc.Request(ctx, models.PaymentKind("donation"), "plus")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPaymentRequestCreatesPendingAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.registerUser(t, "buyer", "buyer@gmail.com")

	payment, err := env.paymentSvc.Request(ctx, models.PaymentKindPlan, "plus")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, payment.Status)
	assert.Equal(t, buyer.ID, payment.AccountID)
	assert.Equal(t, "buyer@gmail.com", payment.Email)
	assert.NotEmpty(t, payment.PixCode, "the catalog pix code is snapshotted on the request")
	assert.Equal(t, 1, env.notifier.count())

	pending, err := env.paymentSvc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, payment.ID, pending[0].ID)

	// No entitlement change until approval.
	stored, err := env.accounts.GetByID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, stored.Access.Plan)
}

func TestApprovePlanPurchase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.registerOwner(t)
	buyer := env.registerUser(t, "buyer", "buyer@gmail.com")

	payment, err := env.paymentSvc.Request(ctx, models.PaymentKindPlan, "light")
	require.NoError(t, err)
	require.NoError(t, env.paymentSvc.Approve(ctx, owner, payment.ID))

	stored, err := env.accounts.GetByID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanLight, stored.Access.Plan)
	require.NotNil(t, stored.Access.ExpiresAt, "light is a 30-day subscription")
	assert.True(t, stored.HasBadge(models.BadgePremium))

	wallet, err := env.accounts.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.InDelta(t, 396.83+4.90, wallet.WalletBalance, 0.001)
}

func TestApproveLifetimePlanHasNoExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.registerOwner(t)
	buyer := env.registerUser(t, "buyer", "buyer@gmail.com")

	payment, err := env.paymentSvc.Request(ctx, models.PaymentKindPlan, "ultra")
	require.NoError(t, err)
	require.NoError(t, env.paymentSvc.Approve(ctx, owner, payment.ID))

	stored, err := env.accounts.GetByID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanUltra, stored.Access.Plan)
	assert.Nil(t, stored.Access.ExpiresAt)
}

func TestApproveGenerationPurchase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.registerOwner(t)
	buyer := env.registerUser(t, "buyer", "buyer@gmail.com")

	payment, err := env.paymentSvc.Request(ctx, models.PaymentKindGeneration, "music-idea")
	require.NoError(t, err)
	require.NoError(t, env.paymentSvc.Approve(ctx, owner, payment.ID))

	stored, err := env.accounts.GetByID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Credits["music-idea"])

	wallet, err := env.accounts.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.InDelta(t, 396.83+0.40, wallet.WalletBalance, 0.001)
}

func TestApproveIsExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.registerOwner(t)
	buyer := env.registerUser(t, "buyer", "buyer@gmail.com")

	payment, err := env.paymentSvc.Request(ctx, models.PaymentKindGeneration, "lyrics")
	require.NoError(t, err)
	require.NoError(t, env.paymentSvc.Approve(ctx, owner, payment.ID))
	require.NoError(t, env.paymentSvc.Approve(ctx, owner, payment.ID))

	stored, err := env.accounts.GetByID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Credits["lyrics"], "the second approval must not double-credit")

	wallet, err := env.accounts.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.InDelta(t, 396.83+0.60, wallet.WalletBalance, 0.001)
}

func TestApproveRequiresOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.registerUser(t, "buyer", "buyer@gmail.com")

	payment, err := env.paymentSvc.Request(ctx, models.PaymentKindPlan, "plus")
	require.NoError(t, err)

	assert.ErrorIs(t, env.paymentSvc.Approve(ctx, buyer, payment.ID), ErrNotOwner)
	assert.ErrorIs(t, env.paymentSvc.Approve(ctx, nil, payment.ID), ErrNotOwner)
	assert.ErrorIs(t, env.paymentSvc.Reject(ctx, buyer, payment.ID), ErrNotOwner)
}

func TestApproveUnknownIDIsNoop(t *testing.T) {
	env := newTestEnv(t)
	owner := env.registerOwner(t)
	assert.NoError(t, env.paymentSvc.Approve(context.Background(), owner, "missing"))
}

func TestReject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.registerOwner(t)
	buyer := env.registerUser(t, "buyer", "buyer@gmail.com")

	payment, err := env.paymentSvc.Request(ctx, models.PaymentKindPlan, "plus")
	require.NoError(t, err)
	require.NoError(t, env.paymentSvc.Reject(ctx, owner, payment.ID))

	stored, err := env.payments.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRejected, stored.Status)

	// A rejected request cannot be approved afterwards.
	require.NoError(t, env.paymentSvc.Approve(ctx, owner, payment.ID))
	account, err := env.accounts.GetByID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, account.Access.Plan)
}

func TestApproveRefreshesLiveSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.registerOwner(t)
	env.registerUser(t, "buyer", "buyer@gmail.com")

	payment, err := env.paymentSvc.Request(ctx, models.PaymentKindPlan, "plus")
	require.NoError(t, err)
	require.NoError(t, env.paymentSvc.Approve(ctx, owner, payment.ID))

	current := env.sessions.Current()
	require.NotNil(t, current)
	assert.Equal(t, models.PlanPlus, current.Access.Plan, "the buyer's live session sees the grant")
}
