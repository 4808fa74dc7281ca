package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/oyasudev/oyasify/internal/database"
	"github.com/oyasudev/oyasify/internal/models"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "oyasify.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func seedAccount(t *testing.T, repo *AccountRepository, nickname string) *models.Account {
	t.Helper()
	account := &models.Account{
		ID:       uuid.NewString(),
		Email:    nickname + "@gmail.com",
		Nickname: nickname,
		Profile: models.Profile{
			DisplayName: nickname,
			Badges:      []string{},
			Theme:       "Ocean Dreams",
		},
		Access:  models.AccessStatus{Plan: models.PlanFree},
		Credits: map[string]int{},
	}
	require.NoError(t, repo.Create(context.Background(), account))
	return account
}

func TestAccountRoundTrip(t *testing.T) {
	repo := NewAccountRepository(openDB(t))
	ctx := context.Background()

	expires := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Millisecond)
	account := &models.Account{
		ID:           uuid.NewString(),
		Email:        "Mixed@Gmail.com",
		Nickname:     "MixedCase",
		PasswordHash: "hash",
		Profile: models.Profile{
			DisplayName: "Mixed",
			AvatarURL:   "https://img.example/a.png",
			BannerURL:   "https://img.example/b.png",
			Bio:         "oi",
			Badges:      []string{models.BadgePremium},
			Theme:       "Ocean Dreams",
		},
		Access:        models.AccessStatus{Plan: models.PlanPlus, ExpiresAt: &expires},
		Credits:       map[string]int{},
		WalletBalance: 12.5,
	}
	require.NoError(t, repo.Create(ctx, account))

	for name, load := range map[string]func() (*models.Account, error){
		"by id":                func() (*models.Account, error) { return repo.GetByID(ctx, account.ID) },
		"by email any case":    func() (*models.Account, error) { return repo.GetByEmail(ctx, "MIXED@gmail.com") },
		"by nickname any case": func() (*models.Account, error) { return repo.GetByNickname(ctx, "mixedcase") },
	} {
		t.Run(name, func(t *testing.T) {
			got, err := load()
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, account.ID, got.ID)
			assert.Equal(t, "mixed@gmail.com", got.Email, "e-mails are stored lowercased")
			assert.Equal(t, "MixedCase", got.Nickname, "the display nickname keeps its casing")
			assert.Equal(t, []string{models.BadgePremium}, got.Profile.Badges)
			assert.Equal(t, models.PlanPlus, got.Access.Plan)
			require.NotNil(t, got.Access.ExpiresAt)
			assert.Equal(t, expires, *got.Access.ExpiresAt)
			assert.InDelta(t, 12.5, got.WalletBalance, 0.001)
		})
	}
}

func TestAccountGetMissing(t *testing.T) {
	repo := NewAccountRepository(openDB(t))
	ctx := context.Background()

	got, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByEmail(ctx, "nobody@gmail.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAccountUpdate(t *testing.T) {
	repo := NewAccountRepository(openDB(t))
	ctx := context.Background()
	account := seedAccount(t, repo, "upd")

	account.Profile.Bio = "novo bio"
	account.Access.Plan = models.PlanUltra
	account.Access.ExpiresAt = nil
	require.NoError(t, repo.Update(ctx, account))

	got, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "novo bio", got.Profile.Bio)
	assert.Equal(t, models.PlanUltra, got.Access.Plan)
	assert.Nil(t, got.Access.ExpiresAt)
}

func TestCredits(t *testing.T) {
	repo := NewAccountRepository(openDB(t))
	ctx := context.Background()
	account := seedAccount(t, repo, "credits")

	require.NoError(t, repo.AddCredits(ctx, account.ID, "lyrics", 1))
	require.NoError(t, repo.AddCredits(ctx, account.ID, "lyrics", 2))
	require.NoError(t, repo.AddCredits(ctx, account.ID, "beat-concept", 1))

	got, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"lyrics": 3, "beat-concept": 1}, got.Credits)
}

func TestConsumeCreditGuard(t *testing.T) {
	repo := NewAccountRepository(openDB(t))
	ctx := context.Background()
	account := seedAccount(t, repo, "burn")
	require.NoError(t, repo.AddCredits(ctx, account.ID, "lyrics", 2))

	for i := 0; i < 2; i++ {
		consumed, err := repo.ConsumeCredit(ctx, account.ID, "lyrics")
		require.NoError(t, err)
		assert.True(t, consumed)
	}

	consumed, err := repo.ConsumeCredit(ctx, account.ID, "lyrics")
	require.NoError(t, err)
	assert.False(t, consumed, "an empty balance has nothing to consume")

	consumed, err = repo.ConsumeCredit(ctx, account.ID, "never-bought")
	require.NoError(t, err)
	assert.False(t, consumed)

	got, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Credits["lyrics"])
}

func TestRecordCoupon(t *testing.T) {
	repo := NewAccountRepository(openDB(t))
	ctx := context.Background()
	account := seedAccount(t, repo, "coupons")

	require.NoError(t, repo.RecordCoupon(ctx, account.ID, "GRATIS7"))
	assert.Error(t, repo.RecordCoupon(ctx, account.ID, "GRATIS7"), "the redeemed set is insert-only")

	got, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"GRATIS7"}, got.CouponsUsed)
}

func TestAddToWallet(t *testing.T) {
	repo := NewAccountRepository(openDB(t))
	ctx := context.Background()
	account := seedAccount(t, repo, "wallet")

	require.NoError(t, repo.AddToWallet(ctx, account.ID, 4.90))
	require.NoError(t, repo.AddToWallet(ctx, account.ID, 0.40))

	got, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.InDelta(t, 5.30, got.WalletBalance, 0.001)
}

func newPayment(accountID string) *models.PaymentRequest {
	return &models.PaymentRequest{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Email:     "buyer@gmail.com",
		Nickname:  "buyer",
		Kind:      models.PaymentKindPlan,
		ItemID:    "plus",
		PixCode:   "pix-code",
		Status:    models.PaymentPending,
	}
}

func TestPaymentTransition(t *testing.T) {
	repo := NewPaymentRepository(openDB(t))
	ctx := context.Background()
	payment := newPayment("acc-1")
	require.NoError(t, repo.Create(ctx, payment))

	ok, err := repo.Transition(ctx, payment.ID, models.PaymentPending, models.PaymentApproved)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Transition(ctx, payment.ID, models.PaymentPending, models.PaymentApproved)
	require.NoError(t, err)
	assert.False(t, ok, "only one transition out of pending wins")

	ok, err = repo.Transition(ctx, payment.ID, models.PaymentPending, models.PaymentRejected)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Transition(ctx, "missing", models.PaymentPending, models.PaymentApproved)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentApproved, got.Status)
}

func TestPaymentListPending(t *testing.T) {
	repo := NewPaymentRepository(openDB(t))
	ctx := context.Background()

	first := newPayment("acc-1")
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, first))

	second := newPayment("acc-2")
	require.NoError(t, repo.Create(ctx, second))

	resolved := newPayment("acc-3")
	require.NoError(t, repo.Create(ctx, resolved))
	_, err := repo.Transition(ctx, resolved.ID, models.PaymentPending, models.PaymentRejected)
	require.NoError(t, err)

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, second.ID, pending[0].ID, "newest first")
	assert.Equal(t, first.ID, pending[1].ID)

	count, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestProductRequestAnswerOnce(t *testing.T) {
	repo := NewProductRequestRepository(openDB(t))
	ctx := context.Background()
	request := &models.ProductRequest{
		ID:        uuid.NewString(),
		AccountID: "acc-1",
		Nickname:  "foo",
		Text:      "quero um beat",
		Status:    models.RequestPending,
	}
	require.NoError(t, repo.Create(ctx, request))

	ok, err := repo.Answer(ctx, request.ID, []string{"https://a.example"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Answer(ctx, request.ID, []string{"https://b.example"})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestAnswered, got.Status)
	assert.Equal(t, []string{"https://a.example"}, got.Links)

	count, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProductRequestListByAccount(t *testing.T) {
	repo := NewProductRequestRepository(openDB(t))
	ctx := context.Background()

	mine := &models.ProductRequest{ID: uuid.NewString(), AccountID: "me", Nickname: "me", Text: "a", Status: models.RequestPending}
	other := &models.ProductRequest{ID: uuid.NewString(), AccountID: "you", Nickname: "you", Text: "b", Status: models.RequestPending}
	require.NoError(t, repo.Create(ctx, mine))
	require.NoError(t, repo.Create(ctx, other))

	got, err := repo.ListByAccount(ctx, "me")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)
	assert.Nil(t, got[0].Links, "unanswered requests carry no links")
}

func TestSessionPointer(t *testing.T) {
	repo := NewSessionRepository(openDB(t))
	ctx := context.Background()

	id, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, repo.Set(ctx, "acc-1"))
	id, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", id)

	require.NoError(t, repo.Set(ctx, "acc-2"))
	id, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acc-2", id, "a new login overwrites the single row")

	require.NoError(t, repo.Clear(ctx))
	id, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestSessionPointerIdempotentWrites(t *testing.T) {
	repo := NewSessionRepository(openDB(t))
	ctx := context.Background()

	// Writing the value already stored must not error. The mysql driver
	// reports changed rows rather than matched rows, so these no-change
	// writes are where an UPDATE-guarded upsert would break.
	require.NoError(t, repo.Set(ctx, "acc-1"))
	require.NoError(t, repo.Set(ctx, "acc-1"))
	id, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", id)

	require.NoError(t, repo.Clear(ctx))
	require.NoError(t, repo.Clear(ctx))
	id, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)
}
