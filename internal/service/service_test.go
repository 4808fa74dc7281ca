package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/oyasudev/oyasify/internal/config"
	"github.com/oyasudev/oyasify/internal/database"
	"github.com/oyasudev/oyasify/internal/models"
	"github.com/oyasudev/oyasify/internal/repository"
	"github.com/oyasudev/oyasify/internal/session"
)

type testEnv struct {
	cfg      config.Config
	accounts *repository.AccountRepository
	payments *repository.PaymentRepository
	products *repository.ProductRequestRepository
	sessions *session.Manager
	notifier *fakeNotifier

	accountSvc *AccountService
	entitleSvc *EntitlementService
	paymentSvc *PaymentService
	couponSvc  *CouponService
	productSvc *ProductRequestService
	notifySvc  *NotificationService
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) NotifyOwner(_ context.Context, message string) {
	f.mu.Lock()
	f.messages = append(f.messages, message)
	f.mu.Unlock()
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func testConfig() config.Config {
	return config.Config{
		StoreDriver:        "sqlite",
		AllowedEmailDomain: "gmail.com",
		ReservedNickname:   "oyasu",
		OwnerWalletSeed:    396.83,
		CouponCode:         "GRATIS7",
		CouponDays:         7,
		PlanDurationDays:   30,
		SweepInterval:      time.Minute,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "oyasify.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()

	accounts := repository.NewAccountRepository(db)
	payments := repository.NewPaymentRepository(db)
	products := repository.NewProductRequestRepository(db)
	sessions := session.NewManager(log, accounts, repository.NewSessionRepository(db), cfg.SweepInterval)
	notifier := &fakeNotifier{}

	return &testEnv{
		cfg:        cfg,
		accounts:   accounts,
		payments:   payments,
		products:   products,
		sessions:   sessions,
		notifier:   notifier,
		accountSvc: NewAccountService(cfg, log, accounts, sessions, nil),
		entitleSvc: NewEntitlementService(log, accounts, sessions),
		paymentSvc: NewPaymentService(cfg, log, payments, accounts, sessions, notifier),
		couponSvc:  NewCouponService(cfg, log, accounts, sessions),
		productSvc: NewProductRequestService(log, products, sessions, notifier),
		notifySvc:  NewNotificationService(payments, products),
	}
}

// registerOwner bootstraps the Owner account and leaves it signed in.
func (e *testEnv) registerOwner(t *testing.T) *models.Account {
	t.Helper()
	owner, err := e.accountSvc.Register(context.Background(), "oyasu", "oyasu@gmail.com", "owner-secret")
	require.NoError(t, err)
	return owner
}

func (e *testEnv) registerUser(t *testing.T, nickname, email string) *models.Account {
	t.Helper()
	account, err := e.accountSvc.Register(context.Background(), nickname, email, "user-secret")
	require.NoError(t, err)
	return account
}
