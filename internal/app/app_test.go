package app

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/oyasudev/oyasify/internal/config"
	"github.com/oyasudev/oyasify/internal/database"
	"github.com/oyasudev/oyasify/internal/gemini"
	"github.com/oyasudev/oyasify/internal/repository"
	"github.com/oyasudev/oyasify/internal/service"
	"github.com/oyasudev/oyasify/internal/session"
)

func newTestApp(t *testing.T) (*App, Repositories) {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "oyasify.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	cfg := config.Config{
		StoreDriver:        "sqlite",
		AllowedEmailDomain: "gmail.com",
		ReservedNickname:   "oyasu",
		OwnerWalletSeed:    396.83,
		CouponCode:         "GRATIS7",
		CouponDays:         7,
		PlanDurationDays:   30,
		SweepInterval:      time.Minute,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repos := Repositories{
		Accounts:        repository.NewAccountRepository(db),
		Payments:        repository.NewPaymentRepository(db),
		ProductRequests: repository.NewProductRequestRepository(db),
	}
	sessions := session.NewManager(log, repos.Accounts, repository.NewSessionRepository(db), cfg.SweepInterval)
	return New(cfg, log, repos, sessions, nil, nil), repos
}

func TestGenerateRequiresSession(t *testing.T) {
	app, _ := newTestApp(t)
	_, err := app.Generate(context.Background(), "lyrics", gemini.Params{Prompt: "x"})
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
}

func TestGenerateRequiresCredits(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()
	_, err := app.Accounts.Register(ctx, "foo", "foo@gmail.com", "secret")
	require.NoError(t, err)

	_, err = app.Generate(ctx, "lyrics", gemini.Params{Prompt: "x"})
	assert.ErrorIs(t, err, service.ErrCreditsRequired)
}

func TestGenerateConsumesOneCredit(t *testing.T) {
	app, repos := newTestApp(t)
	ctx := context.Background()
	account, err := app.Accounts.Register(ctx, "foo", "foo@gmail.com", "secret")
	require.NoError(t, err)
	require.NoError(t, repos.Accounts.AddCredits(ctx, account.ID, "lyrics", 1))
	account.Credits["lyrics"] = 1
	app.Sessions.Replace(account)

	text, err := app.Generate(ctx, "lyrics", gemini.Params{Prompt: "faz um hit"})
	require.NoError(t, err)
	assert.Contains(t, text, "Modo de demonstração", "no API key means the demo answer")

	stored, err := repos.Accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Credits["lyrics"])

	_, err = app.Generate(ctx, "lyrics", gemini.Params{Prompt: "mais um"})
	assert.ErrorIs(t, err, service.ErrCreditsRequired)
}

func TestGenerateOwnerConsumesNothing(t *testing.T) {
	app, repos := newTestApp(t)
	ctx := context.Background()
	owner, err := app.Accounts.Register(ctx, "oyasu", "oyasu@gmail.com", "secret")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := app.Generate(ctx, "lyrics", gemini.Params{Prompt: "vai"})
		require.NoError(t, err)
	}

	stored, err := repos.Accounts.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Credits["lyrics"])
}
