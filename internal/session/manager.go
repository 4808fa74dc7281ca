// Package session owns the single active account of a device session: the
// persisted pointer, the in-memory working copy, the applied theme and the
// subscription expiration sweep.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oyasudev/oyasify/internal/catalog"
	"github.com/oyasudev/oyasify/internal/models"
	"github.com/oyasudev/oyasify/internal/repository"
)

type Manager struct {
	log      *slog.Logger
	accounts *repository.AccountRepository
	sessions *repository.SessionRepository
	interval time.Duration

	mu      sync.RWMutex
	account *models.Account
	theme   string
}

func NewManager(log *slog.Logger, accounts *repository.AccountRepository, sessions *repository.SessionRepository, sweepInterval time.Duration) *Manager {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	return &Manager{
		log:      log,
		accounts: accounts,
		sessions: sessions,
		interval: sweepInterval,
		theme:    catalog.DefaultTheme,
	}
}

// Restore loads the persisted session pointer on process start. An expired
// subscription is downgraded and persisted before the account is exposed to
// the rest of the system.
func (m *Manager) Restore(ctx context.Context) error {
	accountID, err := m.sessions.Get(ctx)
	if err != nil {
		return fmt.Errorf("read session pointer: %w", err)
	}
	if accountID == "" {
		return nil
	}
	account, err := m.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load session account: %w", err)
	}
	if account == nil {
		// Stale pointer; drop it rather than failing startup.
		return m.sessions.Clear(ctx)
	}
	if account.Expired(time.Now()) {
		downgrade(account)
		if err := m.accounts.Update(ctx, account); err != nil {
			return fmt.Errorf("persist expiry downgrade: %w", err)
		}
		m.log.Info("subscription expired on restore", "account", account.Nickname)
	}
	m.setInMemory(account)
	return nil
}

// Establish makes the account the active session and persists the pointer.
func (m *Manager) Establish(ctx context.Context, account *models.Account) error {
	if err := m.sessions.Set(ctx, account.ID); err != nil {
		return fmt.Errorf("persist session pointer: %w", err)
	}
	m.setInMemory(account)
	return nil
}

// Clear tears the session down completely: the durable pointer, the working
// copy and the applied theme. Nothing session-scoped survives.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clear session pointer: %w", err)
	}
	m.mu.Lock()
	m.account = nil
	m.theme = catalog.DefaultTheme
	m.mu.Unlock()
	return nil
}

// Current returns the working copy of the signed-in account, or nil.
func (m *Manager) Current() *models.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.account
}

func (m *Manager) Theme() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme
}

// Replace swaps the working copy after a service-layer mutation of the same
// account.
func (m *Manager) Replace(account *models.Account) {
	m.mu.RLock()
	current := m.account
	m.mu.RUnlock()
	if current == nil || account == nil || current.ID != account.ID {
		return
	}
	m.setInMemory(account)
}

// RefreshIf re-reads the session account from the store when its id is among
// the given ids. Used after admin approvals that may touch the live session.
func (m *Manager) RefreshIf(ctx context.Context, accountIDs ...string) error {
	current := m.Current()
	if current == nil {
		return nil
	}
	for _, id := range accountIDs {
		if id != current.ID {
			continue
		}
		account, err := m.accounts.GetByID(ctx, current.ID)
		if err != nil {
			return fmt.Errorf("refresh session account: %w", err)
		}
		if account != nil {
			m.setInMemory(account)
		}
		return nil
	}
	return nil
}

// Run drives the periodic expiration sweep against the live session until the
// context is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Sweep(ctx); err != nil {
				m.log.Error("expiration sweep", "err", err)
			}
		}
	}
}

// Sweep applies the expiry downgrade to the live session if its subscription
// window has closed: free plan, no expiry, Premium badge removed.
func (m *Manager) Sweep(ctx context.Context) error {
	current := m.Current()
	if current == nil || !current.Expired(time.Now()) {
		return nil
	}
	// Re-read so the downgrade lands on the latest stored state.
	account, err := m.accounts.GetByID(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("load account for sweep: %w", err)
	}
	if account == nil {
		return nil
	}
	if !account.Expired(time.Now()) {
		m.setInMemory(account)
		return nil
	}
	downgrade(account)
	if err := m.accounts.Update(ctx, account); err != nil {
		return fmt.Errorf("persist sweep downgrade: %w", err)
	}
	m.log.Info("subscription expired", "account", account.Nickname)
	m.setInMemory(account)
	return nil
}

func (m *Manager) setInMemory(account *models.Account) {
	theme := account.Profile.Theme
	if !catalog.ValidTheme(theme) {
		theme = catalog.DefaultTheme
	}
	m.mu.Lock()
	m.account = account
	m.theme = theme
	m.mu.Unlock()
}

func downgrade(account *models.Account) {
	account.Access.Plan = models.PlanFree
	account.Access.ExpiresAt = nil
	badges := account.Profile.Badges[:0]
	for _, b := range account.Profile.Badges {
		if b != models.BadgePremium {
			badges = append(badges, b)
		}
	}
	account.Profile.Badges = badges
}
