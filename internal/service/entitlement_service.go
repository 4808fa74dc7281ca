package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oyasudev/oyasify/internal/catalog"
	"github.com/oyasudev/oyasify/internal/models"
	"github.com/oyasudev/oyasify/internal/repository"
	"github.com/oyasudev/oyasify/internal/session"
)

// Access is the result of an entitlement check for one generator.
type Access struct {
	HasAccess    bool
	IsSubscribed bool
}

type EntitlementService struct {
	log      *slog.Logger
	accounts *repository.AccountRepository
	sessions *session.Manager
}

func NewEntitlementService(log *slog.Logger, accounts *repository.AccountRepository, sessions *session.Manager) *EntitlementService {
	return &EntitlementService{
		log:      log,
		accounts: accounts,
		sessions: sessions,
	}
}

// CheckAccess decides whether the account may use the generator right now.
// Pure function of the account snapshot and the static plan catalog: the
// Owner badge grants everything, an unknown plan denies everything, an
// unlimited subscription skips credits, otherwise the per-tool balance rules.
func (s *EntitlementService) CheckAccess(account *models.Account, generatorID string) Access {
	if account == nil {
		return Access{}
	}
	if account.IsOwner() {
		return Access{HasAccess: true, IsSubscribed: true}
	}

	plan, ok := catalog.PlanByID(account.Access.Plan)
	if !ok {
		return Access{}
	}

	isSubscribed := plan.ID != models.PlanFree
	if plan.Unlimited && isSubscribed {
		return Access{HasAccess: true, IsSubscribed: true}
	}

	if account.Credits[generatorID] > 0 {
		return Access{HasAccess: true, IsSubscribed: isSubscribed}
	}
	return Access{IsSubscribed: isSubscribed}
}

// ConsumeCredit burns one credit for the generator. Owners and unlimited
// subscribers consume nothing. The store-level guard keeps the balance from
// ever dropping below zero; consuming at zero is a no-op.
func (s *EntitlementService) ConsumeCredit(ctx context.Context, account *models.Account, generatorID string) error {
	if account == nil || account.IsOwner() {
		return nil
	}
	plan, ok := catalog.PlanByID(account.Access.Plan)
	if ok && plan.Unlimited && plan.ID != models.PlanFree {
		return nil
	}

	consumed, err := s.accounts.ConsumeCredit(ctx, account.ID, generatorID)
	if err != nil {
		return fmt.Errorf("consume credit: %w", err)
	}
	if !consumed {
		return nil
	}
	if account.Credits[generatorID] > 0 {
		account.Credits[generatorID]--
	}
	s.sessions.Replace(account)
	return nil
}
