package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oyasudev/oyasify/internal/catalog"
	"github.com/oyasudev/oyasify/internal/config"
	"github.com/oyasudev/oyasify/internal/models"
	"github.com/oyasudev/oyasify/internal/repository"
	"github.com/oyasudev/oyasify/internal/session"
)

// OwnerNotifier pings the operator about new pending work. Best effort; nil
// disables notifications.
type OwnerNotifier interface {
	NotifyOwner(ctx context.Context, message string)
}

type PaymentService struct {
	cfg      config.Config
	log      *slog.Logger
	payments *repository.PaymentRepository
	accounts *repository.AccountRepository
	sessions *session.Manager
	notifier OwnerNotifier
}

func NewPaymentService(cfg config.Config, log *slog.Logger, payments *repository.PaymentRepository, accounts *repository.AccountRepository, sessions *session.Manager, notifier OwnerNotifier) *PaymentService {
	return &PaymentService{
		cfg:      cfg,
		log:      log,
		payments: payments,
		accounts: accounts,
		sessions: sessions,
		notifier: notifier,
	}
}

// Request records a manual PIX payment declaration as a pending request. No
// entitlement changes until the Owner approves it.
func (s *PaymentService) Request(ctx context.Context, kind models.PaymentKind, itemID string) (*models.PaymentRequest, error) {
	account := s.sessions.Current()
	if account == nil {
		return nil, ErrNotAuthenticated
	}

	var pixCode string
	switch kind {
	case models.PaymentKindPlan:
		plan, ok := catalog.PlanByID(models.PlanID(itemID))
		if !ok || plan.Price <= 0 {
			return nil, fmt.Errorf("%w: unknown plan %q", ErrValidation, itemID)
		}
		pixCode = plan.PixCode
	case models.PaymentKindGeneration:
		generator, ok := catalog.GeneratorByID(itemID)
		if !ok {
			return nil, fmt.Errorf("%w: unknown generator %q", ErrValidation, itemID)
		}
		pixCode = generator.PixCode
	default:
		return nil, fmt.Errorf("%w: unknown payment kind %q", ErrValidation, kind)
	}

	payment := &models.PaymentRequest{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Email:     account.Email,
		Nickname:  account.Nickname,
		Kind:      kind,
		ItemID:    itemID,
		PixCode:   pixCode,
		Status:    models.PaymentPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment request: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyOwner(ctx, fmt.Sprintf("Novo pagamento pendente: %s comprou %s (%s)", account.Nickname, itemID, kind))
	}
	return payment, nil
}

// Approve applies the purchase exactly once: the guarded status transition
// wins or loses atomically, so a second approval of the same id neither
// double-credits the wallet nor re-applies the plan.
func (s *PaymentService) Approve(ctx context.Context, actor *models.Account, paymentID string) error {
	if actor == nil || !actor.IsOwner() {
		return ErrNotOwner
	}

	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment == nil || payment.Status != models.PaymentPending {
		// Stale id from an outdated admin list; nothing to do.
		return nil
	}

	target, err := s.accounts.GetByID(ctx, payment.AccountID)
	if err != nil {
		return err
	}
	if target == nil {
		s.log.Warn("payment target account missing", "payment", paymentID, "account", payment.AccountID)
		return nil
	}

	ok, err := s.payments.Transition(ctx, paymentID, models.PaymentPending, models.PaymentApproved)
	if err != nil {
		return err
	}
	if !ok {
		// A concurrent approval got there first.
		return nil
	}

	var price float64
	switch payment.Kind {
	case models.PaymentKindPlan:
		plan, ok := catalog.PlanByID(models.PlanID(payment.ItemID))
		if !ok {
			s.log.Warn("approved payment references unknown plan", "payment", paymentID, "plan", payment.ItemID)
			return nil
		}
		price = plan.Price
		target.Access.Plan = plan.ID
		if plan.IsLifetime {
			target.Access.ExpiresAt = nil
		} else {
			expires := time.Now().UTC().Add(time.Duration(s.cfg.PlanDurationDays) * 24 * time.Hour)
			target.Access.ExpiresAt = &expires
		}
		if !target.HasBadge(models.BadgePremium) {
			target.Profile.Badges = append(target.Profile.Badges, models.BadgePremium)
		}
		if err := s.accounts.Update(ctx, target); err != nil {
			return fmt.Errorf("apply plan purchase: %w", err)
		}
	case models.PaymentKindGeneration:
		generator, ok := catalog.GeneratorByID(payment.ItemID)
		if !ok {
			s.log.Warn("approved payment references unknown generator", "payment", paymentID, "generator", payment.ItemID)
			return nil
		}
		price = generator.Price
		if err := s.accounts.AddCredits(ctx, target.ID, generator.ID, 1); err != nil {
			return fmt.Errorf("apply generation purchase: %w", err)
		}
	default:
		s.log.Warn("approved payment has unknown kind", "payment", paymentID, "kind", payment.Kind)
		return nil
	}

	owner, err := s.accounts.GetByNickname(ctx, s.cfg.ReservedNickname)
	if err != nil {
		return err
	}
	if owner != nil {
		if err := s.accounts.AddToWallet(ctx, owner.ID, price); err != nil {
			return fmt.Errorf("credit owner wallet: %w", err)
		}
	}

	refreshIDs := []string{target.ID}
	if owner != nil {
		refreshIDs = append(refreshIDs, owner.ID)
	}
	if err := s.sessions.RefreshIf(ctx, refreshIDs...); err != nil {
		return err
	}

	s.log.Info("payment approved", "payment", paymentID, "account", target.Nickname, "item", payment.ItemID, "price", price)
	return nil
}

// Reject moves a pending request to rejected. No entitlement or wallet
// change; stale ids are ignored.
func (s *PaymentService) Reject(ctx context.Context, actor *models.Account, paymentID string) error {
	if actor == nil || !actor.IsOwner() {
		return ErrNotOwner
	}
	if _, err := s.payments.Transition(ctx, paymentID, models.PaymentPending, models.PaymentRejected); err != nil {
		return err
	}
	return nil
}

func (s *PaymentService) Pending(ctx context.Context) ([]models.PaymentRequest, error) {
	return s.payments.ListPending(ctx)
}
