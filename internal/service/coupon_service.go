package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oyasudev/oyasify/internal/config"
	"github.com/oyasudev/oyasify/internal/models"
	"github.com/oyasudev/oyasify/internal/repository"
	"github.com/oyasudev/oyasify/internal/session"
)

type CouponService struct {
	cfg      config.Config
	log      *slog.Logger
	accounts *repository.AccountRepository
	sessions *session.Manager
}

func NewCouponService(cfg config.Config, log *slog.Logger, accounts *repository.AccountRepository, sessions *session.Manager) *CouponService {
	return &CouponService{
		cfg:      cfg,
		log:      log,
		accounts: accounts,
		sessions: sessions,
	}
}

// Apply redeems the promotional code on the active account: top plan for the
// configured number of days, Premium badge, and the code recorded in the
// insert-only redeemed set so it can never be used twice.
func (s *CouponService) Apply(ctx context.Context, code string) (*models.Account, error) {
	account := s.sessions.Current()
	if account == nil {
		return nil, ErrNotAuthenticated
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if code != s.cfg.CouponCode {
		return nil, ErrInvalidCoupon
	}
	if account.HasRedeemed(code) {
		return nil, ErrCouponRedeemed
	}

	// The live session copy stays untouched until the grant is durable,
	// so a failed write cannot leave an unpersisted entitlement behind.
	granted := *account
	granted.Profile.Badges = append([]string(nil), account.Profile.Badges...)
	granted.CouponsUsed = append([]string(nil), account.CouponsUsed...)

	expires := time.Now().UTC().Add(time.Duration(s.cfg.CouponDays) * 24 * time.Hour)
	granted.Access.Plan = models.PlanUltra
	granted.Access.ExpiresAt = &expires
	if !granted.HasBadge(models.BadgePremium) {
		granted.Profile.Badges = append(granted.Profile.Badges, models.BadgePremium)
	}

	if err := s.accounts.RecordCoupon(ctx, granted.ID, code); err != nil {
		return nil, fmt.Errorf("record coupon: %w", err)
	}
	granted.CouponsUsed = append(granted.CouponsUsed, code)

	if err := s.accounts.Update(ctx, &granted); err != nil {
		return nil, fmt.Errorf("apply coupon: %w", err)
	}
	s.sessions.Replace(&granted)
	s.log.Info("coupon redeemed", "account", granted.Nickname, "code", code)
	return &granted, nil
}
