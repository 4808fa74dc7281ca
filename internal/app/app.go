// Package app bundles the user-facing services into the single surface the
// UI shell talks to.
package app

import (
	"context"
	"log/slog"

	"github.com/oyasudev/oyasify/internal/catalog"
	"github.com/oyasudev/oyasify/internal/config"
	"github.com/oyasudev/oyasify/internal/gemini"
	"github.com/oyasudev/oyasify/internal/repository"
	"github.com/oyasudev/oyasify/internal/service"
	"github.com/oyasudev/oyasify/internal/session"
)

type App struct {
	Accounts        *service.AccountService
	Entitlements    *service.EntitlementService
	Payments        *service.PaymentService
	Coupons         *service.CouponService
	ProductRequests *service.ProductRequestService
	Notifications   *service.NotificationService
	Sessions        *session.Manager
	AI              *gemini.Client
}

type Repositories struct {
	Accounts        *repository.AccountRepository
	Payments        *repository.PaymentRepository
	ProductRequests *repository.ProductRequestRepository
}

func New(cfg config.Config, log *slog.Logger, repos Repositories, sessions *session.Manager, uploader service.AssetUploader, notifier service.OwnerNotifier) *App {
	return &App{
		Accounts:        service.NewAccountService(cfg, log, repos.Accounts, sessions, uploader),
		Entitlements:    service.NewEntitlementService(log, repos.Accounts, sessions),
		Payments:        service.NewPaymentService(cfg, log, repos.Payments, repos.Accounts, sessions, notifier),
		Coupons:         service.NewCouponService(cfg, log, repos.Accounts, sessions),
		ProductRequests: service.NewProductRequestService(log, repos.ProductRequests, sessions, notifier),
		Notifications:   service.NewNotificationService(repos.Payments, repos.ProductRequests),
		Sessions:        sessions,
		AI:              gemini.NewClient(cfg, log),
	}
}

// Generate runs one tool invocation end to end: entitlement check, AI call,
// credit burn. A failed AI call still returns its message and consumes
// nothing beyond what CheckAccess allowed; entitlement state is only touched
// by the explicit ConsumeCredit step.
func (a *App) Generate(ctx context.Context, generatorID string, params gemini.Params) (string, error) {
	account := a.Sessions.Current()
	if account == nil {
		return "", service.ErrNotAuthenticated
	}
	access := a.Entitlements.CheckAccess(account, generatorID)
	if !access.HasAccess {
		return "", service.ErrCreditsRequired
	}
	if generator, ok := catalog.GeneratorByID(generatorID); ok && params.ToolName == "" {
		params.ToolName = generator.Name
	}
	text := a.AI.Generate(ctx, params)
	if err := a.Entitlements.ConsumeCredit(ctx, account, generatorID); err != nil {
		return text, err
	}
	return text, nil
}
