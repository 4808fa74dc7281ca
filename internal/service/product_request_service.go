package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oyasudev/oyasify/internal/models"
	"github.com/oyasudev/oyasify/internal/repository"
	"github.com/oyasudev/oyasify/internal/session"
)

// maxAnswerLinks caps how many resolution links an answer stores.
const maxAnswerLinks = 5

type ProductRequestService struct {
	log      *slog.Logger
	requests *repository.ProductRequestRepository
	sessions *session.Manager
	notifier OwnerNotifier
}

func NewProductRequestService(log *slog.Logger, requests *repository.ProductRequestRepository, sessions *session.Manager, notifier OwnerNotifier) *ProductRequestService {
	return &ProductRequestService{
		log:      log,
		requests: requests,
		sessions: sessions,
		notifier: notifier,
	}
}

func (s *ProductRequestService) Create(ctx context.Context, text string) (*models.ProductRequest, error) {
	account := s.sessions.Current()
	if account == nil {
		return nil, ErrNotAuthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: request text is required", ErrValidation)
	}

	request := &models.ProductRequest{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Nickname:  account.Nickname,
		Text:      text,
		Status:    models.RequestPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("create product request: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyOwner(ctx, fmt.Sprintf("Novo pedido de produto de %s", account.Nickname))
	}
	return request, nil
}

// Answer resolves a pending request with up to five non-empty links. Stale
// or already-answered ids are a silent no-op; other sessions see the answer
// on their next fetch.
func (s *ProductRequestService) Answer(ctx context.Context, actor *models.Account, requestID string, links []string) error {
	if actor == nil || !actor.IsOwner() {
		return ErrNotOwner
	}

	filtered := make([]string, 0, len(links))
	for _, link := range links {
		link = strings.TrimSpace(link)
		if link == "" {
			continue
		}
		filtered = append(filtered, link)
		if len(filtered) == maxAnswerLinks {
			break
		}
	}

	answered, err := s.requests.Answer(ctx, requestID, filtered)
	if err != nil {
		return err
	}
	if answered {
		s.log.Info("product request answered", "request", requestID, "links", len(filtered))
	}
	return nil
}

// ForAccount returns the requester's own requests, newest first.
func (s *ProductRequestService) ForAccount(ctx context.Context, accountID string) ([]models.ProductRequest, error) {
	return s.requests.ListByAccount(ctx, accountID)
}

func (s *ProductRequestService) Pending(ctx context.Context) ([]models.ProductRequest, error) {
	return s.requests.ListPending(ctx)
}
