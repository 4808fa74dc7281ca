package service

import (
	"context"
	"fmt"

	"github.com/oyasudev/oyasify/internal/models"
	"github.com/oyasudev/oyasify/internal/repository"
)

type NotificationService struct {
	payments *repository.PaymentRepository
	requests *repository.ProductRequestRepository
}

func NewNotificationService(payments *repository.PaymentRepository, requests *repository.ProductRequestRepository) *NotificationService {
	return &NotificationService{payments: payments, requests: requests}
}

// Count is the Owner's badge number: pending payments plus pending product
// requests, recomputed on every call. Anyone else always sees zero.
func (s *NotificationService) Count(ctx context.Context, account *models.Account) (int, error) {
	if account == nil || !account.IsOwner() {
		return 0, nil
	}
	payments, err := s.payments.CountPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pending payments: %w", err)
	}
	requests, err := s.requests.CountPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pending requests: %w", err)
	}
	return payments + requests, nil
}
