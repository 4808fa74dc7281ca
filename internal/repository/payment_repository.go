package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oyasudev/oyasify/internal/models"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.PaymentRequest) error {
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO payment_requests (id, account_id, email, nickname, kind, item_id, pix_code, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.AccountID,
		payment.Email,
		payment.Nickname,
		string(payment.Kind),
		payment.ItemID,
		payment.PixCode,
		string(payment.Status),
		payment.CreatedAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert payment request: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.PaymentRequest, error) {
	const query = `
SELECT id, account_id, email, nickname, kind, item_id, COALESCE(pix_code, ''), status, created_at
FROM payment_requests WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	payment, err := scanPayment(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment request: %w", err)
	}
	return payment, nil
}

func (r *PaymentRepository) ListPending(ctx context.Context) ([]models.PaymentRequest, error) {
	const query = `
SELECT id, account_id, email, nickname, kind, item_id, COALESCE(pix_code, ''), status, created_at
FROM payment_requests
WHERE status = ?
ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, string(models.PaymentPending))
	if err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}
	defer rows.Close()

	var payments []models.PaymentRequest
	for rows.Next() {
		payment, err := scanPayment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan pending payment: %w", err)
		}
		payments = append(payments, *payment)
	}
	return payments, rows.Err()
}

// Transition moves a request from one status to another exactly once. The
// false return means the record was missing or had already left the source
// status, so the caller must not apply side effects a second time.
func (r *PaymentRepository) Transition(ctx context.Context, id string, from, to models.PaymentStatus) (bool, error) {
	const query = `UPDATE payment_requests SET status = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, query, string(to), id, string(from))
	if err != nil {
		return false, fmt.Errorf("transition payment request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("payment transition rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *PaymentRepository) CountPending(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM payment_requests WHERE status = ?`
	row := r.db.QueryRowContext(ctx, query, string(models.PaymentPending))
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending payments: %w", err)
	}
	return count, nil
}

func scanPayment(scan func(...any) error) (*models.PaymentRequest, error) {
	var (
		p         models.PaymentRequest
		kind      string
		status    string
		createdAt int64
	)
	if err := scan(&p.ID, &p.AccountID, &p.Email, &p.Nickname, &kind, &p.ItemID, &p.PixCode, &status, &createdAt); err != nil {
		return nil, err
	}
	p.Kind = models.PaymentKind(kind)
	p.Status = models.PaymentStatus(status)
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &p, nil
}
