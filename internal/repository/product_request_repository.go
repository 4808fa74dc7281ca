package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oyasudev/oyasify/internal/models"
)

type ProductRequestRepository struct {
	db *sql.DB
}

func NewProductRequestRepository(db *sql.DB) *ProductRequestRepository {
	return &ProductRequestRepository{db: db}
}

func (r *ProductRequestRepository) Create(ctx context.Context, request *models.ProductRequest) error {
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO product_requests (id, account_id, nickname, request_text, status, links, created_at)
VALUES (?, ?, ?, ?, ?, NULL, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		request.ID,
		request.AccountID,
		request.Nickname,
		request.Text,
		string(request.Status),
		request.CreatedAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert product request: %w", err)
	}
	return nil
}

func (r *ProductRequestRepository) GetByID(ctx context.Context, id string) (*models.ProductRequest, error) {
	const query = `
SELECT id, account_id, nickname, request_text, status, links, created_at
FROM product_requests WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	request, err := scanProductRequest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan product request: %w", err)
	}
	return request, nil
}

func (r *ProductRequestRepository) ListPending(ctx context.Context) ([]models.ProductRequest, error) {
	const query = `
SELECT id, account_id, nickname, request_text, status, links, created_at
FROM product_requests
WHERE status = ?
ORDER BY created_at DESC`
	return r.list(ctx, query, string(models.RequestPending))
}

func (r *ProductRequestRepository) ListByAccount(ctx context.Context, accountID string) ([]models.ProductRequest, error) {
	const query = `
SELECT id, account_id, nickname, request_text, status, links, created_at
FROM product_requests
WHERE account_id = ?
ORDER BY created_at DESC`
	return r.list(ctx, query, accountID)
}

func (r *ProductRequestRepository) list(ctx context.Context, query string, arg any) ([]models.ProductRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list product requests: %w", err)
	}
	defer rows.Close()

	var requests []models.ProductRequest
	for rows.Next() {
		request, err := scanProductRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan product request list: %w", err)
		}
		requests = append(requests, *request)
	}
	return requests, rows.Err()
}

// Answer stores the resolution links and moves the record to answered in one
// guarded step. False means the record was missing or already answered.
func (r *ProductRequestRepository) Answer(ctx context.Context, id string, links []string) (bool, error) {
	encoded, err := json.Marshal(links)
	if err != nil {
		return false, fmt.Errorf("encode links: %w", err)
	}
	const query = `
UPDATE product_requests SET status = ?, links = ?
WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, query, string(models.RequestAnswered), string(encoded), id, string(models.RequestPending))
	if err != nil {
		return false, fmt.Errorf("answer product request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("answer rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *ProductRequestRepository) CountPending(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM product_requests WHERE status = ?`
	row := r.db.QueryRowContext(ctx, query, string(models.RequestPending))
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending product requests: %w", err)
	}
	return count, nil
}

func scanProductRequest(scan func(...any) error) (*models.ProductRequest, error) {
	var (
		p         models.ProductRequest
		status    string
		links     sql.NullString
		createdAt int64
	)
	if err := scan(&p.ID, &p.AccountID, &p.Nickname, &p.Text, &status, &links, &createdAt); err != nil {
		return nil, err
	}
	p.Status = models.RequestStatus(status)
	if links.Valid && links.String != "" {
		if err := json.Unmarshal([]byte(links.String), &p.Links); err != nil {
			return nil, fmt.Errorf("decode links: %w", err)
		}
	}
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &p, nil
}
