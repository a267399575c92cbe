package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mininotion/pkg/logger"
	"mininotion/store"

	"github.com/lib/pq"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type ShareRepository struct {
	DB *sql.DB
}

func NewShareRepository(db *sql.DB) *ShareRepository {
	return &ShareRepository{DB: db}
}

func (r *ShareRepository) GetShare(ctx context.Context, documentID, userID string) (*store.Share, error) {
	var s store.Share
	err := r.DB.QueryRowContext(ctx,
		`SELECT document_id, user_id, can_edit, created_at FROM document_shares WHERE document_id = $1 AND user_id = $2`,
		documentID, userID,
	).Scan(&s.DocumentID, &s.UserID, &s.CanEdit, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get share of doc %s for user %s: %v", documentID, userID, err)
		return nil, fmt.Errorf("get share: %w", err)
	}
	return &s, nil
}

// CreateShare inserts a new grant. The (document_id, user_id) primary key
// rejects a second grant for the same pair with store.ErrDuplicate.
func (r *ShareRepository) CreateShare(ctx context.Context, s *store.Share) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO document_shares (document_id, user_id, can_edit, created_at) VALUES ($1, $2, $3, NOW()) RETURNING created_at`,
		s.DocumentID, s.UserID, s.CanEdit,
	).Scan(&s.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case uniqueViolation:
				return store.ErrDuplicate
			case foreignKeyViolation:
				return store.ErrNotFound
			}
		}
		logger.Sugar.Errorf("Failed to share doc %s with %s: %v", s.DocumentID, s.UserID, err)
		return fmt.Errorf("insert share: %w", err)
	}
	return nil
}

func (r *ShareRepository) UpdateShare(ctx context.Context, documentID, userID string, canEdit bool) (*store.Share, error) {
	var s store.Share
	err := r.DB.QueryRowContext(ctx,
		`UPDATE document_shares SET can_edit = $3 WHERE document_id = $1 AND user_id = $2
		RETURNING document_id, user_id, can_edit, created_at`,
		documentID, userID, canEdit,
	).Scan(&s.DocumentID, &s.UserID, &s.CanEdit, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to update share of doc %s for %s: %v", documentID, userID, err)
		return nil, fmt.Errorf("update share: %w", err)
	}
	return &s, nil
}

func (r *ShareRepository) DeleteShare(ctx context.Context, documentID, userID string) error {
	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM document_shares WHERE document_id = $1 AND user_id = $2`, documentID, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete share of doc %s for %s: %v", documentID, userID, err)
		return fmt.Errorf("delete share: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *ShareRepository) ListSharesByDocument(ctx context.Context, documentID string) ([]store.ShareWithUser, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT s.document_id, s.user_id, s.can_edit, s.created_at, u.id, u.email, u.name
		FROM document_shares s JOIN users u ON s.user_id = u.id
		WHERE s.document_id = $1
		ORDER BY s.created_at ASC`, documentID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list shares for doc %s: %v", documentID, err)
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	shares := []store.ShareWithUser{}
	for rows.Next() {
		var s store.ShareWithUser
		if err := rows.Scan(&s.DocumentID, &s.UserID, &s.CanEdit, &s.CreatedAt, &s.User.ID, &s.User.Email, &s.User.Name); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, s)
	}
	return shares, rows.Err()
}
