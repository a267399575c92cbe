package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mininotion/pkg/logger"
	"mininotion/store"
)

const documentColumns = `id, title, content, owner_id, created_at, updated_at`

type DocumentRepository struct {
	DB *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner, doc *store.Document) error {
	return row.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.OwnerID, &doc.CreatedAt, &doc.UpdatedAt)
}

func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *store.Document) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO documents (id, title, content, owner_id, created_at, updated_at) VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at`,
		doc.ID, doc.Title, doc.Content, doc.OwnerID,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create document: %v", err)
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*store.Document, error) {
	var doc store.Document
	err := scanDocument(r.DB.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id), &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get doc %s: %v", id, err)
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// UpdateDocument overwrites the title, and the content when it is non-nil.
// Concurrent updates are last-write-wins.
func (r *DocumentRepository) UpdateDocument(ctx context.Context, id, title string, content *string) (*store.Document, error) {
	var newContent sql.NullString
	if content != nil {
		newContent = sql.NullString{String: *content, Valid: true}
	}

	var doc store.Document
	err := scanDocument(r.DB.QueryRowContext(ctx,
		`UPDATE documents SET title = $1, content = COALESCE($2, content), updated_at = NOW() WHERE id = $3
		RETURNING `+documentColumns,
		title, newContent, id,
	), &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to update doc %s: %v", id, err)
		return nil, fmt.Errorf("update document: %w", err)
	}
	return &doc, nil
}

// DeleteDocument removes the document. Shares go with it through ON DELETE CASCADE.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete doc %s: %v", id, err)
		return fmt.Errorf("delete document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *DocumentRepository) ListDocumentsByOwner(ctx context.Context, ownerID string) ([]store.Document, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE owner_id = $1 ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to get documents for user %s: %v", ownerID, err)
		return nil, fmt.Errorf("list owned documents: %w", err)
	}
	defer rows.Close()

	docs := []store.Document{}
	for rows.Next() {
		var doc store.Document
		if err := scanDocument(rows, &doc); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) ListDocumentsSharedWith(ctx context.Context, userID string) ([]store.SharedDocument, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT d.id, d.title, d.content, d.owner_id, d.created_at, d.updated_at, s.can_edit
		FROM documents d JOIN document_shares s ON d.id = s.document_id
		WHERE s.user_id = $1
		ORDER BY d.updated_at DESC`, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to get shared documents for user %s: %v", userID, err)
		return nil, fmt.Errorf("list shared documents: %w", err)
	}
	defer rows.Close()

	docs := []store.SharedDocument{}
	for rows.Next() {
		var doc store.SharedDocument
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.OwnerID, &doc.CreatedAt, &doc.UpdatedAt, &doc.CanEdit); err != nil {
			return nil, fmt.Errorf("scan shared document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
