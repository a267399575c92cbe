package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mininotion/internal/document/model"
	"mininotion/internal/policy"
	"mininotion/pkg/apperror"
	"mininotion/pkg/logger"
	"mininotion/store"

	"github.com/google/uuid"
)

const DefaultMaxContentBytes = 1 << 20

type DocumentRepository interface {
	CreateDocument(ctx context.Context, doc *store.Document) error
	GetDocument(ctx context.Context, id string) (*store.Document, error)
	UpdateDocument(ctx context.Context, id, title string, content *string) (*store.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocumentsByOwner(ctx context.Context, ownerID string) ([]store.Document, error)
	ListDocumentsSharedWith(ctx context.Context, userID string) ([]store.SharedDocument, error)
}

type GrantReader interface {
	GetShare(ctx context.Context, documentID, userID string) (*store.Share, error)
}

// Notifier is told about document changes after they are persisted.
type Notifier interface {
	DocumentUpdated(doc store.Document, byUserID string)
	DocumentDeleted(documentID string)
}

type nopNotifier struct{}

func (nopNotifier) DocumentUpdated(store.Document, string) {}
func (nopNotifier) DocumentDeleted(string)                 {}

type DocumentService struct {
	Repo            DocumentRepository
	Grants          GrantReader
	Notifier        Notifier
	MaxContentBytes int
}

func NewDocumentService(repo DocumentRepository, grants GrantReader, notifier Notifier, maxContentBytes int) *DocumentService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if maxContentBytes <= 0 {
		maxContentBytes = DefaultMaxContentBytes
	}
	return &DocumentService{Repo: repo, Grants: grants, Notifier: notifier, MaxContentBytes: maxContentBytes}
}

var deniedMessages = map[policy.Action]string{
	policy.ActionView:         "Unauthorized",
	policy.ActionEdit:         "You do not have permission to edit this document",
	policy.ActionDelete:       "Only the owner can delete this document",
	policy.ActionManageShares: "Only the owner can manage sharing",
}

// Authorize loads the document and checks action for user. Callers without
// any access get NotFound so the document's existence is not revealed;
// callers with some access but not enough get Unauthorized.
func (s *DocumentService) Authorize(ctx context.Context, user *store.User, docID string, action policy.Action) (*store.Document, policy.Access, error) {
	if _, err := uuid.Parse(docID); err != nil {
		return nil, policy.Deny, apperror.NotFound("Document not found")
	}

	doc, err := s.Repo.GetDocument(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, policy.Deny, apperror.NotFound("Document not found")
	}
	if err != nil {
		return nil, policy.Deny, apperror.Internal(err)
	}

	var grant *store.Share
	if doc.OwnerID != user.ID {
		grant, err = s.Grants.GetShare(ctx, doc.ID, user.ID)
		if errors.Is(err, store.ErrNotFound) {
			grant = nil
		} else if err != nil {
			return nil, policy.Deny, apperror.Internal(err)
		}
	}

	if policy.Level(user.ID, *doc, grant) == policy.Deny {
		return nil, policy.Deny, apperror.NotFound("Document not found")
	}
	access := policy.CanAccess(user.ID, *doc, grant, action)
	if access == policy.Deny {
		logger.Sugar.Infof("Permission denied: user %s tried to %s doc %s", user.ID, action, doc.ID)
		return nil, policy.Deny, apperror.Unauthorized(deniedMessages[action])
	}
	return doc, access, nil
}

func (s *DocumentService) validate(title string, content *string) error {
	if strings.TrimSpace(title) == "" {
		return apperror.Validation("Title is required")
	}
	if content != nil && len(*content) > s.MaxContentBytes {
		return apperror.Validation(fmt.Sprintf("Content exceeds the maximum size of %d bytes", s.MaxContentBytes))
	}
	return nil
}

func (s *DocumentService) CreateDocument(ctx context.Context, user *store.User, req model.CreateDocRequest) (*store.Document, error) {
	if err := s.validate(req.Title, req.Content); err != nil {
		return nil, err
	}

	doc := &store.Document{
		ID:      uuid.NewString(),
		Title:   req.Title,
		OwnerID: user.ID,
	}
	if req.Content != nil {
		doc.Content = *req.Content
	}
	if err := s.Repo.CreateDocument(ctx, doc); err != nil {
		return nil, apperror.Internal(err)
	}
	return doc, nil
}

func (s *DocumentService) GetDocument(ctx context.Context, user *store.User, docID string) (*store.Document, error) {
	doc, _, err := s.Authorize(ctx, user, docID, policy.ActionView)
	return doc, err
}

func (s *DocumentService) ListDocuments(ctx context.Context, user *store.User) (*model.DocumentList, error) {
	owned, err := s.Repo.ListDocumentsByOwner(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	shared, err := s.Repo.ListDocumentsSharedWith(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &model.DocumentList{Owned: owned, Shared: shared}, nil
}

// UpdateDocument saves a new title and, optionally, new content. There is no
// conflict detection: the last save wins.
func (s *DocumentService) UpdateDocument(ctx context.Context, user *store.User, docID string, req model.UpdateDocRequest) (*store.Document, error) {
	if _, _, err := s.Authorize(ctx, user, docID, policy.ActionEdit); err != nil {
		return nil, err
	}
	if err := s.validate(req.Title, req.Content); err != nil {
		return nil, err
	}

	doc, err := s.Repo.UpdateDocument(ctx, docID, req.Title, req.Content)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Document not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	s.Notifier.DocumentUpdated(*doc, user.ID)
	return doc, nil
}

func (s *DocumentService) DeleteDocument(ctx context.Context, user *store.User, docID string) error {
	if _, _, err := s.Authorize(ctx, user, docID, policy.ActionDelete); err != nil {
		return err
	}

	err := s.Repo.DeleteDocument(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		return apperror.NotFound("Document not found")
	}
	if err != nil {
		return apperror.Internal(err)
	}
	s.Notifier.DocumentDeleted(docID)
	return nil
}
