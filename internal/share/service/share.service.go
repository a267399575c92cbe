package service

import (
	"context"
	"errors"

	"mininotion/internal/policy"
	"mininotion/internal/share/model"
	"mininotion/pkg/apperror"
	"mininotion/pkg/logger"
	"mininotion/store"
)

type ShareRepository interface {
	CreateShare(ctx context.Context, s *store.Share) error
	UpdateShare(ctx context.Context, documentID, userID string, canEdit bool) (*store.Share, error)
	DeleteShare(ctx context.Context, documentID, userID string) error
	ListSharesByDocument(ctx context.Context, documentID string) ([]store.ShareWithUser, error)
}

// Authorizer is satisfied by the document service.
type Authorizer interface {
	Authorize(ctx context.Context, user *store.User, docID string, action policy.Action) (*store.Document, policy.Access, error)
}

type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*store.User, error)
}

// Notifier is told when a user's grant on a document changes.
type Notifier interface {
	AccessChanged(documentID, userID string, canEdit bool)
	AccessRevoked(documentID, userID string)
}

type nopNotifier struct{}

func (nopNotifier) AccessChanged(string, string, bool) {}
func (nopNotifier) AccessRevoked(string, string)       {}

type ShareService struct {
	Repo     ShareRepository
	Docs     Authorizer
	Users    UserFinder
	Notifier Notifier
}

func NewShareService(repo ShareRepository, docs Authorizer, users UserFinder, notifier Notifier) *ShareService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ShareService{Repo: repo, Docs: docs, Users: users, Notifier: notifier}
}

// target authorizes the caller as the document's share manager and resolves
// the user the grant is about.
func (s *ShareService) target(ctx context.Context, caller *store.User, docID, email string) (*store.Document, *store.User, error) {
	doc, _, err := s.Docs.Authorize(ctx, caller, docID, policy.ActionManageShares)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	return doc, user, nil
}

func (s *ShareService) Grant(ctx context.Context, caller *store.User, docID string, req model.ShareRequest) (*store.Share, error) {
	doc, user, err := s.target(ctx, caller, docID, req.Email)
	if err != nil {
		return nil, err
	}
	if user.ID == doc.OwnerID {
		return nil, apperror.Validation("Cannot share with yourself")
	}

	share := &store.Share{DocumentID: doc.ID, UserID: user.ID, CanEdit: req.CanEdit}
	err = s.Repo.CreateShare(ctx, share)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperror.Conflict("Document already shared with this user")
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Document not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}

	logger.Sugar.Infof("Doc %s shared with %s (can_edit=%t)", doc.ID, user.ID, share.CanEdit)
	s.Notifier.AccessChanged(doc.ID, user.ID, share.CanEdit)
	return share, nil
}

func (s *ShareService) UpdatePermission(ctx context.Context, caller *store.User, docID string, req model.UpdateShareRequest) (*store.Share, error) {
	if req.CanEdit == nil {
		return nil, apperror.Validation("can_edit is required")
	}
	doc, user, err := s.target(ctx, caller, docID, req.Email)
	if err != nil {
		return nil, err
	}

	share, err := s.Repo.UpdateShare(ctx, doc.ID, user.ID, *req.CanEdit)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Share not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	s.Notifier.AccessChanged(doc.ID, user.ID, share.CanEdit)
	return share, nil
}

func (s *ShareService) Revoke(ctx context.Context, caller *store.User, docID string, req model.RevokeRequest) error {
	doc, user, err := s.target(ctx, caller, docID, req.Email)
	if err != nil {
		return err
	}

	err = s.Repo.DeleteShare(ctx, doc.ID, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		return apperror.NotFound("Share not found")
	}
	if err != nil {
		return apperror.Internal(err)
	}

	logger.Sugar.Infof("Doc %s no longer shared with %s", doc.ID, user.ID)
	s.Notifier.AccessRevoked(doc.ID, user.ID)
	return nil
}

func (s *ShareService) List(ctx context.Context, caller *store.User, docID string) ([]store.ShareWithUser, error) {
	doc, _, err := s.Docs.Authorize(ctx, caller, docID, policy.ActionManageShares)
	if err != nil {
		return nil, err
	}
	shares, err := s.Repo.ListSharesByDocument(ctx, doc.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return shares, nil
}
