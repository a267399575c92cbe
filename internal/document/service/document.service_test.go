package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mininotion/internal/document/model"
	"mininotion/internal/policy"
	"mininotion/pkg/apperror"
	"mininotion/store"
)

type spyNotifier struct {
	updated []string
	deleted []string
}

func (n *spyNotifier) DocumentUpdated(doc store.Document, byUserID string) {
	n.updated = append(n.updated, doc.ID+":"+byUserID)
}

func (n *spyNotifier) DocumentDeleted(documentID string) {
	n.deleted = append(n.deleted, documentID)
}

type fixture struct {
	mem    *store.Memory
	svc    *DocumentService
	spy    *spyNotifier
	owner  *store.User
	editor *store.User
	viewer *store.User
	eve    *store.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	spy := &spyNotifier{}
	f := &fixture{
		mem:    mem,
		spy:    spy,
		svc:    NewDocumentService(mem, mem, spy, 64),
		owner:  &store.User{ID: "id-owner", Email: "owner@example.com"},
		editor: &store.User{ID: "id-editor", Email: "editor@example.com"},
		viewer: &store.User{ID: "id-viewer", Email: "viewer@example.com"},
		eve:    &store.User{ID: "id-eve", Email: "eve@example.com"},
	}
	for _, u := range []*store.User{f.owner, f.editor, f.viewer, f.eve} {
		require.NoError(t, mem.CreateUser(ctx, u))
	}
	return f
}

func (f *fixture) createShared(t *testing.T) *store.Document {
	t.Helper()
	ctx := context.Background()
	doc, err := f.svc.CreateDocument(ctx, f.owner, model.CreateDocRequest{Title: "Notes"})
	require.NoError(t, err)
	require.NoError(t, f.mem.CreateShare(ctx, &store.Share{DocumentID: doc.ID, UserID: f.editor.ID, CanEdit: true}))
	require.NoError(t, f.mem.CreateShare(ctx, &store.Share{DocumentID: doc.ID, UserID: f.viewer.ID, CanEdit: false}))
	return doc
}

func strPtr(s string) *string { return &s }

func TestCreateDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	doc, err := f.svc.CreateDocument(ctx, f.owner, model.CreateDocRequest{Title: "Notes"})
	require.NoError(t, err)
	assert.Equal(t, "", doc.Content)
	assert.Equal(t, f.owner.ID, doc.OwnerID)
	assert.False(t, doc.UpdatedAt.IsZero())

	_, err = f.svc.CreateDocument(ctx, f.owner, model.CreateDocRequest{Title: "", Content: strPtr("body")})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = f.svc.CreateDocument(ctx, f.owner, model.CreateDocRequest{Title: "   "})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = f.svc.CreateDocument(ctx, f.owner, model.CreateDocRequest{Title: "Big", Content: strPtr(strings.Repeat("x", 65))})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestGetDocumentVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc := f.createShared(t)

	for _, u := range []*store.User{f.owner, f.editor, f.viewer} {
		got, err := f.svc.GetDocument(ctx, u, doc.ID)
		require.NoError(t, err, u.ID)
		assert.Equal(t, doc.ID, got.ID)
	}

	_, err := f.svc.GetDocument(ctx, f.eve, doc.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = f.svc.GetDocument(ctx, f.owner, "not-a-uuid")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestUpdateDocumentPermissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc := f.createShared(t)

	_, err := f.svc.UpdateDocument(ctx, f.viewer, doc.ID, model.UpdateDocRequest{Title: "Hijack"})
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))

	_, err = f.svc.UpdateDocument(ctx, f.eve, doc.ID, model.UpdateDocRequest{Title: "Hijack"})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = f.svc.UpdateDocument(ctx, f.editor, doc.ID, model.UpdateDocRequest{Title: ""})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	updated, err := f.svc.UpdateDocument(ctx, f.editor, doc.ID, model.UpdateDocRequest{Title: "Notes v2", Content: strPtr("draft")})
	require.NoError(t, err)
	assert.Equal(t, "Notes v2", updated.Title)
	assert.Equal(t, "draft", updated.Content)
	assert.Equal(t, f.owner.ID, updated.OwnerID)

	updated, err = f.svc.UpdateDocument(ctx, f.owner, doc.ID, model.UpdateDocRequest{Title: "Notes v3"})
	require.NoError(t, err)
	assert.Equal(t, "draft", updated.Content)

	assert.Equal(t, []string{doc.ID + ":" + f.editor.ID, doc.ID + ":" + f.owner.ID}, f.spy.updated)
}

func TestLastWriteWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc := f.createShared(t)

	_, err := f.svc.UpdateDocument(ctx, f.owner, doc.ID, model.UpdateDocRequest{Title: "Notes", Content: strPtr("owner text")})
	require.NoError(t, err)
	_, err = f.svc.UpdateDocument(ctx, f.editor, doc.ID, model.UpdateDocRequest{Title: "Notes", Content: strPtr("editor text")})
	require.NoError(t, err)

	got, err := f.svc.GetDocument(ctx, f.owner, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "editor text", got.Content)
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc := f.createShared(t)

	err := f.svc.DeleteDocument(ctx, f.editor, doc.ID)
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
	err = f.svc.DeleteDocument(ctx, f.eve, doc.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	require.NoError(t, f.svc.DeleteDocument(ctx, f.owner, doc.ID))
	assert.Equal(t, 0, f.mem.CountShares(doc.ID))
	assert.Equal(t, []string{doc.ID}, f.spy.deleted)

	for _, u := range []*store.User{f.owner, f.editor, f.viewer} {
		_, err := f.svc.GetDocument(ctx, u, doc.ID)
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err), u.ID)
	}
}

func TestListDocumentsPartitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc := f.createShared(t)
	_, err := f.svc.CreateDocument(ctx, f.viewer, model.CreateDocRequest{Title: "Mine"})
	require.NoError(t, err)

	list, err := f.svc.ListDocuments(ctx, f.viewer)
	require.NoError(t, err)
	require.Len(t, list.Owned, 1)
	assert.Equal(t, "Mine", list.Owned[0].Title)
	require.Len(t, list.Shared, 1)
	assert.Equal(t, doc.ID, list.Shared[0].ID)
	assert.False(t, list.Shared[0].CanEdit)

	list, err = f.svc.ListDocuments(ctx, f.editor)
	require.NoError(t, err)
	assert.Empty(t, list.Owned)
	require.Len(t, list.Shared, 1)
	assert.True(t, list.Shared[0].CanEdit)
}

func TestAuthorizeReturnsAccessLevel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc := f.createShared(t)

	_, access, err := f.svc.Authorize(ctx, f.viewer, doc.ID, policy.ActionView)
	require.NoError(t, err)
	assert.Equal(t, policy.View, access)

	_, access, err = f.svc.Authorize(ctx, f.editor, doc.ID, policy.ActionView)
	require.NoError(t, err)
	assert.Equal(t, policy.Edit, access)

	_, _, err = f.svc.Authorize(ctx, f.editor, doc.ID, policy.ActionManageShares)
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
}
