package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mininotion/internal/auth"
	"mininotion/router"
	"mininotion/socket"
	"mininotion/store"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mem := store.NewMemory()
	hub := socket.NewHub()
	go hub.Run()
	srv := httptest.NewServer(router.Setup(router.Deps{
		Users:     mem,
		Documents: mem,
		Shares:    mem,
		Ping:      mem.Ping,
		Hub:       hub,
		Tokens:    auth.NewTokens("test-secret", time.Hour),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected *APIError, got %v", err)
	return apiErr.Status
}

func TestClientSharingFlow(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	alice, bob := New(srv.URL), New(srv.URL)
	_, err := alice.Signup(ctx, "alice@example.com", "Alice", "password-a")
	require.NoError(t, err)
	_, err = bob.Signup(ctx, "bob@example.com", "Bob", "password-b")
	require.NoError(t, err)

	doc, err := alice.CreateDocument(ctx, "Notes", nil)
	require.NoError(t, err)
	assert.Equal(t, "", doc.Content)

	_, err = bob.GetDocument(ctx, doc.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	share, err := alice.ShareDocument(ctx, doc.ID, "bob@example.com", false)
	require.NoError(t, err)
	assert.False(t, share.CanEdit)

	got, err := bob.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Notes", got.Title)

	content := "bob was here"
	_, err = bob.UpdateDocument(ctx, doc.ID, "Notes", &content)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	_, err = alice.UpdateShare(ctx, doc.ID, "bob@example.com", true)
	require.NoError(t, err)
	updated, err := bob.UpdateDocument(ctx, doc.ID, "Notes", &content)
	require.NoError(t, err)
	assert.Equal(t, content, updated.Content)

	list, err := bob.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, list.Owned)
	require.Len(t, list.Shared, 1)
	assert.True(t, list.Shared[0].CanEdit)

	shares, err := alice.ListShares(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, "Bob", shares[0].User.Name)

	err = bob.DeleteDocument(ctx, doc.ID)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	require.NoError(t, alice.RevokeShare(ctx, doc.ID, "bob@example.com"))
	_, err = bob.GetDocument(ctx, doc.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	require.NoError(t, alice.DeleteDocument(ctx, doc.ID))
	_, err = alice.GetDocument(ctx, doc.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestClientLoginAndErrors(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	c := New(srv.URL)
	_, err := c.Me(ctx)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	_, err = c.Signup(ctx, "carol@example.com", "Carol", "short")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = c.Signup(ctx, "carol@example.com", "Carol", "long-enough")
	require.NoError(t, err)
	_, err = New(srv.URL).Signup(ctx, "CAROL@example.com", "Carol", "long-enough")
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	other := New(srv.URL)
	_, err = other.Login(ctx, "carol@example.com", "wrong-password")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid email or password", apiErr.Message)

	resp, err := other.Login(ctx, "carol@example.com", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, resp.Token, other.Token())
	me, err := other.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", me.Email)
}

func TestAutosaverWithClient(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	c := New(srv.URL)
	_, err := c.Signup(ctx, "dana@example.com", "Dana", "password-d")
	require.NoError(t, err)
	doc, err := c.CreateDocument(ctx, "Draft", nil)
	require.NoError(t, err)

	a := NewAutosaver(Draft{Title: doc.Title, Content: doc.Content}, 20*time.Millisecond, c.SaveDocument(doc.ID), nil)
	a.Change("Draft", "first")
	a.Change("Draft", "first line")

	require.Eventually(t, func() bool {
		got, err := c.GetDocument(ctx, doc.ID)
		return err == nil && got.Content == "first line"
	}, time.Second, 10*time.Millisecond)

	a.Change("Final", "done")
	require.NoError(t, a.Flush(ctx))
	a.Close()

	got, err := c.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, "done", got.Content)
}
