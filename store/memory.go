package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory keeps users, documents and shares in process memory. It satisfies the
// same contracts as the postgres repositories and is used for local runs and tests.
type Memory struct {
	mu        sync.RWMutex
	users     map[string]User
	documents map[string]Document
	shares    map[shareKey]Share
	now       func() time.Time
}

type shareKey struct {
	documentID string
	userID     string
}

func NewMemory() *Memory {
	return &Memory{
		users:     make(map[string]User),
		documents: make(map[string]Document),
		shares:    make(map[shareKey]Share),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Users

func (m *Memory) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	if _, ok := m.users[u.ID]; ok {
		return ErrDuplicate
	}
	u.CreatedAt = m.now()
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

// Documents

func (m *Memory) CreateDocument(_ context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[doc.ID]; ok {
		return ErrDuplicate
	}
	now := m.now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	m.documents[doc.ID] = *doc
	return nil
}

func (m *Memory) GetDocument(_ context.Context, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &doc, nil
}

func (m *Memory) UpdateDocument(_ context.Context, id, title string, content *string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	doc.Title = title
	if content != nil {
		doc.Content = *content
	}
	doc.UpdatedAt = m.now()
	m.documents[id] = doc
	return &doc, nil
}

// DeleteDocument removes the document and every share that references it.
func (m *Memory) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[id]; !ok {
		return ErrNotFound
	}
	delete(m.documents, id)
	for key := range m.shares {
		if key.documentID == id {
			delete(m.shares, key)
		}
	}
	return nil
}

func (m *Memory) ListDocumentsByOwner(_ context.Context, ownerID string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := []Document{}
	for _, doc := range m.documents {
		if doc.OwnerID == ownerID {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].UpdatedAt.After(docs[j].UpdatedAt) })
	return docs, nil
}

func (m *Memory) ListDocumentsSharedWith(_ context.Context, userID string) ([]SharedDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := []SharedDocument{}
	for key, share := range m.shares {
		if key.userID != userID {
			continue
		}
		if doc, ok := m.documents[key.documentID]; ok {
			docs = append(docs, SharedDocument{Document: doc, CanEdit: share.CanEdit})
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].UpdatedAt.After(docs[j].UpdatedAt) })
	return docs, nil
}

// Shares

func (m *Memory) GetShare(_ context.Context, documentID, userID string) (*Share, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	share, ok := m.shares[shareKey{documentID, userID}]
	if !ok {
		return nil, ErrNotFound
	}
	return &share, nil
}

func (m *Memory) CreateShare(_ context.Context, share *Share) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[share.DocumentID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.users[share.UserID]; !ok {
		return ErrNotFound
	}
	key := shareKey{share.DocumentID, share.UserID}
	if _, ok := m.shares[key]; ok {
		return ErrDuplicate
	}
	share.CreatedAt = m.now()
	m.shares[key] = *share
	return nil
}

func (m *Memory) UpdateShare(_ context.Context, documentID, userID string, canEdit bool) (*Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := shareKey{documentID, userID}
	share, ok := m.shares[key]
	if !ok {
		return nil, ErrNotFound
	}
	share.CanEdit = canEdit
	m.shares[key] = share
	return &share, nil
}

func (m *Memory) DeleteShare(_ context.Context, documentID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := shareKey{documentID, userID}
	if _, ok := m.shares[key]; !ok {
		return ErrNotFound
	}
	delete(m.shares, key)
	return nil
}

func (m *Memory) ListSharesByDocument(_ context.Context, documentID string) ([]ShareWithUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	shares := []ShareWithUser{}
	for key, share := range m.shares {
		if key.documentID != documentID {
			continue
		}
		shares = append(shares, ShareWithUser{Share: share, User: m.users[key.userID].Public()})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].CreatedAt.Before(shares[j].CreatedAt) })
	return shares, nil
}

// CountShares returns the number of grants on a document.
func (m *Memory) CountShares(documentID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for key := range m.shares {
		if key.documentID == documentID {
			n++
		}
	}
	return n
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }
