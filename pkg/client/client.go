// Package client is a Go client for the Mini-Notion HTTP API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	docmodel "mininotion/internal/document/model"
	usermodel "mininotion/internal/user/model"
	"mininotion/pkg/response"
	"mininotion/store"

	"github.com/go-resty/resty/v2"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	http *resty.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json"),
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	req := c.http.R().SetContext(ctx).SetError(&response.Message{})
	if token := c.Token(); token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		msg := http.StatusText(resp.StatusCode())
		if e, ok := resp.Error().(*response.Message); ok && e.Message != "" {
			msg = e.Message
		}
		return &APIError{Status: resp.StatusCode(), Message: msg}
	}
	return nil
}

func documentPath(id string) string {
	return "/api/documents/" + url.PathEscape(id)
}

// Signup registers an account and keeps its token for later calls.
func (c *Client) Signup(ctx context.Context, email, name, password string) (*usermodel.AuthResponse, error) {
	var out usermodel.AuthResponse
	body := usermodel.SignupRequest{Email: email, Name: name, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Login keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*usermodel.AuthResponse, error) {
	var out usermodel.AuthResponse
	body := usermodel.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*store.User, error) {
	var out store.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListDocuments(ctx context.Context) (*docmodel.DocumentList, error) {
	var out docmodel.DocumentList
	if err := c.do(ctx, http.MethodGet, "/api/documents", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDocument creates a document; a nil content is stored as "".
func (c *Client) CreateDocument(ctx context.Context, title string, content *string) (*store.Document, error) {
	var out store.Document
	body := docmodel.CreateDocRequest{Title: title, Content: content}
	if err := c.do(ctx, http.MethodPost, "/api/documents", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*store.Document, error) {
	var out store.Document
	if err := c.do(ctx, http.MethodGet, documentPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDocument saves title and, when non-nil, content.
func (c *Client) UpdateDocument(ctx context.Context, id, title string, content *string) (*store.Document, error) {
	var out store.Document
	body := docmodel.UpdateDocRequest{Title: title, Content: content}
	if err := c.do(ctx, http.MethodPut, documentPath(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, documentPath(id), nil, nil)
}

type shareBody struct {
	Email   string `json:"email"`
	CanEdit bool   `json:"can_edit"`
}

func (c *Client) ShareDocument(ctx context.Context, id, email string, canEdit bool) (*store.Share, error) {
	var out store.Share
	if err := c.do(ctx, http.MethodPost, documentPath(id)+"/share", shareBody{Email: email, CanEdit: canEdit}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateShare(ctx context.Context, id, email string, canEdit bool) (*store.Share, error) {
	var out store.Share
	if err := c.do(ctx, http.MethodPut, documentPath(id)+"/share", shareBody{Email: email, CanEdit: canEdit}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RevokeShare(ctx context.Context, id, email string) error {
	return c.do(ctx, http.MethodDelete, documentPath(id)+"/share?email="+url.QueryEscape(email), nil, nil)
}

func (c *Client) ListShares(ctx context.Context, id string) ([]store.ShareWithUser, error) {
	var out []store.ShareWithUser
	if err := c.do(ctx, http.MethodGet, documentPath(id)+"/shares", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
