package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"mininotion/internal/share/model"
	"mininotion/internal/share/service"
	"mininotion/middleware"
	"mininotion/pkg/response"
	"mininotion/store"

	"github.com/julienschmidt/httprouter"
)

// maxShareBody bounds share requests, which only carry an email and a flag.
const maxShareBody = 4 << 10

type Identity interface {
	Resolve(ctx context.Context, email string) (*store.User, error)
}

type ShareHandler struct {
	Service *service.ShareService
	Users   Identity
}

func NewShareHandler(service *service.ShareService, users Identity) *ShareHandler {
	return &ShareHandler{Service: service, Users: users}
}

func (h *ShareHandler) currentUser(w http.ResponseWriter, r *http.Request) (*store.User, bool) {
	user, err := h.Users.Resolve(r.Context(), middleware.EmailFromContext(r.Context()))
	if err != nil {
		response.Error(w, r, err)
		return nil, false
	}
	return user, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxShareBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.Fail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *ShareHandler) ShareDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req model.ShareRequest
	if !decode(w, r, &req) {
		return
	}

	docID := httprouter.ParamsFromContext(r.Context()).ByName("id")
	share, err := h.Service.Grant(r.Context(), user, docID, req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, share)
}

func (h *ShareHandler) UpdateShare(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req model.UpdateShareRequest
	if !decode(w, r, &req) {
		return
	}

	docID := httprouter.ParamsFromContext(r.Context()).ByName("id")
	share, err := h.Service.UpdatePermission(r.Context(), user, docID, req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, share)
}

// RevokeShare reads the target email from the body, or from the email query
// parameter for clients that cannot send a DELETE body.
func (h *ShareHandler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	req := model.RevokeRequest{Email: r.URL.Query().Get("email")}
	if req.Email == "" && !decode(w, r, &req) {
		return
	}

	docID := httprouter.ParamsFromContext(r.Context()).ByName("id")
	if err := h.Service.Revoke(r.Context(), user, docID, req); err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, "Document sharing removed successfully")
}

func (h *ShareHandler) ListShares(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	docID := httprouter.ParamsFromContext(r.Context()).ByName("id")
	shares, err := h.Service.List(r.Context(), user, docID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, shares)
}
