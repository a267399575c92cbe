package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"mininotion/internal/document/model"
	"mininotion/internal/document/service"
	"mininotion/middleware"
	"mininotion/pkg/response"
	"mininotion/store"

	"github.com/julienschmidt/httprouter"
)

// bodyOverhead is the room left for the title and JSON framing on top of the
// maximum content size.
const bodyOverhead = 64 << 10

type Identity interface {
	Resolve(ctx context.Context, email string) (*store.User, error)
}

type DocumentHandler struct {
	Service *service.DocumentService
	Users   Identity
}

func NewDocumentHandler(service *service.DocumentService, users Identity) *DocumentHandler {
	return &DocumentHandler{Service: service, Users: users}
}

func (h *DocumentHandler) currentUser(w http.ResponseWriter, r *http.Request) (*store.User, bool) {
	user, err := h.Users.Resolve(r.Context(), middleware.EmailFromContext(r.Context()))
	if err != nil {
		response.Error(w, r, err)
		return nil, false
	}
	return user, true
}

func (h *DocumentHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.Service.MaxContentBytes)+bodyOverhead)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(w, http.StatusBadRequest, "Content exceeds the maximum size")
			return false
		}
		response.Fail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	docs, err := h.Service.ListDocuments(r.Context(), user)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, docs)
}

func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req model.CreateDocRequest
	if !h.decode(w, r, &req) {
		return
	}

	doc, err := h.Service.CreateDocument(r.Context(), user, req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	docID := httprouter.ParamsFromContext(r.Context()).ByName("id")
	doc, err := h.Service.GetDocument(r.Context(), user, docID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req model.UpdateDocRequest
	if !h.decode(w, r, &req) {
		return
	}

	docID := httprouter.ParamsFromContext(r.Context()).ByName("id")
	doc, err := h.Service.UpdateDocument(r.Context(), user, docID, req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	docID := httprouter.ParamsFromContext(r.Context()).ByName("id")
	if err := h.Service.DeleteDocument(r.Context(), user, docID); err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, "Document deleted successfully")
}
