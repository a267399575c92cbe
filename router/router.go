package router

import (
	"context"
	"net/http"

	"mininotion/internal/auth"
	docHandler "mininotion/internal/document"
	docService "mininotion/internal/document/service"
	"mininotion/internal/policy"
	shareHandler "mininotion/internal/share"
	shareService "mininotion/internal/share/service"
	userHandler "mininotion/internal/user"
	userService "mininotion/internal/user/service"
	"mininotion/middleware"
	"mininotion/pkg/logger"
	"mininotion/pkg/response"
	"mininotion/socket"

	"github.com/julienschmidt/httprouter"
)

// ShareStore is the grant storage used by both authorization and the share
// registry.
type ShareStore interface {
	docService.GrantReader
	shareService.ShareRepository
}

type Deps struct {
	Users           userService.UserRepository
	Documents       docService.DocumentRepository
	Shares          ShareStore
	Ping            func(ctx context.Context) error
	Hub             *socket.Hub
	Tokens          *auth.Tokens
	MaxContentBytes int
	CORSOrigins     []string
}

func Setup(deps Deps) http.Handler {
	users := userService.NewUserService(deps.Users, deps.Tokens)
	docs := docService.NewDocumentService(deps.Documents, deps.Shares, deps.Hub, deps.MaxContentBytes)
	shares := shareService.NewShareService(deps.Shares, docs, users, deps.Hub)

	userH := userHandler.NewUserHandler(users)
	docH := docHandler.NewDocumentHandler(docs, users)
	shareH := shareHandler.NewShareHandler(shares, users)

	authMW := middleware.AuthMiddleware(deps.Tokens)
	protected := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	r := httprouter.New()
	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.Fail(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.PanicHandler = func(w http.ResponseWriter, req *http.Request, v interface{}) {
		logger.Sugar.Errorw("Panic while serving request", "method", req.Method, "path", req.URL.Path, "panic", v)
		response.Fail(w, http.StatusInternalServerError, "Something went wrong")
	}

	r.HandlerFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Ping != nil {
			if err := deps.Ping(req.Context()); err != nil {
				logger.Sugar.Warnf("Health check failed: %v", err)
				response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Accounts
	r.HandlerFunc(http.MethodPost, "/api/auth/signup", userH.Signup)
	r.HandlerFunc(http.MethodPost, "/api/auth/login", userH.Login)
	r.Handler(http.MethodGet, "/api/auth/me", protected(userH.Me))

	// Documents
	r.Handler(http.MethodGet, "/api/documents", protected(docH.ListDocuments))
	r.Handler(http.MethodPost, "/api/documents", protected(docH.CreateDocument))
	r.Handler(http.MethodGet, "/api/documents/:id", protected(docH.GetDocument))
	r.Handler(http.MethodPut, "/api/documents/:id", protected(docH.UpdateDocument))
	r.Handler(http.MethodDelete, "/api/documents/:id", protected(docH.DeleteDocument))

	// Sharing
	r.Handler(http.MethodPost, "/api/documents/:id/share", protected(shareH.ShareDocument))
	r.Handler(http.MethodPut, "/api/documents/:id/share", protected(shareH.UpdateShare))
	r.Handler(http.MethodDelete, "/api/documents/:id/share", protected(shareH.RevokeShare))
	r.Handler(http.MethodGet, "/api/documents/:id/shares", protected(shareH.ListShares))

	// WebSocket
	r.Handler(http.MethodGet, "/ws", protected(func(w http.ResponseWriter, req *http.Request) {
		user, err := users.Resolve(req.Context(), middleware.EmailFromContext(req.Context()))
		if err != nil {
			response.Error(w, req, err)
			return
		}
		doc, access, err := docs.Authorize(req.Context(), user, req.URL.Query().Get("docId"), policy.ActionView)
		if err != nil {
			response.Error(w, req, err)
			return
		}
		socket.ServeWs(deps.Hub, w, req, doc.ID, user.ID, access == policy.Edit)
	}))

	return middleware.LoggingMiddleware(middleware.CORSMiddleware(deps.CORSOrigins)(r))
}
