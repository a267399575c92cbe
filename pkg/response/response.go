package response

import (
	"encoding/json"
	"net/http"

	"mininotion/pkg/apperror"
	"mininotion/pkg/logger"
)

type Message struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}

func OK(w http.ResponseWriter, message string) {
	JSON(w, http.StatusOK, Message{Message: message})
}

// Error writes err as {"message": ...} with the status of its kind.
// Internal errors are logged with their cause.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Sugar.Errorw("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	JSON(w, status, Message{Message: apperror.Message(err)})
}

// Fail writes a plain message with the given status.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Message{Message: message})
}
