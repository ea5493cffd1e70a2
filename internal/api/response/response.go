package response

import (
	"encoding/json"
	"net/http"

	"github.com/edvin/wppanel/internal/fault"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// statusCodes maps error kinds to HTTP statuses. Kinds not listed are 500.
var statusCodes = map[fault.Kind]int{
	fault.KindNotFound:   http.StatusNotFound,
	fault.KindValidation: http.StatusBadRequest,
	fault.KindConflict:   http.StatusBadRequest,
}

// StatusCode returns the HTTP status for an error kind.
func StatusCode(kind fault.Kind) int {
	if v, ok := statusCodes[kind]; ok {
		return v
	}
	return http.StatusInternalServerError
}

// WriteServiceError writes err with the status of its kind.
func WriteServiceError(w http.ResponseWriter, err error) {
	kind := fault.KindOf(err)
	WriteJSON(w, StatusCode(kind), ErrorResponse{Error: err.Error(), Code: string(kind)})
}

// Message is a plain acknowledgement body.
type Message struct {
	Message string `json:"message"`
}

func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Message{Message: msg})
}
