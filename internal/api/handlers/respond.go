package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"skillswap-backend/internal/errs"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Error: kind, Message: message})
}

// respondServiceError maps the service error kinds onto HTTP statuses.
// Anything without a kind is an internal failure and keeps its details out
// of the response.
func respondServiceError(w http.ResponseWriter, err error) {
	var serviceErr *errs.Error
	if !errors.As(err, &serviceErr) {
		log.Printf("[ERROR] internal: %v", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch serviceErr.Kind {
	case errs.KindInvalidInput:
		status = http.StatusBadRequest
	case errs.KindNotAuthorized:
		status = http.StatusForbidden
	case errs.KindInvalidState:
		status = http.StatusConflict
	case errs.KindNotFound:
		status = http.StatusNotFound
	}
	writeError(w, status, serviceErr.Kind.String(), serviceErr.Message)
}
