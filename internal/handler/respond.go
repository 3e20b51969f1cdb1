package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xela07ax/approval-desk/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeDomainError маппит бизнес-исходы сервиса в HTTP-коды.
// Все, что не входит в таксономию, — непрозрачная 500-ка: детали
// инфраструктурных отказов наружу не утекают.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "approval request not found"})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "access denied"})
	case errors.Is(err, domain.ErrAlreadyDecided):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "only pending requests can be reviewed"})
	case errors.Is(err, domain.ErrBadDecision):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid decision, use 'Approved' or 'Rejected'"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
