package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/approval-desk/internal/domain"
	"github.com/xela07ax/approval-desk/internal/infra/auth"
)

// ApprovalService Описываем, что нам нужно от сервиса
type ApprovalService interface {
	Create(ctx context.Context, title, description, requesterID string) (*domain.ApprovalRequestView, error)
	GetByID(ctx context.Context, id string, caller domain.Caller) (*domain.ApprovalRequestView, error)
	GetUserRequests(ctx context.Context, requesterID string, filter domain.SearchFilter) (*domain.ApprovalRequestList, error)
	GetAllRequests(ctx context.Context, filter domain.SearchFilter) (*domain.ApprovalRequestList, error)
	Approve(ctx context.Context, id, adminID, comments string) (*domain.ApprovalRequestView, error)
	Reject(ctx context.Context, id, adminID, comments string) (*domain.ApprovalRequestView, error)
}

type ApprovalHandler struct {
	service ApprovalService
}

func NewApprovalHandler(s ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{service: s}
}

// Create регистрирует заявку от имени вызывающего.
// POST /api/approval-requests
func (h *ApprovalHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	view, err := h.service.Create(r.Context(), req.Title, req.Description, caller.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// GetMyRequests — заявки текущего пользователя.
// GET /api/approval-requests/my-requests?status=...&search=...&page=...&pageSize=...
func (h *ApprovalHandler) GetMyRequests(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	filter, err := parseSearchFilter(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	list, err := h.service.GetUserRequests(r.Context(), caller.UserID, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// GetAll — все заявки, только для админов (роль проверяет роутер).
// GET /api/approval-requests
func (h *ApprovalHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSearchFilter(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	list, err := h.service.GetAllRequests(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// GetByID — детали заявки. Правило видимости (автор или админ)
// применяет сервис.
// GET /api/approval-requests/{id}
func (h *ApprovalHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	view, err := h.service.GetByID(r.Context(), id, caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Review — универсальный endpoint решения: статус в теле запроса.
// PATCH /api/approval-requests/{id}/review
func (h *ApprovalHandler) Review(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	id := chi.URLParam(r, "id")
	status, _ := domain.ParseDecision(req.Status)

	var view *domain.ApprovalRequestView
	var err error
	if status == domain.StatusApproved {
		view, err = h.service.Approve(r.Context(), id, caller.UserID, req.AdminComments)
	} else {
		view, err = h.service.Reject(r.Context(), id, caller.UserID, req.AdminComments)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Approve — прямой endpoint положительного решения.
// POST /api/approval-requests/{id}/approve
func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve)
}

// Reject — прямой endpoint отказа.
// POST /api/approval-requests/{id}/reject
func (h *ApprovalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject)
}

func (h *ApprovalHandler) decide(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, id, adminID, comments string) (*domain.ApprovalRequestView, error),
) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	id := chi.URLParam(r, "id")
	view, err := action(r.Context(), id, caller.UserID, req.AdminComments)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
