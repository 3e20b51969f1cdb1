package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/approval-desk/internal/domain"
	"github.com/xela07ax/approval-desk/internal/infra/auth"
)

// fakeService записывает аргументы вызовов и отдает настроенные ответы.
type fakeService struct {
	view *domain.ApprovalRequestView
	list *domain.ApprovalRequestList
	err  error

	createdTitle   string
	requesterID    string
	approvedID     string
	rejectedID     string
	approveComment string
}

func (f *fakeService) Create(_ context.Context, title, _, requesterID string) (*domain.ApprovalRequestView, error) {
	f.createdTitle = title
	f.requesterID = requesterID
	return f.view, f.err
}

func (f *fakeService) GetByID(_ context.Context, _ string, _ domain.Caller) (*domain.ApprovalRequestView, error) {
	return f.view, f.err
}

func (f *fakeService) GetUserRequests(_ context.Context, requesterID string, _ domain.SearchFilter) (*domain.ApprovalRequestList, error) {
	f.requesterID = requesterID
	return f.list, f.err
}

func (f *fakeService) GetAllRequests(_ context.Context, _ domain.SearchFilter) (*domain.ApprovalRequestList, error) {
	return f.list, f.err
}

func (f *fakeService) Approve(_ context.Context, id, _, comments string) (*domain.ApprovalRequestView, error) {
	f.approvedID = id
	f.approveComment = comments
	return f.view, f.err
}

func (f *fakeService) Reject(_ context.Context, id, _, _ string) (*domain.ApprovalRequestView, error) {
	f.rejectedID = id
	return f.view, f.err
}

// newTestRouter собирает роутер с подставным auth-слоем:
// каждый запрос приходит от имени заданного Caller.
func newTestRouter(svc ApprovalService, caller domain.Caller) http.Handler {
	h := NewApprovalHandler(svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.ContextWithCaller(req.Context(), caller)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})

	r.Route("/api/approval-requests", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.GetAll)
		r.Get("/my-requests", h.GetMyRequests)
		r.Get("/{id}", h.GetByID)
		r.Patch("/{id}/review", h.Review)
		r.Post("/{id}/approve", h.Approve)
		r.Post("/{id}/reject", h.Reject)
	})
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sampleView() *domain.ApprovalRequestView {
	return &domain.ApprovalRequestView{
		ID:        "r1",
		Title:     "Laptop",
		Requester: domain.UserInfo{UserID: "u1", Name: "Ivan", Email: "i@corp.io"},
		Status:    domain.StatusPending,
	}
}

func TestCreateReturns201(t *testing.T) {
	svc := &fakeService{view: sampleView()}
	router := newTestRouter(svc, domain.Caller{UserID: "u1"})

	rec := doRequest(t, router, http.MethodPost, "/api/approval-requests",
		`{"title": "Laptop", "description": "New laptop"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Laptop", svc.createdTitle)
	assert.Equal(t, "u1", svc.requesterID)

	var view domain.ApprovalRequestView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "r1", view.ID)
}

func TestCreateValidation(t *testing.T) {
	svc := &fakeService{view: sampleView()}
	router := newTestRouter(svc, domain.Caller{UserID: "u1"})

	// Пустой title
	rec := doRequest(t, router, http.MethodPost, "/api/approval-requests",
		`{"title": "  ", "description": "x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Битый JSON
	rec = doRequest(t, router, http.MethodPost, "/api/approval-requests", `{broken`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Слишком длинный title
	rec = doRequest(t, router, http.MethodPost, "/api/approval-requests",
		`{"title": "`+strings.Repeat("a", 201)+`", "description": "x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Сервис не должен вызываться при невалидном входе
	assert.Empty(t, svc.createdTitle)
}

func TestGetByIDErrorMapping(t *testing.T) {
	router := newTestRouter(&fakeService{err: domain.ErrNotFound}, domain.Caller{UserID: "u1"})
	rec := doRequest(t, router, http.MethodGet, "/api/approval-requests/r1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	router = newTestRouter(&fakeService{err: domain.ErrForbidden}, domain.Caller{UserID: "u2"})
	rec = doRequest(t, router, http.MethodGet, "/api/approval-requests/r1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReviewDecisionVerbs(t *testing.T) {
	svc := &fakeService{view: sampleView()}
	router := newTestRouter(svc, domain.Caller{UserID: "a1", Roles: map[string]bool{domain.RoleAdmin: true}})

	rec := doRequest(t, router, http.MethodPatch, "/api/approval-requests/r1/review",
		`{"status": "approved", "adminComments": "ok"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r1", svc.approvedID)

	rec = doRequest(t, router, http.MethodPatch, "/api/approval-requests/r1/review",
		`{"status": "Rejected"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r1", svc.rejectedID)

	// Неизвестный глагол решения
	rec = doRequest(t, router, http.MethodPatch, "/api/approval-requests/r1/review",
		`{"status": "maybe"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveAlreadyDecided(t *testing.T) {
	router := newTestRouter(&fakeService{err: domain.ErrAlreadyDecided},
		domain.Caller{UserID: "a1", Roles: map[string]bool{domain.RoleAdmin: true}})

	rec := doRequest(t, router, http.MethodPost, "/api/approval-requests/r1/approve",
		`{"adminComments": "ok"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApprovePassesComments(t *testing.T) {
	svc := &fakeService{view: sampleView()}
	router := newTestRouter(svc, domain.Caller{UserID: "a1", Roles: map[string]bool{domain.RoleAdmin: true}})

	rec := doRequest(t, router, http.MethodPost, "/api/approval-requests/r1/approve",
		`{"adminComments": "within budget"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "within budget", svc.approveComment)
}

func TestMyRequestsUsesCallerID(t *testing.T) {
	svc := &fakeService{list: &domain.ApprovalRequestList{Items: []domain.ApprovalRequestView{}, Page: 1, PageSize: 10}}
	router := newTestRouter(svc, domain.Caller{UserID: "u7"})

	rec := doRequest(t, router, http.MethodGet, "/api/approval-requests/my-requests?requesterId=u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u7", svc.requesterID)
}

func TestSearchFilterValidation(t *testing.T) {
	svc := &fakeService{list: &domain.ApprovalRequestList{}}
	router := newTestRouter(svc, domain.Caller{UserID: "u1"})

	rec := doRequest(t, router, http.MethodGet, "/api/approval-requests/my-requests?status=unknown", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/approval-requests/my-requests?page=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/approval-requests/my-requests?pageSize=9000", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
