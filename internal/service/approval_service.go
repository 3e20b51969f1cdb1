package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/approval-desk/internal/domain"
	"github.com/xela07ax/approval-desk/internal/infra"
	"go.uber.org/zap"
)

// ApprovalRepository описывает требования сервиса к хранилищу заявок
type ApprovalRepository interface {
	Create(ctx context.Context, req *domain.ApprovalRequest) error
	GetByID(ctx context.Context, id string) (*domain.ApprovalRequest, error)
	GetPaged(ctx context.Context, filter domain.SearchFilter) ([]*domain.ApprovalRequest, int, error)
	UpdateDecision(ctx context.Context, id string, status domain.ApprovalStatus, reviewerID, comments string) (*domain.ApprovalRequest, error)
}

// IdentityResolver — контракт шлюза идентичности. Тотальный: запись
// возвращается для каждого запрошенного ID, хотя бы заглушкой.
type IdentityResolver interface {
	ResolveBatch(ctx context.Context, userIDs []string) map[string]domain.UserInfo
}

// ApprovalService владеет жизненным циклом заявки: создание, правила
// видимости, принятие решения. Ответы обогащает личностями через шлюз.
type ApprovalService struct {
	repo    ApprovalRepository
	users   IdentityResolver
	logger  *zap.Logger
	metrics *infra.Metrics
}

func NewApprovalService(repo ApprovalRepository, users IdentityResolver, metrics *infra.Metrics, logger *zap.Logger) *ApprovalService {
	if metrics == nil {
		metrics = infra.NewMetrics(nil)
	}
	return &ApprovalService{
		repo:    repo,
		users:   users,
		logger:  logger.Named("approval-service"),
		metrics: metrics,
	}
}

// Create регистрирует новую заявку от имени вызывающего.
// Заявка рождается строго в Pending, ревьюер не назначен.
func (s *ApprovalService) Create(ctx context.Context, title, description, requesterID string) (*domain.ApprovalRequestView, error) {
	req := &domain.ApprovalRequest{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		RequesterID: requesterID,
		Status:      domain.StatusPending,
		RequestedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, req); err != nil {
		s.logger.Error("failed to persist approval request",
			zap.String("requester_id", requesterID),
			zap.Error(err))
		return nil, fmt.Errorf("service: could not create approval request: %w", err)
	}

	s.logger.Info("approval request created",
		zap.String("request_id", req.ID),
		zap.String("requester_id", requesterID))

	return s.enrichOne(ctx, req), nil
}

// GetByID отдает заявку с проверкой видимости: чужую заявку видит
// только админ, автор — всегда свою.
func (s *ApprovalService) GetByID(ctx context.Context, id string, caller domain.Caller) (*domain.ApprovalRequestView, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !caller.IsAdmin() && req.RequesterID != caller.UserID {
		return nil, domain.ErrForbidden
	}

	return s.enrichOne(ctx, req), nil
}

// GetUserRequests — выборка "мои заявки". Фильтр по автору
// принудительно перезаписывается ID вызывающего: что бы клиент ни
// прислал, чужие заявки через этот путь не видны.
func (s *ApprovalService) GetUserRequests(ctx context.Context, requesterID string, filter domain.SearchFilter) (*domain.ApprovalRequestList, error) {
	filter.RequesterID = requesterID
	return s.getFiltered(ctx, filter)
}

// GetAllRequests — админская выборка, фильтр применяется как есть.
// Роль Admin проверена на периметре роутера.
func (s *ApprovalService) GetAllRequests(ctx context.Context, filter domain.SearchFilter) (*domain.ApprovalRequestList, error) {
	return s.getFiltered(ctx, filter)
}

// Approve фиксирует положительное решение админа.
func (s *ApprovalService) Approve(ctx context.Context, id, adminID, comments string) (*domain.ApprovalRequestView, error) {
	return s.decide(ctx, id, adminID, domain.StatusApproved, comments)
}

// Reject фиксирует отказ.
func (s *ApprovalService) Reject(ctx context.Context, id, adminID, comments string) (*domain.ApprovalRequestView, error) {
	return s.decide(ctx, id, adminID, domain.StatusRejected, comments)
}

// decide — единственный переход конечного автомата: Pending -> терминал.
// Повторное решение отклоняется, а не принимается идемпотентно: ревьюер
// обязан увидеть, что заявка уже решена кем-то другим.
func (s *ApprovalService) decide(ctx context.Context, id, adminID string, status domain.ApprovalStatus, comments string) (*domain.ApprovalRequestView, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.CanDecide(); err != nil {
		return nil, err
	}

	// Условный UPDATE в repo закрывает гонку двух конкурентных решений:
	// проигравший получит ErrAlreadyDecided, даже пройдя проверку выше
	updated, err := s.repo.UpdateDecision(ctx, id, status, adminID, comments)
	if err != nil {
		if err != domain.ErrAlreadyDecided {
			s.logger.Error("failed to persist approval decision",
				zap.String("request_id", id),
				zap.String("reviewer_id", adminID),
				zap.Error(err))
		}
		return nil, err
	}

	s.metrics.DecisionsTotal.WithLabelValues(strings.ToLower(string(status))).Inc()
	s.logger.Info("approval decision processed",
		zap.String("request_id", id),
		zap.String("reviewer_id", adminID),
		zap.String("result", string(status)))

	return s.enrichOne(ctx, updated), nil
}

func (s *ApprovalService) getFiltered(ctx context.Context, filter domain.SearchFilter) (*domain.ApprovalRequestList, error) {
	filter.Normalize()

	items, total, err := s.repo.GetPaged(ctx, filter)
	if err != nil {
		s.logger.Error("failed to query approval requests", zap.Error(err))
		return nil, fmt.Errorf("service: could not fetch approval requests: %w", err)
	}

	// Один батч-вызов шлюза на всю страницу: собираем уникальные ID
	// авторов и ревьюеров
	userIDs := make([]string, 0, len(items)*2)
	for _, req := range items {
		userIDs = append(userIDs, req.RequesterID)
		if req.ReviewerID != nil {
			userIDs = append(userIDs, *req.ReviewerID)
		}
	}
	users := s.users.ResolveBatch(ctx, userIDs)

	views := make([]domain.ApprovalRequestView, 0, len(items))
	for _, req := range items {
		views = append(views, buildView(req, users))
	}

	return &domain.ApprovalRequestList{
		Items:      views,
		TotalCount: total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}, nil
}

// enrichOne — обогащение одиночного ответа. Резолвинг не может
// провалить операцию: в худшем случае в ответе будут заглушки.
func (s *ApprovalService) enrichOne(ctx context.Context, req *domain.ApprovalRequest) *domain.ApprovalRequestView {
	userIDs := []string{req.RequesterID}
	if req.ReviewerID != nil {
		userIDs = append(userIDs, *req.ReviewerID)
	}
	users := s.users.ResolveBatch(ctx, userIDs)

	view := buildView(req, users)
	return &view
}

func buildView(req *domain.ApprovalRequest, users map[string]domain.UserInfo) domain.ApprovalRequestView {
	requester, ok := users[req.RequesterID]
	if !ok {
		requester = domain.UnknownUser(req.RequesterID)
	}

	var reviewer *domain.UserInfo
	if req.ReviewerID != nil {
		rv, ok := users[*req.ReviewerID]
		if !ok {
			rv = domain.UnknownUser(*req.ReviewerID)
		}
		reviewer = &rv
	}

	return domain.ApprovalRequestView{
		ID:            req.ID,
		Title:         req.Title,
		Description:   req.Description,
		Requester:     requester,
		Status:        req.Status,
		RequestedAt:   req.RequestedAt,
		ReviewedAt:    req.ReviewedAt,
		Reviewer:      reviewer,
		AdminComments: req.AdminComments,
	}
}
