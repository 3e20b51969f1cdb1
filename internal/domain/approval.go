package domain

import (
	"errors"
	"strings"
	"time"
)

// Статусы State Machine заявки
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "Pending"
	StatusApproved ApprovalStatus = "Approved"
	StatusRejected ApprovalStatus = "Rejected"
)

// Ошибки бизнес-уровня. Хэндлеры матчатся на них через errors.Is
// и превращают в HTTP-коды, сервис ничего не знает про транспорт.
var (
	ErrNotFound       = errors.New("approval request not found")
	ErrForbidden      = errors.New("access to approval request denied")
	ErrAlreadyDecided = errors.New("approval request already decided")
	ErrBadDecision    = errors.New("invalid decision status")
)

// ParseStatus нормализует статус из query-фильтра ("pending" -> Pending).
func ParseStatus(raw string) (ApprovalStatus, error) {
	if strings.EqualFold(raw, string(StatusPending)) {
		return StatusPending, nil
	}
	return ParseDecision(raw)
}

// ParseDecision нормализует статус решения из запроса ("approved" -> Approved).
// Для решения админа допустимы только терминальные статусы.
func ParseDecision(raw string) (ApprovalStatus, error) {
	switch {
	case strings.EqualFold(raw, string(StatusApproved)):
		return StatusApproved, nil
	case strings.EqualFold(raw, string(StatusRejected)):
		return StatusRejected, nil
	default:
		return "", ErrBadDecision
	}
}

type ApprovalRequest struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	RequesterID string         `json:"requester_id"` // Zitadel user ID автора
	Status      ApprovalStatus `json:"status"`

	RequestedAt time.Time  `json:"requested_at"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`

	ReviewerID    *string `json:"reviewer_id,omitempty"` // Zitadel user ID админа
	AdminComments *string `json:"admin_comments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanDecide проверяет правила конечного автомата:
// решение принимается ровно один раз и только из Pending.
func (a *ApprovalRequest) CanDecide() error {
	if a.Status != StatusPending {
		return ErrAlreadyDecided
	}
	return nil
}
