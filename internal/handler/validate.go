package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xela07ax/approval-desk/internal/domain"
)

// Пределы полей совпадают с ограничениями схемы БД
const (
	maxTitleLen       = 200
	maxDescriptionLen = 2000
	maxCommentsLen    = 1000
	maxPageSize       = 100
)

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (r *createRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)

	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(r.Title) > maxTitleLen {
		return fmt.Errorf("title must not exceed %d characters", maxTitleLen)
	}
	if r.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(r.Description) > maxDescriptionLen {
		return fmt.Errorf("description must not exceed %d characters", maxDescriptionLen)
	}
	return nil
}

type decisionRequest struct {
	AdminComments string `json:"adminComments"`
}

func (r *decisionRequest) Validate() error {
	if len(r.AdminComments) > maxCommentsLen {
		return fmt.Errorf("adminComments must not exceed %d characters", maxCommentsLen)
	}
	return nil
}

type reviewRequest struct {
	Status        string `json:"status"` // "Approved" или "Rejected"
	AdminComments string `json:"adminComments"`
}

func (r *reviewRequest) Validate() error {
	if _, err := domain.ParseDecision(r.Status); err != nil {
		return err
	}
	if len(r.AdminComments) > maxCommentsLen {
		return fmt.Errorf("adminComments must not exceed %d characters", maxCommentsLen)
	}
	return nil
}

// parseSearchFilter разбирает query-параметры выборки.
// Неизвестный статус — ошибка клиента, а не молчаливый пропуск фильтра.
func parseSearchFilter(query map[string][]string) (domain.SearchFilter, error) {
	get := func(key string) string {
		if vals := query[key]; len(vals) > 0 {
			return strings.TrimSpace(vals[0])
		}
		return ""
	}

	filter := domain.SearchFilter{
		RequesterID: get("requesterId"),
		Search:      get("search"),
		Page:        1,
		PageSize:    10,
	}

	if raw := get("status"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return filter, fmt.Errorf("unknown status %q", raw)
		}
		filter.Status = status
	}

	if raw := get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return filter, fmt.Errorf("page must be a positive integer")
		}
		filter.Page = page
	}

	if raw := get("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > maxPageSize {
			return filter, fmt.Errorf("pageSize must be between 1 and %d", maxPageSize)
		}
		filter.PageSize = size
	}

	return filter, nil
}
