package domain

import "time"

// ApprovalRequestView — обогащенное представление заявки для клиента:
// вместо сырых Zitadel ID — развернутые личности автора и ревьюера.
// Формат полей — контракт внешнего API, менять без версии нельзя.
type ApprovalRequestView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Requester   UserInfo       `json:"requester"`
	Status      ApprovalStatus `json:"status"`
	RequestedAt time.Time      `json:"requestedAt"`
	ReviewedAt  *time.Time     `json:"reviewedAt,omitempty"`
	Reviewer    *UserInfo      `json:"reviewer,omitempty"`

	AdminComments *string `json:"adminComments,omitempty"`
}

// ApprovalRequestList — страница выборки вместе с общим количеством,
// чтобы клиент мог построить пагинацию.
type ApprovalRequestList struct {
	Items      []ApprovalRequestView `json:"items"`
	TotalCount int                   `json:"totalCount"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
}
