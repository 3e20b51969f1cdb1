package postgres

/*
Файл approval_repo.go — хранилище заявок на согласование (Request Store).
*/

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xela07ax/approval-desk/internal/domain"
	"github.com/xela07ax/approval-desk/internal/infra"
)

const approvalColumns = `id, title, description, requester_id, status,
	requested_at, reviewed_at, reviewer_id, admin_comments, created_at, updated_at`

type ApprovalRepo struct {
	pool *pgxpool.Pool
}

// NewApprovalRepo создает пул соединений по конфигу.
// Соединение проверяется в main через Ping.
func NewApprovalRepo(ctx context.Context, cfg infra.DatabaseConfig) (*ApprovalRepo, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid connection string: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}
	return &ApprovalRepo{pool: pool}, nil
}

// Ping проверяет доступность базы при старте
func (r *ApprovalRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *ApprovalRepo) Close() {
	r.pool.Close()
}

// Create сохраняет новую заявку. Аудитные created_at/updated_at
// проставляет база, скан возвращает их в агрегат.
func (r *ApprovalRepo) Create(ctx context.Context, req *domain.ApprovalRequest) error {
	query := `INSERT INTO approval_requests
		(id, title, description, requester_id, status, requested_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		req.ID, req.Title, req.Description, req.RequesterID, req.Status, req.RequestedAt,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to create approval request: %w", err)
	}
	return nil
}

// GetByID получение одной заявки. Отсутствие строки — бизнес-исход
// domain.ErrNotFound, а не инфраструктурная ошибка.
func (r *ApprovalRepo) GetByID(ctx context.Context, id string) (*domain.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE id = $1`

	req, err := scanApproval(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: failed to get approval request: %w", err)
	}
	return req, nil
}

// GetPaged фильтрация и постраничная выборка, новые заявки первыми.
// Возвращает общее количество подходящих строк для пагинации на клиенте.
func (r *ApprovalRepo) GetPaged(ctx context.Context, filter domain.SearchFilter) ([]*domain.ApprovalRequest, int, error) {
	filter.Normalize()

	// Динамически собираем условия; нумерация placeholder-ов сквозная
	var conds []string
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		conds = append(conds, fmt.Sprintf("requester_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM approval_requests" + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to count approval requests: %w", err)
	}

	args = append(args, filter.PageSize, filter.Offset())
	pageQuery := fmt.Sprintf(
		"SELECT "+approvalColumns+" FROM approval_requests%s ORDER BY requested_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to query approval requests: %w", err)
	}
	defer rows.Close()

	// Инициализируем пустой слайс, чтобы в JSON был [] вместо null
	results := make([]*domain.ApprovalRequest, 0)
	for rows.Next() {
		req, err := scanApproval(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan approval request: %w", err)
		}
		results = append(results, req)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres: rows iteration error: %w", err)
	}

	return results, total, nil
}

// UpdateDecision атомарно фиксирует решение по заявке.
// Условие WHERE status = 'Pending' исключает Double Decision: из двух
// конкурентных решений по одному id побеждает ровно одно, проигравшее
// не находит строку и получает ErrAlreadyDecided.
func (r *ApprovalRepo) UpdateDecision(ctx context.Context, id string, status domain.ApprovalStatus, reviewerID, comments string) (*domain.ApprovalRequest, error) {
	query := `
		UPDATE approval_requests
		SET status = $1,
		    reviewer_id = $2,
		    admin_comments = NULLIF($3, ''),
		    reviewed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $4 AND status = 'Pending'
		RETURNING ` + approvalColumns

	req, err := scanApproval(r.pool.QueryRow(ctx, query, status, reviewerID, comments, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Строк нет — решение по заявке уже принято (существование id
			// сервис проверяет до вызова)
			return nil, domain.ErrAlreadyDecided
		}
		return nil, fmt.Errorf("postgres: failed to update approval decision: %w", err)
	}
	return req, nil
}

// scanApproval маппит строку выборки в агрегат, разворачивая NULL-колонки.
func scanApproval(row pgx.Row) (*domain.ApprovalRequest, error) {
	var req domain.ApprovalRequest
	var reviewedAt sql.NullTime
	var reviewerID, comments sql.NullString

	err := row.Scan(
		&req.ID,
		&req.Title,
		&req.Description,
		&req.RequesterID,
		&req.Status,
		&req.RequestedAt,
		&reviewedAt,
		&reviewerID,
		&comments,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if reviewedAt.Valid {
		val := reviewedAt.Time
		req.ReviewedAt = &val
	}
	if reviewerID.Valid {
		val := reviewerID.String
		req.ReviewerID = &val
	}
	if comments.Valid {
		val := comments.String
		req.AdminComments = &val
	}

	return &req, nil
}
