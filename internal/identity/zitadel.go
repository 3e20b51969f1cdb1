package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/approval-desk/internal/domain"
	"github.com/xela07ax/approval-desk/internal/infra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ZitadelClient ходит в Management API Zitadel под сервисным PAT.
// Это доминирующий источник латентности и отказов на всех читающих
// путях, поэтому вызовы обернуты в Rate Limiter + Retry + Circuit Breaker.
type ZitadelClient struct {
	httpClient *http.Client
	authority  string
	orgID      string
	token      string

	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// throttleError переносит Retry-After из ответа 429 в расчет задержки ретрая.
type throttleError struct {
	retryAfter time.Duration
}

func (e *throttleError) Error() string {
	return fmt.Sprintf("identity provider throttled, retry after %s", e.retryAfter)
}

func NewZitadelClient(cfg infra.ZitadelConfig, idCfg infra.IdentityConfig, logger *zap.Logger) *ZitadelClient {
	// Настройка предохранителя
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "zitadel-management",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// not-found и permission-denied — это ответы провайдера, а не его
		// недоступность; предохранитель выбивают только транспортные отказы
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrUserNotFound) ||
				errors.Is(err, ErrPermissionDenied)
		},
	})

	return &ZitadelClient{
		httpClient: &http.Client{Timeout: idCfg.LookupTimeout},
		authority:  strings.TrimSuffix(cfg.Authority, "/"),
		orgID:      cfg.OrganizationID,
		token:      cfg.Token,
		limiter:    rate.NewLimiter(rate.Limit(idCfg.RateLimit), idCfg.RateBurst),
		cb:         cb,
		logger:     logger.Named("zitadel-client"),
	}
}

// LookupUser получает пользователя по ID через GET /management/v1/users/{id}.
func (c *ZitadelClient) LookupUser(ctx context.Context, userID string) (domain.UserInfo, error) {
	// 1. Rate Limiter: бережем квоту Management API
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.UserInfo{}, fmt.Errorf("rate limit wait: %w", err)
	}

	var result domain.UserInfo

	// 2. Circuit Breaker поверх ретраев
	_, err := c.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(3),
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// 429 с Retry-After — ждем сколько сказал провайдер
				var tErr *throttleError
				if errors.As(err, &tErr) {
					return tErr.retryAfter
				}
				// Остальное (сетевой лаг, 500-ка) — экспоненциальный бэкофф
				return retry.BackOffDelay(n, err, config)
			}),
		)

		var terminalErr error
		retryErr := r.Do(func() error {
			info, err := c.fetchUser(ctx, userID)
			if err != nil {
				// Ответ получен и классифицирован — ретраить нечего
				if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrPermissionDenied) {
					terminalErr = err
					return nil
				}
				return err
			}
			result = info
			return nil
		})
		if retryErr != nil {
			return nil, retryErr
		}
		return nil, terminalErr
	})
	if err != nil {
		return domain.UserInfo{}, err
	}

	return result, nil
}

// Формат ответа Management API (поля, которые нам нужны)
type zitadelUser struct {
	ID                 string `json:"id"`
	UserName           string `json:"userName"`
	PreferredLoginName string `json:"preferredLoginName"`
	Human              *struct {
		Profile struct {
			FirstName   string `json:"firstName"`
			LastName    string `json:"lastName"`
			DisplayName string `json:"displayName"`
		} `json:"profile"`
		Email struct {
			Email string `json:"email"`
		} `json:"email"`
	} `json:"human"`
	Machine *struct {
		Name string `json:"name"`
	} `json:"machine"`
}

func (c *ZitadelClient) fetchUser(ctx context.Context, userID string) (domain.UserInfo, error) {
	url := fmt.Sprintf("%s/management/v1/users/%s", c.authority, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.UserInfo{}, fmt.Errorf("zitadel: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if c.orgID != "" {
		// Орг-контекст сервисного аккаунта
		req.Header.Set("x-zitadel-orgid", c.orgID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.UserInfo{}, fmt.Errorf("zitadel: transport error: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.UserInfo{}, ErrUserNotFound
	case resp.StatusCode == http.StatusForbidden:
		// Сервисному аккаунту нужен ORG_OWNER_VIEWER или выше
		return domain.UserInfo{}, ErrPermissionDenied
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.UserInfo{}, &throttleError{retryAfter: parseRetryAfter(resp)}
	case resp.StatusCode != http.StatusOK:
		return domain.UserInfo{}, fmt.Errorf("zitadel: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.UserInfo{}, fmt.Errorf("zitadel: read body: %w", err)
	}

	var envelope struct {
		User *zitadelUser `json:"user"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return domain.UserInfo{}, fmt.Errorf("zitadel: malformed response: %w", err)
	}
	if envelope.User == nil {
		return domain.UserInfo{}, ErrUserNotFound
	}

	return extractUserInfo(envelope.User), nil
}

// extractUserInfo выбирает отображаемое имя и email.
// Приоритет имени: DisplayName -> "First Last" -> UserName.
// Машинные аккаунты получают имя сервиса и синтетический адрес.
func extractUserInfo(user *zitadelUser) domain.UserInfo {
	info := domain.UserInfo{UserID: user.ID}

	switch {
	case user.Human != nil:
		profile := user.Human.Profile
		switch {
		case strings.TrimSpace(profile.DisplayName) != "":
			info.Name = profile.DisplayName
		case strings.TrimSpace(profile.FirstName) != "" || strings.TrimSpace(profile.LastName) != "":
			info.Name = strings.TrimSpace(profile.FirstName + " " + profile.LastName)
		case user.UserName != "":
			info.Name = user.UserName
		default:
			info.Name = "Unknown User"
		}

		switch {
		case user.Human.Email.Email != "":
			info.Email = user.Human.Email.Email
		case user.PreferredLoginName != "":
			info.Email = user.PreferredLoginName
		default:
			info.Email = "no-email@example.com"
		}

	case user.Machine != nil:
		name := user.Machine.Name
		if name == "" {
			info.Name = "Service Account"
			info.Email = "service@machine-account"
		} else {
			info.Name = name
			info.Email = name + "@machine-account"
		}

	default:
		if user.UserName != "" {
			info.Name = user.UserName
		} else {
			info.Name = "Unknown User"
		}
		if user.PreferredLoginName != "" {
			info.Email = user.PreferredLoginName
		} else {
			info.Email = user.UserName + "@example.com"
		}
	}

	return info
}

func parseRetryAfter(resp *http.Response) time.Duration {
	const fallback = 2 * time.Second
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
