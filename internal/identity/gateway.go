package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xela07ax/approval-desk/internal/domain"
	"github.com/xela07ax/approval-desk/internal/infra"
	"go.uber.org/zap"
)

// Классификация отказов Management API. Для вызывающего все классы
// эквивалентны (заглушка), различаются только в логах и метриках.
var (
	ErrUserNotFound     = errors.New("identity provider: user not found")
	ErrPermissionDenied = errors.New("identity provider: permission denied")
)

// Provider описывает, что шлюзу нужно от провайдера идентичности
type Provider interface {
	LookupUser(ctx context.Context, userID string) (domain.UserInfo, error)
}

// Gateway разворачивает Zitadel ID в отображаемую личность, пряча
// латентность и отказы провайдера за кэшем и безопасной заглушкой.
type Gateway struct {
	cache    Cache
	provider Provider
	ttl      time.Duration
	logger   *zap.Logger
	metrics  *infra.Metrics
}

func NewGateway(cache Cache, provider Provider, ttl time.Duration, metrics *infra.Metrics, logger *zap.Logger) *Gateway {
	if metrics == nil {
		metrics = infra.NewMetrics(nil)
	}
	return &Gateway{
		cache:    cache,
		provider: provider,
		ttl:      ttl,
		logger:   logger.Named("identity-gateway"),
		metrics:  metrics,
	}
}

// Resolve — тотальная функция: любой исход дает валидную запись.
// Отказ провайдера НЕ кэшируется, иначе временный сбой отравил бы
// кэш на весь TTL и повторный запрос не увидел бы восстановления.
func (g *Gateway) Resolve(ctx context.Context, userID string) domain.UserInfo {
	if info, ok := g.cache.Get(ctx, userID); ok {
		g.metrics.IdentityCacheHits.Inc()
		return info
	}
	g.metrics.IdentityCacheMisses.Inc()

	info, err := g.provider.LookupUser(ctx, userID)
	if err != nil {
		g.metrics.IdentityLookupErrors.WithLabelValues(classifyLookupError(err)).Inc()
		g.logger.Warn("identity resolution degraded, serving placeholder",
			zap.String("user_id", userID),
			zap.Error(err))
		return domain.UnknownUser(userID)
	}

	// Конкурентные писатели одного ключа возможны: записи — иммутабельные
	// снапшоты со своим TTL, последний победивший ничем не хуже
	g.cache.Set(ctx, info, g.ttl)
	return info
}

// ResolveBatch разворачивает набор ID конкурентно и возвращает запись
// для КАЖДОГО входного ID — медленный или упавший lookup не сериализует
// остальных и не роняет пакет.
func (g *Gateway) ResolveBatch(ctx context.Context, userIDs []string) map[string]domain.UserInfo {
	// Дедупликация: в одной странице выборки ID повторяются постоянно
	unique := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id != "" {
			unique[id] = struct{}{}
		}
	}

	results := make(map[string]domain.UserInfo, len(unique))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for id := range unique {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			info := g.Resolve(ctx, userID)

			mu.Lock()
			results[userID] = info
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	return results
}

func classifyLookupError(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return "not_found"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	default:
		return "transport"
	}
}
