package auth

import (
	"context"
	"net/http"

	"github.com/xela07ax/approval-desk/internal/domain"
	"go.uber.org/zap"
)

// TokenValidator — контракт проверки токенов для middleware
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.Caller, error)
}

// Тип для ключа в контексте (избегаем коллизий)
type ctxKey string

const callerKey ctxKey = "caller"

// NewMiddleware проверяет Authorization и кладет Caller в контекст запроса.
func NewMiddleware(v TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			caller, err := v.VerifyToken(authHeader)
			if err != nil {
				logger.Warn("auth failure", zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, *caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin пускает дальше только вызывающих с ролью Admin.
// Вешается поверх NewMiddleware на административные роуты.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok || !caller.IsAdmin() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CallerFromContext безопасно достает Caller в любом месте кода.
func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(domain.Caller)
	return caller, ok
}

// ContextWithCaller нужен хэндлерным тестам, чтобы не собирать JWT руками.
func ContextWithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}
