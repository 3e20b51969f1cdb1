package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/approval-desk/internal/handler"
	"github.com/xela07ax/approval-desk/internal/infra"
	"github.com/xela07ax/approval-desk/internal/infra/auth"
	"go.uber.org/zap"
)

type Server struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	// Проверка входящих JWT (RS256 от Zitadel)
	authValidator auth.TokenValidator

	approvalHandler *handler.ApprovalHandler // /api/approval-requests
	metrics         *infra.Metrics
}

// NewServer инициализирует HTTP-периметр со всеми зависимостями
func NewServer(
	cfg *infra.Config,
	logger *zap.Logger,
	validator auth.TokenValidator,
	approvalH *handler.ApprovalHandler,
	metrics *infra.Metrics,
) *Server {
	s := &Server{
		router:          chi.NewRouter(),
		logger:          logger.Named("approval-api"),
		cfg:             cfg,
		authValidator:   validator,
		approvalHandler: approvalH,
		metrics:         metrics,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.metricsMiddleware)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		// Healthcheck для мониторинга
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (требуется токен Zitadel) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.authValidator, s.logger))

		r.Route("/api/approval-requests", func(r chi.Router) {
			// Пользовательские операции
			r.Post("/", s.approvalHandler.Create)
			r.Get("/my-requests", s.approvalHandler.GetMyRequests)
			r.Get("/{id}", s.approvalHandler.GetByID) // видимость: автор или админ

			// Административные операции
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)

				r.Get("/", s.approvalHandler.GetAll)
				r.Patch("/{id}/review", s.approvalHandler.Review)
				r.Post("/{id}/approve", s.approvalHandler.Approve)
				r.Post("/{id}/reject", s.approvalHandler.Reject)
			})
		})
	})
}

// metricsMiddleware пишет латентность запроса по шаблону роута,
// а не по сырому URL — иначе кардинальность меток взорвется на {id}.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
