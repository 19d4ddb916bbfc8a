package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/logging"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/metrics"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/usecase"
)

// Server wires the provider callback endpoints and the operator API onto one
// chi router. Provider routes are public (authenticated by the providers'
// own signature schemes); operator routes sit behind a JWT guard.
type Server struct {
	paymentUC usecase.PaymentUseCase
	planUC    *usecase.PlanUseCase
	engine    usecase.ReconcileUseCase
	payme     http.Handler
	click     http.Handler
	uzum      http.Handler
	auth      *AuthManager
	log       *zerolog.Logger
}

func NewServer(
	paymentUC usecase.PaymentUseCase,
	planUC *usecase.PlanUseCase,
	engine usecase.ReconcileUseCase,
	payme, click, uzum http.Handler,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		paymentUC: paymentUC,
		planUC:    planUC,
		engine:    engine,
		payme:     payme,
		click:     click,
		uzum:      uzum,
		auth:      auth,
		log:       logger,
	}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/callback", func(r chi.Router) {
		r.Method(http.MethodPost, "/payme", timed("payme", s.payme))
		r.Method(http.MethodPost, "/click", timed("click", s.click))
		r.Method(http.MethodPost, "/uzum", timed("uzum", s.uzum))
	})

	r.Post("/api/v1/login", s.loginHandler())
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Post("/checkout", s.checkoutHandler())
		r.Get("/payments", s.paymentsListHandler())
		r.Post("/payments/{id}/replay-activation", s.replayActivationHandler())
		r.Get("/plans", s.plansListHandler())
		r.Post("/plans", s.planCreateHandler())
	})

	return r
}

// timed stamps the provider and request id into the context for log
// correlation and records per-provider callback latency.
func timed(provider string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithProvider(r.Context(), provider)
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = logging.WithTraceID(ctx, reqID)
		}
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		metrics.ObserveCallback(provider, time.Since(start).Seconds())
	})
}
