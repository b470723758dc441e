package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/gestaozabele/identidade/internal/citizen"
	"github.com/gestaozabele/identidade/internal/config"
	"github.com/gestaozabele/identidade/internal/gdx"
	httpmiddleware "github.com/gestaozabele/identidade/internal/http/middleware"
	"github.com/gestaozabele/identidade/internal/metrics"
	"github.com/gestaozabele/identidade/internal/support"
)

// Notifier repassa notificações push pelo broker.
type Notifier interface {
	Notify(ctx context.Context, appID, userID, message string) error
}

// Handler agrega as dependências dos endpoints do gateway.
type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	citizens      *citizen.Service
	notifier      Notifier
	traces        *support.TraceStore
	metrics       *metrics.Metrics
	publicLimiter *httpmiddleware.RateLimiter
}

// NewRouter devolve o roteador configurado.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, citizens *citizen.Service, notifier Notifier, traces *support.TraceStore, m *metrics.Metrics) http.Handler {
	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		citizens:      citizens,
		notifier:      notifier,
		traces:        traces,
		metrics:       m,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", h.Login)
			auth.Post("/register", h.Register)
		})
		public.Get("/profile", h.ProfileLookup)
		public.Post("/notify/send", h.Notify)
	})

	r.Get("/support/trace/{traceID}", h.SupportTrace)

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.pool.Ping(ctx)
	redisErr := h.redis.Ping(ctx).Err()

	if dbErr != nil || redisErr != nil {
		WriteStatusError(w, http.StatusServiceUnavailable, "dependências indisponíveis")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// SupportTrace devolve o trace de um login para diagnóstico do suporte.
func (h *Handler) SupportTrace(w http.ResponseWriter, r *http.Request) {
	traceID := chi.URLParam(r, "traceID")

	raw, err := h.traces.Get(r.Context(), traceID)
	if err != nil {
		if errors.Is(err, support.ErrTraceNotFound) {
			WriteJSON(w, http.StatusNotFound, map[string]string{"status": "not_found"})
			return
		}
		WriteStatusError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"status": "success", "data": raw})
}

// statusForError mapeia a taxonomia de erros para códigos HTTP.
// Validação → 400; falha de push → 502; token, perfil e persistência → 500.
func statusForError(err error) int {
	var validationErr *citizen.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	var upstreamErr *gdx.UpstreamError
	if errors.As(err, &upstreamErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
