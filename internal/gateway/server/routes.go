package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"topicgrid/internal/gateway/handler"
	"topicgrid/internal/gateway/middleware"
	llmclient "topicgrid/internal/llm/client"
)

type RouteOptions struct {
	// Gate guards member routes; nil leaves them open.
	Gate        middleware.Authorizer
	CORSOrigins []string
	Metrics     *middleware.HTTPMetrics
	Gatherer    prometheus.Gatherer
	Logger      *zap.Logger
}

func NewMux(h *handler.Handler, opts RouteOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(chimiddleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Handler)
	}
	r.Use(middleware.CORS(opts.CORSOrigins))
	r.Use(middleware.ForwardBearer)

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"error":"Method Not Allowed"}`))
	})

	r.Get("/healthz", h.Health)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	// Auth and admin routes check the token themselves: admins need not hold
	// an active membership.
	r.HandleFunc("/api/auth/me", h.Me)
	r.Route("/api/admin", func(r chi.Router) {
		r.HandleFunc("/users", h.AdminUsers)
		r.HandleFunc("/create-user", h.AdminCreateUser)
		r.HandleFunc("/update-user", h.AdminUpdateUser)
		r.HandleFunc("/revoke", h.AdminRevoke)
		r.HandleFunc("/resend-magic-link", h.AdminResendMagicLink)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireMember(opts.Gate, opts.Logger))

		r.HandleFunc("/api/openai", h.ProxyTo(llmclient.OpenAI))
		r.HandleFunc("/api/deepseek", h.ProxyTo(llmclient.DeepSeek))
		r.HandleFunc("/api/responses", h.ProxyResponses())

		r.Post("/api/keywords", h.Keywords)
		r.Post("/api/topics", h.Topics)
		r.Post("/api/classify", h.Classify)
		r.Post("/api/content-plan", h.ContentPlan)
		r.Post("/api/ninegrid/keywords", h.NineGridKeywords)
		r.Post("/api/ninegrid/topics", h.NineGridTopics)

		r.Post("/api/export", h.Export)
		r.Get("/api/exports/{id}", h.Download)

		r.Get("/api/settings", h.GetSettings)
		r.Put("/api/settings", h.PutSettings)

		r.Route("/api/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.ResetSession)
				r.Post("/generate", h.GenerateSession)
				r.Post("/topics", h.SessionTopics)
				r.Post("/dimensions/{dim}/generate", h.GenerateDimension)
				r.Post("/dimensions/{dim}/lock", h.LockDimension)
				r.Post("/keywords/{kid}/select", h.ToggleKeyword("select"))
				r.Post("/keywords/{kid}/lock", h.ToggleKeyword("lock"))
			})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.TokenQuery)
		r.Use(middleware.RequireMember(opts.Gate, opts.Logger))
		r.Get("/ws/generate", h.GenerateWS)
	})

	return r
}
