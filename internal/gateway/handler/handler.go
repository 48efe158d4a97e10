// Package handler serves the gateway's JSON API: the provider proxy, the
// stateless pipeline endpoints, grid sessions and the membership console.
package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"topicgrid/internal/export"
	"topicgrid/internal/gateway/middleware"
	"topicgrid/internal/gateway/session"
	llmclient "topicgrid/internal/llm/client"
	"topicgrid/internal/membership"
	"topicgrid/internal/pipeline"
	"topicgrid/internal/settings"
)

// Deps are the services the handlers call into. Gate and Admin are nil when
// Supabase is not configured.
type Deps struct {
	Generator *pipeline.Generator
	Settings  settings.Store
	Exporter  *export.Exporter
	Sessions  *session.Store
	Gate      *membership.Gate
	Admin     *membership.Admin
	Proxy     *Proxy
	Providers []llmclient.Name
	Logger    *zap.Logger
}

type Handler struct {
	gen       *pipeline.Generator
	settings  settings.Store
	exporter  *export.Exporter
	sessions  *session.Store
	gate      *membership.Gate
	admin     *membership.Admin
	proxy     *Proxy
	providers []llmclient.Name
	logger    *zap.Logger
}

func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Sessions == nil {
		d.Sessions = session.NewStore(0, 0)
	}
	if d.Exporter == nil {
		d.Exporter = export.NewExporter(nil)
	}
	if d.Settings == nil {
		d.Settings = settings.NewMemoryStore()
	}
	return &Handler{
		gen:       d.Generator,
		settings:  d.Settings,
		exporter:  d.Exporter,
		sessions:  d.Sessions,
		gate:      d.Gate,
		admin:     d.Admin,
		proxy:     d.Proxy,
		providers: d.Providers,
		logger:    d.Logger,
	}
}

// owner is the user id the request acts for; empty without authentication.
func owner(ctx context.Context) string {
	if d, ok := middleware.DecisionFrom(ctx); ok {
		return d.User.ID
	}
	return ""
}

// loadSettings reads the caller's provider preference. A store failure is
// logged and the default is used; it never fails the request.
func (h *Handler) loadSettings(ctx context.Context) settings.Settings {
	s, err := settings.Load(ctx, h.settings, owner(ctx))
	if err != nil {
		h.logger.Warn("settings load failed, using default", zap.Error(err))
	}
	return s
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
