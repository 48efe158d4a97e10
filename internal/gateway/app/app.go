package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"topicgrid/internal/export"
	"topicgrid/internal/gateway/config"
	"topicgrid/internal/gateway/handler"
	"topicgrid/internal/gateway/middleware"
	"topicgrid/internal/gateway/server"
	"topicgrid/internal/gateway/session"
	"topicgrid/internal/llm"
	llmclient "topicgrid/internal/llm/client"
	"topicgrid/internal/pipeline"
)

type App struct {
	server   *server.Server
	registry *llmclient.Registry
	stores   *gatewayStores
	logger   *zap.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Dependencies
	registry, err := BuildRegistry(ctx, cfg.LLM, llm.NewMetrics(promReg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build llm providers: %w", err)
	}
	stores, err := initStores(ctx, cfg, logger)
	if err != nil {
		_ = registry.Close()
		return nil, err
	}
	members, err := initMembership(cfg, stores.profiles, logger)
	if err != nil {
		_ = registry.Close()
		_ = stores.Close()
		return nil, err
	}

	completer := llm.NewCompleter(registry, logger)
	h := handler.New(handler.Deps{
		Generator: pipeline.New(completer, logger),
		Settings:  stores.settings,
		Exporter:  export.NewExporter(stores.exports),
		Sessions:  session.NewStore(session.DefaultMaxSize, session.DefaultTTL),
		Gate:      members.gate,
		Admin:     members.admin,
		Proxy:     handler.NewProxy(cfg.LLM.Timeout, logger, proxyTargets(cfg.LLM)...),
		Providers: completer.Providers(),
		Logger:    logger,
	})

	// Routing & Server
	opts := server.RouteOptions{
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     middleware.NewHTTPMetrics(promReg),
		Gatherer:    promReg,
		Logger:      logger,
	}
	// A nil *Gate inside the interface would not read as "no gate".
	if members.gate != nil {
		opts.Gate = members.gate
	}
	mux := server.NewMux(h, opts)

	return &App{
		server:   server.New(cfg.Port, mux, logger),
		registry: registry,
		stores:   stores,
		logger:   logger,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return errors.Join(
		a.server.Shutdown(ctx),
		a.registry.Close(),
		a.stores.Close(),
	)
}
