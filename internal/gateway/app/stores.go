package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"topicgrid/internal/export"
	"topicgrid/internal/gateway/config"
	"topicgrid/internal/membership"
	"topicgrid/internal/settings"
)

type gatewayStores struct {
	db       *sql.DB
	settings settings.Store
	exports  export.Store
	profiles membership.ProfileStore
	closers  []func() error
}

func (s *gatewayStores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

func initStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gatewayStores, error) {
	stores := &gatewayStores{}

	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		db, err := openPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		stores.db = db
		stores.closers = append(stores.closers, db.Close)
		logger.Info("postgres connected")
	}

	st, err := initSettingsStore(cfg, logger)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	stores.settings = st
	if rs, ok := st.(*settings.RedisStore); ok {
		stores.closers = append(stores.closers, rs.Close)
	}

	exports, err := chooseExportStore(ctx, cfg, stores.db, logger)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	stores.exports = exports

	if stores.db != nil {
		profiles := membership.NewPostgresProfileStore(stores.db)
		if err := withSchemaTimeout(ctx, profiles.EnsureSchema); err != nil {
			_ = stores.Close()
			return nil, err
		}
		stores.profiles = profiles
	} else {
		stores.profiles = membership.NewMemoryProfileStore()
		if cfg.Supabase.Enabled() {
			logger.Warn("profile store: in-memory (DATABASE_URL not set); members are lost on restart")
		}
	}
	return stores, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach db: %w", err)
	}
	return db, nil
}

// withSchemaTimeout runs a store's schema step once at boot so the first
// request never pays for it.
func withSchemaTimeout(ctx context.Context, ensure func(context.Context) error) error {
	schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return ensure(schemaCtx)
}

// initSettingsStore prefers Redis, then a JSON file, then memory.
func initSettingsStore(cfg *config.Config, logger *zap.Logger) (settings.Store, error) {
	switch {
	case cfg.Redis.Addr != "":
		rs, err := settings.NewRedisStore(settings.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize settings redis store: %w", err)
		}
		logger.Info("settings store: redis", zap.String("addr", cfg.Redis.Addr))
		return rs, nil
	case cfg.SettingsFile != "":
		logger.Info("settings store: file", zap.String("path", cfg.SettingsFile))
		return settings.NewFileStore(cfg.SettingsFile), nil
	default:
		logger.Info("settings store: in-memory")
		return settings.NewMemoryStore(), nil
	}
}

// chooseExportStore picks S3 when fully configured, else Postgres, else
// memory, and puts the read cache in front of whichever it picked.
func chooseExportStore(ctx context.Context, cfg *config.Config, db *sql.DB, logger *zap.Logger) (export.Store, error) {
	var (
		origin export.Store
		label  string
	)
	switch {
	case cfg.Export.CanUseS3():
		s3Store, err := export.NewS3Store(export.S3Config{
			Endpoint:  cfg.Export.Endpoint,
			Region:    cfg.Export.Region,
			AccessKey: cfg.Export.AccessKey,
			SecretKey: cfg.Export.SecretKey,
			Bucket:    cfg.Export.Bucket,
			UseSSL:    cfg.Export.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize export s3 store: %w", err)
		}
		origin, label = s3Store, "s3"
	case db != nil:
		pg := export.NewPostgresStore(db)
		if err := withSchemaTimeout(ctx, pg.EnsureSchema); err != nil {
			return nil, err
		}
		origin, label = pg, "postgres"
	default:
		origin, label = export.NewMemoryStore(), "in-memory"
	}
	logger.Info("export store", zap.String("backend", label), zap.String("bucket", cfg.Export.Bucket))
	return export.NewCachedStore(origin, export.DefaultCacheConfig()), nil
}

type membershipServices struct {
	gate  *membership.Gate
	admin *membership.Admin
}

// initMembership builds the gate from whichever verifier is configured: a
// local HS256 check when SUPABASE_JWT_SECRET is set, otherwise a round trip
// to the Supabase auth server. The admin console needs the service role key.
func initMembership(cfg *config.Config, profiles membership.ProfileStore, logger *zap.Logger) (*membershipServices, error) {
	var (
		supa     *membership.SupabaseAuth
		verifier membership.TokenVerifier
	)
	if cfg.Supabase.Enabled() {
		s, err := membership.NewSupabaseAuth(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize supabase auth: %w", err)
		}
		supa, verifier = s, s
	}
	if secret := cfg.Supabase.JWTSecret; secret != "" {
		v, err := membership.NewJWTVerifier(secret, "authenticated")
		if err != nil {
			return nil, err
		}
		verifier = v
	}
	if verifier == nil {
		if cfg.AuthRequired {
			return nil, errors.New("AUTH_REQUIRED is set but neither SUPABASE_URL/SUPABASE_SERVICE_ROLE_KEY nor SUPABASE_JWT_SECRET is configured")
		}
		logger.Warn("membership gate disabled; every route is open")
		return &membershipServices{}, nil
	}

	gate := membership.NewGate(verifier, profiles, membership.DefaultCacheTTL)
	svc := &membershipServices{gate: gate}
	if supa != nil {
		svc.admin = membership.NewAdmin(profiles, supa, cfg.PublicBaseURL, gate, logger)
	} else {
		logger.Warn("admin console disabled: SUPABASE_SERVICE_ROLE_KEY not set")
	}
	return svc, nil
}
