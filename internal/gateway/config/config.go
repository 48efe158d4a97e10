package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	ModeDirect = "direct"
	ModeProxy  = "proxy"
)

type Config struct {
	Port          string
	Env           string
	AuthRequired  bool
	PublicBaseURL string
	CORSOrigins   []string
	DatabaseURL   string
	SettingsFile  string

	LLM      LLMConfig
	Supabase SupabaseConfig
	Redis    RedisConfig
	Export   ExportConfig
}

type LLMConfig struct {
	Mode     string
	ProxyURL string
	Timeout  time.Duration
	RPS      float64
	Burst    int

	OpenAIKey       string
	OpenAIModel     string
	OpenAIBaseURL   string
	DeepSeekKey     string
	DeepSeekModel   string
	DeepSeekBaseURL string
	GeminiKey       string
	GeminiModel     string
	GeminiBaseURL   string
}

type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
	JWTSecret      string
}

func (c SupabaseConfig) Enabled() bool {
	return c.URL != "" && c.ServiceRoleKey != ""
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ExportConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// CanUseS3 reports whether every field the minio client needs is set.
func (c ExportConfig) CanUseS3() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

func (c *Config) IsLocal() bool {
	return strings.EqualFold(c.Env, "local")
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	cfg := FromEnv(os.Getenv)
	if cfg.Port == "" {
		cfg.Port = *port
	}
	return cfg, nil
}

// FromEnv builds the configuration from getenv. Port is left empty unless
// PORT is set.
func FromEnv(getenv func(string) string) *Config {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	env := firstNonEmpty(get("APP_ENV"), "local")
	local := strings.EqualFold(env, "local")

	port := get("PORT")
	if port != "" && !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	defaultMode := ModeProxy
	if local {
		defaultMode = ModeDirect
	}

	return &Config{
		Port:          port,
		Env:           env,
		AuthRequired:  parseBool(get("AUTH_REQUIRED"), !local),
		PublicBaseURL: strings.TrimRight(get("PUBLIC_BASE_URL"), "/"),
		CORSOrigins:   splitList(firstNonEmpty(get("CORS_ORIGINS"), "*")),
		DatabaseURL:   get("DATABASE_URL"),
		SettingsFile:  get("SETTINGS_FILE"),
		LLM: LLMConfig{
			Mode:            strings.ToLower(firstNonEmpty(get("LLM_MODE"), defaultMode)),
			ProxyURL:        get("LLM_PROXY_URL"),
			Timeout:         parseDuration(get("LLM_TIMEOUT"), 60*time.Second),
			RPS:             parseFloat(get("LLM_RPS"), 0),
			Burst:           parseInt(get("LLM_BURST"), 1),
			OpenAIKey:       firstNonEmpty(get("OPENAI_API_KEY"), get("VITE_OPENAI_API_KEY")),
			OpenAIModel:     firstNonEmpty(get("OPENAI_MODEL"), get("VITE_OPENAI_MODEL")),
			OpenAIBaseURL:   get("OPENAI_BASE_URL"),
			DeepSeekKey:     firstNonEmpty(get("DEEPSEEK_API_KEY"), get("VITE_DEEPSEEK_API_KEY")),
			DeepSeekModel:   get("DEEPSEEK_MODEL"),
			DeepSeekBaseURL: get("DEEPSEEK_BASE_URL"),
			GeminiKey:       get("GEMINI_API_KEY"),
			GeminiModel:     get("GEMINI_MODEL"),
			GeminiBaseURL:   get("GEMINI_BASE_URL"),
		},
		Supabase: SupabaseConfig{
			URL:            get("SUPABASE_URL"),
			ServiceRoleKey: get("SUPABASE_SERVICE_ROLE_KEY"),
			JWTSecret:      get("SUPABASE_JWT_SECRET"),
		},
		Redis: RedisConfig{
			Addr:     get("REDIS_ADDR"),
			Password: get("REDIS_PASSWORD"),
			DB:       parseInt(get("REDIS_DB"), 0),
		},
		Export: loadExportConfig(get, local),
	}
}

func loadExportConfig(get func(string) string, local bool) ExportConfig {
	cfg := ExportConfig{
		Endpoint:  get("EXPORT_S3_ENDPOINT"),
		Region:    firstNonEmpty(get("EXPORT_S3_REGION"), "us-east-1"),
		AccessKey: firstNonEmpty(get("EXPORT_S3_ACCESS_KEY"), get("MINIO_ROOT_USER")),
		SecretKey: firstNonEmpty(get("EXPORT_S3_SECRET_KEY"), get("MINIO_ROOT_PASSWORD")),
		Bucket:    firstNonEmpty(get("EXPORT_S3_BUCKET"), "topicgrid-exports"),
		UseSSL:    parseBool(get("EXPORT_S3_USE_SSL"), true),
	}
	if local {
		cfg.Endpoint = firstNonEmpty(get("EXPORT_MINIO_ENDPOINT"), cfg.Endpoint)
		cfg.UseSSL = false
	}
	return cfg
}

// NewLogger returns a development logger locally and a JSON production
// logger everywhere else.
func NewLogger(env string) (*zap.Logger, error) {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func parseBool(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func parseFloat(raw string, def float64) float64 {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func parseDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	// Bare numbers are seconds.
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
