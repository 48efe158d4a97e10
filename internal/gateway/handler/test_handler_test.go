package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topicgrid/internal/gateway/handler"
	"topicgrid/internal/gateway/server"
	"topicgrid/internal/llm"
	llmclient "topicgrid/internal/llm/client"
	"topicgrid/internal/membership"
	"topicgrid/internal/pipeline"
	"topicgrid/internal/settings"
)

const jwtSecret = "test-secret"

type fakeLinks struct {
	created []string
	failNew bool
}

func (f *fakeLinks) MagicLink(_ context.Context, email, redirectTo string) (string, string, error) {
	if f.failNew {
		return "", "", errors.New("email exists")
	}
	f.created = append(f.created, email)
	return "uid-" + email, "https://auth.example/link?to=" + redirectTo, nil
}

func (f *fakeLinks) UpdateEmail(context.Context, string, string) error { return nil }
func (f *fakeLinks) SendSignIn(context.Context, string) error         { return nil }

type fixture struct {
	srv      *httptest.Server
	provider *llmclient.FakeProvider
	profiles *membership.MemoryProfileStore
	links    *fakeLinks
	settings settings.Store
}

type options struct {
	auth  bool
	reply func(llmclient.Request) (string, error)
	proxy *handler.Proxy
}

func newFixture(t *testing.T, o options) *fixture {
	t.Helper()
	fake := llmclient.NewFakeProvider(llmclient.OpenAI, o.reply)
	reg := llmclient.NewRegistry(fake, llmclient.NewFakeProvider(llmclient.DeepSeek, nil))
	completer := llm.NewCompleter(reg, nil)

	f := &fixture{
		provider: fake,
		profiles: membership.NewMemoryProfileStore(),
		links:    &fakeLinks{},
		settings: settings.NewMemoryStore(),
	}
	deps := handler.Deps{
		Generator: pipeline.New(completer, nil),
		Settings:  f.settings,
		Proxy:     o.proxy,
		Providers: completer.Providers(),
	}
	opts := server.RouteOptions{}
	if o.auth {
		v, err := membership.NewJWTVerifier(jwtSecret, "authenticated")
		require.NoError(t, err)
		gate := membership.NewGate(v, f.profiles, time.Minute)
		deps.Gate = gate
		deps.Admin = membership.NewAdmin(f.profiles, f.links, "https://app.example", gate, nil)
		opts.Gate = gate
	}
	f.srv = httptest.NewServer(server.NewMux(handler.New(deps), opts))
	t.Cleanup(f.srv.Close)
	return f
}

func token(t *testing.T, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
		"aud":   "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return s
}

func (f *fixture) addMember(t *testing.T, id string, role membership.Role, expires time.Time) {
	t.Helper()
	require.NoError(t, f.profiles.Upsert(context.Background(), membership.Profile{
		UserID:       id,
		Email:        id + "@example.com",
		Role:         role,
		ExpirationAt: &expires,
	}))
}

func (f *fixture) do(t *testing.T, method, path, tok string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	require.NoError(t, err)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func TestHealth(t *testing.T) {
	f := newFixture(t, options{})
	resp, body := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestKeywordsKeepLockedValues(t *testing.T) {
	f := newFixture(t, options{reply: func(llmclient.Request) (string, error) {
		return "咖啡豆,手冲,拿铁,磨豆机,意式,冷萃,烘焙,奶泡,挂耳", nil
	}})
	resp, body := f.do(t, http.MethodPost, "/api/keywords", "", map[string]any{
		"dimension": "domain",
		"topic":     "家庭咖啡",
		"locked":    []string{"咖啡机"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	kws := body["keywords"].([]any)
	require.Len(t, kws, 8)
	first := kws[0].(map[string]any)
	assert.Equal(t, "咖啡机", first["value"])
	assert.Equal(t, true, first["isLocked"])
}

func TestKeywordsValidation(t *testing.T) {
	f := newFixture(t, options{})
	resp, body := f.do(t, http.MethodPost, "/api/keywords", "", map[string]any{"topic": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_request", body["error"])
	assert.Contains(t, body["detail"], "dimension is required")
}

func TestTopicsCountAndClassify(t *testing.T) {
	f := newFixture(t, options{})
	resp, body := f.do(t, http.MethodPost, "/api/topics", "", map[string]any{
		"topic":    "home coffee",
		"selected": map[string][]string{"domain": {"espresso"}},
		"sets":     2,
		"classify": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 12, body["count"])
	assert.Len(t, body["topics"], 12)
	assert.Len(t, body["items"], 12)
}

func TestTopicsWithoutSelection(t *testing.T) {
	f := newFixture(t, options{})
	resp, body := f.do(t, http.MethodPost, "/api/topics", "", map[string]any{
		"selected": map[string][]string{},
		"sets":     1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_request", body["error"])
}

func TestUpstreamFailureMapsToBadGateway(t *testing.T) {
	f := newFixture(t, options{reply: func(llmclient.Request) (string, error) {
		return "", &llmclient.UpstreamError{Provider: llmclient.OpenAI, Status: 500, Body: "boom"}
	}})
	resp, body := f.do(t, http.MethodPost, "/api/content-plan", "", map[string]any{"topic": "x"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "upstream_error", body["error"])
	assert.Equal(t, "boom", body["body"])
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t, options{})

	resp, body := f.do(t, http.MethodPost, "/api/sessions", "", map[string]any{"flow": "dwhy"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["id"].(string)

	resp, body = f.do(t, http.MethodPost, "/api/sessions/"+id+"/generate", "", map[string]any{"topic": "home coffee"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["results"], 3)

	state := body["state"].(map[string]any)
	dims := state["dimensions"].([]any)
	domain := dims[0].(map[string]any)
	kid := domain["keywords"].([]any)[0].(map[string]any)["id"].(string)

	resp, body = f.do(t, http.MethodPost, "/api/sessions/"+id+"/keywords/"+kid+"/select", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["isSelected"])

	resp, body = f.do(t, http.MethodPost, "/api/sessions/"+id+"/topics", "", map[string]any{"sets": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["topics"], 6)

	resp, _ = f.do(t, http.MethodDelete, "/api/sessions/"+id, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = f.do(t, http.MethodPost, "/api/sessions/"+id+"/topics", "", map[string]any{"sets": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, body)

	resp, _ = f.do(t, http.MethodGet, "/api/sessions/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSettingsRoundTrip(t *testing.T) {
	f := newFixture(t, options{})
	resp, body := f.do(t, http.MethodGet, "/api/settings", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "openai", body["provider"])

	resp, _ = f.do(t, http.MethodPut, "/api/settings", "", map[string]any{"provider": "deepseek"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, body = f.do(t, http.MethodGet, "/api/settings", "", nil)
	assert.Equal(t, "deepseek", body["provider"])

	resp, _ = f.do(t, http.MethodPut, "/api/settings", "", map[string]any{"provider": "claude"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestExportAndDownload(t *testing.T) {
	f := newFixture(t, options{})
	resp, body := f.do(t, http.MethodPost, "/api/export", "", map[string]any{
		"topic":  "coffee",
		"topics": []string{"one", "two"},
		"format": "csv",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	download := body["download"].(string)

	res, err := http.Get(f.srv.URL + download)
	require.NoError(t, err)
	defer res.Body.Close()
	raw, _ := io.ReadAll(res.Body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, res.Header.Get("Content-Disposition"), "attachment")
	assert.Contains(t, string(raw), "two")
}

func TestMemberGate(t *testing.T) {
	f := newFixture(t, options{auth: true})
	f.addMember(t, "active", membership.RoleMember, time.Now().Add(24*time.Hour))
	f.addMember(t, "lapsed", membership.RoleMember, time.Now().Add(-time.Hour))

	body := map[string]any{"dimension": "domain", "topic": "coffee"}

	resp, out := f.do(t, http.MethodPost, "/api/keywords", "", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", out["error"])

	resp, out = f.do(t, http.MethodPost, "/api/keywords", token(t, "lapsed"), body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "membership_inactive", out["error"])

	resp, _ = f.do(t, http.MethodPost, "/api/keywords", token(t, "active"), body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, out = f.do(t, http.MethodGet, "/api/auth/me", token(t, "lapsed"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "expired", out["status"])
}

func TestSettingsAreScopedPerUser(t *testing.T) {
	f := newFixture(t, options{auth: true})
	f.addMember(t, "a", membership.RoleMember, time.Now().Add(time.Hour))
	f.addMember(t, "b", membership.RoleMember, time.Now().Add(time.Hour))

	resp, _ := f.do(t, http.MethodPut, "/api/settings", token(t, "a"), map[string]any{"provider": "deepseek"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, out := f.do(t, http.MethodGet, "/api/settings", token(t, "b"), nil)
	assert.Equal(t, "openai", out["provider"])
	_, out = f.do(t, http.MethodGet, "/api/settings", token(t, "a"), nil)
	assert.Equal(t, "deepseek", out["provider"])
}

func TestAdminConsole(t *testing.T) {
	f := newFixture(t, options{auth: true})
	f.addMember(t, "boss", membership.RoleAdmin, time.Now().Add(-time.Hour))
	f.addMember(t, "pleb", membership.RoleMember, time.Now().Add(time.Hour))
	admin := token(t, "boss")

	resp, out := f.do(t, http.MethodGet, "/api/admin/users", token(t, "pleb"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", out["error"])

	// An admin with a lapsed membership can still manage members.
	resp, out = f.do(t, http.MethodPost, "/api/admin/create-user", admin, map[string]any{"email": "new@example.com", "name": "New"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, "uid-new@example.com", out["userId"])
	assert.Contains(t, out["magicLink"], "https://app.example/auth/callback")

	resp, out = f.do(t, http.MethodPost, "/api/admin/create-user", admin, map[string]any{"email": " "})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "email_required", out["error"])

	resp, out = f.do(t, http.MethodPost, "/api/admin/update-user", admin, map[string]any{"user_id": "pleb", "role": "admin", "name": "Promoted"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "admin", out["role"])
	assert.Equal(t, "Promoted", out["name"])

	resp, _ = f.do(t, http.MethodPost, "/api/admin/revoke", admin, map[string]any{"user_id": "pleb"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, out = f.do(t, http.MethodPost, "/api/keywords", token(t, "pleb"), map[string]any{"dimension": "domain", "topic": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "membership_inactive", out["error"])

	resp, out = f.do(t, http.MethodPost, "/api/admin/resend-magic-link", admin, map[string]any{"user_id": "pleb"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["sentEmail"])

	resp, out = f.do(t, http.MethodGet, "/api/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, out["users"], 3)

	resp, _ = f.do(t, http.MethodGet, "/api/admin/revoke", admin, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, http.MethodPost, resp.Header.Get("Allow"))
}

func TestAdminCreateUserAcceptsDateOnlyExpiry(t *testing.T) {
	f := newFixture(t, options{auth: true})
	f.addMember(t, "boss", membership.RoleAdmin, time.Now().Add(time.Hour))
	admin := token(t, "boss")

	resp, out := f.do(t, http.MethodPost, "/api/admin/create-user", admin,
		map[string]any{"email": "new@example.com", "expiration_at": "2026-12-31"})
	require.Equal(t, http.StatusOK, resp.StatusCode, out)
	p, err := f.profiles.Get(context.Background(), "uid-new@example.com")
	require.NoError(t, err)
	require.NotNil(t, p.ExpirationAt)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), *p.ExpirationAt)

	resp, _ = f.do(t, http.MethodPost, "/api/admin/create-user", admin,
		map[string]any{"email": "iso@example.com", "expiration_at": "2027-01-15T08:30:00+08:00"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p, err = f.profiles.Get(context.Background(), "uid-iso@example.com")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2027, 1, 15, 0, 30, 0, 0, time.UTC), *p.ExpirationAt)

	resp, out = f.do(t, http.MethodPost, "/api/admin/create-user", admin,
		map[string]any{"email": "bad@example.com", "expiration_at": "next tuesday"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_json", out["error"])
}

func TestProxyRelaysUpstream(t *testing.T) {
	var got struct {
		auth string
		body map[string]any
	}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got.body)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer upstream.Close()

	proxy := handler.NewProxy(time.Second, nil, handler.ProxyTarget{
		Provider: llmclient.DeepSeek,
		BaseURL:  upstream.URL + "/",
		APIKey:   "sk-server",
		KeyEnv:   "DEEPSEEK_API_KEY",
	})
	f := newFixture(t, options{proxy: proxy})

	resp, out := f.do(t, http.MethodPost, "/api/deepseek", "", map[string]any{
		"model":    "deepseek-chat",
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, map[string]any{"message": "slow down"}, out["error"])
	assert.Equal(t, "Bearer sk-server", got.auth)
	assert.EqualValues(t, 800, got.body["max_tokens"])
	assert.EqualValues(t, 0.7, got.body["temperature"])
	assert.Equal(t, false, got.body["stream"])

	resp, out = f.do(t, http.MethodPost, "/api/openai", "", map[string]any{})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "OPENAI_API_KEY not configured", out["error"])

	resp, _ = f.do(t, http.MethodGet, "/api/deepseek", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "POST", resp.Header.Get("Allow"))
}

func TestResponsesRelay(t *testing.T) {
	var got struct {
		path string
		auth string
		body map[string]any
	}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.auth = r.Header.Get("Authorization")
		got.body = nil
		_ = json.NewDecoder(r.Body).Decode(&got.body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"resp_1","output_text":"ok"}`))
	}))
	defer upstream.Close()

	proxy := handler.NewProxy(time.Second, nil, handler.ProxyTarget{
		Provider: llmclient.OpenAI,
		BaseURL:  upstream.URL,
		APIKey:   "sk-server",
		KeyEnv:   "OPENAI_API_KEY",
	})
	f := newFixture(t, options{auth: true, proxy: proxy})
	f.addMember(t, "member", membership.RoleMember, time.Now().Add(time.Hour))
	f.addMember(t, "lapsed", membership.RoleMember, time.Now().Add(-time.Hour))
	messages := []map[string]string{{"role": "user", "content": "列出三个选题"}}

	resp, out := f.do(t, http.MethodPost, "/api/responses", "", map[string]any{"messages": messages})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", out["error"])

	resp, out = f.do(t, http.MethodPost, "/api/responses", token(t, "lapsed"), map[string]any{"messages": messages})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "membership_inactive", out["error"])
	assert.Empty(t, got.path)

	// messages becomes input and a gpt-5 model falls back to the default.
	resp, out = f.do(t, http.MethodPost, "/api/responses", token(t, "member"),
		map[string]any{"model": "gpt-5-turbo", "messages": messages})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "resp_1", out["id"])
	assert.Equal(t, "/responses", got.path)
	assert.Equal(t, "Bearer sk-server", got.auth)
	assert.Equal(t, llmclient.DefaultOpenAIModel, got.body["model"])
	assert.Equal(t, []any{map[string]any{"role": "user", "content": "列出三个选题"}}, got.body["input"])
	assert.NotContains(t, got.body, "messages")
	assert.NotContains(t, got.body, "prompt")

	// A stored prompt carries its own model; input wins over messages.
	resp, _ = f.do(t, http.MethodPost, "/api/responses", token(t, "member"),
		map[string]any{"promptId": "pmpt_42", "model": "gpt-4o", "input": "护胃", "messages": messages})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"id": "pmpt_42"}, got.body["prompt"])
	assert.Equal(t, "护胃", got.body["input"])
	assert.NotContains(t, got.body, "model")

	prompt := map[string]any{"id": "pmpt_7", "version": "2"}
	resp, _ = f.do(t, http.MethodPost, "/api/responses", token(t, "member"), map[string]any{"prompt": prompt, "promptId": "ignored"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, prompt, got.body["prompt"])
	assert.NotContains(t, got.body, "input")
}

type brokenProfiles struct {
	*membership.MemoryProfileStore
}

func (brokenProfiles) Get(context.Context, string) (*membership.Profile, error) {
	return nil, errors.New("connection refused")
}

func TestResponsesAuthCheckFailure(t *testing.T) {
	v, err := membership.NewJWTVerifier(jwtSecret, "authenticated")
	require.NoError(t, err)
	gate := membership.NewGate(v, brokenProfiles{membership.NewMemoryProfileStore()}, time.Minute)
	h := handler.New(handler.Deps{Gate: gate, Proxy: handler.NewProxy(time.Second, nil)})
	srv := httptest.NewServer(server.NewMux(h, server.RouteOptions{Gate: gate}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/responses", strings.NewReader(`{"input":"x"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token(t, "member"))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "auth_check_failed", out["error"])
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	f := newFixture(t, options{})
	resp, err := http.Post(f.srv.URL+"/api/nowhere", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type wsEvent struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Code      string          `json:"code"`
	Result    json.RawMessage `json:"result"`
	State     json.RawMessage `json:"state"`
}

func (f *fixture) dialWS(t *testing.T, tok string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/generate"
	if tok != "" {
		u += "?token=" + tok
	}
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) wsEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev wsEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestGenerateWSStreamsDimensions(t *testing.T) {
	f := newFixture(t, options{})
	conn := f.dialWS(t, "")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, "pong", readWS(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "generate", "topic": "home coffee", "flow": "dwhy"}))
	started := readWS(t, conn)
	require.Equal(t, "started", started.Type)
	require.NotEmpty(t, started.SessionID)

	dims := map[string]bool{}
	for {
		ev := readWS(t, conn)
		if ev.Type == "done" {
			assert.Equal(t, started.SessionID, ev.SessionID)
			assert.NotEmpty(t, ev.State)
			break
		}
		require.Equal(t, "dimension", ev.Type)
		var res struct {
			Dimension string `json:"dimension"`
			Keywords  []any  `json:"keywords"`
		}
		require.NoError(t, json.Unmarshal(ev.Result, &res))
		assert.Len(t, res.Keywords, 8)
		dims[res.Dimension] = true
	}
	assert.Equal(t, map[string]bool{"domain": true, "who": true, "why": true}, dims)
}

func TestGenerateWSRejectsBadMessages(t *testing.T) {
	f := newFixture(t, options{})
	conn := f.dialWS(t, "")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "generate"}))
	ev := readWS(t, conn)
	assert.Equal(t, "error", ev.Type)
	assert.Equal(t, "invalid_argument", ev.Code)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "generate", "topic": "x", "flow": "mindmap"}))
	assert.Equal(t, "error", readWS(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "subscribe"}))
	assert.Equal(t, "error", readWS(t, conn).Type)
}

func TestGenerateWSRequiresMembership(t *testing.T) {
	f := newFixture(t, options{auth: true})
	u := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/generate"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	f.addMember(t, "u1", membership.RoleMember, time.Now().Add(24*time.Hour))
	conn := f.dialWS(t, token(t, "u1"))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, "pong", readWS(t, conn).Type)
}
