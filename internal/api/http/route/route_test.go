package route

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

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"relay-back/internal/api/http/handler"
	"relay-back/internal/config"
	"relay-back/internal/model"
	"relay-back/internal/repository"
	"relay-back/internal/service"
	"relay-back/pkg/metrics"
)

type fakeLimiter struct {
	key      string
	decision model.RateDecision
	err      error
}

func (l *fakeLimiter) Take(_ context.Context, key string) (model.RateDecision, error) {
	l.key = key
	return l.decision, l.err
}

type testEnv struct {
	router *gin.Engine
	relay  *service.RelayService
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.HTTPServer.BasePath = "/api"
	cfg.HTTPServer.MaxContentBytes = 16
	cfg.Metrics.Path = "/metrics"

	log := zap.NewNop()

	store := repository.NewMessageRepository()
	users := repository.NewUserRepository()
	relay := service.NewRelayService(store, repository.NewInboxRepository(store), service.RelayConfig{})
	t.Cleanup(relay.Close)

	router := SetupRouter(
		log,
		cfg,
		handler.NewHealthHandler(log, service.NewHealthService(log, relay, users, nil)),
		handler.NewMessageHandler(log, relay, cfg.HTTPServer.MaxContentBytes),
		handler.NewInboxHandler(log, relay),
		handler.NewUserHandler(log, service.NewUserService(users)),
		opts,
	)

	return &testEnv{router: router, relay: relay}
}

func (e *testEnv) do(method, target string, body any, header http.Header) *httptest.ResponseRecorder {
	var reader io.Reader

	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range header {
		req.Header[k] = v
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()

	var env struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", w.Body.String(), err)
	}

	if env.Status != handler.StatusSuccess {
		t.Fatalf("status = %q, body %s", env.Status, w.Body.String())
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func (e *testEnv) send(t *testing.T, from, to, content string) string {
	t.Helper()

	w := e.do(http.MethodPost, "/api/messages", model.SendMessageRequest{From: from, To: to, Content: content}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /messages = %d %s", w.Code, w.Body.String())
	}

	var resp model.SendMessageResponse
	decodeData(t, w, &resp)

	return resp.ID
}

func TestMessageLifecycle(t *testing.T) {
	env := newTestEnv(t, Options{})

	id := env.send(t, "alice", "bob", "hi")

	w := env.do(http.MethodGet, "/api/inbox?userId=bob", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /inbox = %d", w.Code)
	}

	var inbox model.MessagesResponse
	decodeData(t, w, &inbox)

	if len(inbox.Messages) != 1 || inbox.Messages[0].ID != id {
		t.Fatalf("inbox = %+v", inbox)
	}

	w = env.do(http.MethodPatch, "/api/messages", model.AcknowledgeRequest{ID: id}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("PATCH /messages = %d", w.Code)
	}

	var acked model.Message
	decodeData(t, w, &acked)

	if !acked.Verified {
		t.Fatal("acknowledged message is not verified")
	}

	w = env.do(http.MethodGet, "/api/messages?messageId="+id, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /messages?messageId = %d", w.Code)
	}

	w = env.do(http.MethodDelete, "/api/messages?messageId="+id+"&userId=bob", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE /messages = %d", w.Code)
	}

	w = env.do(http.MethodDelete, "/api/messages?messageId="+id+"&userId=bob", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second DELETE /messages = %d, want 404", w.Code)
	}

	w = env.do(http.MethodGet, "/api/messages?messageId="+id, nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET removed message = %d, want 404", w.Code)
	}
}

func TestErrorStatuses(t *testing.T) {
	env := newTestEnv(t, Options{})

	id := env.send(t, "alice", "bob", "hi")

	tests := []struct {
		name   string
		method string
		target string
		body   any
		want   int
	}{
		{"missing content", http.MethodPost, "/api/messages", map[string]string{"from": "alice", "to": "bob"}, http.StatusBadRequest},
		{"content too large", http.MethodPost, "/api/messages", model.SendMessageRequest{From: "alice", To: "bob", Content: strings.Repeat("x", 17)}, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/messages", "not an object", http.StatusBadRequest},
		{"inbox without user", http.MethodGet, "/api/inbox", nil, http.StatusBadRequest},
		{"clear without user", http.MethodDelete, "/api/inbox", nil, http.StatusBadRequest},
		{"remove without id", http.MethodDelete, "/api/messages", nil, http.StatusBadRequest},
		{"remove by stranger", http.MethodDelete, "/api/messages?messageId=" + id + "&userId=mallory", nil, http.StatusForbidden},
		{"remove unknown", http.MethodDelete, "/api/messages?messageId=missing", nil, http.StatusNotFound},
		{"acknowledge unknown", http.MethodPatch, "/api/messages", model.AcknowledgeRequest{ID: "missing"}, http.StatusNotFound},
		{"acknowledge without id", http.MethodPatch, "/api/messages", map[string]string{}, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/nowhere", nil, http.StatusNotFound},
		{"method not allowed", http.MethodPut, "/api/messages", nil, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(tt.method, tt.target, tt.body, nil)
			if w.Code != tt.want {
				t.Fatalf("%s %s = %d, want %d (%s)", tt.method, tt.target, w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestFetchUnknownUserIsEmpty(t *testing.T) {
	env := newTestEnv(t, Options{})

	w := env.do(http.MethodGet, "/api/inbox?userId=nobody", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /inbox = %d", w.Code)
	}

	var inbox model.MessagesResponse
	decodeData(t, w, &inbox)

	if len(inbox.Messages) != 0 {
		t.Fatalf("inbox = %+v", inbox)
	}
}

func TestSendIdempotencyKey(t *testing.T) {
	env := newTestEnv(t, Options{})

	header := http.Header{handler.IdempotencyKeyHeader: []string{"k1"}}
	body := model.SendMessageRequest{From: "alice", To: "bob", Content: "hi"}

	var first, second model.SendMessageResponse
	decodeData(t, env.do(http.MethodPost, "/api/messages", body, header), &first)
	decodeData(t, env.do(http.MethodPost, "/api/messages", body, header), &second)

	if first.ID != second.ID {
		t.Fatalf("retry id %q, want %q", second.ID, first.ID)
	}

	if pending := env.relay.Health().PendingCount; pending != 1 {
		t.Fatalf("pending = %d, want 1", pending)
	}
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t, Options{})

	req := model.CreateUserRequest{UserID: "alice", Password: "12345678"}

	if w := env.do(http.MethodPost, "/api/users", req, nil); w.Code != http.StatusCreated {
		t.Fatalf("POST /users = %d", w.Code)
	}

	if w := env.do(http.MethodPost, "/api/users", req, nil); w.Code != http.StatusConflict {
		t.Fatalf("duplicate POST /users = %d, want 409", w.Code)
	}

	if w := env.do(http.MethodPost, "/api/users", map[string]string{"userId": "bob"}, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("POST /users without password = %d, want 400", w.Code)
	}

	var users model.UsersResponse
	decodeData(t, env.do(http.MethodGet, "/api/users", nil, nil), &users)

	if len(users.Users) != 1 || users.Users[0] != "alice" {
		t.Fatalf("users = %+v", users)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.send(t, "alice", "bob", "hi")

	if w := env.do(http.MethodGet, "/api/health/ping", nil, nil); w.Code != http.StatusOK {
		t.Fatalf("GET /health/ping = %d", w.Code)
	}

	var health model.Health
	decodeData(t, env.do(http.MethodGet, "/api/health", nil, nil), &health)

	if health.MessageCount != 1 || health.InboxCount != 1 || health.PendingCount != 1 {
		t.Fatalf("health = %+v", health)
	}
}

func TestRateLimit(t *testing.T) {
	limiter := &fakeLimiter{decision: model.RateDecision{Allowed: false, Limit: 5, RetryAfter: 3}}
	env := newTestEnv(t, Options{RateLimiter: limiter})

	body := model.SendMessageRequest{From: "alice", To: "bob", Content: "hi"}

	w := env.do(http.MethodPost, "/api/messages", body, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("POST /messages = %d, want 429", w.Code)
	}

	if got := w.Header().Get("Retry-After"); got != "3" {
		t.Fatalf("Retry-After = %q", got)
	}

	if limiter.key != "rate_limit:user:alice" {
		t.Fatalf("limiter key = %q", limiter.key)
	}

	if w := env.do(http.MethodGet, "/api/inbox?userId=bob", nil, nil); w.Code != http.StatusOK {
		t.Fatalf("fetch must not be rate limited, got %d", w.Code)
	}

	limiter.decision = model.RateDecision{Allowed: true, Limit: 5, Remaining: 4}

	w = env.do(http.MethodPost, "/api/messages", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("allowed POST /messages = %d", w.Code)
	}

	if got := w.Header().Get("X-RateLimit-Remaining"); got != "4" {
		t.Fatalf("X-RateLimit-Remaining = %q", got)
	}

	limiter.err = errors.New("redis down")

	if w := env.do(http.MethodPost, "/api/messages", body, nil); w.Code != http.StatusOK {
		t.Fatalf("POST /messages with failing limiter = %d, want 200", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New("relaytest")
	env := newTestEnv(t, Options{MetricsObserver: m, MetricsHandler: m.Handler(nil)})

	env.send(t, "alice", "bob", "hi")

	w := env.do(http.MethodGet, "/metrics", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", w.Code)
	}

	if !strings.Contains(w.Body.String(), `relaytest_http_requests_total{method="POST",route="/api/messages",status="200"} 1`) {
		t.Fatalf("request counter missing:\n%s", w.Body.String())
	}
}

func TestStreamInbox(t *testing.T) {
	env := newTestEnv(t, Options{})

	first := env.send(t, "alice", "bob", "before")

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/inbox/ws?userId=bob", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var snapshot handler.WSFrame
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	if snapshot.Type != handler.FrameSnapshot || len(snapshot.Data) != 1 || snapshot.Data[0].ID != first {
		t.Fatalf("snapshot = %+v", snapshot)
	}

	second := env.send(t, "carol", "bob", "after")

	var event handler.WSFrame
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}

	if event.Type != handler.FrameEvent || event.Event == nil ||
		event.Event.Kind != model.EventEnqueued || event.Event.MessageID != second {
		t.Fatalf("event = %+v", event)
	}

	env.relay.Close()

	var done handler.WSFrame
	if err := conn.ReadJSON(&done); err != nil {
		t.Fatalf("read done: %v", err)
	}

	if done.Type != handler.FrameDone {
		t.Fatalf("frame after close = %+v", done)
	}
}
