package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	"relay-back/internal/api/http/handler"
	"relay-back/internal/api/http/route"
	"relay-back/internal/apperrors"
	"relay-back/internal/config"
	"relay-back/internal/repository"
	"relay-back/internal/service"
)

func newTestServer(t *testing.T) (*Client, *service.RelayService) {
	t.Helper()

	cfg := &config.Config{}
	cfg.HTTPServer.BasePath = "/api"
	cfg.HTTPServer.MaxContentBytes = 1024

	log := zap.NewNop()

	store := repository.NewMessageRepository()
	users := repository.NewUserRepository()
	relay := service.NewRelayService(store, repository.NewInboxRepository(store), service.RelayConfig{})

	router := route.SetupRouter(
		log,
		cfg,
		handler.NewHealthHandler(log, service.NewHealthService(log, relay, users, nil)),
		handler.NewMessageHandler(log, relay, cfg.HTTPServer.MaxContentBytes),
		handler.NewInboxHandler(log, relay),
		handler.NewUserHandler(log, service.NewUserService(users)),
		route.Options{},
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	t.Cleanup(relay.Close)

	return New(srv.URL + "/api"), relay
}

func TestClientSendFetchAcknowledgeRemove(t *testing.T) {
	c, _ := newTestServer(t)
	ctx := context.Background()

	id, err := c.Send(ctx, "alice", "bob", "hi")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	pending, err := c.Fetch(ctx, "bob")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(pending) != 1 || pending[0].ID != id || pending[0].Content != "hi" || pending[0].Verified {
		t.Fatalf("Fetch() = %+v", pending)
	}

	acked, err := c.Acknowledge(ctx, id)
	if err != nil {
		t.Fatalf("Acknowledge() error = %v", err)
	}

	if !acked.Verified {
		t.Fatal("acknowledged message is not verified")
	}

	pending, err = c.Fetch(ctx, "bob")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(pending) != 1 || !pending[0].Verified {
		t.Fatalf("acknowledged message must stay pending and verified, got %+v", pending)
	}

	if err := c.Remove(ctx, "bob", id); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if err := c.Remove(ctx, "bob", id); !errors.Is(err, apperrors.ErrMessageDoesNotExist) {
		t.Fatalf("second Remove() error = %v, want ErrMessageDoesNotExist", err)
	}

	pending, err = c.Fetch(ctx, "bob")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(pending) != 0 {
		t.Fatalf("inbox not empty after Remove: %+v", pending)
	}
}

func TestClientErrors(t *testing.T) {
	c, _ := newTestServer(t)
	ctx := context.Background()

	if _, err := c.Send(ctx, "alice", "bob", ""); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Send() with empty content error = %v, want ErrInvalidInput", err)
	}

	if _, err := c.Send(ctx, "alice", "bob", gofakeit.LetterN(2048)); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Send() with oversized content error = %v, want ErrInvalidInput", err)
	}

	id, err := c.Send(ctx, "alice", "bob", "hi")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if err := c.Remove(ctx, "mallory", id); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("Remove() by stranger error = %v, want ErrPermissionDenied", err)
	}

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, apperrors.ErrMessageDoesNotExist) {
		t.Errorf("Get() unknown id error = %v, want ErrMessageDoesNotExist", err)
	}

	if _, err := c.Acknowledge(ctx, "missing"); !errors.Is(err, apperrors.ErrMessageDoesNotExist) {
		t.Errorf("Acknowledge() unknown id error = %v, want ErrMessageDoesNotExist", err)
	}

	userID := gofakeit.Username()
	password := gofakeit.Password(true, true, true, false, false, 12)

	if _, err := c.Register(ctx, userID, password); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := c.Register(ctx, userID, password); !errors.Is(err, apperrors.ErrUserAlreadyExists) {
		t.Errorf("second Register() error = %v, want ErrUserAlreadyExists", err)
	}
}

func TestClientSendIdempotent(t *testing.T) {
	c, _ := newTestServer(t)
	ctx := context.Background()

	first, err := c.SendIdempotent(ctx, "retry-1", "alice", "bob", "hi")
	if err != nil {
		t.Fatalf("SendIdempotent() error = %v", err)
	}

	second, err := c.SendIdempotent(ctx, "retry-1", "alice", "bob", "hi")
	if err != nil {
		t.Fatalf("SendIdempotent() retry error = %v", err)
	}

	if first != second {
		t.Fatalf("retry returned %q, want %q", second, first)
	}

	pending, err := c.Fetch(ctx, "bob")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(pending) != 1 {
		t.Fatalf("retry enqueued %d messages, want 1", len(pending))
	}
}

func TestClientListClearUsersHealth(t *testing.T) {
	c, _ := newTestServer(t)
	ctx := context.Background()

	for _, to := range []string{"bob", "bob", "carol"} {
		if _, err := c.Send(ctx, "alice", to, gofakeit.Sentence()); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}

	all, err := c.List(ctx, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(all) != 3 {
		t.Fatalf("List() returned %d messages, want 3", len(all))
	}

	carols, err := c.List(ctx, "carol")
	if err != nil {
		t.Fatalf("List(carol) error = %v", err)
	}

	if len(carols) != 1 {
		t.Fatalf("List(carol) returned %d messages, want 1", len(carols))
	}

	health, err := c.Health(ctx)
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	if health.MessageCount != 3 || health.InboxCount != 2 || health.PendingCount != 3 {
		t.Fatalf("Health() = %+v", health)
	}

	dropped, err := c.ClearInbox(ctx, "bob", true)
	if err != nil {
		t.Fatalf("ClearInbox() error = %v", err)
	}

	if len(dropped) != 2 {
		t.Fatalf("ClearInbox() dropped %d ids, want 2", len(dropped))
	}

	if _, err := c.Register(ctx, "alice", "secret"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	users, err := c.Users(ctx)
	if err != nil {
		t.Fatalf("Users() error = %v", err)
	}

	if !slices.Contains(users, "alice") {
		t.Fatalf("Users() = %v, want alice", users)
	}

	health, err = c.Health(ctx)
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	if health.MessageCount != 1 || health.UserCount != 1 {
		t.Fatalf("Health() after purge = %+v", health)
	}
}
