package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"relay-back/internal/repository"
)

type stubJournal struct {
	err error
}

func (s stubJournal) IsOK(context.Context) (bool, error) {
	if s.err != nil {
		return false, s.err
	}

	return true, nil
}

func TestHealthService_Health(t *testing.T) {
	relay := newTestRelay(t)
	users := NewUserService(repository.NewUserRepository())
	ctx := context.Background()

	mustSend(t, relay, "alice", "bob", "hi")
	mustSend(t, relay, "alice", "carol", "hi")

	if _, err := users.Register(ctx, "alice", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	svc := NewHealthService(zap.NewNop(), relay, users, nil)

	h := svc.Health(ctx)
	if h.MessageCount != 2 || h.InboxCount != 2 || h.PendingCount != 2 || h.UserCount != 1 {
		t.Errorf("Health() = %+v", h)
	}
	if h.UptimeSeconds < 0 {
		t.Errorf("UptimeSeconds = %v, want >= 0", h.UptimeSeconds)
	}

	ok, err := svc.IsOK(ctx)
	if err != nil || !ok {
		t.Errorf("IsOK() without journal = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestHealthService_IsOKJournalDown(t *testing.T) {
	boom := errors.New("connection refused")
	relay := newTestRelay(t)
	users := NewUserService(repository.NewUserRepository())

	svc := NewHealthService(zap.NewNop(), relay, users, stubJournal{err: boom})

	if ok, err := svc.IsOK(context.Background()); ok || !errors.Is(err, boom) {
		t.Errorf("IsOK() = (%v, %v), want (false, %v)", ok, err, boom)
	}
}
