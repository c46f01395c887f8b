package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"relay-back/internal/model"
)

type RelayHealthReporter interface {
	Health() model.RelayHealth
}

type UserCounter interface {
	Count() int
}

// JournalChecker is satisfied by the journal repository when durability is
// enabled.
type JournalChecker interface {
	IsOK(ctx context.Context) (bool, error)
}

type HealthService struct {
	log       *zap.Logger
	relay     RelayHealthReporter
	users     UserCounter
	journal   JournalChecker
	startedAt time.Time
}

func NewHealthService(log *zap.Logger, relay RelayHealthReporter, users UserCounter, journal JournalChecker) *HealthService {
	return &HealthService{
		log:       log,
		relay:     relay,
		users:     users,
		journal:   journal,
		startedAt: time.Now(),
	}
}

func (s *HealthService) IsOK(ctx context.Context) (bool, error) {
	s.log.Debug("HealthService.IsOK()")

	if s.journal == nil {
		return true, nil
	}

	ok, err := s.journal.IsOK(ctx)
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (s *HealthService) Health(_ context.Context) model.Health {
	relay := s.relay.Health()

	return model.Health{
		MessageCount:  relay.MessageCount,
		InboxCount:    relay.InboxCount,
		PendingCount:  relay.PendingCount,
		UserCount:     s.users.Count(),
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
	}
}
