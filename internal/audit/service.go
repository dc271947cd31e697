package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"bkp-platform/internal/auth"

	"github.com/google/uuid"
)

// appendTimeout bounds the detached write so a stuck repository cannot leak
// goroutines forever.
const appendTimeout = 5 * time.Second

// Service records audit events. Record is fire-and-forget: the triggering
// procedure never waits for, or fails on, the audit write. A crash between
// the response and the write may lose the entry; this is accepted.
type Service struct {
	repo  Repository
	log   *slog.Logger
	clock func() time.Time

	// wg lets tests drain in-flight writes.
	wg sync.WaitGroup
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

// Record captures an event from the request context and persists it on a
// detached goroutine. Failures are logged locally and swallowed.
func (s *Service) Record(ctx context.Context, action string, metadata map[string]any) {
	e, err := s.build(ctx, action, metadata)
	if err != nil {
		s.log.Error("audit event dropped", "action", action, "err", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		appendCtx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		defer cancel()
		if err := s.repo.Append(appendCtx, e); err != nil {
			s.log.Error("audit append failed", "action", e.Action, "err", err)
		}
	}()
}

// Append persists an event synchronously. Used by tests and batch tooling;
// request paths should go through Record.
func (s *Service) Append(ctx context.Context, action string, metadata map[string]any) error {
	e, err := s.build(ctx, action, metadata)
	if err != nil {
		return err
	}
	return s.repo.Append(ctx, e)
}

// List returns recent events for the admin read endpoint.
func (s *Service) List(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, limit)
}

// Wait blocks until all in-flight detached writes finish. Test helper.
func (s *Service) Wait() { s.wg.Wait() }

func (s *Service) build(ctx context.Context, action string, metadata map[string]any) (Event, error) {
	if s.repo == nil {
		return Event{}, errors.New("audit: repository not configured")
	}
	if action == "" {
		return Event{}, ErrInvalidEvent
	}

	e := Event{
		ID:        uuid.NewString(),
		Action:    action,
		CreatedAt: s.clock().UTC(),
	}
	if id, ok := auth.IdentityFromContext(ctx); ok {
		e.ActorID = id.ID
		e.ActorUsername = id.Username
		e.ActorRole = string(id.Role)
	}
	if snap, ok := SnapshotFromContext(ctx); ok {
		e.RequestID = snap.RequestID
		e.Method = snap.Method
		e.Path = snap.Path
		e.IPAddress = snap.IPAddress
		e.UserAgent = snap.UserAgent
	}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return Event{}, err
		}
		e.Metadata = string(raw)
	}
	return e, nil
}
