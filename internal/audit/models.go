package audit

import (
	"context"
	"time"
)

// Event is an immutable, append-only audit record.
//
// Invariants:
// - Events are never updated or deleted.
// - Actor and request capture are best-effort; never block user-facing flows
//   on audit failures.
type Event struct {
	ID     string `json:"id" db:"id"`
	Action string `json:"action" db:"action"`

	// Actor fields are empty for anonymous requests (login, register).
	ActorID       string `json:"actor_id,omitempty" db:"actor_id"`
	ActorUsername string `json:"actor_username,omitempty" db:"actor_username"`
	ActorRole     string `json:"actor_role,omitempty" db:"actor_role"`

	// Request snapshot, frozen when the context was built.
	RequestID string `json:"request_id,omitempty" db:"request_id"`
	Method    string `json:"method,omitempty" db:"method"`
	Path      string `json:"path,omitempty" db:"path"`
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent string `json:"user_agent,omitempty" db:"user_agent"`

	// Metadata is optional JSON with action-specific detail. Never include
	// plaintext passwords or token strings.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Repository is the persistence contract for audit events.
//
// It MUST be append-only; List exists for the admin read endpoint.
type Repository interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context, limit int) ([]Event, error)
}

// Snapshot freezes the request metadata an event is stamped with.
type Snapshot struct {
	RequestID string
	Method    string
	Path      string
	IPAddress string
	UserAgent string
}

type snapshotCtxKey struct{}

// WithSnapshot attaches the request snapshot to the context.
func WithSnapshot(ctx context.Context, s Snapshot) context.Context {
	return context.WithValue(ctx, snapshotCtxKey{}, s)
}

// SnapshotFromContext returns the request snapshot, if one was attached.
func SnapshotFromContext(ctx context.Context) (Snapshot, bool) {
	s, ok := ctx.Value(snapshotCtxKey{}).(Snapshot)
	return s, ok
}
