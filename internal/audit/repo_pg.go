package audit

import (
	"context"
	"database/sql"
)

// PGRepo persists audit events in Postgres.
//
// Assumes an audit_events table with an INSERT-only policy:
//
//	id uuid primary key, action text not null, actor_id text, actor_username
//	text, actor_role text, request_id text, method text, path text,
//	ip_address text, user_agent text, metadata jsonb, created_at timestamptz
type PGRepo struct {
	db *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events
  (id, action, actor_id, actor_username, actor_role, request_id, method, path, ip_address, user_agent, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.Action,
		e.ActorID, e.ActorUsername, e.ActorRole,
		e.RequestID, e.Method, e.Path, e.IPAddress, e.UserAgent,
		e.Metadata, e.CreatedAt,
	)
	return err
}

func (r *PGRepo) List(ctx context.Context, limit int) ([]Event, error) {
	const q = `
SELECT id, action, actor_id, actor_username, actor_role, request_id, method, path, ip_address, user_agent, COALESCE(metadata::text, ''), created_at
FROM audit_events
ORDER BY created_at DESC
LIMIT $1
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID, &e.Action,
			&e.ActorID, &e.ActorUsername, &e.ActorRole,
			&e.RequestID, &e.Method, &e.Path, &e.IPAddress, &e.UserAgent,
			&e.Metadata, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
