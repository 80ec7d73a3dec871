// Package audit appends mutation records to the audit_log table.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Entry is one audit record.
type Entry struct {
	Action     string
	EntityType string
	EntityID   string
	Actor      string
	CreatedAt  time.Time
}

// Repo writes audit entries. It shares the articles database handle.
type Repo struct {
	conn *sql.DB
}

// New creates an audit repository over an already-migrated database.
func New(conn *sql.DB) *Repo {
	return &Repo{conn: conn}
}

// Record appends one entry.
func (r *Repo) Record(ctx context.Context, action, entityType, entityID, actor string) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO audit_log (action, entity_type, entity_id, actor, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		action, entityType, entityID, actor, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first.
func (r *Repo) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT action, entity_type, entity_id, actor, created_at
		 FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ts int64
		)
		if err := rows.Scan(&e.Action, &e.EntityType, &e.EntityID, &e.Actor, &ts); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.CreatedAt = time.Unix(ts, 0)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log: %w", err)
	}
	return out, nil
}
