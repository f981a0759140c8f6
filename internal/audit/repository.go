package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo appends events to the sync_audit_events table. Insert only;
// there is deliberately no update or delete path.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO sync_audit_events (
  id, type, client_id, since, until,
  "references", rows_written, failures, message, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		string(e.Type),
		nullIfEmpty(e.ClientID),
		e.Since,
		e.Until,
		e.References,
		e.RowsWritten,
		e.Failures,
		e.Message,
		e.CreatedAt,
	)
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
