package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"catalogops/domain/catalog"
	"catalogops/internal/errors"
	"catalogops/ports"
)

const auditSchema = `CREATE TABLE IF NOT EXISTS edit_audit (
	id TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	row_num INTEGER NOT NULL,
	field_key TEXT NOT NULL,
	old_value TEXT NOT NULL DEFAULT '',
	new_value TEXT NOT NULL DEFAULT '',
	actor TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
)`

// auditRepository implements the AuditRepository interface on Postgres
type auditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates the audit repository and ensures its table exists
func NewAuditRepository(db *sqlx.DB) (ports.AuditRepository, error) {
	if _, err := db.Exec(auditSchema); err != nil {
		return nil, errors.DatabaseError("ensuring edit_audit table", err)
	}
	return &auditRepository{db: db}, nil
}

// Record inserts one edit entry
func (r *auditRepository) Record(ctx context.Context, entry ports.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO edit_audit (
		id, collection, row_num, field_key, old_value, new_value, actor, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Collection, entry.RowNum, entry.FieldKey,
		entry.OldValue, entry.NewValue, entry.Actor, entry.CreatedAt,
	)
	if err != nil {
		return errors.DatabaseError("recording edit audit entry", err)
	}
	return nil
}

// Recent returns the newest entries for a collection
func (r *auditRepository) Recent(ctx context.Context, collection catalog.Collection, limit int) ([]ports.AuditEntry, error) {
	query := `SELECT id, collection, row_num, field_key, old_value, new_value, actor, created_at
	FROM edit_audit WHERE collection = $1 ORDER BY created_at DESC LIMIT $2`

	var entries []ports.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, collection, limit); err != nil {
		return nil, errors.DatabaseError("loading edit audit entries", err)
	}
	return entries, nil
}
