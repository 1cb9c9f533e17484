package ports

import (
	"context"
	"time"

	"catalogops/domain/catalog"
)

// AuditEntry records one field edit pushed through the dashboard.
type AuditEntry struct {
	ID         string             `db:"id"`
	Collection catalog.Collection `db:"collection"`
	RowNum     int                `db:"row_num"`
	FieldKey   string             `db:"field_key"`
	OldValue   string             `db:"old_value"`
	NewValue   string             `db:"new_value"`
	Actor      string             `db:"actor"`
	CreatedAt  time.Time          `db:"created_at"`
}

// AuditRepository persists the edit trail. Implementations must tolerate
// being a no-op sink; auditing must never block a save.
type AuditRepository interface {
	Record(ctx context.Context, entry AuditEntry) error
	Recent(ctx context.Context, collection catalog.Collection, limit int) ([]AuditEntry, error)
}
