// Package memory holds in-process fallbacks used when no database is
// configured. The dashboard stays fully functional; the edit trail just does
// not survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"catalogops/domain/catalog"
	"catalogops/ports"
)

// auditRepository keeps the edit trail in memory, newest first.
type auditRepository struct {
	mu      sync.Mutex
	entries []ports.AuditEntry
}

// NewAuditRepository creates the in-memory audit fallback.
func NewAuditRepository() ports.AuditRepository {
	return &auditRepository{}
}

func (r *auditRepository) Record(_ context.Context, entry ports.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	r.entries = append([]ports.AuditEntry{entry}, r.entries...)
	r.mu.Unlock()
	return nil
}

func (r *auditRepository) Recent(_ context.Context, collection catalog.Collection, limit int) ([]ports.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.AuditEntry, 0, limit)
	for _, entry := range r.entries {
		if entry.Collection != collection {
			continue
		}
		out = append(out, entry)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
