package repository

import (
	"context"
	"database/sql"

	"github.com/velorashop/auth-service/internal/audit"
)

// AuditRepo appends audit entries. The table is append-only; there are no
// update or delete paths in this service.
type AuditRepo struct{ DB *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

// Insert appends one audit entry.
func (r *AuditRepo) Insert(ctx context.Context, e audit.Entry) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO audit_logs (event_id, actor_id, action, resource, resource_id, old_value, new_value, severity, ip_address, user_agent, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		e.EventID, e.ActorID, e.Action, e.Resource, e.ResourceID,
		nullBytes(e.OldValue), nullBytes(e.NewValue), string(e.Severity),
		nullable(e.IPAddress), nullable(e.UserAgent), e.OccurredAt)
	return err
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
