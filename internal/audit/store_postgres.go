package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"vantage/pkg/domain"
)

// PostgresStore persists audit events in PostgreSQL. Pure I/O - event
// categorization belongs to the publisher.
//
// Schema:
//
//	CREATE TABLE audit_events (
//	    id           UUID PRIMARY KEY,
//	    tenant_id    UUID,
//	    category     TEXT NOT NULL,
//	    action       TEXT NOT NULL,
//	    blueprint_id TEXT NOT NULL DEFAULT '',
//	    actor_id     TEXT NOT NULL DEFAULT '',
//	    actor_role   TEXT NOT NULL DEFAULT '',
//	    decision     TEXT NOT NULL DEFAULT '',
//	    reason       TEXT NOT NULL DEFAULT '',
//	    request_id   TEXT NOT NULL DEFAULT '',
//	    occurred_at  TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, tenant_id, category, action, blueprint_id, actor_id, actor_role, decision, reason, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		event.ID, event.TenantID.String(), string(event.Category), event.Action,
		string(event.BlueprintID), event.ActorID, event.ActorRole,
		event.Decision, event.Reason, event.RequestID, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, category, action, blueprint_id, actor_id, actor_role, decision, reason, request_id, occurred_at
		FROM audit_events
		WHERE tenant_id = $1
		ORDER BY occurred_at ASC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event       Event
			rawTenantID string
			rawCategory string
			rawBP       string
		)
		if err := rows.Scan(&event.ID, &rawTenantID, &rawCategory, &event.Action,
			&rawBP, &event.ActorID, &event.ActorRole,
			&event.Decision, &event.Reason, &event.RequestID, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if tid, err := uuid.Parse(rawTenantID); err == nil {
			event.TenantID = domain.TenantID(tid)
		}
		event.Category = EventCategory(rawCategory)
		event.BlueprintID = domain.BlueprintID(rawBP)
		events = append(events, event)
	}
	return events, rows.Err()
}
