package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/hypervisual/finance-workflow/internal/application/port"
	"github.com/hypervisual/finance-workflow/internal/domain/entity"
	"github.com/hypervisual/finance-workflow/internal/infrastructure/persistence/sqlite"
)

// AuditRepository implements port.AuditRepository on SQLite. The table is
// append-only: there is no update or delete path.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{db: db, logger: logger}
}

// Append stores one audit event
func (r *AuditRepository) Append(ctx context.Context, event *entity.AuditEvent) error {
	payload := event.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode audit payload: %w", err)
	}

	query, args, err := sq.Insert("audit_events").
		Columns("id", "event_type", "document_id", "actor_id", "timestamp", "payload").
		Values(event.ID, event.EventType, event.DocumentID, event.ActorID, event.Timestamp, string(encoded)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := r.getExecutor(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to append audit event",
			zap.String("document_id", event.DocumentID),
			zap.String("event_type", event.EventType),
			zap.Error(err))
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

// ListByDocumentID returns the full trail for one document, oldest first.
func (r *AuditRepository) ListByDocumentID(ctx context.Context, documentID string) ([]*entity.AuditEvent, error) {
	query, args, err := sq.Select("id", "event_type", "document_id", "actor_id", "timestamp", "payload").
		From("audit_events").
		Where(sq.Eq{"document_id": documentID}).
		OrderBy("timestamp", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list audit events", zap.String("document_id", documentID), zap.Error(err))
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*entity.AuditEvent
	for rows.Next() {
		var event entity.AuditEvent
		var payload string
		if err := rows.Scan(&event.ID, &event.EventType, &event.DocumentID, &event.ActorID, &event.Timestamp, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &event.Payload); err != nil {
			return nil, fmt.Errorf("decode audit payload: %w", err)
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}

// getExecutor returns the ambient transaction when the context carries one
func (r *AuditRepository) getExecutor(ctx context.Context) executor {
	if tx := sqlite.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.AuditRepository = (*AuditRepository)(nil)
