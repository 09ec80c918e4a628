package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore persists audit entries in PostgreSQL. The table is append-only;
// this store issues INSERT and SELECT statements only.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("audit entry is required")
	}
	var metadata []byte
	if entry.Metadata != nil {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
	}
	query := `
		INSERT INTO audit_log (link_id, actor_kind, actor_id, action, entity_kind, entity_id, metadata, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		entry.LinkID,
		entry.Actor.Kind,
		entry.Actor.ID,
		entry.Action,
		entry.Entity.Kind,
		entry.Entity.ID,
		metadata,
		entry.Actor.IP,
		entry.Actor.UserAgent,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ExportForLink(ctx context.Context, linkID uuid.UUID) ([]*Entry, error) {
	query := `
		SELECT id, link_id, actor_kind, actor_id, action, entity_kind, entity_id, metadata, ip, user_agent, created_at
		FROM audit_log
		WHERE link_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, linkID)
	if err != nil {
		return nil, fmt.Errorf("export audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var metadata []byte
		err := rows.Scan(
			&entry.ID, &entry.LinkID, &entry.Actor.Kind, &entry.Actor.ID,
			&entry.Action, &entry.Entity.Kind, &entry.Entity.ID,
			&metadata, &entry.Actor.IP, &entry.Actor.UserAgent, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

var _ Store = (*PostgresStore)(nil)
