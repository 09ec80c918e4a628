package questionnaire

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"lumina/internal/sentinel"
)

const pgUniqueViolation = "23505"

// PostgresStore persists event types and responses in PostgreSQL. Questions
// and answers are stored as JSONB documents.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed questionnaire store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveEventType(ctx context.Context, eventType *EventType) error {
	questions, err := json.Marshal(eventType.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	query := `
		INSERT INTO event_types (id, provider_id, name, questions, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, questions = EXCLUDED.questions
	`
	_, err = s.db.ExecContext(ctx, query,
		eventType.ID, eventType.ProviderID, eventType.Name, questions, eventType.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save event type: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindEventType(ctx context.Context, id uuid.UUID) (*EventType, error) {
	query := `SELECT id, provider_id, name, questions, created_at FROM event_types WHERE id = $1`
	return scanEventType(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) ListEventTypes(ctx context.Context, providerID uuid.UUID) ([]*EventType, error) {
	query := `SELECT id, provider_id, name, questions, created_at FROM event_types WHERE provider_id = $1 ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("list event types: %w", err)
	}
	defer rows.Close()

	var out []*EventType
	for rows.Next() {
		eventType, err := scanEventType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, eventType)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event types: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteEventType(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM event_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event type: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event type rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveResponse(ctx context.Context, response *Response) error {
	answers, err := json.Marshal(response.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	query := `
		INSERT INTO questionnaire_responses (id, link_id, event_type_id, answers, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		response.ID, response.LinkID, response.EventTypeID,
		answers, response.Status, response.CreatedAt, response.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save response: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindResponse(ctx context.Context, linkID, eventTypeID uuid.UUID) (*Response, error) {
	query := `
		SELECT id, link_id, event_type_id, answers, status, created_at, updated_at
		FROM questionnaire_responses
		WHERE link_id = $1 AND event_type_id = $2
	`
	return scanResponse(s.db.QueryRowContext(ctx, query, linkID, eventTypeID))
}

func (s *PostgresStore) FindResponseByLink(ctx context.Context, linkID uuid.UUID) (*Response, error) {
	query := `
		SELECT id, link_id, event_type_id, answers, status, created_at, updated_at
		FROM questionnaire_responses
		WHERE link_id = $1
		ORDER BY created_at ASC
		LIMIT 1
	`
	return scanResponse(s.db.QueryRowContext(ctx, query, linkID))
}

// UpdateResponse overwrites answers and status for a draft row only. The WHERE
// clause on status makes the immutability check race-free: a concurrent
// validation loses the update rather than clobbering a frozen response.
func (s *PostgresStore) UpdateResponse(ctx context.Context, response *Response) error {
	answers, err := json.Marshal(response.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	query := `
		UPDATE questionnaire_responses
		SET answers = $2, status = $3, updated_at = $4
		WHERE id = $1 AND status = 'draft'
	`
	res, err := s.db.ExecContext(ctx, query, response.ID, answers, response.Status, response.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update response: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update response rows: %w", err)
	}
	if rows == 0 {
		// Either the row is gone or it is already validated.
		var status string
		err := s.db.QueryRowContext(ctx, `SELECT status FROM questionnaire_responses WHERE id = $1`, response.ID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check response status: %w", err)
		}
		return sentinel.ErrImmutable
	}
	return nil
}

type sqlRow interface {
	Scan(dest ...any) error
}

func scanEventType(row sqlRow) (*EventType, error) {
	var eventType EventType
	var questions []byte
	err := row.Scan(&eventType.ID, &eventType.ProviderID, &eventType.Name, &questions, &eventType.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan event type: %w", err)
	}
	if err := json.Unmarshal(questions, &eventType.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	return &eventType, nil
}

func scanResponse(row sqlRow) (*Response, error) {
	var response Response
	var answers []byte
	err := row.Scan(
		&response.ID, &response.LinkID, &response.EventTypeID,
		&answers, &response.Status, &response.CreatedAt, &response.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan response: %w", err)
	}
	if err := json.Unmarshal(answers, &response.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	return &response, nil
}

var _ Store = (*PostgresStore)(nil)
