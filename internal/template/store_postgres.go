package template

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"lumina/internal/sentinel"
)

const pgUniqueViolation = "23505"

// PostgresStore persists templates and custom variables in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed template store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveTemplate(ctx context.Context, tmpl *ContractTemplate) error {
	query := `
		INSERT INTO contract_templates (id, provider_id, event_type_id, name, body, priority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, body = EXCLUDED.body,
			event_type_id = EXCLUDED.event_type_id, priority = EXCLUDED.priority
	`
	_, err := s.db.ExecContext(ctx, query,
		tmpl.ID, tmpl.ProviderID, tmpl.EventTypeID, tmpl.Name, tmpl.Body, tmpl.Priority, tmpl.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindTemplate(ctx context.Context, id uuid.UUID) (*ContractTemplate, error) {
	query := `
		SELECT id, provider_id, event_type_id, name, body, priority, created_at
		FROM contract_templates WHERE id = $1
	`
	return scanTemplate(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) ListTemplates(ctx context.Context, providerID uuid.UUID) ([]*ContractTemplate, error) {
	query := `
		SELECT id, provider_id, event_type_id, name, body, priority, created_at
		FROM contract_templates
		WHERE provider_id = $1 OR provider_id IS NULL
		ORDER BY priority DESC, created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []*ContractTemplate
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contract_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete template rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveVariable(ctx context.Context, v *CustomVariable) error {
	query := `
		INSERT INTO custom_variables (id, provider_id, key, default_value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET key = EXCLUDED.key, default_value = EXCLUDED.default_value
	`
	_, err := s.db.ExecContext(ctx, query, v.ID, v.ProviderID, v.Key, v.DefaultValue)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save variable: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListVariables(ctx context.Context, providerID uuid.UUID) ([]*CustomVariable, error) {
	query := `
		SELECT id, provider_id, key, default_value
		FROM custom_variables WHERE provider_id = $1 ORDER BY key ASC
	`
	rows, err := s.db.QueryContext(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("list variables: %w", err)
	}
	defer rows.Close()

	var out []*CustomVariable
	for rows.Next() {
		var v CustomVariable
		if err := rows.Scan(&v.ID, &v.ProviderID, &v.Key, &v.DefaultValue); err != nil {
			return nil, fmt.Errorf("scan variable: %w", err)
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variables: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteVariable(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM custom_variables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete variable: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete variable rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type sqlRow interface {
	Scan(dest ...any) error
}

func scanTemplate(row sqlRow) (*ContractTemplate, error) {
	var tmpl ContractTemplate
	err := row.Scan(
		&tmpl.ID, &tmpl.ProviderID, &tmpl.EventTypeID,
		&tmpl.Name, &tmpl.Body, &tmpl.Priority, &tmpl.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan template: %w", err)
	}
	return &tmpl, nil
}

var _ Store = (*PostgresStore)(nil)
