package link

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"lumina/internal/sentinel"
)

const pgUniqueViolation = "23505"

// PostgresStore persists access links in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed link store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const linkColumns = `id, provider_id, client_id, token, event_type_id, template_id, expires_at, revoked, last_accessed_at, created_at`

func (s *PostgresStore) Save(ctx context.Context, link *AccessLink) error {
	query := `
		INSERT INTO access_links (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		link.ID, link.ProviderID, link.ClientID, link.Token,
		link.EventTypeID, link.TemplateID, link.ExpiresAt,
		link.Revoked, link.LastAccessedAt, link.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save access link: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*AccessLink, error) {
	query := `SELECT ` + linkColumns + ` FROM access_links WHERE id = $1`
	return scanLink(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) FindByToken(ctx context.Context, token string) (*AccessLink, error) {
	query := `SELECT ` + linkColumns + ` FROM access_links WHERE token = $1`
	return scanLink(s.db.QueryRowContext(ctx, query, token))
}

func (s *PostgresStore) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*AccessLink, error) {
	query := `SELECT ` + linkColumns + ` FROM access_links WHERE provider_id = $1 ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("list access links: %w", err)
	}
	defer rows.Close()

	var links []*AccessLink
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access links: %w", err)
	}
	return links, nil
}

func (s *PostgresStore) TouchLastAccessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE access_links SET last_accessed_at = $2 WHERE id = $1`
	return s.exec(ctx, query, id, at)
}

func (s *PostgresStore) Revoke(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE access_links SET revoked = TRUE WHERE id = $1`
	return s.exec(ctx, query, id)
}

func (s *PostgresStore) RevokeAllForClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	query := `UPDATE access_links SET revoked = TRUE WHERE client_id = $1 AND NOT revoked`
	res, err := s.db.ExecContext(ctx, query, clientID)
	if err != nil {
		return 0, fmt.Errorf("revoke links for client: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("revoke links rows: %w", err)
	}
	return int(count), nil
}

func (s *PostgresStore) UpdateExpiration(ctx context.Context, id uuid.UUID, expiresAt *time.Time) error {
	query := `UPDATE access_links SET expires_at = $2 WHERE id = $1`
	return s.exec(ctx, query, id, expiresAt)
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update access link: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update access link rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type linkRow interface {
	Scan(dest ...any) error
}

func scanLink(row linkRow) (*AccessLink, error) {
	var link AccessLink
	var expiresAt, lastAccessedAt sql.NullTime
	err := row.Scan(
		&link.ID, &link.ProviderID, &link.ClientID, &link.Token,
		&link.EventTypeID, &link.TemplateID, &expiresAt,
		&link.Revoked, &lastAccessedAt, &link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan access link: %w", err)
	}
	if expiresAt.Valid {
		link.ExpiresAt = &expiresAt.Time
	}
	if lastAccessedAt.Valid {
		link.LastAccessedAt = &lastAccessedAt.Time
	}
	return &link, nil
}

var _ Store = (*PostgresStore)(nil)
