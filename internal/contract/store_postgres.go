package contract

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

const contractColumns = "id, link_id, template_id, content, status, version, file_path, file_hash, generated_at, updated_at"

// PostgresStore persists contracts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed contract store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, c *GeneratedContract) error {
	query := `
		INSERT INTO contracts (` + contractColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			template_id = EXCLUDED.template_id, content = EXCLUDED.content,
			status = EXCLUDED.status, generated_at = EXCLUDED.generated_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.LinkID, c.TemplateID, c.Content, c.Status, c.Version,
		nullableString(c.FilePath), nullableString(c.FileHash), c.GeneratedAt, c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save contract: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*GeneratedContract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1`
	return scanContract(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) FindByLink(ctx context.Context, linkID uuid.UUID) (*GeneratedContract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE link_id = $1`
	return scanContract(s.db.QueryRowContext(ctx, query, linkID))
}

func (s *PostgresStore) UpdateContent(ctx context.Context, id uuid.UUID, content string, updatedAt time.Time) error {
	query := `UPDATE contracts SET content = $2, updated_at = $3 WHERE id = $1 AND status <> 'signed'`
	res, err := s.db.ExecContext(ctx, query, id, content, updatedAt)
	if err != nil {
		return fmt.Errorf("update contract content: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update contract content rows: %w", err)
	}
	if rows == 0 {
		if _, err := s.FindByID(ctx, id); errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrImmutable
	}
	return nil
}

// TransitionStatus is the single write path for status changes. The WHERE
// clause on the current status makes the transition a compare-and-swap, so
// two concurrent signers cannot both move pending_signature to signed.
func (s *PostgresStore) TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	query := `UPDATE contracts SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`
	res, err := s.db.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("transition contract status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition contract status rows: %w", err)
	}
	if rows == 0 {
		if _, err := s.FindByID(ctx, id); errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) SetRendered(ctx context.Context, id uuid.UUID, version int, filePath, fileHash string, renderedAt time.Time) error {
	query := `UPDATE contracts SET version = $2, file_path = $3, file_hash = $4, updated_at = $5 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, id, version, filePath, fileHash, renderedAt)
	if err != nil {
		return fmt.Errorf("set contract rendered: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set contract rendered rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanContract(row interface{ Scan(dest ...any) error }) (*GeneratedContract, error) {
	var c GeneratedContract
	var filePath, fileHash sql.NullString
	err := row.Scan(
		&c.ID, &c.LinkID, &c.TemplateID, &c.Content, &c.Status, &c.Version,
		&filePath, &fileHash, &c.GeneratedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan contract: %w", err)
	}
	c.FilePath = filePath.String
	c.FileHash = fileHash.String
	return &c, nil
}

var _ Store = (*PostgresStore)(nil)
