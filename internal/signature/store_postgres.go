package signature

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

const signatureColumns = "id, contract_id, role, payload, document_hash, audit_token, ip, user_agent, signed_at"

// PostgresStore persists signatures in PostgreSQL. The UNIQUE
// (contract_id, role) constraint backs the Save conflict contract.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed signature store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO signatures (` + signatureColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.ContractID, rec.Role, rec.Payload, rec.DocumentHash,
		rec.AuditToken, rec.IP, rec.UserAgent, rec.SignedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save signature: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByContractRole(ctx context.Context, contractID uuid.UUID, role Role) (*Record, error) {
	query := `SELECT ` + signatureColumns + ` FROM signatures WHERE contract_id = $1 AND role = $2`
	return scanSignature(s.db.QueryRowContext(ctx, query, contractID, role))
}

func (s *PostgresStore) ListByContract(ctx context.Context, contractID uuid.UUID) ([]*Record, error) {
	query := `SELECT ` + signatureColumns + ` FROM signatures WHERE contract_id = $1 ORDER BY signed_at ASC`
	rows, err := s.db.QueryContext(ctx, query, contractID)
	if err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanSignature(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signatures: %w", err)
	}
	return out, nil
}

func scanSignature(row interface{ Scan(dest ...any) error }) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.ContractID, &rec.Role, &rec.Payload, &rec.DocumentHash,
		&rec.AuditToken, &rec.IP, &rec.UserAgent, &rec.SignedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan signature: %w", err)
	}
	return &rec, nil
}

var _ Store = (*PostgresStore)(nil)
