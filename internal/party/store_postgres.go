package party

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lumina/internal/sentinel"
)

// PostgresStore persists providers and clients in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed party store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveProvider(ctx context.Context, provider *Provider) error {
	query := `
		INSERT INTO providers (id, name, email, address, phone, secret_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, address = EXCLUDED.address,
		    phone = EXCLUDED.phone, secret_hash = EXCLUDED.secret_hash
	`
	_, err := s.db.ExecContext(ctx, query,
		provider.ID, provider.Name, provider.Email, provider.Address,
		provider.Phone, provider.SecretHash, provider.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save provider: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindProvider(ctx context.Context, id uuid.UUID) (*Provider, error) {
	query := `
		SELECT id, name, email, address, phone, secret_hash, created_at
		FROM providers
		WHERE id = $1
	`
	var p Provider
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Email, &p.Address, &p.Phone, &p.SecretHash, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find provider: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) SaveClient(ctx context.Context, client *Client) error {
	query := `
		INSERT INTO clients (id, provider_id, name, email, address, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, address = EXCLUDED.address,
		    phone = EXCLUDED.phone
	`
	_, err := s.db.ExecContext(ctx, query,
		client.ID, client.ProviderID, client.Name, client.Email,
		client.Address, client.Phone, client.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save client: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindClient(ctx context.Context, id uuid.UUID) (*Client, error) {
	query := `
		SELECT id, provider_id, name, email, address, phone, created_at
		FROM clients
		WHERE id = $1
	`
	var c Client
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.ProviderID, &c.Name, &c.Email, &c.Address, &c.Phone, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return &c, nil
}

var _ Store = (*PostgresStore)(nil)
