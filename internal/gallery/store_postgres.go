package gallery

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

// PostgresStore persists galleries and photos in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed gallery store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveGallery(ctx context.Context, g *Gallery) error {
	query := `
		INSERT INTO galleries (id, link_id, title, visible, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title
	`
	_, err := s.db.ExecContext(ctx, query, g.ID, g.LinkID, g.Title, g.Visible, g.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save gallery: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindGallery(ctx context.Context, id uuid.UUID) (*Gallery, error) {
	query := `SELECT id, link_id, title, visible, created_at FROM galleries WHERE id = $1`
	return scanGallery(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) FindGalleryByLink(ctx context.Context, linkID uuid.UUID) (*Gallery, error) {
	query := `SELECT id, link_id, title, visible, created_at FROM galleries WHERE link_id = $1`
	return scanGallery(s.db.QueryRowContext(ctx, query, linkID))
}

func (s *PostgresStore) SetVisibility(ctx context.Context, id uuid.UUID, visible bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE galleries SET visible = $2 WHERE id = $1`, id, visible)
	if err != nil {
		return fmt.Errorf("set gallery visibility: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set gallery visibility rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SavePhoto(ctx context.Context, p *Photo) error {
	query := `
		INSERT INTO gallery_photos (id, gallery_id, file_name, content_type, file_path, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query, p.ID, p.GalleryID, p.FileName, p.ContentType, p.FilePath, p.UploadedAt)
	if err != nil {
		return fmt.Errorf("save photo: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindPhoto(ctx context.Context, id uuid.UUID) (*Photo, error) {
	query := `SELECT id, gallery_id, file_name, content_type, file_path, uploaded_at FROM gallery_photos WHERE id = $1`
	var p Photo
	err := s.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.GalleryID, &p.FileName, &p.ContentType, &p.FilePath, &p.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan photo: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) ListPhotos(ctx context.Context, galleryID uuid.UUID) ([]*Photo, error) {
	query := `
		SELECT id, gallery_id, file_name, content_type, file_path, uploaded_at
		FROM gallery_photos WHERE gallery_id = $1 ORDER BY uploaded_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, galleryID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var out []*Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.GalleryID, &p.FileName, &p.ContentType, &p.FilePath, &p.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photos: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeletePhoto(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM gallery_photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete photo rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanGallery(row interface{ Scan(dest ...any) error }) (*Gallery, error) {
	var g Gallery
	err := row.Scan(&g.ID, &g.LinkID, &g.Title, &g.Visible, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan gallery: %w", err)
	}
	return &g, nil
}

var _ Store = (*PostgresStore)(nil)
