package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/dunamismax/imagevault/internal/domain"
	"github.com/dunamismax/imagevault/internal/id"
)

const imageSchemaSQL = `
CREATE TABLE IF NOT EXISTS images (
	image_id TEXT PRIMARY KEY,
	file_name TEXT NOT NULL DEFAULT '',
	image_format TEXT NOT NULL,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	content_hash TEXT NOT NULL UNIQUE,
	encrypted_payload BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	owner TEXT NOT NULL DEFAULT ''
);
`

// uniqueViolation is the class 23 code postgres reports when the
// content_hash constraint rejects a concurrent duplicate insert.
const uniqueViolation = "23505"

type PostgresImageStore struct {
	db *sql.DB
}

func NewPostgresImageStore(ctx context.Context, dsn string) (*PostgresImageStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", ErrUnavailable, err)
	}

	store := &PostgresImageStore{db: db}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresImageStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, imageSchemaSQL); err != nil {
		return fmt.Errorf("ensure images schema: %w", err)
	}
	return nil
}

func (s *PostgresImageStore) Close() error {
	return s.db.Close()
}

func (s *PostgresImageStore) Put(ctx context.Context, img domain.StoredImage) (domain.StoredImage, error) {
	img.ImageID = id.New()

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO images (image_id, file_name, image_format, width, height, content_hash, encrypted_payload, created_at, owner)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		img.ImageID,
		img.FileName,
		string(img.Format),
		img.Width,
		img.Height,
		img.ContentHash,
		img.EncryptedPayload,
		img.CreatedAt,
		img.Owner,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return domain.StoredImage{}, fmt.Errorf("%w: hash %s", ErrConflict, img.ContentHash)
		}
		return domain.StoredImage{}, fmt.Errorf("%w: insert image: %v", ErrUnavailable, err)
	}

	return img, nil
}

func (s *PostgresImageStore) FindByHash(ctx context.Context, contentHash string) (domain.StoredImage, bool, error) {
	return s.findOne(ctx, `WHERE content_hash = $1`, contentHash)
}

func (s *PostgresImageStore) FindByID(ctx context.Context, imageID string) (domain.StoredImage, bool, error) {
	return s.findOne(ctx, `WHERE image_id = $1`, imageID)
}

func (s *PostgresImageStore) findOne(ctx context.Context, where string, arg any) (domain.StoredImage, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT image_id, file_name, image_format, width, height, content_hash, encrypted_payload, created_at, owner
		 FROM images `+where,
		arg,
	)

	var (
		img    domain.StoredImage
		format string
	)
	if err := row.Scan(
		&img.ImageID,
		&img.FileName,
		&format,
		&img.Width,
		&img.Height,
		&img.ContentHash,
		&img.EncryptedPayload,
		&img.CreatedAt,
		&img.Owner,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StoredImage{}, false, nil
		}
		return domain.StoredImage{}, false, fmt.Errorf("%w: query image: %v", ErrUnavailable, err)
	}

	img.Format = domain.Format(format)
	return img, true, nil
}
