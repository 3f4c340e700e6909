// Package attachments implements the vendor attachment service: free-form
// files and comments scoped by vendor name, persisted in Postgres.
//
// The store is deliberately independent of the ledger pipeline; its failures
// surface as an "offline" state on the attachment panel and must never block
// or degrade the dashboard.
package attachments

import (
	"context"
	"time"

	lederrors "vendor-ledger-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VendorFile is the metadata of one stored file.
type VendorFile struct {
	ID         string    `json:"id"`
	VendorName string    `json:"vendorName"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// VendorComment is one free-text comment on a vendor.
type VendorComment struct {
	ID         string    `json:"id"`
	VendorName string    `json:"vendorName"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store is the persistence contract for vendor attachments. List operations
// return newest-first; deletes are idempotent.
type Store interface {
	ListFiles(ctx context.Context, vendorName string) ([]*VendorFile, error)
	AddFile(ctx context.Context, vendorName, filename, mimeType string, data []byte) (*VendorFile, error)
	GetFile(ctx context.Context, id string) (*VendorFile, []byte, error)
	DeleteFile(ctx context.Context, id string) error
	ListComments(ctx context.Context, vendorName string) ([]*VendorComment, error)
	AddComment(ctx context.Context, vendorName, comment string) (*VendorComment, error)
	DeleteComment(ctx context.Context, id string) error
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the attachment tables when they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS vendor_files (
			id UUID PRIMARY KEY,
			vendor_name TEXT NOT NULL,
			filename TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			file_size BIGINT NOT NULL,
			data BYTEA NOT NULL,
			uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS vendor_comments (
			id UUID PRIMARY KEY,
			vendor_name TEXT NOT NULL,
			comment TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_vendor_files_vendor ON vendor_files (vendor_name, uploaded_at DESC);
		CREATE INDEX IF NOT EXISTS idx_vendor_comments_vendor ON vendor_comments (vendor_name, created_at DESC);
	`)
	if err != nil {
		return lederrors.StorageError("ensure schema", err)
	}
	return nil
}

// ListFiles returns a vendor's files, newest first, without blob data.
func (s *PostgresStore) ListFiles(ctx context.Context, vendorName string) ([]*VendorFile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, vendor_name, filename, mime_type, file_size, uploaded_at
		FROM vendor_files
		WHERE vendor_name = $1
		ORDER BY uploaded_at DESC`, vendorName)
	if err != nil {
		return nil, lederrors.StorageError("list files", err)
	}
	defer rows.Close()

	var files []*VendorFile
	for rows.Next() {
		f := &VendorFile{}
		if err := rows.Scan(&f.ID, &f.VendorName, &f.Filename, &f.MimeType, &f.Size, &f.UploadedAt); err != nil {
			return nil, lederrors.StorageError("scan file row", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, lederrors.StorageError("list files", err)
	}
	return files, nil
}

// AddFile stores a file blob for a vendor. Size enforcement happens at the
// HTTP boundary; the store accepts whatever it is given.
func (s *PostgresStore) AddFile(ctx context.Context, vendorName, filename, mimeType string, data []byte) (*VendorFile, error) {
	f := &VendorFile{
		ID:         uuid.NewString(),
		VendorName: vendorName,
		Filename:   filename,
		MimeType:   mimeType,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vendor_files (id, vendor_name, filename, mime_type, file_size, data, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.VendorName, f.Filename, f.MimeType, f.Size, data, f.UploadedAt)
	if err != nil {
		return nil, lederrors.StorageError("add file", err)
	}
	return f, nil
}

// GetFile returns a file's metadata and blob data.
func (s *PostgresStore) GetFile(ctx context.Context, id string) (*VendorFile, []byte, error) {
	f := &VendorFile{}
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, vendor_name, filename, mime_type, file_size, data, uploaded_at
		FROM vendor_files WHERE id = $1`, id).
		Scan(&f.ID, &f.VendorName, &f.Filename, &f.MimeType, &f.Size, &data, &f.UploadedAt)
	if err == pgx.ErrNoRows {
		return nil, nil, lederrors.New(lederrors.CategoryStorage, lederrors.CodeNotFound, "file not found")
	}
	if err != nil {
		return nil, nil, lederrors.StorageError("get file", err)
	}
	return f, data, nil
}

// DeleteFile removes a file. Deleting an id that does not exist is a no-op.
func (s *PostgresStore) DeleteFile(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM vendor_files WHERE id = $1`, id)
	if err != nil {
		return lederrors.StorageError("delete file", err)
	}
	return nil
}

// ListComments returns a vendor's comments, newest first.
func (s *PostgresStore) ListComments(ctx context.Context, vendorName string) ([]*VendorComment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, vendor_name, comment, created_at
		FROM vendor_comments
		WHERE vendor_name = $1
		ORDER BY created_at DESC`, vendorName)
	if err != nil {
		return nil, lederrors.StorageError("list comments", err)
	}
	defer rows.Close()

	var comments []*VendorComment
	for rows.Next() {
		c := &VendorComment{}
		if err := rows.Scan(&c.ID, &c.VendorName, &c.Comment, &c.CreatedAt); err != nil {
			return nil, lederrors.StorageError("scan comment row", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, lederrors.StorageError("list comments", err)
	}
	return comments, nil
}

// AddComment stores a comment for a vendor.
func (s *PostgresStore) AddComment(ctx context.Context, vendorName, comment string) (*VendorComment, error) {
	c := &VendorComment{
		ID:         uuid.NewString(),
		VendorName: vendorName,
		Comment:    comment,
		CreatedAt:  time.Now(),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vendor_comments (id, vendor_name, comment, created_at)
		VALUES ($1, $2, $3, $4)`,
		c.ID, c.VendorName, c.Comment, c.CreatedAt)
	if err != nil {
		return nil, lederrors.StorageError("add comment", err)
	}
	return c, nil
}

// DeleteComment removes a comment. Idempotent like DeleteFile.
func (s *PostgresStore) DeleteComment(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM vendor_comments WHERE id = $1`, id)
	if err != nil {
		return lederrors.StorageError("delete comment", err)
	}
	return nil
}
