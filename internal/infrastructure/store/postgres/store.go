package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
)

// Store reads an already-ingested corpus from Postgres. Ingestion itself is
// owned by the host application; this store only lists and reads.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]domain.DocumentRef, error) {
	const query = `SELECT path, name FROM documents WHERE ($1 = '' OR path LIKE $1 || '%') ORDER BY path`

	rows, err := s.db.QueryContext(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	refs := make([]domain.DocumentRef, 0, 64)
	for rows.Next() {
		var ref domain.DocumentRef
		if err := rows.Scan(&ref.Path, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan document ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document refs: %w", err)
	}
	return refs, nil
}

func (s *Store) Read(ctx context.Context, ref domain.DocumentRef) (string, error) {
	const query = `SELECT content FROM documents WHERE path = $1`

	var content string
	err := s.db.QueryRowContext(ctx, query, ref.Path).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.WrapError(domain.ErrDocumentNotFound, "read document", err)
	}
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return content, nil
}
