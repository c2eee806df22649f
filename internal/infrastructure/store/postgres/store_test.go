package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &Store{db: db}, mock, func() { _ = db.Close() }
}

func TestListReturnsRefsInPathOrder(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"path", "name"}).
		AddRow("notes/a.md", "a.md").
		AddRow("notes/b.md", "b.md")
	mock.ExpectQuery("SELECT path, name FROM documents").
		WithArgs("notes/").
		WillReturnRows(rows)

	refs, err := store.List(context.Background(), "notes/")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 refs, got %d", len(refs))
	}
	if refs[0].Path != "notes/a.md" || refs[0].Name != "a.md" {
		t.Fatalf("unexpected first ref: %+v", refs[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReadReturnsContent(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT content FROM documents").
		WithArgs("notes/a.md").
		WillReturnRows(sqlmock.NewRows([]string{"content"}).AddRow("Paris is the capital of France."))

	content, err := store.Read(context.Background(), domain.DocumentRef{Path: "notes/a.md", Name: "a.md"})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if content != "Paris is the capital of France." {
		t.Fatalf("unexpected content: %q", content)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReadReturnsDomainNotFound(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT content FROM documents").
		WithArgs("missing.md").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Read(context.Background(), domain.DocumentRef{Path: "missing.md"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
