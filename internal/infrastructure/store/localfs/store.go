package localfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/n0rvyn/vault-rag/internal/core/domain"
)

// Store exposes a directory tree of personal documents as a corpus.
// Supported formats: markdown/plain text, PDF, and XLSX workbooks.
type Store struct {
	basePath string
}

func New(basePath string) (*Store, error) {
	if basePath == "" {
		basePath = "./data/vault"
	}
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("stat vault dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault path is not a directory: %s", basePath)
	}
	return &Store{basePath: basePath}, nil
}

var supportedExtensions = map[string]struct{}{
	".md":       {},
	".markdown": {},
	".txt":      {},
	".pdf":      {},
	".xlsx":     {},
}

// List walks the vault and returns refs for every supported document,
// ordered by path. A non-empty prefix restricts the walk to that sub-path.
// Hidden directories are skipped.
func (s *Store) List(_ context.Context, prefix string) ([]domain.DocumentRef, error) {
	root := s.basePath
	if prefix != "" {
		root = filepath.Join(s.basePath, filepath.Clean(prefix))
	}

	refs := make([]domain.DocumentRef, 0, 64)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if _, ok := supportedExtensions[ext]; !ok {
			return nil
		}
		rel, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}
		refs = append(refs, domain.DocumentRef{
			Path: filepath.ToSlash(rel),
			Name: d.Name(),
		})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.DocumentRef{}, nil
		}
		return nil, fmt.Errorf("walk vault: %w", err)
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })
	return refs, nil
}

// Read extracts plain text from the referenced document according to its
// extension.
func (s *Store) Read(_ context.Context, ref domain.DocumentRef) (string, error) {
	path := filepath.Join(s.basePath, filepath.FromSlash(ref.Path))
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", domain.WrapError(domain.ErrDocumentNotFound, "read document", err)
		}
		return "", fmt.Errorf("stat document: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return readPDF(path)
	case ".xlsx":
		return readWorkbook(path)
	default:
		return readPlainText(path, ref.Name)
	}
}

func readPlainText(path, name string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("document is not valid utf-8: %s", name)
	}
	return strings.TrimSpace(string(raw)), nil
}

func readPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	text, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, text); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// readWorkbook flattens every sheet into tab-separated lines, one row per
// line, prefixed by a sheet heading so chunking keeps sheets separable.
func readWorkbook(path string) (string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	var b strings.Builder
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		fmt.Fprintf(&b, "# %s\n\n", sheet)
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String()), nil
}
