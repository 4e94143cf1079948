// Package attachments stores ledger entry receipts on local disk.
package attachments

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/caixaclaro/caixaclaro/internal/shared"
)

// Store writes uploaded files under a single directory, naming each one with
// a random UUID so uploads never collide and client names never touch disk.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save persists the content and returns the stored reference. Only the
// extension of the original filename is kept, lowercased.
func (s *Store) Save(src io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		ext = ""
	}
	ref := uuid.NewString() + ext

	f, err := os.Create(filepath.Join(s.dir, ref))
	if err != nil {
		return "", fmt.Errorf("create attachment: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return ref, nil
}

// Open returns the stored file for streaming back to the client.
func (s *Store) Open(ref string) (*os.File, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, shared.ErrNotFound
	}
	return f, err
}

// Remove deletes the stored file. A missing file is not an error: the
// reference may already have been cleaned up.
func (s *Store) Remove(ref string) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove attachment: %w", err)
	}
	return nil
}

// resolve rejects references that would escape the upload directory.
func (s *Store) resolve(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", fmt.Errorf("%w: invalid attachment reference", shared.ErrValidation)
	}
	return filepath.Join(s.dir, ref), nil
}
