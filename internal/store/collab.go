package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gabriel-vasile/mimetype"

	"github.com/acristoffers/void/internal/errs"
)

// MimeFunc reports the MIME type of an OS file. The result is stored
// verbatim in the node's metadata under the "mimetype" key.
type MimeFunc func(path string) string

// SetMimeDetector replaces the MIME detection collaborator.
func (s *Store) SetMimeDetector(fn MimeFunc) {
	s.detectMime = fn
}

func detectMime(path string) string {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "application/octet-stream"
	}
	return m.String()
}

// chunkFileName is the on-disk name of a chunk: the big-endian u64 id as
// 32 lowercase hex digits, left-padded with zeros.
func chunkFileName(id uint64) string {
	return fmt.Sprintf("%032x", id)
}

// parseChunkName reverses chunkFileName. Reports false for anything
// that is not a 32-digit lowercase hex name.
func parseChunkName(name string) (uint64, bool) {
	if len(name) != 32 {
		return 0, false
	}
	for _, r := range name {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return 0, false
		}
	}
	id, err := strconv.ParseUint(name, 16, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (s *Store) removeChunkFile(id uint64) {
	if p, err := s.folder.Join(chunkFileName(id)); err == nil {
		os.Remove(p.Path)
	}
}

// walk visits every entry below root, the root itself included,
// directories before their contents. Symlinks are followed.
func walk(root string, fn func(path string, isDir bool) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%s: %w", root, errs.ErrCannotReadFile)
	}
	if !info.IsDir() {
		return fn(root, false)
	}
	if err := fn(root, true); err != nil {
		return err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("%s: %w", root, errs.ErrCannotReadFile)
	}
	for _, entry := range entries {
		if err := walk(filepath.Join(root, entry.Name()), fn); err != nil {
			return err
		}
	}
	return nil
}
