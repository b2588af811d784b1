// Package vpath implements the path algebra used by the vault.
//
// Paths are POSIX-style strings. They are normalized on construction:
// runs of '/' collapse, '.' and '..' resolve, relative paths absolutize
// against the process working directory, and a single trailing '/' is
// stripped (except for the root itself).
package vpath

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/acristoffers/void/internal/errs"
)

// Path is an immutable, normalized path.
type Path struct {
	Name   string // last component; empty for the root
	Path   string // absolute, collapsed, no trailing '/' except "/"
	Parent string // absolute path of the parent; "/" is its own parent
}

// New parses and normalizes raw into a Path.
func New(raw string) (Path, error) {
	if raw == "" {
		return Path{}, fmt.Errorf("empty path: %w", errs.ErrCannotParse)
	}

	if !strings.HasPrefix(raw, "/") {
		cwd, err := os.Getwd()
		if err != nil {
			return Path{}, fmt.Errorf("resolving %q: %w", raw, errs.ErrCannotParse)
		}
		raw = cwd + "/" + raw
	}

	clean := path.Clean(raw)
	if clean == "/" {
		return Path{Name: "", Path: "/", Parent: "/"}, nil
	}
	return Path{
		Name:   path.Base(clean),
		Path:   clean,
		Parent: path.Dir(clean),
	}, nil
}

// Join appends node to the path and renormalizes.
func (p Path) Join(node string) (Path, error) {
	return New(p.Path + "/" + node)
}

// WithRoot replaces the leading remove portion of the path with newRoot.
// It reports false when remove is not a prefix of the path on a component
// boundary. Trailing slashes on both arguments are ignored.
func (p Path) WithRoot(remove, newRoot string) (Path, bool) {
	remove = stripTrailingSlash(remove)
	newRoot = stripTrailingSlash(newRoot)

	var suffix string
	switch {
	case remove == "/":
		suffix = p.Path
	case p.Path == remove:
		suffix = ""
	case strings.HasPrefix(p.Path, remove+"/"):
		suffix = strings.TrimPrefix(p.Path, remove)
	default:
		return Path{}, false
	}

	moved, err := New(newRoot + "/" + suffix)
	if err != nil {
		return Path{}, false
	}
	return moved, true
}

// Components returns the ordered path components, starting with "/".
func (p Path) Components() []string {
	if p.Path == "/" {
		return []string{"/"}
	}
	parts := strings.Split(strings.TrimPrefix(p.Path, "/"), "/")
	return append([]string{"/"}, parts...)
}

// Exists reports whether the path exists on the OS filesystem.
// Only meaningful for paths that refer to real files.
func (p Path) Exists() bool {
	_, err := os.Stat(p.Path)
	return err == nil
}

// IsDir reports whether the path is a directory on the OS filesystem.
func (p Path) IsDir() bool {
	info, err := os.Stat(p.Path)
	return err == nil && info.IsDir()
}

func stripTrailingSlash(s string) string {
	if s != "/" && strings.HasSuffix(s, "/") {
		return s[:len(s)-1]
	}
	return s
}
