// Package content reads page files from the content root.
package content

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Store reads files addressed by slash-separated names relative to the content root.
// Missing files are reported with an error matching fs.ErrNotExist.
type Store interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
}

// FSStore serves files from an fs.FS.
type FSStore struct {
	fsys fs.FS
}

// NewFSStore wraps fsys.
func NewFSStore(fsys fs.FS) *FSStore {
	return &FSStore{fsys: fsys}
}

// NewDirStore serves files below dir on the local filesystem.
func NewDirStore(dir string) *FSStore {
	return NewFSStore(os.DirFS(dir))
}

// ReadFile reads name, which may carry a leading slash. Names that escape the
// root or are otherwise invalid are treated as missing.
func (s *FSStore) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := strings.TrimPrefix(name, "/")
	if !fs.ValidPath(clean) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	data, err := fs.ReadFile(s.fsys, clean)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", clean, err)
	}
	return data, nil
}
