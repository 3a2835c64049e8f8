package fetch

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// Local serves blobs from a directory tree. Useful for mirrored reference
// data and tests.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

// Open opens the named file under the root.
func (l *Local) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(l.root, filepath.FromSlash(name)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}
