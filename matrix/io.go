package matrix

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

// openReader opens path for reading, transparently decompressing .gz and
// .lz4 files by extension.
func openReader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &layeredReader{r: zr, closers: []io.Closer{zr, f}}, nil
	case strings.HasSuffix(path, ".lz4"):
		return &layeredReader{r: lz4.NewReader(f), closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

// openWriter opens path for writing, transparently compressing .gz and
// .lz4 files by extension.
func openWriter(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		zw := gzip.NewWriter(f)
		return &layeredWriter{w: zw, closers: []io.Closer{zw, f}}, nil
	case strings.HasSuffix(path, ".lz4"):
		zw := lz4.NewWriter(f)
		return &layeredWriter{w: zw, closers: []io.Closer{zw, f}}, nil
	default:
		return f, nil
	}
}

type layeredReader struct {
	r       io.Reader
	closers []io.Closer
}

func (l *layeredReader) Read(p []byte) (int, error) { return l.r.Read(p) }

func (l *layeredReader) Close() error {
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type layeredWriter struct {
	w       io.Writer
	closers []io.Closer
}

func (l *layeredWriter) Write(p []byte) (int, error) { return l.w.Write(p) }

func (l *layeredWriter) Close() error {
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// scanLines streams the lines of path through fn, transparently
// decompressing, with line numbers starting at 1.
func scanLines(path string, fn func(n int, line string) error) error {
	r, err := openReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		if err := fn(n, sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}
