// Package fsutil provides the gzip-transparent file opening shared by
// flowkit's readers: callers pass a path or an already-open reader, and
// a ".gz" suffix (or an explicit request) is decompressed on the fly.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
)

// readCloser adapts a decompressing reader and its underlying file into
// a single io.ReadCloser that closes both in the right order.
type readCloser struct {
	reader io.Reader
	close  func() error
}

func (r readCloser) Read(p []byte) (int, error) {
	return r.reader.Read(p)
}

func (r readCloser) Close() error {
	return r.close()
}

// Open opens path for reading, transparently decompressing it through
// pgzip when the name ends in ".gz" or gzip is forced true. The
// returned ReadCloser's Close closes both the decompressor and the
// underlying file.
func Open(path string, gzip bool) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fsutil: open %s: %w", path, err)
	}
	if gzip || strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("fsutil: gzip header %s: %w", path, err)
		}
		return readCloser{
			reader: zr,
			close: func() error {
				_ = zr.Close()
				return f.Close()
			},
		}, nil
	}
	return f, nil
}

// WrapReader decompresses r through pgzip when gzip is true, otherwise
// returns r unchanged. Use this when the caller already has an
// io.Reader (e.g. an in-memory buffer, a network stream) instead of a
// path, but still wants transparent gzip handling.
func WrapReader(r io.Reader, gzip bool) (io.Reader, error) {
	if !gzip {
		return r, nil
	}
	zr, err := pgzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("fsutil: gzip header: %w", err)
	}
	return zr, nil
}

// Size returns path's on-disk byte size, used by readers to drive
// percentage-based progress reporting. It returns 0 (not an error) when
// the stat fails, since size is advisory only.
func Size(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
