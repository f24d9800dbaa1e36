package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/require"
)

func TestOpenPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	rc, err := Open(path, false)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestOpenGzipSuffixDecompressesTransparently(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := pgzip.NewWriter(f)
	_, err = zw.Write([]byte("compressed content"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	rc, err := Open(path, false)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "compressed content", string(got))
}

func TestOpenMissingFileReturnsError(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.txt"), false)
	require.Error(t, err)
}

func TestSizeReturnsZeroForMissingFile(t *testing.T) {
	require.EqualValues(t, 0, Size(filepath.Join(t.TempDir(), "missing.txt")))
}

func TestWrapReaderPassthroughWhenNotGzip(t *testing.T) {
	r, err := WrapReader(nil, false)
	require.NoError(t, err)
	require.Nil(t, r)
}
