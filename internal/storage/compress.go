package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	gzip "github.com/klauspost/pgzip"
)

// Compressed file suffixes, detected by name.
const (
	SuffixGzip = ".gz"
	SuffixZstd = ".zst"
)

// StripCompression removes a compression suffix from path.
func StripCompression(path string) string {
	for _, s := range []string{SuffixGzip, SuffixZstd} {
		if strings.HasSuffix(path, s) {
			return strings.TrimSuffix(path, s)
		}
	}
	return path
}

// OpenReader opens path for reading, decompressing .gz and .zst files.
func OpenReader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(path, SuffixGzip):
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return &readCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case strings.HasSuffix(path, SuffixZstd):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		return &readCloser{Reader: zr, closers: []io.Closer{closerFunc(func() error { zr.Close(); return nil }), f}}, nil
	default:
		return f, nil
	}
}

// CreateWriter creates path for writing, compressing .gz and .zst files.
// Parent directories are created. Close flushes the compressor before the
// file.
func CreateWriter(path string) (io.WriteCloser, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(path, SuffixGzip):
		zw := gzip.NewWriter(f)
		return &writeCloser{Writer: zw, closers: []io.Closer{zw, f}}, nil
	case strings.HasSuffix(path, SuffixZstd):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("creating zstd writer: %w", err)
		}
		return &writeCloser{Writer: zw, closers: []io.Closer{zw, f}}, nil
	default:
		return f, nil
	}
}

type closerFunc func() error

func (fn closerFunc) Close() error { return fn() }

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	return closeAll(r.closers)
}

type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (w *writeCloser) Close() error {
	return closeAll(w.closers)
}

// closeAll closes in order and returns every error.
func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// hasExt reports whether path, ignoring a compression suffix, has one of exts.
func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(StripCompression(path)))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
