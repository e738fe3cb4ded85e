// Package inputio opens waveform input files, transparently decompressing
// gzip and zstd streams so callers always see raw record bytes.
package inputio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Kind names the container detected for an input file.
type Kind string

const (
	KindPlain Kind = "plain"
	KindGzip  Kind = "gzip"
	KindZstd  Kind = "zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Sniff classifies a stream prefix.
func Sniff(prefix []byte) Kind {
	switch {
	case bytes.HasPrefix(prefix, zstdMagic):
		return KindZstd
	case bytes.HasPrefix(prefix, gzipMagic):
		return KindGzip
	default:
		return KindPlain
	}
}

// Open returns a reader over the decompressed content of path.
func Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc, err := wrap(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return rc, nil
}

// ReadHeader reads exactly n bytes from the start of the decompressed
// content. Short files return io.ErrUnexpectedEOF or io.EOF.
func ReadHeader(path string, n int) ([]byte, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	buf := make([]byte, n)
	if _, err := io.ReadFull(rc, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func wrap(file *os.File) (io.ReadCloser, error) {
	br := bufio.NewReaderSize(file, 64*1024)
	prefix, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	switch Sniff(prefix) {
	case KindZstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return &stackedReader{Reader: dec, closers: []func() error{
			func() error { dec.Close(); return nil },
			file.Close,
		}}, nil
	case KindGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &stackedReader{Reader: zr, closers: []func() error{zr.Close, file.Close}}, nil
	default:
		return &stackedReader{Reader: br, closers: []func() error{file.Close}}, nil
	}
}

type stackedReader struct {
	io.Reader
	closers []func() error
}

func (s *stackedReader) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
