package inputio_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"sdsconv/internal/inputio"
)

func payload() []byte {
	return bytes.Repeat([]byte("000001D GE APE  BHZ"), 64)
}

func TestOpenReadsPlainGzipAndZstd(t *testing.T) {
	dir := t.TempDir()
	data := payload()

	plain := filepath.Join(dir, "plain.mseed")
	if err := os.WriteFile(plain, data, 0o644); err != nil {
		t.Fatalf("write plain: %v", err)
	}

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	if _, err := gw.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	gzPath := filepath.Join(dir, "data.mseed.gz")
	if err := os.WriteFile(gzPath, gz.Bytes(), 0o644); err != nil {
		t.Fatalf("write gzip: %v", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	zstPath := filepath.Join(dir, "data.mseed.zst")
	if err := os.WriteFile(zstPath, enc.EncodeAll(data, nil), 0o644); err != nil {
		t.Fatalf("write zstd: %v", err)
	}
	enc.Close()

	for _, path := range []string{plain, gzPath, zstPath} {
		rc, err := inputio.Open(path)
		if err != nil {
			t.Fatalf("Open(%s): %v", path, err)
		}
		got, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("%s: decompressed content mismatch", filepath.Base(path))
		}
	}
}

func TestReadHeaderShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := inputio.ReadHeader(path, 512)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestSniff(t *testing.T) {
	cases := map[inputio.Kind][]byte{
		inputio.KindZstd:  {0x28, 0xb5, 0x2f, 0xfd, 0x00},
		inputio.KindGzip:  {0x1f, 0x8b, 0x08},
		inputio.KindPlain: []byte("000001D "),
	}
	for want, prefix := range cases {
		if got := inputio.Sniff(prefix); got != want {
			t.Fatalf("Sniff(%x) = %s, want %s", prefix, got, want)
		}
	}
}
