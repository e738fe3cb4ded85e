package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"sdsconv/internal/mseed"
	"sdsconv/internal/waveform"
)

// WriteFile fills the target path with size bytes, starting with prefix and
// padded with a repeating filler byte. A size smaller than the prefix writes
// the prefix alone.
func WriteFile(t testing.TB, path string, prefix []byte, size int64) {
	t.Helper()

	if size < int64(len(prefix)) {
		size = int64(len(prefix))
	}
	data := make([]byte, size)
	copy(data, prefix)
	for i := len(prefix); i < len(data); i++ {
		data[i] = 0x42
	}
	writeBytes(t, path, data)
}

// WriteMiniSEED encodes traces as Steim2 records of 512 bytes and writes them
// to path.
func WriteMiniSEED(t testing.TB, path string, traces ...waveform.Trace) int64 {
	t.Helper()

	var data []byte
	for i := range traces {
		encoded, err := mseed.EncodeTrace(&traces[i], 512, waveform.Steim2, len(data)/512+1)
		if err != nil {
			t.Fatalf("encode %s: %v", traces[i].NSLC(), err)
		}
		data = append(data, encoded...)
	}
	writeBytes(t, path, data)
	return int64(len(data))
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
