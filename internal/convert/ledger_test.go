package convert_test

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"sdsconv/internal/convert"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestLedgerDeduplicatesAcrossTasks(t *testing.T) {
	path := filepath.Join(t.TempDir(), convert.ErrorsFileName)
	ledger := convert.NewLedger(path)

	first, err := ledger.Record([]string{"B", "A"})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if !slices.Equal(first, []string{"A", "B"}) {
		t.Fatalf("unexpected first batch: %v", first)
	}
	second, err := ledger.Record([]string{"B", "C"})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if !slices.Equal(second, []string{"C"}) {
		t.Fatalf("unexpected second batch: %v", second)
	}

	if got := readLines(t, path); !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Fatalf("unexpected ledger contents: %q", got)
	}
	if ledger.Len() != 3 {
		t.Fatalf("expected 3 recorded paths, got %d", ledger.Len())
	}
}

func TestLedgerSkipsWriteWhenNothingNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), convert.ErrorsFileName)
	ledger := convert.NewLedger(path)

	fresh, err := ledger.Record([]string{"", ""})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if len(fresh) != 0 {
		t.Fatalf("expected nothing recorded, got %v", fresh)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no ledger file, stat err=%v", err)
	}

	if _, err := ledger.Record([]string{"A", "A"}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if got := readLines(t, path); !slices.Equal(got, []string{"A"}) {
		t.Fatalf("expected duplicate input collapsed, got %q", got)
	}
}

func TestLedgerConcurrentRecordsWriteEachPathOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), convert.ErrorsFileName)
	ledger := convert.NewLedger(path)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Go(func() {
			paths := []string{"shared", "p" + itoa(i%4)}
			if _, err := ledger.Record(paths); err != nil {
				t.Errorf("Record returned error: %v", err)
			}
		})
	}
	wg.Wait()

	got := readLines(t, path)
	slices.Sort(got)
	want := []string{"p0", "p1", "p2", "p3", "shared"}
	if !slices.Equal(got, want) {
		t.Fatalf("unexpected ledger contents: %q", got)
	}
}

func TestLedgerKeepsPathsUnrecordedWhenAppendFails(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	ledger := convert.NewLedger(filepath.Join(blocker, convert.ErrorsFileName))

	if _, err := ledger.Record([]string{"A"}); err == nil {
		t.Fatal("expected append error")
	}
	if ledger.Len() != 0 {
		t.Fatalf("expected no recorded paths after failed append, got %d", ledger.Len())
	}
}
