package fileemitter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dm-line/lineemu/internal/queue"
)

func TestRunLoadsTrimmedLines(t *testing.T) {
	restore := shrinkDelays(t)
	defer restore()

	dir := t.TempDir()
	path := filepath.Join(dir, "dm.csv")
	content := "CODE001\n  CODE002  \nCODE003\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	q := queue.New("test")
	if err := Run(path, q); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var got []string
	for {
		c, ok := q.Pop()
		if !ok {
			break
		}
		got = append(got, c)
	}

	want := []string{"CODE001", "CODE002", "CODE003"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunReportsMissingFile(t *testing.T) {
	q := queue.New("test")
	if err := Run(filepath.Join(t.TempDir(), "missing.csv"), q); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

// shrinkDelays zeroes the package-level startup/line delays for the
// duration of a test and returns a func restoring them.
func shrinkDelays(t *testing.T) func() {
	t.Helper()
	prevStartup, prevLine := startupDelay, linePause
	startupDelay, linePause = 0, 0
	return func() {
		startupDelay, linePause = prevStartup, prevLine
	}
}
