package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedClock(w *Writer) {
	w.now = func() time.Time {
		return time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC)
	}
}

func TestWrite_TimestampedName(t *testing.T) {
	w := NewWriter(t.TempDir())
	fixedClock(w)

	path, err := w.Write("mermaid_code", "txt", []byte("graph TD\nA((Root))"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := filepath.Base(path); got != "mermaid_code_20260830_140509.txt" {
		t.Errorf("file name = %q", got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "graph TD\nA((Root))" {
		t.Errorf("content = %q", data)
	}
}

func TestWrite_DoesNotClobber(t *testing.T) {
	w := NewWriter(t.TempDir())
	fixedClock(w)

	first, err := w.Write("report", "txt", []byte("one"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	second, err := w.Write("report", "txt", []byte("two"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if first == second {
		t.Fatalf("second write reused path %q", first)
	}
	if !strings.HasSuffix(second, "_1.txt") {
		t.Errorf("second path = %q, want numeric suffix", second)
	}
	if data, _ := os.ReadFile(first); string(data) != "one" {
		t.Errorf("first file clobbered: %q", data)
	}
}

func TestWrite_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := NewWriter(dir)
	if _, err := w.Write("plan", "md", []byte("# Plan")); err != nil {
		t.Fatalf("Write into missing dir: %v", err)
	}
}
