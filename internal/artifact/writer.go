// Package artifact writes finished pipeline outputs to timestamped files.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const stampLayout = "20060102_150405"

// Writer places output files under Dir, naming them
// <prefix>_<timestamp>.<ext>. The zero Dir means the current directory.
type Writer struct {
	Dir string
	now func() time.Time
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, now: time.Now}
}

// Write stores data and returns the path it landed at. When the stamped name
// already exists a numeric suffix keeps the write from clobbering it.
func (w *Writer) Write(prefix, ext string, data []byte) (string, error) {
	now := time.Now
	if w.now != nil {
		now = w.now
	}
	dir := w.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	stamp := now().Format(stampLayout)
	base := fmt.Sprintf("%s_%s", prefix, stamp)
	path := filepath.Join(dir, base+"."+ext)
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.%s", base, n, ext))
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}
