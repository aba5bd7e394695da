// Package artifact persists raw scrape output as timestamped JSON files so a
// bad normalization run can be replayed without hitting the sources again.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write dumps v to <dir>/<source>_<timestamp>.json and returns the file path.
// The timestamp is RFC 3339 with colons replaced so the name is valid on
// every filesystem.
func (w *Writer) Write(source string, capturedAt time.Time, v any) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir %s: %w", w.dir, err)
	}

	stamp := strings.ReplaceAll(capturedAt.UTC().Format(time.RFC3339), ":", "-")
	path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.json", source, stamp))

	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal artifact for %s: %w", source, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", path, err)
	}
	return path, nil
}
