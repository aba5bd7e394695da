package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sachalieges/brickdeals/internal/models"
)

func TestWriterWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "artifacts")
	w := NewWriter(dir)

	capturedAt := time.Date(2026, 8, 1, 9, 30, 15, 0, time.UTC)
	records := []models.RawRecord{
		{Kind: models.KindSale, Source: "vinted", ExternalID: "123", Title: "LEGO 42151", Price: "54.90"},
	}

	path, err := w.Write("vinted", capturedAt, records)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "vinted_") {
		t.Errorf("file name %q should start with the source", base)
	}
	if strings.Contains(base, ":") {
		t.Errorf("file name %q must not contain colons", base)
	}
	if !strings.HasSuffix(base, ".json") {
		t.Errorf("file name %q should end in .json", base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}

	var roundTrip []models.RawRecord
	if err := json.Unmarshal(data, &roundTrip); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	if len(roundTrip) != 1 || roundTrip[0].ExternalID != "123" {
		t.Errorf("unexpected artifact contents: %+v", roundTrip)
	}
}
