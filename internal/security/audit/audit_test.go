package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/aryan0dhankhar/outreach/internal/infrastructure/logger"
)

func TestLogActionIncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx := logger.WithRequestID(context.Background(), "req-9")

	al.LogAction(ctx, "Karim", "update", "contractor", "c1", "success", "status")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json line: %v", err)
	}
	for key, want := range map[string]string{
		"log_type":    "audit",
		"action":      "update",
		"actor":       "Karim",
		"resource_id": "c1",
		"request_id":  "req-9",
	} {
		if line[key] != want {
			t.Errorf("expected %s=%s, got %v", key, want, line[key])
		}
	}
}

func TestLogExport(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	al.LogExport(context.Background(), "Admin", "contractors_all_20240101.csv", 12, "success")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json line: %v", err)
	}
	if line["rows"] != float64(12) || line["filename"] != "contractors_all_20240101.csv" {
		t.Fatalf("unexpected export line %v", line)
	}
}
