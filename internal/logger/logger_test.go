package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"
)

func TestInfoWritesJSONFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "info")
	t.Cleanup(func() { SetOutput(os.Stdout, "info") })

	Info("user fetched", map[string]any{"user_id": "u1", "error": errors.New("boom")})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshal log line: %v (%q)", err, buf.String())
	}
	if line["msg"] != "user fetched" {
		t.Fatalf("msg = %v, want %q", line["msg"], "user fetched")
	}
	if line["level"] != "INFO" {
		t.Fatalf("level = %v, want INFO", line["level"])
	}
	if line["user_id"] != "u1" {
		t.Fatalf("user_id = %v, want u1", line["user_id"])
	}
	if line["error"] != "boom" {
		t.Fatalf("error = %v, want boom", line["error"])
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "warn")
	t.Cleanup(func() { SetOutput(os.Stdout, "info") })

	Debug("hidden", nil)
	Info("hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	Warn("shown", nil)
	if buf.Len() == 0 {
		t.Fatal("expected warn output")
	}
}
