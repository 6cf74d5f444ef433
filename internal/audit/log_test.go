package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"vendra.org/internal/obs"
	"vendra.org/internal/rbac"
)

func TestLogEvent(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = rbac.ContextWithActor(ctx, rbac.ActorContext{ActorID: "acc-42", RoleLevel: rbac.RoleAdmin})

	if err := LogEvent(ctx, "order.status.change", map[string]any{"from": "placed", "to": "paid"}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "order.status.change" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["actor_id"] != "acc-42" {
		t.Fatalf("unexpected actor id: %v", entry["actor_id"])
	}
	if entry["actor_role"] != "admin" {
		t.Fatalf("unexpected actor role: %v", entry["actor_role"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["to"] != "paid" {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for blank event name")
	}
}
