package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestLoggerWritesCategoryAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New("rel8", INFO, &buf)

	logger.Info("wizard", "step advanced", map[string]any{"page": "name"})
	logger.Error("backend", "assign failed", errors.New("boom"), nil)

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["category"] != "wizard" || entries[0]["page"] != "name" || entries[0]["site"] != "rel8" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1]["error"] != "boom" || entries[1]["level"] != "error" {
		t.Fatalf("unexpected error entry: %+v", entries[1])
	}
}

func TestLoggerRespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("rel8", WARN, &buf)

	logger.Debug("x", "debug", nil)
	logger.Info("x", "info", nil)
	logger.Warn("x", "warn", nil)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 || entries[0]["message"] != "warn" {
		t.Fatalf("expected only the warning, got %+v", entries)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Info("x", "ignored", nil)
	logger.WithRequestID("id").WithCategory("x").Info("ignored")
	if err := logger.Sync(); err != nil {
		t.Fatalf("sync on nil logger: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": DEBUG, "WARN": WARN, "error": ERROR, "": INFO, "nonsense": INFO}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithHTTPLoggingAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New("rel8", INFO, &buf)

	var seenID string
	handler := WithHTTPLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}), logger)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if seenID == "" {
		t.Fatalf("expected request id in context")
	}
	if rec.Header().Get("X-Request-ID") != seenID {
		t.Fatalf("expected header to carry request id")
	}
	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected one http entry, got %d", len(entries))
	}
	if entries[0]["category"] != "http" || entries[0]["level"] != "warn" || entries[0]["request_id"] != seenID {
		t.Fatalf("unexpected http entry: %+v", entries[0])
	}
}
