package transcript

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesPerSessionNDJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := NewLogger(Config{
		Enabled:   true,
		Dir:       dir,
		QueueSize: 16,
	}, slog.Default())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	logger.Log(Event{
		SessionID:  "sess-1",
		Channel:    "http",
		Direction:  DirectionInbound,
		EventType:  "user_message",
		ContentRaw: "para mi hijo\x1b[0m de 8",
	})

	path := filepath.Join(dir, "sess-1.ndjson")
	line := waitForLogLine(t, path)
	var got Event
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("failed to unmarshal log line: %v", err)
	}
	if got.ContentRaw != "para mi hijo\x1b[0m de 8" {
		t.Fatalf("unexpected ContentRaw: %q", got.ContentRaw)
	}
	if got.Content != "para mi hijo de 8" {
		t.Fatalf("unexpected cleaned content: %q", got.Content)
	}
	if got.Timestamp == "" {
		t.Fatal("expected timestamp to be populated")
	}
}

func TestLoggerCloseDrainsQueue(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	global := filepath.Join(dir, "all", "all.ndjson")
	logger, err := NewLogger(Config{
		Enabled:       true,
		Dir:           dir,
		GlobalEnabled: true,
		GlobalPath:    global,
		QueueSize:     64,
	}, slog.Default())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		logger.Log(Event{SessionID: "a:b", EventType: "turn", ContentRaw: "hola"})
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	logger.Log(Event{SessionID: "a:b", EventType: "after_close"})

	data, err := os.ReadFile(filepath.Join(dir, "a_b.ndjson"))
	if err != nil {
		t.Fatalf("read session file: %v", err)
	}
	if n := len(strings.Split(strings.TrimSpace(string(data)), "\n")); n != 10 {
		t.Fatalf("expected 10 lines, got %d", n)
	}
	if _, err := os.Stat(global); err != nil {
		t.Fatalf("expected global transcript: %v", err)
	}
}

func TestNewLoggerDisabledIsNop(t *testing.T) {
	logger, err := NewLogger(Config{}, nil)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if _, ok := logger.(nopLogger); !ok {
		t.Fatalf("expected nop logger, got %T", logger)
	}
}

func TestCleanForReadabilityStripsANSI(t *testing.T) {
	t.Parallel()

	raw := "\x1b[31merror\x1b[0m   plain"
	clean := cleanForReadability(raw)
	if strings.Contains(clean, "\x1b[31m") {
		t.Fatalf("expected ANSI sequence to be stripped: %q", clean)
	}
	if clean != "error plain" {
		t.Fatalf("expected readable text to remain: %q", clean)
	}
}

func TestFileNameSanitizesSessionID(t *testing.T) {
	tests := map[string]string{
		"sess-1":     "sess-1.ndjson",
		"a:b":        "a_b.ndjson",
		"..":         "unknown.ndjson",
		"../escape":  "_escape.ndjson",
		"user.name.": "user.name..ndjson",
	}
	for in, want := range tests {
		if got := fileName(in); got != want {
			t.Errorf("fileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func waitForLogLine(t *testing.T, path string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && len(data) > 0 {
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			if len(lines) > 0 {
				return lines[len(lines)-1]
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for log file %s", path)
	return ""
}
