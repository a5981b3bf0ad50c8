package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAuditLogger_WritesJSONL(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fixedTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	logger := NewAuditLogger(AuditLoggerConfig{
		Writer: &buf,
		Now:    func() time.Time { return fixedTime },
	})

	logger.Log(AuditEvent{Type: EventMemoryCreated, UserID: "user1", FactID: "f-1", Detail: "User lives in New York."})
	logger.Log(AuditEvent{Type: EventMemoryDeleted, UserID: "user1", FactID: "f-0"})

	dec := json.NewDecoder(&buf)
	var first, second AuditEvent
	if err := dec.Decode(&first); err != nil {
		t.Fatalf("decode first: %v", err)
	}
	if err := dec.Decode(&second); err != nil {
		t.Fatalf("decode second: %v", err)
	}

	if first.Type != EventMemoryCreated || first.FactID != "f-1" || first.UserID != "user1" {
		t.Errorf("first = %+v", first)
	}
	if !first.Timestamp.Equal(fixedTime) {
		t.Errorf("timestamp = %v, want %v", first.Timestamp, fixedTime)
	}
	if second.Type != EventMemoryDeleted {
		t.Errorf("second type = %q", second.Type)
	}
}

func TestAuditLogger_RedactsWithoutMutatingCaller(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewRedactor()
	r.AddLiteral("my-secret-key")
	logger := NewAuditLogger(AuditLoggerConfig{Writer: &buf, Redactor: r})

	meta := map[string]string{"header": "value is my-secret-key here"}
	logger.Log(AuditEvent{Type: EventAuthFailure, Detail: "sent my-secret-key", Metadata: meta})

	if strings.Contains(buf.String(), "my-secret-key") {
		t.Errorf("secret found in audit output: %s", buf.String())
	}
	if meta["header"] != "value is my-secret-key here" {
		t.Errorf("caller metadata mutated: %v", meta)
	}
}

func TestAuditLogger_OnEventConcurrent(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		events []AuditEvent
	)
	logger := NewAuditLogger(AuditLoggerConfig{OnEvent: func(e AuditEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}})

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Log(AuditEvent{Type: EventRateLimit})
		}()
	}
	wg.Wait()

	if len(events) != 20 {
		t.Errorf("got %d events, want 20", len(events))
	}
}

func TestAuditLogger_NilIsNoop(t *testing.T) {
	t.Parallel()

	var logger *AuditLogger
	logger.Log(AuditEvent{Type: EventMemoryCreated})
	if logger.Failures() != 0 {
		t.Error("nil logger must report no failures")
	}
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAuditLogger_CountsWriteFailures(t *testing.T) {
	t.Parallel()

	logger := NewAuditLogger(AuditLoggerConfig{Writer: errWriter{}})
	logger.Log(AuditEvent{Type: EventMemoryCreated})
	logger.Log(AuditEvent{Type: EventMemoryDeleted})

	if got := logger.Failures(); got != 2 {
		t.Errorf("Failures = %d, want 2", got)
	}
}

func TestOpenAuditFile_Appends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "audit.jsonl")
	for range 2 {
		f, err := OpenAuditFile(path)
		if err != nil {
			t.Fatalf("OpenAuditFile: %v", err)
		}
		NewAuditLogger(AuditLoggerConfig{Writer: f}).Log(AuditEvent{Type: EventMemoryCreated})
		if err := f.Close(); err != nil {
			t.Fatal(err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(raw), "\n"); n != 2 {
		t.Errorf("got %d lines, want 2", n)
	}
}
