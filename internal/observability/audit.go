package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditEventType categorizes audit events.
type AuditEventType string

const (
	AuditEventDatasetLoad      AuditEventType = "dataset.load"
	AuditEventSnapshotSave     AuditEventType = "snapshot.save"
	AuditEventRunStart         AuditEventType = "run.start"
	AuditEventRunEnd           AuditEventType = "run.end"
	AuditEventAnalysisComplete AuditEventType = "analysis.complete"
	AuditEventAnalysisError    AuditEventType = "analysis.error"
)

// AuditEvent is a single JSON-lines audit record.
type AuditEvent struct {
	Timestamp   time.Time      `json:"timestamp"`
	EventType   AuditEventType `json:"event_type"`
	SessionID   string         `json:"session_id"`
	Analyzer    string         `json:"analyzer,omitempty"`
	Success     bool           `json:"success"`
	DurationMS  int64          `json:"duration_ms,omitempty"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	ErrorDetail string         `json:"error_detail,omitempty"`
}

// AuditConfig configures the audit logger.
type AuditConfig struct {
	Enabled    bool
	OutputPath string // file path or "stdout"/"stderr"
	SessionID  string
}

// AuditLogger writes audit events as JSON lines. A nil *AuditLogger is a
// valid disabled logger.
type AuditLogger struct {
	mu        sync.Mutex
	writer    io.Writer
	sessionID string
	enabled   bool
}

// NewAuditLogger opens the configured output.
func NewAuditLogger(config AuditConfig) (*AuditLogger, error) {
	if !config.Enabled {
		return &AuditLogger{}, nil
	}

	var writer io.Writer
	switch config.OutputPath {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		writer = f
	}
	return NewAuditWriter(writer, config.SessionID), nil
}

// NewAuditWriter returns an enabled logger writing to w. An empty sessionID
// is replaced by a random one.
func NewAuditWriter(w io.Writer, sessionID string) *AuditLogger {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &AuditLogger{writer: w, sessionID: sessionID, enabled: true}
}

// SessionID returns the id stamped on every event.
func (l *AuditLogger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}

// Log writes an audit event.
func (l *AuditLogger) Log(event *AuditEvent) error {
	if l == nil || !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.SessionID == "" {
		event.SessionID = l.sessionID
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	_, err = fmt.Fprintf(l.writer, "%s\n", data)
	return err
}

// LogDatasetLoad records a dataset read from path.
func (l *AuditLogger) LogDatasetLoad(path, hash string, nodes, edges, skipped int) {
	_ = l.Log(&AuditEvent{
		EventType: AuditEventDatasetLoad,
		Success:   true,
		Message:   fmt.Sprintf("Loaded dataset %s", path),
		Details: map[string]any{
			"path":          path,
			"content_hash":  hash,
			"nodes":         nodes,
			"edges":         edges,
			"skipped_edges": skipped,
		},
	})
}

// LogSnapshotSave records a stored snapshot.
func (l *AuditLogger) LogSnapshotSave(id, tag string) {
	_ = l.Log(&AuditEvent{
		EventType: AuditEventSnapshotSave,
		Success:   true,
		Message:   fmt.Sprintf("Saved snapshot %s", id),
		Details:   map[string]any{"id": id, "tag": tag},
	})
}

// LogRunStart records the start of a report run.
func (l *AuditLogger) LogRunStart(analyzers []string) {
	_ = l.Log(&AuditEvent{
		EventType: AuditEventRunStart,
		Success:   true,
		Message:   fmt.Sprintf("Report started with %d analyzers", len(analyzers)),
		Details:   map[string]any{"analyzers": analyzers},
	})
}

// LogRunEnd records the end of a report run.
func (l *AuditLogger) LogRunEnd(duration time.Duration, err error) {
	event := &AuditEvent{
		EventType:  AuditEventRunEnd,
		Success:    err == nil,
		DurationMS: duration.Milliseconds(),
		Message:    "Report finished",
	}
	if err != nil {
		event.ErrorDetail = err.Error()
	}
	_ = l.Log(event)
}

// LogAnalysis records one analyzer outcome.
func (l *AuditLogger) LogAnalysis(analyzer string, duration time.Duration, findings int, err error) {
	if err != nil {
		_ = l.Log(&AuditEvent{
			EventType:   AuditEventAnalysisError,
			Analyzer:    analyzer,
			DurationMS:  duration.Milliseconds(),
			Message:     fmt.Sprintf("Analyzer %s failed", analyzer),
			ErrorDetail: err.Error(),
		})
		return
	}
	_ = l.Log(&AuditEvent{
		EventType:  AuditEventAnalysisComplete,
		Analyzer:   analyzer,
		Success:    true,
		DurationMS: duration.Milliseconds(),
		Message:    fmt.Sprintf("Analyzer %s completed", analyzer),
		Details:    map[string]any{"findings": findings},
	})
}

// Close closes the audit output if it is a file.
func (l *AuditLogger) Close() error {
	if l == nil {
		return nil
	}
	if closer, ok := l.writer.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}
	return nil
}
