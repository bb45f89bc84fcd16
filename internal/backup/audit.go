package backup

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// EventType distinguishes one audit record from another (spec §3 Audit
// Event); the stream is strictly totally ordered by append.
type EventType string

const (
	EventStart           EventType = "start"
	EventFileModified    EventType = "file_modified"
	EventFileCreated     EventType = "file_created"
	EventFileDeleted     EventType = "file_deleted"
	EventError           EventType = "error"
	EventEnd             EventType = "end"
)

// Event is one JSONL record. Fields are a union over every event type;
// only those relevant to EventType are populated, matching the teacher's
// preference for a flat record over nested polymorphism in JSON payloads.
type Event struct {
	Type      EventType `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`

	// Start fields.
	ToolVersion string   `json:"tool_version,omitempty"`
	User        string   `json:"user,omitempty"`
	Machine     string   `json:"machine,omitempty"`
	PID         int      `json:"pid,omitempty"`
	Parameters  []string `json:"parameters,omitempty"`

	// File-modification fields.
	Path         string `json:"path,omitempty"`
	PreHashB64   string `json:"pre_hash_b64,omitempty"`
	PostHashB64  string `json:"post_hash_b64,omitempty"`

	// Error fields. Message is sanitized by the caller before being
	// passed in — the audit stream itself performs no redaction.
	ErrorKind    string `json:"error_kind,omitempty"`
	Message      string `json:"message,omitempty"`

	// End fields.
	ProjectsTotal   int `json:"projects_total,omitempty"`
	ProjectsFailed  int `json:"projects_failed,omitempty"`
}

// Stream is the C8 append-only audit log: one JSON record per line,
// writes serialized through a mutex so concurrent workers never interleave
// a partial line (Testable Property 8).
type Stream struct {
	mu sync.Mutex
	f  *os.File
	enc *json.Encoder
}

// NewStream opens (creating if absent) the audit log at path for append.
func NewStream(path string) (*Stream, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "backup: open audit stream %s", path)
	}
	return &Stream{f: f, enc: json.NewEncoder(f)}, nil
}

// Append writes one record, stamping Timestamp if the caller left it zero.
func (s *Stream) Append(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if err := s.enc.Encode(e); err != nil {
		return errors.Wrap(err, "backup: append audit event")
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// ReadAll decodes every record in an existing audit stream, verifying
// one-well-formed-record-per-line (the `analyze --report` summary and
// Testable Property 8 both rely on this).
func ReadAll(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "backup: open audit stream %s", path)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	var events []Event
	for {
		var e Event
		if err := dec.Decode(&e); err != nil {
			if err == io.EOF {
				break
			}
			return events, errors.Wrap(err, "backup: malformed audit record")
		}
		events = append(events, e)
	}
	return events, nil
}
