package backup

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// State is the Backup Session lifecycle described in spec §3.
type State string

const (
	Active     State = "active"
	Finalized  State = "finalized"
	RolledBack State = "rolled_back"
)

// Entry is one backed-up file: spec.md §3 Backup Session entry tuple.
type Entry struct {
	OriginalPath string    `json:"original_path"`
	BackupPath   string    `json:"backup_path"`
	PreHashB64   string    `json:"pre_hash_b64"`
	PostHashB64  string    `json:"post_hash_b64,omitempty"`
	Size         int64     `json:"size"`
	ModifiedAt   time.Time `json:"modified_at"`
}

// Manifest is the JSON shape written to disk on finalization (spec §6).
type Manifest struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Root      string    `json:"root"`
	Entries   []Entry   `json:"entries"`
	State     State     `json:"state"`
}

// Session is the C8 backup session: every first write to a path routes
// through BackupFile, which preserves the original content before it is
// overwritten.
type Session struct {
	ID        string
	Root      string
	Dir       string
	CreatedAt time.Time

	mu      sync.Mutex
	state   State
	entries []Entry
	seen    map[string]int // original path -> index into entries
}

// NewSession creates a new backup session rooted under
// <root>/.sdkmigrate-backup/<timestamp>-<uuid>.
func NewSession(root string) (*Session, error) {
	now := time.Now()
	id := now.UTC().Format("20060102T150405Z") + "-" + uuid.NewString()
	dir := filepath.Join(root, ".sdkmigrate-backup", id)
	if err := os.MkdirAll(filepath.Join(dir, "files"), 0o755); err != nil {
		return nil, errors.Wrapf(err, "backup: create session directory %s", dir)
	}
	return &Session{
		ID:        id,
		Root:      root,
		Dir:       dir,
		CreatedAt: now,
		state:     Active,
		seen:      map[string]int{},
	}, nil
}

// RollbackResult reports the outcome of restoring one entry.
type RollbackResult struct {
	OriginalPath string
	Err          error
}

// BackupFile copies path's current content into the session before the
// caller overwrites it. Idempotent: a second call for the same path is a
// no-op, satisfying Testable Property 6 (exactly one backup entry per
// path, post-hash eventually equal to final content).
func (s *Session) BackupFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "backup: resolve path %s", path)
	}
	if _, already := s.seen[abs]; already {
		return nil
	}

	rel, err := filepath.Rel(s.Root, abs)
	if err != nil {
		rel = filepath.Base(abs)
	}
	backupPath := filepath.Join(s.Dir, "files", rel)

	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		// Nothing to preserve: this path is newly created by the run, not
		// overwritten. Still record it so rollback knows to remove it.
		s.entries = append(s.entries, Entry{OriginalPath: abs, ModifiedAt: time.Now()})
		s.seen[abs] = len(s.entries) - 1
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "backup: stat %s", abs)
	}
	if info.IsDir() {
		return errors.Errorf("backup: %s is a directory", abs)
	}

	if err := os.MkdirAll(filepath.Dir(backupPath), 0o755); err != nil {
		return errors.Wrapf(err, "backup: create backup parent dir for %s", backupPath)
	}
	preHash, err := copyFileHashed(abs, backupPath)
	if err != nil {
		return err
	}

	s.entries = append(s.entries, Entry{
		OriginalPath: abs,
		BackupPath:   backupPath,
		PreHashB64:   preHash,
		Size:         info.Size(),
		ModifiedAt:   time.Now(),
	})
	s.seen[abs] = len(s.entries) - 1
	return nil
}

// RecordPostHash stamps the post-write content hash of an already-backed-up
// path, used by the audit stream and by Testable Property 6.
func (s *Session) RecordPostHash(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	idx, ok := s.seen[abs]
	if !ok {
		return errors.Errorf("backup: %s was never backed up", abs)
	}
	hash, err := hashFile(abs)
	if err != nil {
		return err
	}
	s.entries[idx].PostHashB64 = hash
	return nil
}

// Finalize writes the manifest atomically (temp file + rename, grounded on
// the teacher's txn_writer.go SafeWriter.Write) and transitions the
// session to Finalized.
func (s *Session) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	manifest := Manifest{
		SessionID: s.ID,
		CreatedAt: s.CreatedAt,
		Root:      s.Root,
		Entries:   s.entries,
		State:     Finalized,
	}
	b, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return errors.Wrap(err, "backup: marshal manifest")
	}

	finalPath := filepath.Join(s.Dir, "manifest.json")
	tmpPath := finalPath + ".tmp"
	if err := os.WriteFile(tmpPath, b, 0o644); err != nil {
		return errors.Wrap(err, "backup: write manifest temp file")
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return errors.Wrap(err, "backup: rename manifest into place")
	}

	s.state = Finalized
	return nil
}

// Rollback restores every original path from its backup entry in reverse
// order. It is idempotent: a second call against an already-rolled-back
// session is a no-op (Testable Property 7, S5 scenario).
func (s *Session) Rollback() ([]RollbackResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == RolledBack {
		return nil, nil
	}

	var results []RollbackResult
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		var err error
		if e.BackupPath == "" {
			// This path did not exist before the run; rollback removes it.
			err = os.Remove(e.OriginalPath)
			if os.IsNotExist(err) {
				err = nil
			}
		} else {
			err = restoreFile(e.BackupPath, e.OriginalPath)
		}
		results = append(results, RollbackResult{OriginalPath: e.OriginalPath, Err: err})
	}

	s.state = RolledBack
	return results, nil
}

// LoadManifest reads a previously finalized manifest back from disk, used
// to revive a session for rollback in a later process invocation.
func LoadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "backup: read manifest %s", path)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.Wrapf(err, "backup: parse manifest %s", path)
	}
	return &m, nil
}

// SessionFromManifest reconstructs a Session sufficient for Rollback from a
// loaded manifest (e.g. a standalone `rollback` CLI invocation).
func SessionFromManifest(m *Manifest, dir string) *Session {
	return &Session{
		ID:        m.SessionID,
		Root:      m.Root,
		Dir:       dir,
		CreatedAt: m.CreatedAt,
		state:     m.State,
		entries:   m.Entries,
		seen:      map[string]int{},
	}
}

func copyFileHashed(src, dest string) (hashB64 string, err error) {
	in, err := os.Open(src)
	if err != nil {
		return "", errors.Wrapf(err, "backup: open %s", src)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", errors.Wrapf(err, "backup: create %s", dest)
	}
	defer out.Close()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, h), in); err != nil {
		return "", errors.Wrapf(err, "backup: copy %s to %s", src, dest)
	}

	if info, err := os.Stat(src); err == nil {
		os.Chmod(dest, info.Mode())
	}

	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

func restoreFile(backupPath, originalPath string) error {
	if err := os.MkdirAll(filepath.Dir(originalPath), 0o755); err != nil {
		return errors.Wrapf(err, "backup: create parent dir for %s", originalPath)
	}
	_, err := copyFileHashed(backupPath, originalPath)
	return err
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "backup: open %s", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "backup: hash %s", path)
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}
