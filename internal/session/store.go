package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/memopark/keyward/internal/fileutil"
	kwerr "github.com/memopark/keyward/pkg/errors"
)

const (
	// recordFileName is the authoritative session record file.
	recordFileName = "session.json"

	// legacyFileName mirrors only the session id for older consumers.
	legacyFileName = "session.id"

	// recordFilePermissions is the permission mode for session files.
	recordFilePermissions = 0o600

	// storeDirPermissions is the permission mode for the session directory.
	storeDirPermissions = 0o700
)

// Store defines session record persistence. Load returns (nil, nil) when
// no record has been persisted.
type Store interface {
	Load() (*Record, error)
	Save(record *Record) error
	Clear() error
}

// FileStore persists a single session record as JSON, plus a legacy
// mirror file carrying only the session id.
type FileStore struct {
	basePath string
}

// NewFileStore creates a file-backed session store rooted at basePath.
func NewFileStore(basePath string) *FileStore {
	return &FileStore{basePath: basePath}
}

// Load reads the persisted record. A corrupted file is removed and
// reported as ErrSessionCorrupted.
func (s *FileStore) Load() (*Record, error) {
	path := filepath.Join(s.basePath, recordFileName)

	//nolint:gosec // G304: Path is a fixed name under the configured base path
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		_ = s.Clear()
		return nil, kwerr.ErrSessionCorrupted
	}

	if record.SessionID == "" || record.Address == "" {
		_ = s.Clear()
		return nil, kwerr.ErrSessionCorrupted
	}

	return &record, nil
}

// Save persists the record and its legacy mirror atomically.
func (s *FileStore) Save(record *Record) error {
	if err := os.MkdirAll(s.basePath, storeDirPermissions); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session record: %w", err)
	}

	if err := fileutil.WriteAtomic(filepath.Join(s.basePath, recordFileName), data, recordFilePermissions); err != nil {
		return fmt.Errorf("writing session record: %w", err)
	}

	// Legacy mirror is best effort; the full record is authoritative.
	_ = fileutil.WriteAtomic(filepath.Join(s.basePath, legacyFileName), []byte(record.SessionID+"\n"), recordFilePermissions)

	return nil
}

// Clear removes the record and its legacy mirror.
func (s *FileStore) Clear() error {
	if err := os.Remove(filepath.Join(s.basePath, recordFileName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session record: %w", err)
	}
	if err := os.Remove(filepath.Join(s.basePath, legacyFileName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing legacy session file: %w", err)
	}
	return nil
}
