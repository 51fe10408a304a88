package keystore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/memopark/keyward/internal/fileutil"
	"github.com/memopark/keyward/internal/keys"
	kwerr "github.com/memopark/keyward/pkg/errors"
)

const (
	// recordFileExtension is the extension for keystore record files.
	recordFileExtension = ".keystore"

	// currentFileName is the pointer file naming the selected address.
	currentFileName = "current"

	// recordFilePermissions is the permission mode for record files.
	recordFilePermissions = 0o600

	// storeDirPermissions is the permission mode for the keystore directory.
	storeDirPermissions = 0o700
)

// FileStore implements Store using one JSON file per address.
type FileStore struct {
	basePath string
}

// NewFileStore creates a file-backed keystore rooted at basePath.
func NewFileStore(basePath string) *FileStore {
	return &FileStore{basePath: basePath}
}

// Save writes a record to disk.
func (s *FileStore) Save(record *Record) error {
	if !keys.ValidAddress(record.Address) {
		return kwerr.WithDetails(kwerr.ErrInvalidAddress, map[string]string{"address": record.Address})
	}

	path := s.recordPath(record.Address)
	if _, err := os.Stat(path); err == nil {
		return kwerr.ErrKeystoreExists
	}

	if err := os.MkdirAll(s.basePath, storeDirPermissions); err != nil {
		return fmt.Errorf("creating keystore directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling keystore record: %w", err)
	}

	if err := fileutil.WriteAtomic(path, data, recordFilePermissions); err != nil {
		return fmt.Errorf("writing keystore record: %w", err)
	}

	// First record becomes the current address.
	if s.CurrentAddress() == "" {
		return s.SetCurrent(record.Address)
	}

	return nil
}

// Load reads the record for an address.
func (s *FileStore) Load(address string) (*Record, error) {
	path := s.recordPath(address)

	//nolint:gosec // G304: Path is derived from a validated address under basePath
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kwerr.WithDetails(kwerr.ErrNoKeystore, map[string]string{"address": address})
		}
		return nil, fmt.Errorf("reading keystore record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parsing keystore record: %w", err)
	}

	return &record, nil
}

// LoadCurrent reads the record for the currently selected address.
func (s *FileStore) LoadCurrent() (*Record, error) {
	addr := s.CurrentAddress()
	if addr == "" {
		return nil, kwerr.ErrNoKeystore
	}
	return s.Load(addr)
}

// CurrentAddress returns the selected address, or "" if none.
func (s *FileStore) CurrentAddress() string {
	data, err := os.ReadFile(filepath.Join(s.basePath, currentFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetCurrent selects the current address.
func (s *FileStore) SetCurrent(address string) error {
	if _, err := os.Stat(s.recordPath(address)); err != nil {
		return kwerr.WithDetails(kwerr.ErrNoKeystore, map[string]string{"address": address})
	}
	return fileutil.WriteAtomic(filepath.Join(s.basePath, currentFileName), []byte(address+"\n"), recordFilePermissions)
}

// List returns all stored addresses.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading keystore directory: %w", err)
	}

	var addresses []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, recordFileExtension) {
			continue
		}
		addresses = append(addresses, strings.TrimSuffix(name, recordFileExtension))
	}

	return addresses, nil
}

// Delete removes the record for an address. If the deleted address was
// current, the pointer file is removed as well.
func (s *FileStore) Delete(address string) error {
	if err := os.Remove(s.recordPath(address)); err != nil {
		if os.IsNotExist(err) {
			return kwerr.WithDetails(kwerr.ErrNoKeystore, map[string]string{"address": address})
		}
		return fmt.Errorf("removing keystore record: %w", err)
	}

	if s.CurrentAddress() == address {
		_ = os.Remove(filepath.Join(s.basePath, currentFileName))
	}

	return nil
}

// recordPath returns the record file path for an address. SS58 addresses
// are base58 so they contain no path separators, but clean defensively.
func (s *FileStore) recordPath(address string) string {
	path := filepath.Join(s.basePath, address+recordFileExtension)

	cleanPath := filepath.Clean(path)
	expectedSuffix := string(filepath.Separator) + address + recordFileExtension
	if !strings.HasSuffix(cleanPath, expectedSuffix) {
		return ""
	}

	return cleanPath
}
