package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"nftmaker/pkg/errors"
)

// LockFileName is created in the output directory while a run holds it
const LockFileName = ".nftmaker.lock"

// DefaultFileNamePattern names metadata files; {n} is replaced by the file number
const DefaultFileNamePattern = "metadata_{n}.json"

// Manager handles metadata file storage
type Manager struct {
	outputDir string
	pattern   string
	written   map[int]bool
	lock      *flock.Flock
	mu        sync.RWMutex
}

// NewManager creates a new storage manager. The output directory must already
// exist unless createDir is set.
func NewManager(outputDir, pattern string, createDir bool) (*Manager, error) {
	if pattern == "" {
		pattern = DefaultFileNamePattern
	}
	if !strings.Contains(pattern, "{n}") {
		return nil, errors.New(errors.ErrorTypeInvalidInput, 0, fmt.Sprintf("file name pattern %q has no {n} placeholder", pattern))
	}

	if createDir {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return nil, errors.Wrap(errors.ErrorTypeStorage, 0, "failed to create output directory", err)
		}
	}

	info, err := os.Stat(outputDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeStorage, 0, fmt.Sprintf("output directory %s is not accessible", outputDir), err)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrorTypeStorage, 0, fmt.Sprintf("output path %s is not a directory", outputDir))
	}

	return &Manager{
		outputDir: outputDir,
		pattern:   pattern,
		written:   make(map[int]bool),
		lock:      flock.New(filepath.Join(outputDir, LockFileName)),
	}, nil
}

// FileNumber maps an (entity, copy) pair to its file number. For copy indices
// in [0, copies) the mapping is injective.
func FileNumber(id, copies, copyIndex int) int {
	return id*copies + copyIndex
}

// FileName returns the file name for file number n
func (m *Manager) FileName(n int) string {
	return strings.ReplaceAll(m.pattern, "{n}", strconv.Itoa(n))
}

// Path returns the full path for file number n
func (m *Manager) Path(n int) string {
	return filepath.Join(m.outputDir, m.FileName(n))
}

// Write stores data as file number n, replacing any existing file. The data
// is written to a temporary file first and renamed into place.
func (m *Manager) Write(n int, data []byte) (string, error) {
	filename := m.Path(n)
	tempFile := filename + ".tmp"

	out, err := os.Create(tempFile)
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeStorage, 0, fmt.Sprintf("failed to create temporary file for %s", filename), err)
	}

	_, err = out.Write(data)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", errors.Wrap(errors.ErrorTypeStorage, 0, fmt.Sprintf("failed to write %s", filename), err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return "", errors.Wrap(errors.ErrorTypeStorage, 0, fmt.Sprintf("failed to close %s", filename), closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", errors.Wrap(errors.ErrorTypeStorage, 0, fmt.Sprintf("failed to rename temporary file to %s", filename), err)
	}

	m.mu.Lock()
	m.written[n] = true
	m.mu.Unlock()

	return filename, nil
}

// Exists reports whether file number n is present on disk
func (m *Manager) Exists(n int) bool {
	_, err := os.Stat(m.Path(n))
	return err == nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetWrittenCount returns the number of distinct files written by this manager
func (m *Manager) GetWrittenCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.written)
}

// Lock takes an exclusive lock on the output directory so two runs never
// write the same files. It fails immediately if another process holds it.
func (m *Manager) Lock() error {
	ok, err := m.lock.TryLock()
	if err != nil {
		return errors.Wrap(errors.ErrorTypeStorage, 0, "failed to acquire output directory lock", err)
	}
	if !ok {
		return errors.New(errors.ErrorTypeStorage, 0, fmt.Sprintf("output directory %s is locked by another run", m.outputDir))
	}
	return nil
}

// Unlock releases the output directory lock and removes the lock file
func (m *Manager) Unlock() error {
	if !m.lock.Locked() {
		return nil
	}
	if err := m.lock.Unlock(); err != nil {
		return errors.Wrap(errors.ErrorTypeStorage, 0, "failed to release output directory lock", err)
	}
	_ = os.Remove(m.lock.Path())
	return nil
}
