package locks

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/genie-oss/agent/pkg/utils"
	"github.com/gofrs/flock"
)

// fileLockFactory hands out two-layer locks: a process-local mutex
// keyed by the canonicalized lock path, plus an advisory OS file lock
// on the same path. The OS lock coordinates cooperating processes
// sharing a cache directory. OS file locks are granted per process,
// not per thread, so the keyed mutex is layered on top to serialize
// goroutines within this process. The mutex is acquired first and
// released last.
type fileLockFactory struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	key  string
	refs int
	mu   sync.Mutex
}

func NewFileLockFactory() LockFactory {
	return &fileLockFactory{
		entries: make(map[string]*lockEntry),
	}
}

func (f *fileLockFactory) GetLock(path string) (CloseableLock, error) {
	key, err := canonicalize(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", utils.ErrLockUnavailable, path, err)
	}

	return &fileLock{
		factory: f,
		entry:   f.retain(key),
		flock:   flock.New(key),
	}, nil
}

func (f *fileLockFactory) retain(key string) *lockEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[key]
	if !ok {
		entry = &lockEntry{key: key}
		f.entries[key] = entry
	}
	entry.refs++
	return entry
}

func (f *fileLockFactory) release(entry *lockEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(f.entries, entry.key)
	}
}

// canonicalize maps equivalent spellings of a path to one lock key.
// The parent directory is resolved through symlinks; the lock file
// itself may not exist yet.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(abs)
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return abs, nil
	}

	return filepath.Join(resolved, filepath.Base(abs)), nil
}

type fileLock struct {
	factory *fileLockFactory
	entry   *lockEntry
	flock   *flock.Flock
	held    bool
	closed  bool
}

func (l *fileLock) Lock() error {
	l.entry.mu.Lock()

	if err := l.flock.Lock(); err != nil {
		l.entry.mu.Unlock()
		return fmt.Errorf("%w: %s: %v", utils.ErrLockUnavailable, l.flock.Path(), err)
	}

	l.held = true
	return nil
}

func (l *fileLock) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true

	var err error
	if l.held {
		err = l.flock.Unlock()
		l.held = false
		l.entry.mu.Unlock()
	}

	l.factory.release(l.entry)
	return err
}
