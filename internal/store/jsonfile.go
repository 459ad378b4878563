// Package store persists clirouter state as plain, human-inspectable JSON files.
//
// Every read-modify-write goes through Update, which re-reads the file
// immediately before writing and replaces it atomically (temp file + rename),
// so concurrent dispatches never observe a torn file.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"clirouter/internal/system"
)

var (
	locksMu sync.Mutex
	locks   = map[string]*sync.Mutex{}
)

// lockFor returns the in-process mutex guarding path.
func lockFor(path string) *sync.Mutex {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	locksMu.Lock()
	defer locksMu.Unlock()
	m, ok := locks[path]
	if !ok {
		m = &sync.Mutex{}
		locks[path] = m
	}
	return m
}

// ReadJSON decodes path into v. A missing file leaves v untouched and returns nil.
func ReadJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}

// WriteJSON writes v to path atomically, creating parent dirs.
func WriteJSON(path string, v any) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("empty path")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// Load reads path into a fresh T. Corrupt files are logged and treated as empty
// so that deleting or damaging state never blocks a dispatch.
func Load[T any](path string) (T, error) {
	var v T
	err := ReadJSON(path, &v)
	if err != nil {
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		if errors.As(err, &syn) || errors.As(err, &typ) {
			system.Logger.Warn("ignoring corrupt state file", "path", path, "err", err)
			var zero T
			return zero, nil
		}
		return v, err
	}
	return v, nil
}

// Update performs a serialized read-modify-write cycle on path.
// The lock is only held for the file I/O, never across a subprocess call.
func Update[T any](path string, fn func(*T) error) error {
	m := lockFor(path)
	m.Lock()
	defer m.Unlock()
	v, err := Load[T](path)
	if err != nil {
		return err
	}
	if err := fn(&v); err != nil {
		return err
	}
	return WriteJSON(path, v)
}
