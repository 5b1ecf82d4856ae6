// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/tidwall/jsonc"
)

// Category names.
const (
	CategoryGlobalVariables = "globalVariables"
	CategoryDocumentOutline = "documentOutline"
	CategoryProgress        = "progress"
	CategoryDocumentContent = "documentContent"
	CategoryCustomMemories  = "customMemories"
)

// Categories lists the category names in display order.
var Categories = []string{
	CategoryGlobalVariables,
	CategoryDocumentOutline,
	CategoryProgress,
	CategoryDocumentContent,
	CategoryCustomMemories,
}

// ErrClosed is returned by mutations after Close.
var ErrClosed = errors.New("memory: store is closed")

// Store is an open memory document. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	path   string
	data   map[string]any
	closed bool
}

// defaultDocument is the structure seeded into a new memory file.
func defaultDocument() map[string]any {
	return map[string]any{
		CategoryGlobalVariables: map[string]any{
			"currentProjectID":   "",
			"currentChapterName": "",
		},
		CategoryDocumentOutline: map[string]any{
			"chapters": []any{},
			"template": "",
		},
		CategoryProgress: map[string]any{
			"completedChapters": []any{},
			"currentStep":       "",
		},
		CategoryDocumentContent: map[string]any{},
		CategoryCustomMemories:  map[string]any{},
	}
}

// Open loads the memory document at path. When the file does not
// exist, the default structure is created and written. The parent
// directory must already exist.
func Open(path string) (*Store, error) {
	store := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		store.data = defaultDocument()
		if err := store.write(); err != nil {
			return nil, err
		}
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: reading %s: %w", path, err)
	}

	var document map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(data), &document); err != nil {
		return nil, fmt.Errorf("memory: parsing %s: %w", path, err)
	}
	if document == nil {
		document = map[string]any{}
	}
	store.data = document
	return store, nil
}

// Path returns the file the store persists to.
func (store *Store) Path() string {
	return store.path
}

// Get returns the value stored under key.
func (store *Store) Get(key string) (any, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	value, found := store.data[key]
	return value, found
}

// Set stores value under key and persists the document.
func (store *Store) Set(key string, value any) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return ErrClosed
	}
	store.data[key] = value
	return store.write()
}

// Delete removes key and persists the document. Returns false, and
// writes nothing, when the key was not present.
func (store *Store) Delete(key string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return false, ErrClosed
	}
	if _, found := store.data[key]; !found {
		return false, nil
	}
	delete(store.data, key)
	return true, store.write()
}

// Keys returns every top-level key, sorted.
func (store *Store) Keys() []string {
	store.mu.Lock()
	defer store.mu.Unlock()
	keys := make([]string, 0, len(store.data))
	for key := range store.data {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// SetGlobal sets one global variable and persists the document. A
// missing or malformed globalVariables object is replaced.
func (store *Store) SetGlobal(name, value string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return ErrClosed
	}
	globals, ok := store.data[CategoryGlobalVariables].(map[string]any)
	if !ok {
		globals = map[string]any{}
		store.data[CategoryGlobalVariables] = globals
	}
	globals[name] = value
	return store.write()
}

// Global returns a global variable as text, or "" when it is unset.
// Non-string values are returned as JSON.
func (store *Store) Global(name string) string {
	store.mu.Lock()
	defer store.mu.Unlock()
	globals, ok := store.data[CategoryGlobalVariables].(map[string]any)
	if !ok {
		return ""
	}
	switch value := globals[name].(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

// Flush writes the document. Mutations already write through; Flush
// is for callers that want an explicit durability point.
func (store *Store) Flush() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return ErrClosed
	}
	return store.write()
}

// Close flushes the document and rejects further mutations. Closing an
// already closed store is a no-op.
func (store *Store) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return nil
	}
	store.closed = true
	return store.write()
}

// write atomically replaces the file with the current document. The
// caller holds mu.
func (store *Store) write() error {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(store.data); err != nil {
		return fmt.Errorf("memory: marshaling document: %w", err)
	}
	return writeFileAtomic(store.path, buffer.Bytes())
}

// writeFileAtomic writes data to a temporary file in the same
// directory, fsyncs it and renames it over path. Readers never see a
// partial write.
func writeFileAtomic(path string, data []byte) error {
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("memory: creating temporary file: %w", err)
	}

	// Write, sync, close, in that order. If any step fails, remove the
	// temporary file and report the first error.
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("memory: writing temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("memory: syncing temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("memory: closing temporary file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("memory: renaming file into place: %w", err)
	}

	parentDirectory, err := os.Open(filepath.Dir(path))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}
	return nil
}
