package output

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Store persists one output record per (device, command)
// pair under a run-scoped namespace. The on-disk layout is
// the contract the downstream topology builder consumes:
//
//	<root>/<runID>/<deviceName>/<normalized-command>.txt
//	<root>/latest  (the run ID of the most recent completed run)
type Store interface {
	Write(runID, deviceName, command, output string) (string, error)
	MarkComplete(runID string) error
}

type fileStore struct {
	root string
	mu   sync.Mutex
}

// NewFileStore builds the filesystem-backed store rooted
// at dir.
func NewFileStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fileStore{root: dir}, nil
}

// Write persists one command's output and returns the
// record's reference: its path relative to the store root.
func (s *fileStore) Write(runID, deviceName, command, output string) (string, error) {
	dir := filepath.Join(s.root, runID, deviceName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := NormalizeCommand(command) + ".txt"
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return "", err
	}

	return filepath.Join(runID, deviceName, name), nil
}

// MarkComplete records runID as the latest completed run.
func (s *fileStore) MarkComplete(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := filepath.Join(s.root, "latest.tmp")
	if err := os.WriteFile(tmp, []byte(runID+"\n"), 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, filepath.Join(s.root, "latest"))
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeCommand derives the stable file identifier for
// a command: lowercase, runs of non-alphanumerics collapsed
// to single dashes.
func NormalizeCommand(command string) string {
	id := nonAlnum.ReplaceAllString(strings.ToLower(command), "-")
	id = strings.Trim(id, "-")
	if id == "" {
		id = fmt.Sprintf("cmd-%x", command)
	}
	return id
}
