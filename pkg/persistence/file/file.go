// Package file provides a file-based persistence implementation, used for
// development and tests.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jornadaflow/jornada/pkg/persistence"
)

// Persistence implements persistence.Persistence on a directory of JSON
// files. A single mutex serializes all mutations; that is what makes the
// session claim a genuinely atomic conditional update in this backend.
type Persistence struct {
	root string
	mu   sync.Mutex

	flowRepo    *FlowRepository
	sessionRepo *SessionRepository
	timerRepo   *TimerRepository
	messageRepo *MessageRepository
	contactRepo *ContactRepository
	channelRepo *ChannelRepository
}

// NewPersistence creates a file persistence layer rooted at the given
// directory. A "file://" prefix is tolerated.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	p := &Persistence{root: cleanRoot}
	p.flowRepo = &FlowRepository{store: p}
	p.sessionRepo = &SessionRepository{store: p}
	p.timerRepo = &TimerRepository{store: p}
	p.messageRepo = &MessageRepository{store: p}
	p.contactRepo = &ContactRepository{store: p}
	p.channelRepo = &ChannelRepository{store: p}

	return p
}

func (p *Persistence) FlowRepository() persistence.FlowRepository       { return p.flowRepo }
func (p *Persistence) SessionRepository() persistence.SessionRepository { return p.sessionRepo }
func (p *Persistence) TimerRepository() persistence.TimerRepository     { return p.timerRepo }
func (p *Persistence) MessageRepository() persistence.MessageRepository { return p.messageRepo }
func (p *Persistence) ContactRepository() persistence.ContactRepository { return p.contactRepo }
func (p *Persistence) ChannelRepository() persistence.ChannelRepository { return p.channelRepo }

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to do for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) path(parts ...string) string {
	return filepath.Join(append([]string{p.root}, parts...)...)
}

// readJSON loads one entity file. Returns fs.ErrNotExist when absent.
func (p *Persistence) readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return nil
}

// writeJSON stores one entity file, creating the directory as needed.
func (p *Persistence) writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// listIDs returns the ids (file names without .json) stored under a
// subdirectory.
func (p *Persistence) listIDs(dir string) ([]string, error) {
	root := os.DirFS(p.path(dir))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	ids := make([]string, 0, len(jsonFiles))
	for _, f := range jsonFiles {
		ids = append(ids, strings.TrimSuffix(f, ".json"))
	}

	return ids, nil
}

func isNotExist(err error) bool {
	return err != nil && os.IsNotExist(err)
}

func removeFile(path string) error {
	return os.Remove(path)
}
