package tickets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// FileStore keeps one YAML document per ticket in a directory. Filenames are
// `<id>.yaml` and NextTask serves the lexicographically first ready ticket,
// so zero-padded or date-prefixed IDs drain in order. A missing directory is
// an empty queue. Several workers may share one store; a mutex serializes
// directory access.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a store over the given directory.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// NextTask implements Manager.
func (s *FileStore) NextTask() (*Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.ticketFiles()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		ticket, err := s.load(name)
		if err != nil {
			return nil, err
		}
		if ticket.Status == StatusReady {
			return ticket, nil
		}
	}
	return nil, nil
}

// MoveTicket implements Manager.
func (s *FileStore) MoveTicket(t *Ticket, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Status = status
	return s.save(t)
}

// AddComment implements Manager.
func (s *FileStore) AddComment(t *Ticket, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Comments = append(t.Comments, text)
	return s.save(t)
}

// CreateTickets implements Manager.
func (s *FileStore) CreateTickets(ts []*Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range ts {
		if strings.TrimSpace(t.ID) == "" {
			t.ID = uuid.NewString()
		}
		if t.Status == "" {
			t.Status = StatusReady
		}
		if _, err := os.Stat(s.path(t.ID)); err == nil {
			return fmt.Errorf("tickets: ticket %s already exists", t.ID)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("tickets: stat %s: %w", t.ID, err)
		}
		if err := s.save(t); err != nil {
			return err
		}
	}
	return nil
}

// UpdateTicket implements Manager.
func (s *FileStore) UpdateTicket(t *Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(t)
}

func (s *FileStore) ticketFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("tickets: read queue dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) load(name string) (*Ticket, error) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tickets: read %s: %w", path, err)
	}
	var ticket Ticket
	if err := yaml.Unmarshal(data, &ticket); err != nil {
		return nil, fmt.Errorf("tickets: parse %s: %w", path, err)
	}
	if ticket.ID == "" {
		ticket.ID = strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
	}
	if ticket.Status == "" {
		ticket.Status = StatusReady
	}
	return &ticket, nil
}

func (s *FileStore) save(t *Ticket) error {
	if err := validateID(t.ID); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("tickets: ensure queue dir: %w", err)
	}
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("tickets: encode %s: %w", t.ID, err)
	}
	tmp, err := os.CreateTemp(s.dir, ".ticket-*")
	if err != nil {
		return fmt.Errorf("tickets: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("tickets: write %s: %w", t.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("tickets: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path(t.ID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("tickets: store %s: %w", t.ID, err)
	}
	return nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".yaml")
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("tickets: ticket id is required")
	}
	if strings.ContainsAny(id, `/\`) || id != filepath.Base(id) {
		return fmt.Errorf("tickets: invalid ticket id %q", id)
	}
	return nil
}
