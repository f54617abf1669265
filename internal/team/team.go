// internal/team/team.go
//
// Actor roster. Every steward workspace declares its members in
// .steward/team.yaml; the scheduler spawns one worker per active member and
// the CLI resolves --actor flags through Resolve.

package team

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrSelectionRequired indicates more than one member could serve and the
	// caller must pick one explicitly.
	ErrSelectionRequired = errors.New("team: actor selection required")
	// ErrNotFound indicates no member matched the given identifier.
	ErrNotFound = errors.New("team: actor not found")
)

// SelectionRequiredError lists the members a caller can choose from.
type SelectionRequiredError struct {
	Labels []string
}

func (e *SelectionRequiredError) Error() string {
	return fmt.Sprintf("team: actor selection required; choose one of: %s", strings.Join(e.Labels, ", "))
}

func (e *SelectionRequiredError) Is(target error) bool {
	return target == ErrSelectionRequired
}

// NotFoundError reports an identifier that matched no member.
type NotFoundError struct {
	Identifier string
	Labels     []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("team: actor %q not found; known members: %s", e.Identifier, strings.Join(e.Labels, ", "))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Member is one actor in the roster.
type Member struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Active    bool           `yaml:"active"`
	Roots     []string       `yaml:"roots,omitempty"`
	Session   map[string]any `yaml:"session,omitempty"`
	Schedules []*Schedule    `yaml:"schedules,omitempty"`
}

// Label renders the member as "id (Name)" for selection listings.
func (m *Member) Label() string {
	if strings.TrimSpace(m.Name) == "" {
		return m.ID
	}
	return fmt.Sprintf("%s (%s)", m.ID, m.Name)
}

// SessionState returns a copy of the member's session mapping, nil when none
// is configured.
func (m *Member) SessionState() map[string]any {
	if len(m.Session) == 0 {
		return nil
	}
	state := make(map[string]any, len(m.Session))
	for k, v := range m.Session {
		state[k] = v
	}
	return state
}

type rosterFile struct {
	Version int       `yaml:"version"`
	Members []*Member `yaml:"members"`
}

// Team is the loaded roster.
type Team struct {
	members []*Member
}

// Load reads the roster file. Relative member roots are resolved against
// baseDir. A missing file is an error: a workspace without a roster cannot
// run anything (steward init writes a starter roster).
func Load(path, baseDir string) (*Team, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("team: read %s: %w", path, err)
	}
	var parsed rosterFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("team: parse %s: %w", path, err)
	}
	t := &Team{members: parsed.Members}
	if err := t.normalize(baseDir); err != nil {
		return nil, fmt.Errorf("team: %s: %w", path, err)
	}
	return t, nil
}

// NewTeam wraps an already-built member list, normalizing it the same way
// Load does. Used by tests and embedders.
func NewTeam(members []*Member) (*Team, error) {
	t := &Team{members: members}
	if err := t.normalize(""); err != nil {
		return nil, err
	}
	return t, nil
}

// Members returns every member in declaration order.
func (t *Team) Members() []*Member {
	return t.members
}

// Active returns the members marked active, in declaration order.
func (t *Team) Active() []*Member {
	var active []*Member
	for _, m := range t.members {
		if m.Active {
			active = append(active, m)
		}
	}
	return active
}

// Labels returns the sorted "id (Name)" labels of every member.
func (t *Team) Labels() []string {
	labels := make([]string, 0, len(t.members))
	for _, m := range t.members {
		labels = append(labels, m.Label())
	}
	sort.Strings(labels)
	return labels
}

// Resolve picks a member by identifier. An empty identifier resolves to the
// single active member when there is exactly one, otherwise the caller must
// choose. Identifiers match the id first, then the display name, both
// case-insensitively; inactive members may be addressed explicitly.
func (t *Team) Resolve(identifier string) (*Member, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		active := t.Active()
		if len(active) == 1 {
			return active[0], nil
		}
		return nil, &SelectionRequiredError{Labels: t.Labels()}
	}
	for _, m := range t.members {
		if strings.EqualFold(m.ID, id) {
			return m, nil
		}
	}
	for _, m := range t.members {
		if strings.EqualFold(m.Name, id) {
			return m, nil
		}
	}
	return nil, &NotFoundError{Identifier: identifier, Labels: t.Labels()}
}

func (t *Team) normalize(baseDir string) error {
	seen := make(map[string]bool, len(t.members))
	for i, m := range t.members {
		if m == nil {
			return fmt.Errorf("members[%d]: empty entry", i)
		}
		m.ID = strings.TrimSpace(m.ID)
		m.Name = strings.TrimSpace(m.Name)
		if m.ID == "" {
			return fmt.Errorf("members[%d]: id is required", i)
		}
		key := strings.ToLower(m.ID)
		if seen[key] {
			return fmt.Errorf("members[%d]: duplicate id %q", i, m.ID)
		}
		seen[key] = true
		for j, root := range m.Roots {
			m.Roots[j] = resolveRoot(baseDir, root)
		}
		for j, s := range m.Schedules {
			if s == nil {
				return fmt.Errorf("members[%d].schedules[%d]: empty entry", i, j)
			}
			if err := s.normalize(); err != nil {
				return fmt.Errorf("members[%d].schedules[%d]: %w", i, j, err)
			}
		}
	}
	return nil
}

func resolveRoot(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) || base == "" {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}
