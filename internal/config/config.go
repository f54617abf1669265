// internal/config/config.go
//
// This package handles configuration and the .steward directory structure.
// Every workspace that uses steward gets a .steward/ folder plus commands/,
// tickets/ and logs/ directories in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// StewardDir is the name of the directory we create in each workspace.
	StewardDir = ".steward"

	defaultWorkflowCommand = "workflows/handle_ticket"
	defaultErrorLimit      = 3
	defaultTemplateEngine  = "default"
)

const defaultConfigYAML = `# steward workspace configuration
version: 1

# Reasoning engine invoked by markdown commands. The command line receives the
# document path as its final argument and the piped message on stdin. Leave
# empty to disable the engine (markdown commands must then declare
# "engine: none" and will be rendered locally).
engine:
  command: []
  # timeout_seconds: 600

workflows:
  default: workflows/handle_ticket

scheduler:
  # Consecutive workflow failures before a worker stops. Minimum 1.
  error_limit: 3

# Template engine used when a command does not declare one: default | gotemplate
template_engine: default

# Extra command search roots, relative to the workspace root.
search_roots: []
`

const defaultTeamYAML = `# steward team roster
version: 1
members:
  - id: steward
    name: Steward
    active: true
    schedules: []
`

const exampleCommandMarkdown = `---
engine: none
---
Hello {{{1}}}!
`

const exampleWorkflowMarkdown = `---
---
Work on the ticket described in the piped message. Read the description,
make the change, and report what you did.
`

// EngineConfig selects the external reasoning-engine command line.
type EngineConfig struct {
	Command        []string `yaml:"command"`
	TimeoutSeconds int      `yaml:"timeout_seconds,omitempty"`
}

// WorkflowConfig captures workflow preferences.
type WorkflowConfig struct {
	Default string `yaml:"default"`
}

// SchedulerConfig tunes the per-actor worker loops.
type SchedulerConfig struct {
	ErrorLimit int `yaml:"error_limit"`
}

// WorkspaceConfig models .steward/config.yaml.
type WorkspaceConfig struct {
	Version        int             `yaml:"version"`
	Engine         EngineConfig    `yaml:"engine"`
	Workflows      WorkflowConfig  `yaml:"workflows"`
	Scheduler      SchedulerConfig `yaml:"scheduler"`
	TemplateEngine string          `yaml:"template_engine"`
	SearchRoots    []string        `yaml:"search_roots"`
}

// Config holds the runtime configuration for steward.
type Config struct {
	// WorkspaceDir is the directory where the user ran `steward` from.
	WorkspaceDir string

	// StewardWorkspaceDir is WorkspaceDir/.steward.
	StewardWorkspaceDir string

	Workspace WorkspaceConfig
}

// InitWorkspace creates the steward directory structure in the given
// workspace directory and writes default config, roster and example command
// files for anything that does not exist yet.
//
// Structure created:
//
//	.steward/
//	├── config.yaml   <- workspace configuration
//	└── team.yaml     <- actor roster
//	commands/         <- primary command search root
//	│   ├── hello.md
//	│   └── workflows/handle_ticket.md
//	tickets/          <- file-backed ticket queue
//	logs/             <- failure journal and debug log
func InitWorkspace(workspaceDir string) error {
	stewardDir := filepath.Join(workspaceDir, StewardDir)

	dirs := []string{
		stewardDir,
		filepath.Join(workspaceDir, "commands"),
		filepath.Join(workspaceDir, "commands", "workflows"),
		filepath.Join(workspaceDir, "tickets"),
		filepath.Join(workspaceDir, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	if err := ensureFile(filepath.Join(stewardDir, "config.yaml"), defaultConfigYAML); err != nil {
		return err
	}
	if err := ensureFile(filepath.Join(stewardDir, "team.yaml"), defaultTeamYAML); err != nil {
		return err
	}
	if err := ensureFile(filepath.Join(workspaceDir, "commands", "hello.md"), exampleCommandMarkdown); err != nil {
		return err
	}
	return ensureFile(filepath.Join(workspaceDir, "commands", "workflows", "handle_ticket.md"), exampleWorkflowMarkdown)
}

// NewConfig creates a Config populated with workspace settings. A missing
// config file is not an error; embedded defaults apply.
func NewConfig(workspaceDir string) (*Config, error) {
	abs, err := filepath.Abs(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve workspace dir: %w", err)
	}

	cfg := &Config{
		WorkspaceDir:        abs,
		StewardWorkspaceDir: filepath.Join(abs, StewardDir),
		Workspace:           defaultWorkspaceConfig(),
	}

	if err := cfg.loadWorkspaceConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigPath returns the on-disk location of the workspace config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.StewardWorkspaceDir, "config.yaml")
}

// TeamPath returns the on-disk location of the actor roster.
func (c *Config) TeamPath() string {
	return filepath.Join(c.StewardWorkspaceDir, "team.yaml")
}

// CommandsDir returns the primary command search root.
func (c *Config) CommandsDir() string {
	return filepath.Join(c.WorkspaceDir, "commands")
}

// TicketsDir returns the directory backing the file ticket queue.
func (c *Config) TicketsDir() string {
	return filepath.Join(c.WorkspaceDir, "tickets")
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.WorkspaceDir, "logs")
}

// JournalPath returns the failure-journal file.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "failures.log")
}

// LogFilePath returns the debug log file used by the logging tee.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.LogsDir(), "steward.log")
}

// SearchRoots returns the command search roots in probe order: the workspace
// commands/ directory first, then any configured extras.
func (c *Config) SearchRoots() []string {
	roots := []string{c.CommandsDir()}
	roots = append(roots, c.Workspace.SearchRoots...)
	return roots
}

// EngineCommand returns the configured engine argv, nil when disabled.
func (c *Config) EngineCommand() []string {
	if len(c.Workspace.Engine.Command) == 0 {
		return nil
	}
	return append([]string{}, c.Workspace.Engine.Command...)
}

// EngineTimeoutSeconds returns the engine call timeout, 0 meaning none.
func (c *Config) EngineTimeoutSeconds() int {
	return c.Workspace.Engine.TimeoutSeconds
}

// DefaultWorkflow returns the workflow command used for tickets that do not
// carry their own.
func (c *Config) DefaultWorkflow() string {
	return c.Workspace.Workflows.Default
}

// ErrorLimit returns the consecutive-failure budget, never below 1.
func (c *Config) ErrorLimit() int {
	if c.Workspace.Scheduler.ErrorLimit < 1 {
		return 1
	}
	return c.Workspace.Scheduler.ErrorLimit
}

// DefaultTemplateEngine returns the template engine used when a command does
// not declare one.
func (c *Config) DefaultTemplateEngine() string {
	return c.Workspace.TemplateEngine
}

func (c *Config) loadWorkspaceConfig() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed WorkspaceConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.WorkspaceDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Workspace = parsed
	return nil
}

func defaultWorkspaceConfig() WorkspaceConfig {
	return WorkspaceConfig{
		Version: 1,
		Workflows: WorkflowConfig{
			Default: defaultWorkflowCommand,
		},
		Scheduler: SchedulerConfig{
			ErrorLimit: defaultErrorLimit,
		},
		TemplateEngine: defaultTemplateEngine,
	}
}

func (wc *WorkspaceConfig) applyDefaults() {
	if wc.Version == 0 {
		wc.Version = 1
	}
	if wc.Scheduler.ErrorLimit == 0 {
		wc.Scheduler.ErrorLimit = defaultErrorLimit
	}
}

func (wc *WorkspaceConfig) normalize(base string) {
	wc.Workflows.Default = strings.TrimSpace(wc.Workflows.Default)
	if wc.Workflows.Default == "" {
		wc.Workflows.Default = defaultWorkflowCommand
	}
	wc.TemplateEngine = strings.ToLower(strings.TrimSpace(wc.TemplateEngine))
	if wc.TemplateEngine == "" {
		wc.TemplateEngine = defaultTemplateEngine
	}
	for i, root := range wc.SearchRoots {
		wc.SearchRoots[i] = resolvePath(base, root)
	}
	wc.SearchRoots = dropEmpty(wc.SearchRoots)
	for i, arg := range wc.Engine.Command {
		wc.Engine.Command[i] = strings.TrimSpace(arg)
	}
	wc.Engine.Command = dropEmpty(wc.Engine.Command)
}

func (wc *WorkspaceConfig) validate() error {
	if wc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if wc.Scheduler.ErrorLimit < 1 {
		return fmt.Errorf("scheduler.error_limit must be >= 1")
	}
	switch wc.TemplateEngine {
	case "default", "gotemplate":
	default:
		return fmt.Errorf("template_engine must be 'default' or 'gotemplate'")
	}
	if wc.Engine.TimeoutSeconds < 0 {
		return fmt.Errorf("engine.timeout_seconds must be >= 0")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func dropEmpty(values []string) []string {
	kept := values[:0]
	for _, v := range values {
		if v != "" {
			kept = append(kept, v)
		}
	}
	return kept
}

func ensureFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
