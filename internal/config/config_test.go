package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewConfigDefaultsWhenMissing(t *testing.T) {
	workspaceDir := t.TempDir()
	c, err := NewConfig(workspaceDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Workspace.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Workspace.Version)
	}
	if c.DefaultWorkflow() != defaultWorkflowCommand {
		t.Fatalf("expected default workflow %q, got %q", defaultWorkflowCommand, c.DefaultWorkflow())
	}
	if c.ErrorLimit() != defaultErrorLimit {
		t.Fatalf("expected default error limit %d, got %d", defaultErrorLimit, c.ErrorLimit())
	}
	if c.EngineCommand() != nil {
		t.Fatalf("expected engine disabled by default, got %v", c.EngineCommand())
	}
}

func TestNewConfigParsesYaml(t *testing.T) {
	workspaceDir := t.TempDir()
	stewardDir := filepath.Join(workspaceDir, ".steward")
	if err := os.MkdirAll(stewardDir, 0o755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
engine:
  command: [agent, -p]
  timeout_seconds: 30
workflows:
  default: workflows/custom
scheduler:
  error_limit: 5
template_engine: gotemplate
search_roots:
  - shared/commands
`)
	if err := os.WriteFile(filepath.Join(stewardDir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(workspaceDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if got := c.EngineCommand(); len(got) != 2 || got[0] != "agent" {
		t.Fatalf("unexpected engine command: %v", got)
	}
	if c.EngineTimeoutSeconds() != 30 {
		t.Fatalf("unexpected engine timeout: %d", c.EngineTimeoutSeconds())
	}
	if c.DefaultWorkflow() != "workflows/custom" {
		t.Fatalf("wrong default workflow: %s", c.DefaultWorkflow())
	}
	if c.ErrorLimit() != 5 {
		t.Fatalf("wrong error limit: %d", c.ErrorLimit())
	}
	if c.DefaultTemplateEngine() != "gotemplate" {
		t.Fatalf("wrong template engine: %s", c.DefaultTemplateEngine())
	}
	roots := c.SearchRoots()
	if len(roots) != 2 {
		t.Fatalf("expected 2 search roots, got %v", roots)
	}
	if roots[0] != c.CommandsDir() {
		t.Fatalf("expected commands dir first, got %s", roots[0])
	}
	if !strings.HasPrefix(roots[1], c.WorkspaceDir) {
		t.Fatalf("expected extra root resolved against workspace, got %s", roots[1])
	}
}

func TestNewConfigValidation(t *testing.T) {
	workspaceDir := t.TempDir()
	stewardDir := filepath.Join(workspaceDir, ".steward")
	if err := os.MkdirAll(stewardDir, 0o755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
template_engine: jinja
`)
	if err := os.WriteFile(filepath.Join(stewardDir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewConfig(workspaceDir); err == nil {
		t.Fatalf("expected validation error but got none")
	}
}

func TestInitWorkspaceScaffoldsOnce(t *testing.T) {
	workspaceDir := t.TempDir()
	if err := InitWorkspace(workspaceDir); err != nil {
		t.Fatalf("InitWorkspace returned error: %v", err)
	}
	configPath := filepath.Join(workspaceDir, ".steward", "config.yaml")
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	custom := []byte("version: 1\n")
	if err := os.WriteFile(configPath, custom, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := InitWorkspace(workspaceDir); err != nil {
		t.Fatalf("second InitWorkspace returned error: %v", err)
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(custom) {
		t.Fatalf("InitWorkspace overwrote existing config")
	}
}
