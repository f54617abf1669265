// cmd/steward/cmd/root.go
//
// Root command and the wiring shared by every verb: workspace resolution,
// logging setup, and the helpers that assemble a command run for one actor.

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/steward/internal/command"
	"github.com/kingrea/steward/internal/config"
	"github.com/kingrea/steward/internal/engine"
	"github.com/kingrea/steward/internal/logging"
	"github.com/kingrea/steward/internal/runtime"
	"github.com/kingrea/steward/internal/team"
)

var (
	workspaceDir string
	verbosity    int
	logFile      string
)

var rootCmd = &cobra.Command{
	Use:   "steward",
	Short: "Autonomous command runner for a workspace of actors",
	Long: `steward executes declarative commands: markdown documents handed to a
reasoning engine, Go functions evaluated in-process, and shell scripts.
Commands nest, children run before their parent, and every node can read
what earlier nodes produced.

Run one command with "steward run", keep a worker per active team member
polling schedules and tickets with "steward serve", or drive commands
interactively with "steward console".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		abs, err := filepath.Abs(workspaceDir)
		if err != nil {
			return fmt.Errorf("resolve workspace dir: %w", err)
		}
		workspaceDir = abs
		logging.Setup(verbosity, logFile)
		return nil
	},
}

// Execute runs the CLI. Errors are printed here because the root command
// silences cobra's own reporting.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "steward: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", ".", "Workspace directory")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbosity", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Duplicate log output into this file")
}

func loadConfig() (*config.Config, error) {
	return config.NewConfig(workspaceDir)
}

func loadRoster(cfg *config.Config) (*team.Team, error) {
	return team.Load(cfg.TeamPath(), cfg.WorkspaceDir)
}

// buildEngine constructs the reasoning engine from the workspace config. A
// workspace without an engine command gets nil: markdown commands must then
// opt out via "engine: none".
func buildEngine(cfg *config.Config) (engine.Engine, error) {
	argv := cfg.EngineCommand()
	if len(argv) == 0 {
		return nil, nil
	}
	timeout := time.Duration(cfg.EngineTimeoutSeconds()) * time.Second
	return engine.NewExec(argv, timeout)
}

// commandRoots returns the search roots for one actor: their personal roots
// first, then the workspace-wide ones.
func commandRoots(cfg *config.Config, actor *team.Member) []string {
	roots := append([]string{}, actor.Roots...)
	return append(roots, cfg.SearchRoots()...)
}

// executeCommand performs one complete run: fresh state seeded from the
// actor's session, a fresh runner, and the final rolling message back.
func executeCommand(ctx context.Context, cfg *config.Config, eng engine.Engine, actor *team.Member, name string, args []string, message string) (string, error) {
	rc := runtime.NewContext(actor.ID,
		runtime.WithCwd(cfg.WorkspaceDir),
		runtime.WithMessage(message),
		runtime.WithCommandArgs(args),
		runtime.WithSessionState(actor.SessionState()),
	)
	opts := []command.RunnerOption{
		command.WithTemplateEngine(cfg.DefaultTemplateEngine()),
	}
	if eng != nil {
		opts = append(opts, command.WithEngine(eng))
	}
	runner := command.NewRunner(rc, commandRoots(cfg, actor), opts...)
	return runner.Run(ctx, name, args)
}
