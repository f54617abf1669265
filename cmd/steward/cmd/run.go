package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var (
	runActor   string
	runMessage string
)

var runCmd = &cobra.Command{
	Use:   "run <command> [args...]",
	Short: "Run one command and print its final message",
	Long: `Runs a named command as the given actor and prints the final rolling
message to stdout. Positional arguments become the command's numbered
parameters; key=value arguments become named parameters.

Examples:
  steward run hello world
  steward run plan refactor --actor dev
  echo "the details" | steward run triage --message -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runActor, "actor", "a", "", "Actor id or name (defaults to the single active member)")
	runCmd.Flags().StringVarP(&runMessage, "message", "m", "", "Initial piped message; use - to read stdin")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	roster, err := loadRoster(cfg)
	if err != nil {
		return err
	}
	actor, err := roster.Resolve(runActor)
	if err != nil {
		return err
	}
	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	message := runMessage
	if message == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read message from stdin: %w", err)
		}
		message = strings.TrimRight(string(data), "\n")
	}

	output, err := executeCommand(cmd.Context(), cfg, eng, actor, args[0], args[1:], message)
	if err != nil {
		return err
	}
	if strings.TrimSpace(output) != "" {
		fmt.Fprintln(cmd.OutOrStdout(), output)
	}
	return nil
}
