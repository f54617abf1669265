package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/steward/internal/console"
	"github.com/kingrea/steward/internal/journal"
	"github.com/kingrea/steward/internal/team"
)

var consoleActor string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive console",
	Long: `Opens the interactive console. Lines starting with //name run the named
command; extra lines of a multi-line paste are piped as the message. With
more than one active member and no --actor flag, a picker asks who is
working.`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().StringVarP(&consoleActor, "actor", "a", "", "Work as this actor")
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	roster, err := loadRoster(cfg)
	if err != nil {
		return err
	}
	members := roster.Active()
	if len(members) == 0 {
		return fmt.Errorf("no active team members; edit %s", cfg.TeamPath())
	}

	var selected *team.Member
	if consoleActor != "" {
		selected, err = roster.Resolve(consoleActor)
		if err != nil {
			return err
		}
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	j, err := journal.New(cfg.JournalPath())
	if err != nil {
		return err
	}

	exec := func(actor *team.Member, name string, cmdArgs []string, message string) (string, error) {
		return executeCommand(context.Background(), cfg, eng, actor, name, cmdArgs, message)
	}
	return console.Run(console.New(members, selected, exec, j))
}
