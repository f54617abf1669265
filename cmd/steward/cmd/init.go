package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/steward/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a steward workspace",
	Long: `Creates the .steward/ directory with a default config and team roster,
plus commands/, tickets/ and logs/ directories. Existing files are left
untouched, so init is safe to re-run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitWorkspace(workspaceDir); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "initialized steward workspace at %s\n", workspaceDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
