package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/shlex"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kingrea/steward/internal/journal"
	"github.com/kingrea/steward/internal/scheduler"
	"github.com/kingrea/steward/internal/team"
	"github.com/kingrea/steward/internal/tickets"
)

var serveActor string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler until interrupted",
	Long: `Starts one worker per active team member. Each worker fires the member's
cron schedules, drains the ticket queue, and stops after too many
consecutive failures. SIGINT or SIGTERM triggers a graceful shutdown:
in-flight work finishes, then the workers exit.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveActor, "actor", "a", "", "Serve only this actor")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	roster, err := loadRoster(cfg)
	if err != nil {
		return err
	}

	var members []*team.Member
	if serveActor != "" {
		member, err := roster.Resolve(serveActor)
		if err != nil {
			return err
		}
		members = []*team.Member{member}
	} else {
		members = roster.Active()
	}
	if len(members) == 0 {
		return fmt.Errorf("no active team members; edit %s", cfg.TeamPath())
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	j, err := journal.New(cfg.JournalPath())
	if err != nil {
		return err
	}
	queue := tickets.NewFileStore(cfg.TicketsDir())

	run := func(ctx context.Context, actor *team.Member, command, message string) (string, error) {
		words, err := shlex.Split(command)
		if err != nil {
			return "", fmt.Errorf("parse command line %q: %w", command, err)
		}
		if len(words) == 0 {
			return "", fmt.Errorf("empty command line")
		}
		return executeCommand(ctx, cfg, eng, actor, words[0], words[1:], message)
	}

	sched := scheduler.New(queue, run,
		scheduler.WithErrorLimit(cfg.ErrorLimit()),
		scheduler.WithDefaultWorkflow(cfg.DefaultWorkflow()),
		scheduler.WithJournal(j),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan error, 1)
	go func() { done <- sched.Start(members) }()

	log.Info().Int("workers", len(members)).Msg("scheduler started")

	select {
	case err := <-done:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		sched.Shutdown()
		return <-done
	}
}
