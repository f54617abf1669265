// internal/scheduler/scheduler.go
//
// The scheduling loop. One worker goroutine per active actor polls that
// actor's cron schedules and the shared ticket queue, runs workflows through
// an injected run function, and applies a consecutive-failure budget that
// stops only the failing worker. Shutdown is cooperative: the stop signal is
// observed between units of work, never in the middle of one.

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kingrea/steward/internal/journal"
	"github.com/kingrea/steward/internal/logging"
	"github.com/kingrea/steward/internal/team"
	"github.com/kingrea/steward/internal/tickets"
)

const (
	defaultSlot       = time.Minute
	defaultUnitPause  = time.Second
	defaultErrorLimit = 3
)

// RunFunc executes one workflow for one actor and returns the final rolling
// message. The scheduler hands it a background context on purpose: started
// work always runs to completion.
type RunFunc func(ctx context.Context, actor *team.Member, command, message string) (string, error)

// Option customizes Scheduler construction.
type Option func(*Scheduler)

// WithErrorLimit sets the consecutive-failure budget per worker (minimum 1).
func WithErrorLimit(limit int) Option {
	return func(s *Scheduler) {
		if limit >= 1 {
			s.limit = limit
		}
	}
}

// WithDefaultWorkflow sets the workflow used for tickets that do not name
// their own.
func WithDefaultWorkflow(name string) Option {
	return func(s *Scheduler) { s.defaultWorkflow = name }
}

// WithJournal records workflow failures to a journal.
func WithJournal(j *journal.Journal) Option {
	return func(s *Scheduler) { s.journal = j }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSlot overrides the per-iteration cadence.
func WithSlot(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.slot = d
		}
	}
}

// WithUnitPause overrides the pause between consecutive units of work.
func WithUnitPause(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.pause = d
		}
	}
}

// Scheduler drives the per-actor worker loops.
type Scheduler struct {
	tickets         tickets.Manager
	run             RunFunc
	journal         *journal.Journal
	defaultWorkflow string
	limit           int
	slot            time.Duration
	pause           time.Duration
	now             func() time.Time
	log             zerolog.Logger

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New wires a scheduler over a ticket queue and a workflow run function.
func New(mgr tickets.Manager, run RunFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		tickets: mgr,
		run:     run,
		limit:   defaultErrorLimit,
		slot:    defaultSlot,
		pause:   defaultUnitPause,
		now:     time.Now,
		log:     logging.GetLogger("scheduler"),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start spawns one worker per member and blocks until every worker exits.
// Workers normally run until Shutdown; a worker that exhausts its error
// budget exits early and its error surfaces in the joined result.
func (s *Scheduler) Start(members []*team.Member) error {
	if len(members) == 0 {
		return fmt.Errorf("scheduler: no active members")
	}
	errCh := make(chan error, len(members))
	for _, m := range members {
		s.wg.Add(1)
		go func(member *team.Member) {
			defer s.wg.Done()
			if err := s.runWorker(member); err != nil {
				errCh <- err
			}
		}(m)
	}
	s.wg.Wait()
	close(errCh)
	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Shutdown signals every worker to stop after its current unit of work and
// waits for all of them to exit.
func (s *Scheduler) Shutdown() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}

// runWorker is one actor's loop: scheduled tasks, then the ticket queue,
// then sleep out the rest of the slot.
func (s *Scheduler) runWorker(member *team.Member) error {
	log := s.log.With().Str("actor", member.ID).Logger()
	log.Info().Int("schedules", len(member.Schedules)).Msg("worker started")

	failures := 0
	for {
		if s.stopped() {
			log.Info().Msg("worker stopped")
			return nil
		}
		start := s.now()

		for _, sched := range member.Schedules {
			if s.stopped() {
				log.Info().Msg("worker stopped")
				return nil
			}
			if !sched.ShouldRun(s.now()) {
				continue
			}
			log.Info().Str("command", sched.Command).Str("cron", sched.Cron).Msg("scheduled run")
			if err := s.runScheduled(member, sched.Command); err != nil {
				failures++
				s.recordFailure(member, "scheduled", err)
				log.Warn().Err(err).Int("consecutive_failures", failures).Msg("scheduled run failed")
				if failures >= s.limit {
					log.Error().Int("limit", s.limit).Msg("error budget exhausted, stopping worker")
					return fmt.Errorf("scheduler: worker %s stopped after %d consecutive failures", member.ID, failures)
				}
			} else {
				failures = 0
			}
			if !s.wait(s.pause) {
				log.Info().Msg("worker stopped")
				return nil
			}
		}

		if s.stopped() {
			log.Info().Msg("worker stopped")
			return nil
		}
		ran, err := s.runNextTicket(member, log)
		if err != nil {
			failures++
			s.recordFailure(member, "ticket", err)
			log.Warn().Err(err).Int("consecutive_failures", failures).Msg("ticket run failed")
			if failures >= s.limit {
				log.Error().Int("limit", s.limit).Msg("error budget exhausted, stopping worker")
				return fmt.Errorf("scheduler: worker %s stopped after %d consecutive failures", member.ID, failures)
			}
		} else if ran {
			failures = 0
		}

		if !s.sleepRemainder(start) {
			log.Info().Msg("worker stopped")
			return nil
		}
	}
}

func (s *Scheduler) runScheduled(member *team.Member, command string) error {
	_, err := s.run(context.Background(), member, command, "")
	return err
}

// runNextTicket polls the queue and runs the next ready ticket. The ticket
// moves to in_progress before the run; later transitions belong to the
// workflow itself. Poll errors are logged but do not count against the
// budget.
func (s *Scheduler) runNextTicket(member *team.Member, log zerolog.Logger) (bool, error) {
	ticket, err := s.tickets.NextTask()
	if err != nil {
		log.Warn().Err(err).Msg("ticket poll failed")
		return false, nil
	}
	if ticket == nil {
		return false, nil
	}

	workflow := ticket.Workflow
	if workflow == "" {
		workflow = s.defaultWorkflow
	}
	if workflow == "" {
		return false, fmt.Errorf("scheduler: ticket %s names no workflow and no default is configured", ticket.ID)
	}

	log.Info().Str("ticket", ticket.ID).Str("workflow", workflow).Msg("ticket run")
	if err := s.tickets.MoveTicket(ticket, tickets.StatusInProgress); err != nil {
		return false, fmt.Errorf("scheduler: move ticket %s: %w", ticket.ID, err)
	}
	if _, err := s.run(context.Background(), member, workflow, ticket.Message()); err != nil {
		if commentErr := s.tickets.AddComment(ticket, fmt.Sprintf("workflow %s failed: %v", workflow, err)); commentErr != nil {
			log.Warn().Err(commentErr).Str("ticket", ticket.ID).Msg("failure comment not delivered")
		}
		return false, fmt.Errorf("scheduler: ticket %s: %w", ticket.ID, err)
	}
	return true, nil
}

func (s *Scheduler) recordFailure(member *team.Member, source string, err error) {
	if s.journal == nil {
		return
	}
	s.journal.Record(member.ID, source, err)
}

// sleepRemainder waits out what is left of the current slot so iterations
// cadence to roughly one per slot.
func (s *Scheduler) sleepRemainder(start time.Time) bool {
	return s.wait(s.slot - s.now().Sub(start))
}

// wait sleeps for d unless the stop signal arrives first. It reports whether
// the worker should keep going.
func (s *Scheduler) wait(d time.Duration) bool {
	if d <= 0 {
		return !s.stopped()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.stop:
		return false
	case <-timer.C:
		return true
	}
}

func (s *Scheduler) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}
