package team

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule is one time trigger owned by a member: a cron expression and the
// command line to run when it fires.
type Schedule struct {
	Cron    string `yaml:"cron"`
	Command string `yaml:"command"`

	spec cron.Schedule
	next time.Time
}

// NewSchedule builds a schedule from a cron expression and a command line.
func NewSchedule(cronExpr, command string) (*Schedule, error) {
	s := &Schedule{Cron: cronExpr, Command: command}
	if err := s.normalize(); err != nil {
		return nil, fmt.Errorf("team: schedule: %w", err)
	}
	return s, nil
}

func (s *Schedule) normalize() error {
	s.Cron = strings.TrimSpace(s.Cron)
	s.Command = strings.TrimSpace(s.Command)
	if s.Cron == "" {
		return fmt.Errorf("cron expression is required")
	}
	if s.Command == "" {
		return fmt.Errorf("command is required")
	}
	spec, err := cron.ParseStandard(s.Cron)
	if err != nil {
		return fmt.Errorf("parse cron %q: %w", s.Cron, err)
	}
	s.spec = spec
	return nil
}

// ShouldRun reports whether a fire time has arrived since the previous check
// and advances the trigger past now. The first call only arms the trigger;
// schedules never fire retroactively at startup.
func (s *Schedule) ShouldRun(now time.Time) bool {
	if s.spec == nil {
		return false
	}
	if s.next.IsZero() {
		s.next = s.spec.Next(now)
		return false
	}
	if s.next.After(now) {
		return false
	}
	s.next = s.spec.Next(now)
	return true
}
