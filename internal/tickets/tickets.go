// internal/tickets/tickets.go
//
// Ticket queue contract. The scheduler only ever talks to the Manager
// interface; the file-backed store in filestore.go is the default
// implementation for local workspaces.

package tickets

import "strings"

// Status is the lifecycle state of a ticket.
type Status string

const (
	StatusReady      Status = "ready"
	StatusInProgress Status = "in_progress"
	StatusInReview   Status = "in_review"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// Ticket is one externally tracked unit of work.
type Ticket struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Status      Status   `yaml:"status"`
	Workflow    string   `yaml:"workflow,omitempty"`
	Comments    []string `yaml:"comments,omitempty"`
}

// Message renders the ticket as the piped message handed to its workflow.
func (t *Ticket) Message() string {
	title := strings.TrimSpace(t.Title)
	desc := strings.TrimSpace(t.Description)
	switch {
	case title == "":
		return desc
	case desc == "":
		return title
	default:
		return title + "\n\n" + desc
	}
}

// Manager is the queue the scheduler polls and reports back to.
type Manager interface {
	// NextTask returns the next ready ticket, or nil when the queue is empty.
	NextTask() (*Ticket, error)
	// MoveTicket transitions the ticket to a new status and persists it.
	MoveTicket(t *Ticket, status Status) error
	// AddComment appends a comment to the ticket and persists it.
	AddComment(t *Ticket, text string) error
	// CreateTickets stores new tickets, assigning IDs where missing.
	CreateTickets(ts []*Ticket) error
	// UpdateTicket persists the ticket as-is.
	UpdateTicket(t *Ticket) error
}
