// internal/console/console.go
//
// The interactive console. It follows bubbletea's Elm architecture: the
// Model holds all state, Update reacts to messages, View renders. Two
// screens: an actor picker (when the actor is ambiguous) and the prompt,
// where `//name arg key=value` lines run commands and everything else gets
// a hint.

package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/shlex"

	"github.com/kingrea/steward/internal/journal"
	"github.com/kingrea/steward/internal/team"
)

const transcriptLimit = 200

// Executor runs one named command for one actor and returns its final
// rolling message. Each call gets a fresh run.
type Executor func(actor *team.Member, name string, args []string, message string) (string, error)

type screen int

const (
	screenPick screen = iota
	screenPrompt
	screenBusy
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF")).
			MarginBottom(1)
	actorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ECE6A"))
	echoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// actorItem adapts a team member to the bubbles list.
type actorItem struct {
	member *team.Member
}

func (i actorItem) Title() string { return i.member.Label() }

func (i actorItem) Description() string {
	if n := len(i.member.Schedules); n > 0 {
		return fmt.Sprintf("%d scheduled task(s)", n)
	}
	return "no scheduled tasks"
}

func (i actorItem) FilterValue() string { return i.member.ID }

type resultMsg struct {
	output string
	err    error
}

// Model is the console's complete state.
type Model struct {
	screen     screen
	actor      *team.Member
	picker     list.Model
	input      textarea.Model
	exec       Executor
	journal    *journal.Journal
	transcript []string
	width      int
	height     int
}

// New builds the console model. With a preselected actor (or a roster of
// one) the picker is skipped.
func New(members []*team.Member, selected *team.Member, exec Executor, j *journal.Journal) Model {
	items := make([]list.Item, len(members))
	for i, m := range members {
		items[i] = actorItem{member: m}
	}
	picker := list.New(items, list.NewDefaultDelegate(), 0, 0)
	picker.Title = "Who is working?"
	picker.SetShowStatusBar(false)
	picker.SetFilteringEnabled(false)

	input := textarea.New()
	input.Placeholder = "//command arg key=value"
	input.Prompt = "» "
	input.CharLimit = 4096
	input.SetHeight(3)
	input.ShowLineNumbers = false
	input.FocusedStyle.CursorLine = lipgloss.NewStyle()

	m := Model{
		screen:  screenPick,
		picker:  picker,
		input:   input,
		exec:    exec,
		journal: j,
	}
	if selected == nil && len(members) == 1 {
		selected = members[0]
	}
	if selected != nil {
		m.actor = selected
		m.screen = screenPrompt
		m.input.Focus()
	}
	return m
}

// Init is called once when the program starts.
func (m Model) Init() tea.Cmd {
	if m.screen == screenPrompt {
		return textarea.Blink
	}
	return nil
}

// Update reacts to one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.picker.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		m.input.SetWidth(max(20, msg.Width-6))
		return m, nil

	case resultMsg:
		if msg.err != nil {
			m.say(errorStyle.Render(fmt.Sprintf("error: %v", msg.err)))
		} else if strings.TrimSpace(msg.output) == "" {
			m.say(echoStyle.Render("(no output)"))
		} else {
			m.say(msg.output)
		}
		m.screen = screenPrompt
		m.input.Reset()
		return m, textarea.Blink

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			switch m.screen {
			case screenPick:
				return m.pickActor()
			case screenPrompt:
				return m.submit()
			}
		}
	}

	var cmd tea.Cmd
	switch m.screen {
	case screenPick:
		m.picker, cmd = m.picker.Update(msg)
	case screenPrompt:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) pickActor() (tea.Model, tea.Cmd) {
	item, ok := m.picker.SelectedItem().(actorItem)
	if !ok {
		return m, nil
	}
	m.actor = item.member
	m.screen = screenPrompt
	m.input.Focus()
	m.say(actorStyle.Render(fmt.Sprintf("working as %s", item.member.Label())))
	return m, textarea.Blink
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	if strings.TrimSpace(value) == "" {
		return m, nil
	}
	name, args, message, err := parseLine(value)
	if err != nil {
		m.say(echoStyle.Render("» " + value))
		m.say(errorStyle.Render(err.Error()))
		m.input.Reset()
		return m, nil
	}
	m.say(echoStyle.Render("» " + strings.SplitN(value, "\n", 2)[0]))
	m.screen = screenBusy
	return m, m.runCommand(name, args, message)
}

func (m *Model) runCommand(name string, args []string, message string) tea.Cmd {
	exec := m.exec
	actor := m.actor
	return func() tea.Msg {
		output, err := exec(actor, name, args, message)
		return resultMsg{output: output, err: err}
	}
}

// parseLine splits one submitted value into the command name, its args and
// the piped message (everything after the first line).
func parseLine(value string) (string, []string, string, error) {
	first := value
	message := ""
	if i := strings.IndexByte(value, '\n'); i >= 0 {
		first = value[:i]
		message = strings.TrimSpace(value[i+1:])
	}
	trimmed := strings.TrimSpace(first)
	if !strings.HasPrefix(trimmed, "//") {
		return "", nil, "", fmt.Errorf("commands start with //name, e.g. //plan refactor the gate")
	}
	words, err := shlex.Split(strings.TrimPrefix(trimmed, "//"))
	if err != nil {
		return "", nil, "", fmt.Errorf("parse command: %v", err)
	}
	if len(words) == 0 {
		return "", nil, "", fmt.Errorf("command name is required")
	}
	return words[0], words[1:], message, nil
}

// say appends a transcript line, trimming the scrollback.
func (m *Model) say(line string) {
	m.transcript = append(m.transcript, line)
	if len(m.transcript) > transcriptLimit {
		m.transcript = m.transcript[len(m.transcript)-transcriptLimit:]
	}
}

// View renders the current screen.
func (m Model) View() string {
	header := headerStyle.Render("⬡ STEWARD CONSOLE")

	if m.screen == screenPick {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			m.picker.View(),
			helpStyle.Render("enter selects · esc quits"),
		)
	}

	parts := []string{header}
	if m.actor != nil {
		parts = append(parts, actorStyle.Render(m.actor.Label()))
	}
	if len(m.transcript) > 0 {
		parts = append(parts, panelStyle.Render(strings.Join(m.transcript, "\n")))
	}
	if m.screen == screenBusy {
		parts = append(parts, echoStyle.Render("running..."))
	} else {
		parts = append(parts, m.input.View())
	}
	if tail := m.renderJournal(); tail != "" {
		parts = append(parts, tail)
	}
	parts = append(parts, helpStyle.Render("//name arg key=value runs a command · extra lines pipe as the message · esc quits"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderJournal() string {
	if m.journal == nil {
		return ""
	}
	lines := m.journal.Tail(5)
	if len(lines) == 0 {
		return ""
	}
	head := headerStyle.Render("RECENT FAILURES")
	body := echoStyle.Render(strings.Join(lines, "\n"))
	return panelStyle.Render(head + "\n" + body)
}

// Run starts the console program and blocks until it exits.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
