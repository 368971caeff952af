package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PizzaHomicide/gcal/internal/log"
	"github.com/PizzaHomicide/gcal/internal/ui/tui/components"
	"github.com/PizzaHomicide/gcal/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/gcal/internal/ui/tui/styles"
	"github.com/PizzaHomicide/gcal/internal/ui/tui/util"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxContentWidth = 100

// WaitFinishedMsg is sent once the callback listener delivered a code or gave up
type WaitFinishedMsg struct{}

// BrowserOpenedMsg reports the outcome of re-opening the consent page
type BrowserOpenedMsg struct {
	Err error
}

// WaitModel shows a spinner and the consent URL while the authorization flow waits for the
// browser redirect.  It never receives the code itself; it only quits once finished is closed.
type WaitModel struct {
	width       int
	authURL     string
	spinner     spinner.Model
	startTime   time.Time
	timeout     time.Duration
	finished    <-chan struct{}
	cancel      context.CancelFunc
	openBrowser func(string) error

	cancelled  bool
	browserErr error
}

// NewWaitModel creates the view.  cancel aborts the wait; finished is closed when the wait is over.
func NewWaitModel(authURL string, timeout time.Duration, finished <-chan struct{}, cancel context.CancelFunc, openBrowser func(string) error) *WaitModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	return &WaitModel{
		width:       80,
		authURL:     authURL,
		spinner:     s,
		startTime:   time.Now(),
		timeout:     timeout,
		finished:    finished,
		cancel:      cancel,
		openBrowser: openBrowser,
	}
}

// Init initializes the model
func (m *WaitModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForFinish())
}

func (m *WaitModel) waitForFinish() tea.Cmd {
	finished := m.finished
	return func() tea.Msg {
		<-finished
		return WaitFinishedMsg{}
	}
}

// Update handles messages
func (m *WaitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case WaitFinishedMsg:
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case BrowserOpenedMsg:
		m.browserErr = msg.Err
		if msg.Err != nil {
			log.Warn("Failed to open browser", "error", msg.Err)
		}
		return m, nil

	case tea.KeyMsg:
		switch keybindings.GetActionByKey(msg, keybindings.ContextWait) {
		case keybindings.ActionQuit, keybindings.ActionCancel:
			log.Info("Authorization cancelled by user")
			m.cancelled = true
			m.cancel()
			// The wait returns once cancelled, which closes finished and quits the program
			return m, nil
		case keybindings.ActionOpenBrowser:
			url, open := m.authURL, m.openBrowser
			return m, func() tea.Msg {
				return BrowserOpenedMsg{Err: open(url)}
			}
		}
	}

	return m, nil
}

// Cancelled reports whether the user aborted the wait
func (m *WaitModel) Cancelled() bool {
	return m.cancelled
}

// View renders the waiting state
func (m *WaitModel) View() string {
	contentWidth := min(max(m.width-2, 40), maxContentWidth)

	var b strings.Builder
	if m.cancelled {
		b.WriteString(styles.Warning.Render("Cancelling..."))
	} else {
		b.WriteString(m.spinner.View() + " " + styles.Info.Render("Waiting for authorization in your browser..."))
	}
	b.WriteString("\n\n")

	elapsed := time.Since(m.startTime).Round(time.Second)
	status := fmt.Sprintf("Elapsed %s", elapsed)
	if m.timeout > 0 {
		status += ", gives up in " + util.FormatRemaining(m.timeout-elapsed)
	}
	b.WriteString(styles.Muted.Render(status))

	if m.browserErr != nil {
		b.WriteString("\n")
		b.WriteString(styles.Error.Render(util.TruncateString("Could not open browser: "+m.browserErr.Error(), contentWidth-4)))
	}

	header := styles.Header(contentWidth, "gcal")
	box := styles.ContentBox(contentWidth, lipgloss.NewStyle().Width(contentWidth-4).Render(b.String()), 1)
	footer := components.KeyBindingsBar(keybindings.ContextBindings[keybindings.ContextWait])

	// The URL stays outside the box so it is never wrapped and can be copied from the terminal
	link := styles.Info.Render("If your browser didn't open automatically, please visit the following URL:") +
		"\n\n" + styles.Url.Render(m.authURL) + "\n"

	return lipgloss.JoinVertical(lipgloss.Left, header, box, link, footer) + "\n"
}
