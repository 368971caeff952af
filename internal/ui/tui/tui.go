package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/PizzaHomicide/gcal/internal/auth"
	"github.com/PizzaHomicide/gcal/internal/log"
	"github.com/PizzaHomicide/gcal/internal/ui/tui/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// IsInteractive reports whether f is a terminal that can host the spinner view
func IsInteractive(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Waiter returns an auth.Waiter that shows a spinner on out while the flow waits for the
// browser redirect.  If the view cannot start, it falls back to printing the URL.
func Waiter(in io.Reader, out io.Writer, timeout time.Duration, openBrowser func(string) error) auth.Waiter {
	return func(ctx context.Context, authURL string, wait func(context.Context) (auth.CallbackResult, error)) (auth.CallbackResult, error) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		var result auth.CallbackResult
		var waitErr error
		finished := make(chan struct{})
		go func() {
			defer close(finished)
			result, waitErr = wait(ctx)
		}()

		model := models.NewWaitModel(authURL, timeout, finished, cancel, openBrowser)
		p := tea.NewProgram(model, tea.WithInput(in), tea.WithOutput(out))
		if _, err := p.Run(); err != nil {
			log.Warn("Interactive view failed, falling back to plain output", "error", err)
			_, _ = fmt.Fprintf(out, "Please visit the following URL to authorize:\n\n  %s\n\n", authURL)
		}

		<-finished
		return result, waitErr
	}
}
