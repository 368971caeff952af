package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PizzaHomicide/gcal/internal/ui/tui/styles"
	"github.com/spf13/cobra"
)

func newCreateEventCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "create-event <description>",
		Short: "Create a one hour event starting an hour from now",
		Long: `Creates an event in your calendar that starts one hour from now and lasts one hour.
The description becomes the event title.  The stored token is refreshed first if it is
close to expiry.`,
		Example: `  gcal create-event "Review quarterly report"`,
		Args: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(strings.Join(args, " ")) == "" {
				_ = cmd.Usage()
				return errors.New("an event description is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.eventService()
			if err != nil {
				return err
			}

			created, err := svc.CreateEvent(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				if isTokenNotFound(err) {
					return app.withUserSuggestions(err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, styles.Success.Render("Event created successfully!"))
			_, _ = fmt.Fprintln(out, styles.KeyValue(6, "ID", created.ID))
			if created.HTMLLink != "" {
				_, _ = fmt.Fprintln(out, styles.KeyValue(6, "Link", styles.Url.Render(created.HTMLLink)))
			}
			return nil
		},
	}
}

// suggestionError carries stored user ids resembling the one that had no token
type suggestionError struct {
	err         error
	suggestions []string
}

func (e *suggestionError) Error() string {
	return e.err.Error()
}

func (e *suggestionError) Unwrap() error {
	return e.err
}

// withUserSuggestions attaches similar stored user ids to a missing token error
func (a *application) withUserSuggestions(err error) error {
	tokens, storeErr := a.tokenStore()
	if storeErr != nil {
		return err
	}
	suggestions := tokens.SuggestUsers(a.userID())
	if len(suggestions) == 0 {
		return err
	}
	return &suggestionError{err: err, suggestions: suggestions}
}
