package main

import (
	"fmt"
	"time"

	"github.com/PizzaHomicide/gcal/internal/ui/tui/styles"
	"github.com/PizzaHomicide/gcal/internal/ui/tui/util"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *application) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show stored tokens and when they expire",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := app.tokenStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if check {
				if err := app.cfg.ValidateAuth(); err != nil {
					return err
				}
				if _, err := tokens.EnsureValid(cmd.Context(), app.userID(), app.oauthClient()); err != nil {
					if isTokenNotFound(err) {
						return app.withUserSuggestions(err)
					}
					return err
				}
				_, _ = fmt.Fprintln(out, styles.Success.Render(fmt.Sprintf("Token for %q is valid.", app.userID())))
			}

			users := tokens.Users()
			if len(users) == 0 {
				_, _ = fmt.Fprintln(out, styles.Info.Render("No stored tokens.  Run `gcal auth` to authorize."))
				return nil
			}

			_, _ = fmt.Fprintln(out, styles.Title.Render("Stored tokens")+" "+styles.Muted.Render(tokens.Path()))
			now := time.Now()
			for _, user := range users {
				name := user
				if user == app.userID() {
					name += " (current)"
				}
				_, _ = fmt.Fprintln(out, styles.Info.Bold(true).Render(util.TruncateString(name, 60)))

				token, ok := tokens.Load(user)
				if !ok {
					_, _ = fmt.Fprintln(out, "  "+styles.KeyValue(10, "state", styles.Warning.Render("expired or unreadable, run `gcal auth`")))
					continue
				}

				expires := "never"
				if token.Expires() {
					expires = fmt.Sprintf("in %s (%s)", util.FormatRemaining(token.Remaining(now)), token.Expiry().Local().Format(time.DateTime))
				}
				refresh := "no"
				if token.HasRefreshToken() {
					refresh = "yes"
				}
				_, _ = fmt.Fprintln(out, "  "+styles.KeyValue(10, "expires", expires))
				_, _ = fmt.Fprintln(out, "  "+styles.KeyValue(10, "refresh", refresh))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "make sure the current user's token is usable, refreshing it if needed")
	return cmd
}
