package main

import (
	"fmt"
	"os"
	"time"

	"github.com/PizzaHomicide/gcal/internal/auth"
	"github.com/PizzaHomicide/gcal/internal/ui/tui"
	"github.com/PizzaHomicide/gcal/internal/ui/tui/styles"
	"github.com/spf13/cobra"
)

func newAuthCmd(app *application) *cobra.Command {
	var noBrowser bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize gcal with your Google account",
		Long: `Starts a local listener for the OAuth redirect, opens the Google consent page in your
browser and stores the resulting token once you approve access.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.cfg.ValidateAuth(); err != nil {
				return err
			}
			tokens, err := app.tokenStore()
			if err != nil {
				return err
			}

			wait := app.callbackTimeout()
			if cmd.Flags().Changed("timeout") {
				wait = max(timeout, 0)
			}

			out := cmd.OutOrStdout()
			userID := app.userID()
			flow := auth.NewFlow(auth.FlowConfig{
				Host:      app.cfg.Auth.CallbackHost,
				Port:      app.cfg.Auth.CallbackPort,
				Timeout:   wait,
				UserID:    userID,
				NoBrowser: noBrowser,
			}, app.oauthClient(), tokens, out)

			if app.interactive(out) {
				flow.WithWaiter(tui.Waiter(os.Stdin, out, wait, auth.OpenBrowser))
			}

			if err := flow.Run(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(out, styles.Success.Render("Authentication successful!")+" "+
				styles.Info.Render(fmt.Sprintf("Token stored for %q.", userID)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "print the consent URL without opening a browser")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "how long to wait for the browser redirect, 0 waits indefinitely (default from config, 5m)")
	return cmd
}
