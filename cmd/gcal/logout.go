package main

import (
	"fmt"

	"github.com/PizzaHomicide/gcal/internal/ui/tui/styles"
	"github.com/spf13/cobra"
)

func newLogoutCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored token of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := app.tokenStore()
			if err != nil {
				return err
			}
			userID := app.userID()
			if err := tokens.Delete(userID); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render(fmt.Sprintf("Logged out %q.", userID)))
			return nil
		},
	}
}
