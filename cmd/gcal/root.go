package main

import (
	"github.com/PizzaHomicide/gcal/internal/version"
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree around app
func newRootCmd(app *application) *cobra.Command {
	root := &cobra.Command{
		Use:   "gcal",
		Short: "Authorize with Google and create Calendar events from the terminal",
		Long: `gcal runs the OAuth2 authorization code flow against Google through a short lived
local callback listener, keeps the resulting tokens in a local token store and refreshes
them when they are close to expiry.

Run "gcal auth" once, then "gcal create-event <description>".`,
		Version: version.GetVersion(),
		// Errors are printed by main with a hint where one applies
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationSkipConfig] == "true" {
				return nil
			}
			return app.init()
		},
	}
	root.SetVersionTemplate(`{{printf "gcal version %s\n" .Version}}`)

	root.PersistentFlags().StringVarP(&app.user, "user", "u", "", "user id the token is stored under (default from config, usually default_user)")
	root.PersistentFlags().BoolVar(&app.noTUI, "no-tui", false, "disable the interactive spinner and print plain output")

	root.AddCommand(
		newAuthCmd(app),
		newCreateEventCmd(app),
		newStatusCmd(app),
		newLogoutCmd(app),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// annotationSkipConfig marks commands that run without loading configuration
const annotationSkipConfig = "gcal/skip-config"
