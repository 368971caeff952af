package main

import (
	"errors"
	"fmt"

	"github.com/PizzaHomicide/gcal/internal/config"
	"github.com/PizzaHomicide/gcal/internal/ui/tui/styles"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and update the gcal configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:         "path",
		Short:       "Print the location of the config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Path()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:         "env",
		Short:       "List the environment variables that override the config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipConfig: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), config.EnvVarHelp())
		},
	})

	var clientID, clientSecret string
	setClient := &cobra.Command{
		Use:   "set-client",
		Short: "Store the OAuth client id and secret in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientID == "" && clientSecret == "" {
				return errors.New("at least one of --client-id or --client-secret is required")
			}
			err := config.UpdateConfig(func(c *config.Config) {
				if clientID != "" {
					c.Auth.ClientID = clientID
				}
				if clientSecret != "" {
					c.Auth.ClientSecret = clientSecret
				}
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render("OAuth client saved to the config file."))
			return nil
		},
	}
	setClient.Flags().StringVar(&clientID, "client-id", "", "OAuth client id")
	setClient.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth client secret")
	cmd.AddCommand(setClient)

	return cmd
}
