package main

import (
	"fmt"

	"github.com/CoupaOktaTest/gimme-aws-creds/lib"
	"github.com/spf13/cobra"
)

var clearSecretCmd = &cobra.Command{
	Use:   "clear-secret",
	Short: "Clear the secret store that remembers the Okta password",
	Long:  `Clear the secret store that remembers the Okta password.`,
	Run:   clearSecret,
}

func init() {
	clearSecretCmd.Flags().StringP("store", "s", "", "Secret store holding the password: [keyring] or [file]")
	rootCmd.AddCommand(clearSecretCmd)
}

func clearSecret(cmd *cobra.Command, args []string) {
	store, _ := cmd.Flags().GetString("store")
	if store == "" {
		lib.Exit(cmd.Usage())
	}
	if err := lib.InitializeSecret(store); err != nil {
		lib.Exit(fmt.Errorf("cannot initialize store: %w", err))
	}
	if err := lib.ClearSecret(); err != nil {
		lib.Exit(fmt.Errorf("failed to clear the secret store: %w", err))
	}
	lib.Writeln("The secret store has been cleared")
}
