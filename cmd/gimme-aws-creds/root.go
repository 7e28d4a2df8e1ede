package main

import (
	"context"
	"os"

	"github.com/CoupaOktaTest/gimme-aws-creds/lib"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gimme-aws-creds",
	Short: "CLI tool for retrieving AWS temporary credentials through Okta",
	Long: `CLI tool for retrieving AWS temporary credentials for the AWS apps and
roles Okta has assigned to you. The chosen credentials land in the AWS
shared credentials file or come back as export lines on stderr.`,
	Run: getCreds,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		lib.Writeln(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringP("username", "u", "", "Okta username (defaults to $OKTA_USERNAME, asked for when empty)")
	rootCmd.Flags().StringP("profile", "p", "", "Configuration profile to use instead of DEFAULT")
	rootCmd.Flags().BoolP("configure", "c", false, "Ask for the configuration parameters, save them and exit")
	rootCmd.Flags().BoolP("insecure", "k", false, "Allow connections to SSL sites without cert verification")
	rootCmd.Flags().Int32P("duration", "d", 0, "Override the session duration, in seconds, of the role session [900-43200]")
	rootCmd.Flags().BoolP("json", "j", false, "Print the credential as JSON to stdout, for use as a credential_process")
	rootCmd.Flags().BoolP("trace", "t", false, "Enable trace output on stderr")
}

func getCreds(cmd *cobra.Command, args []string) {
	username, _ := cmd.Flags().GetString("username")
	profile, _ := cmd.Flags().GetString("profile")
	configure, _ := cmd.Flags().GetBool("configure")
	insecure, _ := cmd.Flags().GetBool("insecure")
	duration, _ := cmd.Flags().GetInt32("duration")
	asJSON, _ := cmd.Flags().GetBool("json")
	lib.IsTraceEnabled, _ = cmd.Flags().GetBool("trace")

	if profile == "" {
		profile = lib.DefaultProfile
	}
	if configure {
		lib.Exit(lib.RunSetup(nil, profile))
	}
	if username == "" {
		username = os.Getenv("OKTA_USERNAME")
	}

	cfg, err := lib.RuntimeConfig(lib.CmdArgs{
		Profile:  profile,
		Duration: duration,
		Insecure: insecure,
	})
	if err != nil {
		lib.Exit(err)
	}
	lib.Exit(lib.Run(context.Background(), lib.RunOptions{
		Config:   cfg,
		Username: username,
		AsJSON:   asJSON,
	}))
}
