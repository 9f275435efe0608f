package cli

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "restup",
	Short:   "A small asynchronous REST client",
	Version: version,
	Long: `restup sends REST requests to a configured host. Connection settings come
from flags, a full URL argument, or named profiles in a YAML or JSON file.
Responses can be decoded, queried with JSON paths, validated against a JSON
schema, or replayed many times to collect latency percentiles.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print help
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(postCmd)
	RootCmd.AddCommand(putCmd)
	RootCmd.AddCommand(deleteCmd)
	RootCmd.AddCommand(optionsCmd)
	RootCmd.AddCommand(profilesCmd)
}
