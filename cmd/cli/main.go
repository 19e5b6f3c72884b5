package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL     string
	jsonOutput bool

	api *apiClient
)

func defaultAPIURL() string {
	if s := os.Getenv("HOOKWATCH_API"); s != "" {
		return s
	}
	return "http://localhost:8899"
}

var rootCmd = &cobra.Command{
	Use:           "hookwatch <command>",
	Short:         "CLI client for a running hookwatch server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		api = newAPIClient(apiURL, nil)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultAPIURL(), "hookwatch server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(listCmd, getCmd, replayCmd, clearCmd, targetsCmd, statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
