package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "troupe",
	Short: "Role-based agent workflows for news digests and code changes",
	Long: `Troupe runs small troupes of role-scoped agents over dependency-ordered
task graphs.

Two workflows are built in:
  news    Collect recent news on a topic, digest it, and translate
          the digest into a target language
  modify  Turn a change request into a pull request on GitHub, watch
          its CI run, and merge it on success

Workflows report progress as they run and always return a complete
result: when the completion endpoint or the repository host is
unreachable, the same task graph is replayed with deterministic
scripted agents and the result is labeled accordingly.

A running workflow can be stopped from another terminal with
'troupe halt', and steered by placing guidance text with
'troupe guide'.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(modifyCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(haltCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(guideCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
