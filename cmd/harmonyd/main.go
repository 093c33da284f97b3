// Command harmonyd drives a tuning session in-process against a YAML
// manifest, the adapted replacement for dshills-dungo's
// cmd/dungeongen: same cobra-rooted CLI shape
// (jhkimqd-chaos-utils/cmd/chaos-runner), but fetching and reporting
// points against a session instead of generating a dungeon artifact.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "harmonyd",
	Short:   "Drive an online auto-tuning session from a manifest",
	Long:    `harmonyd loads a session manifest (dimensions + configuration), builds the search strategy and processing pipeline it names, and drives FETCH/REPORT against it.`,
	Version: version,
}

func main() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
