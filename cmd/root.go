// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "repo-year",
	Short: "A CLI tool to draw a year of GitHub contributions per repository.",
	Long: `repo-year fetches a user's contribution calendar from GitHub and breaks
every day down by repository (commits, issues, pull requests, reviews and
repository creations). Each repository gets its own color so you can see
where the year went.

Set GITHUB_TOKEN (or REPOYEAR_TOKEN) to a token that can read the user's
contributions. Settings may also be given as REPOYEAR_* variables or in a
.env file in the working directory.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("timezone", "Local", "IANA time zone days are counted in")
}
