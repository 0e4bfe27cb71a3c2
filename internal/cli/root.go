package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const asciiLogo = `
  ___  _ __ ___   ___  _ __
 / _ \| '_ ` + "`" + ` _ \ / _ \| '_ \
| (_) | | | | | | (_) | |_) |
 \___/|_| |_| |_|\___/| .__/ load
                      |_|`

var rootCmd = &cobra.Command{
	Use:   "omopload",
	Short: "OMOP CDM database loader",
	Long: asciiLogo + `

omopload takes a staging directory of OMOP CDM exports (vocabulary and
dataset CSV files, optionally fetched from S3 and gzip/lzop compressed),
provisions a PostgreSQL database, applies the CDM DDL, bulk-loads every
file in dependency order, and validates the result.

Exit Codes:
  0 - The run completed and validation passed
  1 - Anything else: bad configuration, connection failure, denied
      approval, load error, failed validation, or interruption`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for omopload")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
