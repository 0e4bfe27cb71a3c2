package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omopkit/omopload/internal/cdm"
)

var tablesCmd = &cobra.Command{
	Use:   "tables [table_name]",
	Short: "Show the CDM table registry and load order",
	Long: `Tables prints the CDM table registry in computed load order: each table's
staging flavor (vocabulary or dataset) and the tables that must be loaded
before it.

With a table name argument, prints only that table.

Examples:
  omopload tables
  omopload tables concept_relationship`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeTableNames,
	RunE:              runTables,
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}

func runTables(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return printTable(args[0])
	}

	ordered, err := cdm.LoadOrder()
	if err != nil {
		return fmt.Errorf("table registry is inconsistent: %w", err)
	}

	fmt.Fprintf(os.Stderr, "CDM tables in load order (%d total):\n\n", len(ordered))
	for i, table := range ordered {
		fmt.Printf("%2d  %-24s %s\n", i+1, table.Name, tableFlavor(table))
	}
	return nil
}

func printTable(name string) error {
	table, ok := cdm.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown CDM table '%s'\n\nUse 'omopload tables' to list all %d tables", name, cdm.ExpectedTableCount())
	}

	fmt.Printf("%s\n", table.Name)
	fmt.Printf("  staging: %s\n", tableFlavor(table))
	if len(table.DependsOn) > 0 {
		fmt.Printf("  depends on: %s\n", strings.Join(table.DependsOn, ", "))
	} else {
		fmt.Printf("  depends on: (nothing)\n")
	}
	return nil
}

// tableFlavor describes where a table's files are staged and in which CSV flavor.
func tableFlavor(table cdm.Table) string {
	if table.Vocabulary {
		return "vocab/ (tab-delimited, no header)"
	}
	return "dataset dirs (comma-delimited, header row)"
}
