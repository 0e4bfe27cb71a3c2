package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/omopkit/omopload/internal/scaffold"
)

var initCmd = &cobra.Command{
	Use:   "init <target_path>",
	Short: "Initialize a new omopload project",
	Long: `Initialize an omopload project into the specified directory.

The init command scaffolds:
- omopload.yaml project configuration
- staging/ directory layout (vocab/ plus a dataset directory)
- .env.example and a README with usage instructions

Target directory must be empty or non-existent. An existing omopload.yaml
or .env file does not count as content and is never overwritten, so
'omopload config' followed by 'omopload init .' works.

Examples:
  omopload init .                    # Initialize in current directory
  omopload init ./myproject          # Initialize in ./myproject
  omopload init /absolute/path       # Initialize at absolute path`,
	Args:              cobra.MinimumNArgs(0),
	ValidArgsFunction: completeDirectories,
	RunE:              runInit,
}

var (
	initTemplate string
	initList     bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initTemplate, "template", "t", "default", "Template to use")
	_ = initCmd.RegisterFlagCompletionFunc("template", completeTemplateNames)
	initCmd.Flags().BoolVar(&initList, "list", false, "List available templates")
}

func runInit(cmd *cobra.Command, args []string) error {
	// Handle --list flag
	if initList {
		return runTemplatesList()
	}

	// Require target path if not listing
	if len(args) == 0 {
		return fmt.Errorf("target path required\n\nUsage: omopload init <target_path> [flags]\n\nExamples:\n  omopload init .           # Current directory\n  omopload init ./myproject # Subdirectory\n\nUse 'omopload init --list' to see available templates")
	}

	targetPath := args[0]

	// Determine project name from target path
	projectName := filepath.Base(targetPath)
	if projectName == "." || projectName == ".." {
		cwd, err := os.Getwd()
		if err == nil {
			projectName = filepath.Base(cwd)
		} else {
			projectName = "project"
		}
	}
	verbose := getVerboseFlag(cmd)

	// Validate template
	templates, err := scaffold.ListTemplates()
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	validTemplate := false
	for _, t := range templates {
		if t == initTemplate {
			validTemplate = true
			break
		}
	}

	if !validTemplate {
		return fmt.Errorf("invalid template '%s'. Available templates: %v", initTemplate, templates)
	}

	// Create scaffolder
	scaffolder := scaffold.NewScaffolder(verbose)

	// Create project
	if err := scaffolder.CreateProject(projectName, initTemplate, targetPath); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	// Display file tree
	tree, err := scaffold.BuildFileTree(targetPath)
	if err != nil {
		// Non-fatal - just skip tree display
		fmt.Fprintf(os.Stderr, "\n✓ Project initialized successfully in '%s' using template '%s'\n\n", targetPath, initTemplate)
	} else {
		fmt.Fprintf(os.Stderr, "\n✓ Project initialized successfully using template '%s'\n\n", initTemplate)
		fmt.Fprintln(os.Stderr, "Created structure:")
		fmt.Fprint(os.Stderr, tree)
	}

	// Next steps
	fmt.Fprintln(os.Stderr, "\nNext steps:")
	if targetPath != "." {
		fmt.Fprintf(os.Stderr, "  cd %s\n", targetPath)
	}
	fmt.Fprintln(os.Stderr, "  # Drop your CDM exports into staging/, then:")
	fmt.Fprintln(os.Stderr, "  omopload run .")
	fmt.Fprintln(os.Stderr, "  # Or fetch them from S3 first:")
	fmt.Fprintln(os.Stderr, "  omopload run . --source-bucket my-exports")

	return nil
}

func runTemplatesList() error {
	templates, err := scaffold.ListTemplates()
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Available templates:")
	for _, t := range templates {
		fmt.Fprintf(os.Stderr, "  %s\n", t)
	}
	return nil
}
