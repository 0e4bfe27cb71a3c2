package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/omopkit/omopload/internal/tui"
)

// Per-stage commands run one slice of the pipeline. Each holds its own flag
// values so flag state never leaks between commands.

var fetchCmd = &cobra.Command{
	Use:   "fetch <project_path>",
	Short: "Download source files from S3 into the staging directory",
	Long: `Fetch mirrors the configured S3 bucket prefix into the staging directory.

Only the vocabulary directory and the configured datasets are considered.
Objects whose local copy already exists are skipped, so interrupted fetches
resume where they left off.

Requires a source bucket, via --source-bucket or the omopload.yaml source
block. Credentials come from the default AWS credential chain
($AWS_ACCESS_KEY_ID, shared config, instance roles).

Examples:
  omopload fetch . --source-bucket my-exports --source-prefix 2024-06
  omopload fetch . --source-endpoint http://localhost:9000 --source-path-style`,
	Args:              RequireProjectPath,
	ValidArgsFunction: completeDirectories,
	RunE:              runFetch,
}

var extractCmd = &cobra.Command{
	Use:   "extract <project_path>",
	Short: "Decompress staged archives in place",
	Long: `Extract walks the staging directory and decompresses every .gz and .lzo
file in place, removing the archive after successful extraction.

.gz files are decompressed in-process. .lzo files require the external
lzop tool on PATH; if any .lzo file is present and lzop is missing, the
command fails before touching anything.

Examples:
  omopload extract .
  omopload extract . --staging /mnt/exports`,
	Args:              RequireProjectPath,
	ValidArgsFunction: completeDirectories,
	RunE:              runExtract,
}

var applyCmd = &cobra.Command{
	Use:   "apply <project_path>",
	Short: "Provision the database and apply the CDM schema",
	Long: `Apply provisions the target database and schema, then applies the OMOP CDM
DDL. The staged files are not loaded.

The command waits for the server to accept queries, creates the target
database and schema if missing, and with --overwrite drops and recreates
the schema first (prompting for confirmation unless --force is used).

Examples:
  omopload apply .
  omopload apply . --overwrite
  omopload apply . --ddl-dir ./custom-ddl`,
	Args:              RequireProjectPath,
	ValidArgsFunction: completeDirectories,
	RunE:              runApply,
}

var loadCmd = &cobra.Command{
	Use:   "load <project_path>",
	Short: "Bulk-load the staged files into an existing schema",
	Long: `Load scans the staging directory and bulk-loads every resolved file into
the target schema in dependency order via COPY.

The schema must already be applied ('omopload apply'). Referential
integrity is suspended per file; tables with no staged files are skipped.

Examples:
  omopload load .
  omopload load . --dataset synthea --dataset registry`,
	Args:              RequireProjectPath,
	ValidArgsFunction: completeDirectories,
	RunE:              runLoad,
}

var validateCmd = &cobra.Command{
	Use:   "validate <project_path>",
	Short: "Validate a loaded CDM database",
	Long: `Validate checks a loaded database: every CDM table exists, the key tables
report their row counts, primary keys are present, and the DDL sources are
scanned for foreign-dialect constructs.

The command exits non-zero when the verdict does not pass, so it slots
directly into CI.

Examples:
  omopload validate .
  omopload validate . --schema cdm54`,
	Args:              RequireProjectPath,
	ValidArgsFunction: completeDirectories,
	RunE:              runValidate,
}

var (
	fetchFlags    runFlagValues
	extractFlags  runFlagValues
	applyFlags    runFlagValues
	loadFlags     runFlagValues
	validateFlags runFlagValues
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(validateCmd)

	registerStagingFlags(fetchCmd, &fetchFlags)
	registerSourceFlags(fetchCmd, &fetchFlags)

	registerStagingFlags(extractCmd, &extractFlags)

	registerConnectionFlags(applyCmd, &applyFlags.conn)
	registerStagingFlags(applyCmd, &applyFlags)
	registerSchemaFlags(applyCmd, &applyFlags)
	registerOverwriteFlags(applyCmd, &applyFlags)
	registerParamFlags(applyCmd, &applyFlags)
	registerTimeoutFlag(applyCmd, &applyFlags)

	registerConnectionFlags(loadCmd, &loadFlags.conn)
	registerStagingFlags(loadCmd, &loadFlags)
	registerSchemaFlags(loadCmd, &loadFlags)
	registerTimeoutFlag(loadCmd, &loadFlags)

	registerConnectionFlags(validateCmd, &validateFlags.conn)
	registerStagingFlags(validateCmd, &validateFlags)
	registerSchemaFlags(validateCmd, &validateFlags)
	registerTimeoutFlag(validateCmd, &validateFlags)
}

func runFetch(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	config, err := buildStagingConfig(&fetchFlags, args[0], verbose)
	if err != nil {
		return err
	}

	svc := newPipelineService(verbose, false)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	err = tui.RunStage("Fetching staging files", func() (string, error) {
		summary, err := svc.Fetch(ctx, config)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Fetch complete: %d downloaded, %d already present",
			summary.Downloaded, summary.Skipped), nil
	})
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	config, err := buildStagingConfig(&extractFlags, args[0], verbose)
	if err != nil {
		return err
	}

	svc := newPipelineService(verbose, false)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	summary, err := svc.Extract(ctx, config)
	if err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Extract complete: %d gzip, %d lzop archives decompressed\n",
		summary.GzipFiles, summary.LzopFiles)
	return nil
}

func runApply(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	config, err := buildRunConfig(cmd, &applyFlags, args[0], verbose)
	if err != nil {
		return err
	}

	svc := newPipelineService(verbose, config.Force)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	if err := svc.Provision(ctx, config); err != nil {
		return fmt.Errorf("provisioning failed: %w", err)
	}
	if _, err := svc.Apply(ctx, config); err != nil {
		return fmt.Errorf("schema application failed: %w", err)
	}
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	config, err := buildRunConfig(cmd, &loadFlags, args[0], verbose)
	if err != nil {
		return err
	}

	svc := newPipelineService(verbose, false)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	err = tui.RunStage("Loading staged files", func() (string, error) {
		report, err := svc.Load(ctx, config)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Load complete: %d files, %d rows, %d failed",
			report.FilesLoaded, report.RowsLoaded, report.FilesFailed), nil
	})
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	config, err := buildRunConfig(cmd, &validateFlags, args[0], verbose)
	if err != nil {
		return err
	}

	svc := newPipelineService(verbose, false)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	if _, err := svc.Validate(ctx, config); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
