package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/vimanam/internal/output"
)

const defaultConfigName = "vimanam.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample vimanam configuration file",
		Long:  "Scaffold a commented vimanam configuration file that documents available options.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Force:      force,
			}
			return initRunner(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("out", defaultConfigName, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(_ context.Context, cfg *InitConfig, stdout io.Writer) error {
	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigName
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"
	slog.Debug("writing sample config", "path", absPath, "force", cfg.Force, "bytes", len(content))
	if err := output.Write(absPath, []byte(content), nil); err != nil {
		return newUsageError(fmt.Sprintf("init: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	fmt.Fprintf(stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# vimanam configuration (YAML)
# All fields are optional. Command-line flags override config values.
# Keys may be written camelCase, kebab-case or snake_case.

# Path or URL to the Swagger/OpenAPI document (http/https, local file or - for stdin).
# input: ./openapi.yaml

# Output file. Documentation goes to stdout when omitted.
# out: ./API.md

# Grouping: service|method|path|tag|flat. flat and method win over groupBy.
# groupBy: service
# method: false
# flat: false

# Only include these services (comma-separated or list).
# serviceFilter: [Users, Orders]

# Only include paths containing this text.
# pathFilter: /v1/

# Only include these HTTP methods.
# methodFilter: [GET, POST]

# Hide deprecated endpoints.
# excludeDeprecated: false

# Hide parameters explicitly marked as not required.
# requiredOnly: false

# Detail level: summary|basic|standard|full.
# detail: summary

# Placeholders for schemas and examples (full detail only).
# includeSchemas: false
# includeExamples: false

# Show authentication requirements.
# includeAuth: false

# Skip the table of contents.
# noToc: false

# Output format: markdown|html|docusaurus.
# format: markdown

# Sorting: alpha|path-length|none.
# sort: alpha

# Run full OpenAPI validation before generating.
# validate: false

# Compare with the existing out file instead of writing.
# check: false

# Enable verbose logging.
# verbose: false
`
