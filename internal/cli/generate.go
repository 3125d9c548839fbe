package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/vimanam/internal/emitter/docusaurusemitter"
	"github.com/mark3labs/vimanam/internal/emitter/htmlemitter"
	"github.com/mark3labs/vimanam/internal/emitter/mdemitter"
	"github.com/mark3labs/vimanam/internal/output"
	"github.com/mark3labs/vimanam/internal/render"
	"github.com/mark3labs/vimanam/internal/spec"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input             string
	Out               string
	Method            bool
	GroupBy           string
	Flat              bool
	ServiceFilter     []string
	PathFilter        string
	MethodFilter      []string
	ExcludeDeprecated bool
	RequiredOnly      bool
	Detail            string
	IncludeSchemas    bool
	IncludeExamples   bool
	IncludeAuth       bool
	NoTOC             bool
	Format            string
	Sort              string
	Validate          bool
	Check             bool
	ConfigPath        string
	Verbose           bool

	resolved render.Config
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Detail: "summary", Format: "markdown", Sort: "alpha"}
}

// RenderConfig is the pipeline configuration resolved by validation.
func (c *GenerateConfig) RenderConfig() render.Config { return c.resolved }

// setting binds one flag to its config field. Config file keys match the
// flag name after normalizeKey, so includeAuth, include-auth and
// include_auth are the same key.
type setting struct {
	name string
	str  *string
	flag *bool
	list *[]string
}

func (c *GenerateConfig) settings() []setting {
	return []setting{
		{name: "input", str: &c.Input},
		{name: "out", str: &c.Out},
		{name: "method", flag: &c.Method},
		{name: "group-by", str: &c.GroupBy},
		{name: "flat", flag: &c.Flat},
		{name: "service-filter", list: &c.ServiceFilter},
		{name: "path-filter", str: &c.PathFilter},
		{name: "method-filter", list: &c.MethodFilter},
		{name: "exclude-deprecated", flag: &c.ExcludeDeprecated},
		{name: "required-only", flag: &c.RequiredOnly},
		{name: "detail", str: &c.Detail},
		{name: "include-schemas", flag: &c.IncludeSchemas},
		{name: "include-examples", flag: &c.IncludeExamples},
		{name: "include-auth", flag: &c.IncludeAuth},
		{name: "no-toc", flag: &c.NoTOC},
		{name: "format", str: &c.Format},
		{name: "sort", str: &c.Sort},
		{name: "validate", flag: &c.Validate},
		{name: "check", flag: &c.Check},
		{name: "verbose", flag: &c.Verbose},
	}
}

// streams carries the command's standard streams into runners.
type streams struct {
	in  io.Reader
	out io.Writer
}

func commandStreams(cmd *cobra.Command) streams {
	return streams{in: cmd.InOrStdin(), out: cmd.OutOrStdout()}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [FILE]",
		Short: "Generate documentation from an OpenAPI/Swagger document",
		Long: "Generate documentation from an OpenAPI/Swagger document. " +
			"FILE may be a path, an http(s) URL, or - for stdin. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  vimanam generate petstore.yaml --detail standard -o API.md
  vimanam generate --input https://example.com/openapi.json --method --format html -o api.html
  vimanam --config vimanam.yaml generate --check`),
		Args: maxOneFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd, args)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg, commandStreams(cmd))
		},
	}
	registerGenerateFlags(cmd.Flags())
	return cmd
}

func maxOneFile(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return newUsageError(fmt.Sprintf("%s: expected at most one FILE argument, got %d\n\n%s", cmd.Name(), len(args), cmd.UsageString()))
	}
	return nil
}

func registerGenerateFlags(flags *pflag.FlagSet) {
	flags.String("input", "", "Path, http(s) URL or - (stdin) of the Swagger/OpenAPI document")
	flags.StringP("out", "o", "", "Output file (stdout when omitted)")
	flags.Bool("method", false, "Group endpoints by HTTP method instead of by service")
	flags.String("group-by", "", "Grouping for endpoints (service|method|path|tag|flat)")
	flags.Bool("flat", false, "Generate a flat list without sections")
	flags.StringSlice("service-filter", nil, "Include only these services (comma-separated)")
	flags.String("path-filter", "", "Include only paths containing this text")
	flags.StringSlice("method-filter", nil, "Include only these HTTP methods (comma-separated)")
	flags.Bool("exclude-deprecated", false, "Hide deprecated endpoints")
	flags.Bool("required-only", false, "Hide parameters explicitly marked not required")
	flags.String("detail", "summary", "Amount of information (summary|basic|standard|full)")
	flags.Bool("include-schemas", false, "Mark where request/response schemas belong (full detail)")
	flags.Bool("include-examples", false, "Mark where examples belong (full detail)")
	flags.Bool("include-auth", false, "Show authentication requirements")
	flags.Bool("no-toc", false, "Skip the table of contents")
	flags.String("format", "markdown", "Output format (markdown|html|docusaurus)")
	flags.String("sort", "alpha", "Sorting method (alpha|path-length|none)")
	flags.Bool("validate", false, "Run full OpenAPI validation before generating")
	flags.Bool("check", false, "Compare with the existing --out file instead of writing; fail when it differs")
}

func resolveGenerateConfig(cmd *cobra.Command, args []string) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}
	if len(args) == 1 {
		if cmd.Flags().Changed("input") && strings.TrimSpace(cfg.Input) != strings.TrimSpace(args[0]) {
			return nil, newUsageError(fmt.Sprintf("%s: FILE %q conflicts with --input %q", cmd.Name(), args[0], cfg.Input))
		}
		cfg.Input = args[0]
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// The config file may turn on verbose logging as well as the flag.
	slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg.Verbose))

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	for _, s := range cfg.settings() {
		if flags.Lookup(s.name) == nil || !flags.Changed(s.name) {
			continue
		}
		switch {
		case s.str != nil:
			value, err := flags.GetString(s.name)
			if err != nil {
				return err
			}
			*s.str = strings.TrimSpace(value)
		case s.flag != nil:
			value, err := flags.GetBool(s.name)
			if err != nil {
				return err
			}
			*s.flag = value
		case s.list != nil:
			value, err := flags.GetStringSlice(s.name)
			if err != nil {
				return err
			}
			*s.list = sanitizeList(value)
		}
	}
	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	c.GroupBy = strings.ToLower(strings.TrimSpace(c.GroupBy))
	c.PathFilter = strings.TrimSpace(c.PathFilter)
	c.Detail = strings.ToLower(strings.TrimSpace(c.Detail))
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.Sort = strings.ToLower(strings.TrimSpace(c.Sort))
	c.ServiceFilter = sanitizeList(c.ServiceFilter)
	c.MethodFilter = sanitizeList(c.MethodFilter)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: an input document is required (FILE argument, --input or config file)")
	}
	if c.Check && c.Out == "" {
		return newUsageError("generate: --check compares against --out, which is not set")
	}

	groupBy, err := render.ResolveGroupBy(c.Flat, c.Method, c.GroupBy)
	if err != nil {
		return newUsageError("generate: --group-by: " + err.Error())
	}
	detail, err := render.ParseDetail(c.Detail)
	if err != nil {
		return newUsageError("generate: --detail: " + err.Error())
	}
	format, err := render.ParseFormat(c.Format)
	if err != nil {
		return newUsageError("generate: --format: " + err.Error())
	}
	sortMethod, err := render.ParseSort(c.Sort)
	if err != nil {
		return newUsageError("generate: --sort: " + err.Error())
	}
	methods, err := render.ParseMethodFilter(c.MethodFilter)
	if err != nil {
		return newUsageError("generate: --method-filter: " + err.Error())
	}

	c.resolved = render.Config{
		GroupBy:           groupBy,
		ServiceFilter:     c.ServiceFilter,
		PathFilter:        c.PathFilter,
		MethodFilter:      methods,
		ExcludeDeprecated: c.ExcludeDeprecated,
		RequiredOnly:      c.RequiredOnly,
		Detail:            detail,
		IncludeSchemas:    c.IncludeSchemas,
		IncludeExamples:   c.IncludeExamples,
		IncludeAuth:       c.IncludeAuth,
		IncludeTOC:        !c.NoTOC,
		Format:            format,
		Sort:              sortMethod,
	}
	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig, s streams) error {
	content, err := renderDocument(ctx, cfg, s.in)
	if err != nil {
		return err
	}

	if cfg.Check {
		if err := output.Check(cfg.Out, content); err != nil {
			var drift *output.DriftError
			if errors.As(err, &drift) {
				fmt.Fprint(s.out, drift.Diff)
			}
			return &StageError{Stage: StageWrite, Err: err}
		}
		slog.Info("documentation is up to date", "path", cfg.Out)
		return nil
	}

	if err := output.Write(cfg.Out, content, s.out); err != nil {
		return &StageError{Stage: StageWrite, Err: err}
	}
	if cfg.Out != "" {
		slog.Info("wrote documentation", "path", cfg.Out, "bytes", len(content))
	}
	return nil
}

// renderDocument runs load, build, plan and render, fully in memory.
func renderDocument(ctx context.Context, cfg *GenerateConfig, stdin io.Reader) ([]byte, error) {
	raw, err := spec.Load(ctx, cfg.Input,
		spec.WithStrictValidation(cfg.Validate),
		spec.WithStdin(stdin),
	)
	if err != nil {
		return nil, &StageError{Stage: StageLoad, Err: describeSpecError(err)}
	}

	doc, err := spec.Build(raw)
	if err != nil {
		return nil, &StageError{Stage: StageBuild, Err: describeSpecError(err)}
	}

	planned := render.Plan(doc, cfg.resolved)
	slog.Debug("planned documentation",
		"input", cfg.Input,
		"services", len(doc.Services),
		"endpoints", len(doc.Endpoints),
		"grouping", planned.Grouping,
		"sections", len(planned.Sections),
		"entries", planned.EntryCount(),
	)

	var buf bytes.Buffer
	if err := rendererFor(cfg).Render(ctx, &buf, planned); err != nil {
		return nil, &StageError{Stage: StageRender, Err: err}
	}
	return buf.Bytes(), nil
}

func rendererFor(cfg *GenerateConfig) render.Renderer {
	switch cfg.resolved.Format {
	case render.FormatHTML:
		return htmlemitter.New(htmlemitter.Options{})
	case render.FormatDocusaurus:
		return docusaurusemitter.New(docusaurusemitter.Options{ID: docID(cfg.Out)})
	default:
		return mdemitter.New(mdemitter.Options{})
	}
}

// docID derives a Docusaurus page id from the output file name.
func docID(out string) string {
	if out == "" {
		return ""
	}
	base := filepath.Base(out)
	return render.Anchor(strings.TrimSuffix(base, filepath.Ext(base)))
}

// describeSpecError appends the location and pointer of a spec error to its
// message while keeping it in the error chain.
func describeSpecError(err error) error {
	var se *spec.SpecError
	if !errors.As(err, &se) {
		return err
	}
	var extra strings.Builder
	if se.Location != "" {
		fmt.Fprintf(&extra, "\nLocation: %s", se.Location)
	}
	if se.JSONPointer != "" {
		fmt.Fprintf(&extra, "\nPointer: %s", se.JSONPointer)
	}
	if extra.Len() == 0 {
		return err
	}
	return fmt.Errorf("%w%s", err, extra.String())
}

func sanitizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	var raw map[string]any
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	byKey := make(map[string]setting)
	for _, s := range cfg.settings() {
		byKey[normalizeKey(s.name)] = s
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := raw[key]
		s, ok := byKey[normalizeKey(key)]
		if !ok {
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
		switch {
		case s.str != nil:
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*s.str = str
		case s.flag != nil:
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*s.flag = val
		case s.list != nil:
			list, err := valueAsStringSlice(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*s.list = sanitizeList(list)
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
