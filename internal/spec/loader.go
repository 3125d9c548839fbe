package spec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	openapi2 "github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	NetworkError    ErrorCode = "NetworkError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	ConversionError ErrorCode = "ConversionError"
)

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path or URL
	JSONPointer string // e.g. "#/paths/~1pets/get"
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

// utf8BOM is stripped from input before decoding; encoding/json rejects it.
var utf8BOM = []byte("\xef\xbb\xbf")

// StdinInput is the input name that reads the document from standard input.
const StdinInput = "-"

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	// StrictValidation additionally runs the kin-openapi validator over the
	// document. The structural checks the docs depend on always run.
	StrictValidation bool
	// Stdin is read when the input is "-".
	Stdin io.Reader
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
		Stdin:       os.Stdin,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithStrictValidation(on bool) Option { return func(s *Settings) { s.StrictValidation = on } }
func WithStdin(r io.Reader) Option { return func(s *Settings) { s.Stdin = r } }

// Load reads and structurally validates a Swagger 2.0 or OpenAPI 3.x
// document from a filesystem path, an http/https URL, or stdin ("-").
// file:// and other URL schemes are rejected.
func Load(ctx context.Context, input string, opts ...Option) (*RawDocument, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &SpecError{Code: InputError, Message: "spec: input is empty"}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	raw, location, err := readInput(ctx, input, settings)
	if err != nil {
		return nil, err
	}
	return parse(ctx, raw, location, settings)
}

// Parse decodes and validates an in-memory document. location is only used
// in error messages.
func Parse(ctx context.Context, data []byte, location string, opts ...Option) (*RawDocument, error) {
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	return parse(ctx, data, location, settings)
}

func readInput(ctx context.Context, input string, settings Settings) ([]byte, string, error) {
	if input == StdinInput {
		if settings.Stdin == nil {
			return nil, "stdin", &SpecError{Code: InputError, Message: "spec: no stdin available", Location: "stdin"}
		}
		raw, err := io.ReadAll(settings.Stdin)
		if err != nil {
			return nil, "stdin", &SpecError{Code: InputError, Message: fmt.Sprintf("read stdin: %v", err), Location: "stdin", Cause: err}
		}
		return raw, "stdin", nil
	}

	// Classify input as URL or file path.
	u, uerr := url.Parse(input)
	isURL := uerr == nil && u.Scheme != "" && (u.Host != "" || strings.EqualFold(u.Scheme, "file"))
	if isURL {
		scheme := strings.ToLower(u.Scheme)
		if scheme == "file" {
			return nil, input, &SpecError{Code: InputError, Message: "spec: file:// URLs are not supported, pass a path instead", Location: input}
		}
		if scheme != "http" && scheme != "https" {
			return nil, input, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
		raw, err := fetchWithRetry(ctx, input, settings)
		if err != nil {
			return nil, input, &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
		}
		return raw, input, nil
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, input, &SpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, abs, &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	return raw, abs, nil
}

func parse(ctx context.Context, raw []byte, location string, settings Settings) (*RawDocument, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
	}
	version, err := doc.majorVersion()
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
	}
	if err := validateRaw(doc); err != nil {
		var se *SpecError
		if errors.As(err, &se) {
			se.Location = location
		}
		return nil, err
	}
	if settings.StrictValidation {
		if err := validateStrict(ctx, raw, version, location); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// validateRaw enforces the fields the documentation model cannot do without.
func validateRaw(doc *RawDocument) error {
	missing := func(pointer, what string) error {
		return &SpecError{Code: ValidationError, Message: fmt.Sprintf("spec: %s is required", what), JSONPointer: pointer}
	}
	if strings.TrimSpace(doc.Info.Title) == "" {
		return missing("#/info/title", "info.title")
	}
	if strings.TrimSpace(doc.Info.Version) == "" {
		return missing("#/info/version", "info.version")
	}
	for i, tag := range doc.Tags {
		if strings.TrimSpace(tag.Name) == "" {
			return missing(fmt.Sprintf("#/tags/%d/name", i), "tag name")
		}
	}
	if doc.Paths == nil {
		return missing("#/paths", "paths")
	}
	for _, entry := range doc.Paths {
		base := "#/paths/" + pointerEscape(entry.Key)
		if err := validateParams(entry.Value.Parameters, base+"/parameters"); err != nil {
			return err
		}
		for _, m := range Methods {
			op := entry.Value.Operation(m)
			if op == nil {
				continue
			}
			opPtr := base + "/" + strings.ToLower(string(m))
			if op.Responses == nil {
				return missing(opPtr+"/responses", fmt.Sprintf("responses of %s %s", m, entry.Key))
			}
			if err := validateParams(op.Parameters, opPtr+"/parameters"); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateParams(params []RawParameter, pointer string) error {
	for i, p := range params {
		if p.Ref != "" {
			continue
		}
		if strings.TrimSpace(p.Name) == "" {
			return &SpecError{Code: ValidationError, Message: "spec: parameter name is required", JSONPointer: fmt.Sprintf("%s/%d/name", pointer, i)}
		}
		if strings.TrimSpace(p.In) == "" {
			return &SpecError{Code: ValidationError, Message: fmt.Sprintf("spec: parameter %q is missing \"in\"", p.Name), JSONPointer: fmt.Sprintf("%s/%d/in", pointer, i)}
		}
	}
	return nil
}

// validateStrict runs kin-openapi over the raw bytes. Swagger 2.0 is
// converted to v3 first, the way kin-openapi validates v2 documents.
func validateStrict(ctx context.Context, raw []byte, version int, location string) error {
	var doc *openapi3.T
	switch version {
	case 3:
		loader := openapi3.NewLoader()
		d, err := loader.LoadFromData(raw)
		if err != nil {
			return mapValidateOrParseErr(err, location)
		}
		doc = d
	case 2:
		if relaxed, changed, err := relaxV2Body(raw); err == nil && changed {
			slog.Debug("rewrote swagger 2.0 body parameters for conversion", "location", location)
			raw = relaxed
		}
		var v2 openapi2.T
		var err error
		if looksLikeJSON(raw) {
			err = json.Unmarshal(raw, &v2)
		} else {
			err = yaml.Unmarshal(raw, &v2)
		}
		if err != nil {
			return &SpecError{Code: ParseError, Message: fmt.Sprintf("parse v2: %v", err), Location: location, Cause: err}
		}
		d, err := openapi2conv.ToV3(&v2)
		if err != nil {
			return &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Location: location, Cause: err}
		}
		doc = d
	default:
		return &SpecError{Code: ParseError, Message: "spec: unknown or unsupported OpenAPI/Swagger version", Location: location}
	}
	if err := doc.Validate(ctx); err != nil {
		if !canProceedDespiteValidation(err) {
			return mapValidateOrParseErr(err, location)
		}
		slog.Warn("spec validation found unresolved refs, continuing", "location", location, "error", err)
	}
	return nil
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	var lastErr error
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err == nil && resp.StatusCode < 300 {
			defer resp.Body.Close()
			return io.ReadAll(resp.Body)
		}
		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			}
			lastErr = fmt.Errorf("transient http error %d", resp.StatusCode)
		}
		slog.Debug("spec fetch failed, retrying", "url", rawURL, "attempt", i+1, "error", lastErr)
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

func mapValidateOrParseErr(err error, location string) error {
	pointer := extractJSONPointer(err)
	code := ValidationError
	// Heuristics: some loader errors are parse errors.
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "parse") || strings.Contains(lower, "invalid character") {
		code = ParseError
	}
	return &SpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: pointer, Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'\"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	// Unwrap MultiError and take the first for brevity.
	if me, ok := err.(openapi3.MultiError); ok {
		if len(me) > 0 {
			return extractJSONPointer(me[0])
		}
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}

// canProceedDespiteValidation returns true for validation errors where the
// docs can still be built, such as unresolved $ref entries.
func canProceedDespiteValidation(err error) bool {
	if err == nil {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unresolved ref")
}
