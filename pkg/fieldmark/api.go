// Package fieldmark is a templating engine for Word documents. It takes
// a DOCX template whose body contains ${...} directives and a data
// object, and produces a new DOCX with values interpolated, loops
// expanded, conditionals evaluated and formatter pipelines applied.
//
// Basic usage:
//
//	data := fieldmark.TemplateData{
//	    "customer": "Acme",
//	    "items": []interface{}{
//	        map[string]interface{}{"product": "Widget", "price": 19.99},
//	    },
//	}
//
//	output, err := fieldmark.Render(templateBytes, data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Template syntax:
//
// Interpolations: ${name}, ${customer.address}, ${items[0].price}
//
// Conditionals: ${#if total >= 100}...${#else}...${/if}
//
// Loops: ${#each items}...${/each} with this, index, first, last,
// count and parent bound inside the body.
//
// Formatters: ${total|currency:USD}, ${name|upper|truncate:20}
package fieldmark

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TemplateData is the caller's data object bound at the root scope.
type TemplateData map[string]interface{}

// Serialized data payloads above this bound are rejected.
const maxDataPayload = 10 << 20

// Engine is the top-level API surface.
type Engine struct {
	config   *Config
	registry *FormatterRegistry
	sink     RenderSink
}

// New creates an engine with the global configuration and the built-in
// formatter set.
func New() *Engine {
	return &Engine{
		config:   GetGlobalConfig(),
		registry: DefaultFormatters(),
	}
}

// NewWithConfig creates an engine with a custom configuration.
func NewWithConfig(config *Config) *Engine {
	return &Engine{
		config:   NewConfigWithDefaults(config),
		registry: DefaultFormatters(),
	}
}

// Option configures an engine.
type Option func(*Engine)

// WithConfig sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = NewConfigWithDefaults(config)
	}
}

// WithFormatter registers a custom formatter.
func WithFormatter(name string, f Formatter) Option {
	return func(e *Engine) {
		e.registry.Register(name, f)
	}
}

// WithSink routes per-render records to a log sink.
func WithSink(sink RenderSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// NewWithOptions creates an engine with the given options applied.
func NewWithOptions(opts ...Option) *Engine {
	engine := New()
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// PreparedTemplate is a parsed template that can render many datasets
// without re-parsing. Safe for concurrent Render calls.
type PreparedTemplate struct {
	pkg      *Package
	trees    map[string][]Node
	config   *Config
	registry *FormatterRegistry
}

// Prepare opens and parses a template once.
func (e *Engine) Prepare(templateBytes []byte) (*PreparedTemplate, error) {
	pkg, err := OpenPackage(templateBytes)
	if err != nil {
		return nil, err
	}

	trees := make(map[string][]Node)
	for _, part := range pkg.TextParts() {
		raw, err := pkg.ReadPart(part)
		if err != nil {
			return nil, err
		}
		normalized := NormalizeMarkup(raw, e.config)
		nodes, err := ParseTemplate(normalized)
		if err != nil {
			return nil, err
		}
		trees[part] = nodes
	}

	return &PreparedTemplate{
		pkg:      pkg,
		trees:    trees,
		config:   e.config,
		registry: e.registry,
	}, nil
}

// Render executes the prepared template against one dataset.
func (pt *PreparedTemplate) Render(ctx context.Context, data TemplateData) ([]byte, error) {
	if err := checkData(data); err != nil {
		return nil, err
	}

	scope := NewScope(data)
	scope.bindings["_meta"] = map[string]interface{}{
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
	}

	executor := NewExecutor(pt.registry, pt.config)
	out := pt.pkg.fork()
	for part, nodes := range pt.trees {
		rendered, err := executor.Execute(ctx, nodes, scope)
		if err != nil {
			return nil, err
		}
		out.WritePart(part, CleanEmptyRows(rendered))
	}
	return out.Pack()
}

// checkData rejects payloads the engine cannot process: nil objects,
// values json cannot serialize (cycles included), and oversize inputs.
func checkData(data TemplateData) error {
	if data == nil {
		return NewInputError("data object is required")
	}
	serialized, err := json.Marshal(data)
	if err != nil {
		return NewInputError("data is not serializable: " + err.Error())
	}
	if len(serialized) > maxDataPayload {
		return NewInputError("serialized data exceeds 10 MiB")
	}
	return nil
}

// Render parses the template and renders one dataset, reporting the
// outcome to the engine's sink.
func (e *Engine) Render(templateBytes []byte, data TemplateData) ([]byte, error) {
	return e.RenderContext(context.Background(), templateBytes, data)
}

// RenderContext is Render with cancellation between directive nodes.
func (e *Engine) RenderContext(ctx context.Context, templateBytes []byte, data TemplateData) ([]byte, error) {
	started := time.Now()
	output, err := e.renderOnce(ctx, templateBytes, data)
	e.record(started, len(templateBytes), len(output), err)
	return output, err
}

func (e *Engine) renderOnce(ctx context.Context, templateBytes []byte, data TemplateData) ([]byte, error) {
	pt, err := e.Prepare(templateBytes)
	if err != nil {
		return nil, err
	}
	return pt.Render(ctx, data)
}

// BatchOptions controls bulk generation pacing.
type BatchOptions struct {
	// Size is how many items render between pacing delays. Zero means
	// no batching.
	Size int
	// Delay is the pause inserted after each full batch.
	Delay time.Duration
}

// BatchResult is the outcome for one dataset in a batch. Results are
// indexed to their inputs.
type BatchResult struct {
	Index   int
	Success bool
	Output  []byte
	Err     error
}

// RenderBatch parses the template once and renders every dataset in
// order. Each slot succeeds or fails independently; the context is
// checked between items.
func (e *Engine) RenderBatch(ctx context.Context, templateBytes []byte, dataList []TemplateData, opts BatchOptions) ([]BatchResult, error) {
	pt, err := e.Prepare(templateBytes)
	if err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(dataList))
	for i, data := range dataList {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(dataList); j++ {
				results[j] = BatchResult{Index: j, Err: err}
			}
			return results, err
		}

		started := time.Now()
		output, err := pt.Render(ctx, data)
		e.record(started, len(templateBytes), len(output), err)
		results[i] = BatchResult{Index: i, Success: err == nil, Output: output, Err: err}

		if opts.Size > 0 && opts.Delay > 0 && (i+1)%opts.Size == 0 && i+1 < len(dataList) {
			select {
			case <-ctx.Done():
			case <-time.After(opts.Delay):
			}
		}
	}
	return results, nil
}

// Validate statically inspects a template.
func (e *Engine) Validate(templateBytes []byte) (*ValidationReport, error) {
	return ValidateTemplate(templateBytes)
}

func (e *Engine) record(started time.Time, inputSize, outputSize int, err error) {
	if e.sink == nil {
		return
	}
	rec := RenderRecord{
		ID:         uuid.New(),
		StartedAt:  started,
		Duration:   time.Since(started),
		InputSize:  inputSize,
		OutputSize: outputSize,
		Success:    err == nil,
	}
	if err != nil {
		rec.ErrorKind = KindOf(err)
	}
	e.sink.Record(rec)
}

// DefaultEngine is the package-level engine behind the convenience
// functions.
var DefaultEngine = New()

// Render renders one dataset using the default engine.
func Render(templateBytes []byte, data TemplateData) ([]byte, error) {
	return DefaultEngine.Render(templateBytes, data)
}

// RenderBatch renders many datasets using the default engine.
func RenderBatch(ctx context.Context, templateBytes []byte, dataList []TemplateData, opts BatchOptions) ([]BatchResult, error) {
	return DefaultEngine.RenderBatch(ctx, templateBytes, dataList, opts)
}

// Validate inspects a template using the default engine.
func Validate(templateBytes []byte) (*ValidationReport, error) {
	return DefaultEngine.Validate(templateBytes)
}

// Prepare parses a template once using the default engine.
func Prepare(templateBytes []byte) (*PreparedTemplate, error) {
	return DefaultEngine.Prepare(templateBytes)
}
