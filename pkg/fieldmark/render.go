package fieldmark

import (
	"context"
	"strconv"
	"strings"
)

// Executor walks a directive tree against a scope chain and emits the
// output markup. A failing expression poisons its own node only: the
// executor writes a visible placeholder and keeps going, so authors see
// the rest of their document render.
type Executor struct {
	registry *FormatterRegistry
	cfg      *Config
	log      *Logger
}

// NewExecutor builds an executor. A nil registry uses the built-in
// formatter set; a nil config uses the global configuration.
func NewExecutor(registry *FormatterRegistry, cfg *Config) *Executor {
	if registry == nil {
		registry = DefaultFormatters()
	}
	if cfg == nil {
		cfg = GetGlobalConfig()
	}
	return &Executor{registry: registry, cfg: cfg, log: GetLogger()}
}

// Execute renders the tree in document order. Cancellation is checked
// between top-level nodes only; directive bodies run to completion.
func (e *Executor) Execute(ctx context.Context, nodes []Node, sc *Scope) (string, error) {
	var buf strings.Builder
	for _, node := range nodes {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			default:
			}
		}
		e.executeNode(&buf, node, sc)
	}
	return buf.String(), nil
}

func (e *Executor) executeNode(buf *strings.Builder, node Node, sc *Scope) {
	switch n := node.(type) {
	case *LiteralNode:
		buf.WriteString(n.Span)
	case *InterpNode:
		e.executeInterp(buf, n, sc)
	case *IfNode:
		e.executeIf(buf, n, sc)
	case *EachNode:
		e.executeEach(buf, n, sc)
	}
}

func (e *Executor) executeBody(buf *strings.Builder, nodes []Node, sc *Scope) {
	for _, node := range nodes {
		e.executeNode(buf, node, sc)
	}
}

func (e *Executor) executeInterp(buf *strings.Builder, n *InterpNode, sc *Scope) {
	if n.Expr == nil {
		e.emitNodeError(buf, n.ExprText, nil)
		return
	}
	v, err := n.Expr.Eval(sc)
	if err != nil {
		e.emitNodeError(buf, n.ExprText, err)
		return
	}
	v, err = ApplyFormatters(e.registry, v, n.Formatters)
	if err != nil {
		e.emitNodeError(buf, n.ExprText, err)
		return
	}
	if e.log.IsDebugMode() {
		e.log.DebugExpression(n.ExprText, Unwrap(v))
	}
	if sv, ok := v.(StyledValue); ok && e.cfg.StylingEmit == StylingRunProps {
		e.emitStyledRun(buf, sv)
		return
	}
	buf.WriteString(EscapeXML(Stringify(v)))
}

func (e *Executor) executeIf(buf *strings.Builder, n *IfNode, sc *Scope) {
	if n.Cond == nil {
		e.emitNodeError(buf, n.CondText, nil)
		return
	}
	v, err := n.Cond.Eval(sc)
	if err != nil {
		e.emitNodeError(buf, n.CondText, err)
		return
	}
	if IsTruthy(v) {
		e.executeBody(buf, n.Then, sc)
	} else {
		e.executeBody(buf, n.Else, sc)
	}
}

func (e *Executor) executeEach(buf *strings.Builder, n *EachNode, sc *Scope) {
	if n.Target == nil {
		e.emitNodeError(buf, n.TargetText, nil)
		return
	}
	v, err := n.Target.Eval(sc)
	if err != nil {
		e.emitNodeError(buf, n.TargetText, err)
		return
	}
	list, ok := Unwrap(v).([]interface{})
	if !ok {
		e.log.WithField("target", n.TargetText).
			Warn("each target is not iterable, expanding to nothing")
		return
	}
	// Iterations are concatenated with no joiner; the body carries its
	// own separators.
	for i, element := range list {
		frame := sc.PushLoopFrame(element, i, len(list))
		e.executeBody(buf, n.Body, frame)
	}
}

// emitNodeError writes the diagnostic placeholder for a node-scoped
// failure and logs the cause.
func (e *Executor) emitNodeError(buf *strings.Builder, exprText string, err error) {
	log := e.log.WithField("expr", exprText)
	if err != nil {
		log = log.WithField("error", err.Error())
	}
	log.Warn("expression failed, emitting placeholder")
	buf.WriteString(EscapeXML("[ERROR: " + exprText + "]"))
}

// emitStyledRun closes the current run, writes a styled run carrying the
// value, and reopens a plain run so the surrounding text keeps flowing.
func (e *Executor) emitStyledRun(buf *strings.Builder, sv StyledValue) {
	buf.WriteString(`</w:t></w:r><w:r><w:rPr>`)
	if sv.Style.Bold {
		buf.WriteString(`<w:b/>`)
	}
	if sv.Style.Italic {
		buf.WriteString(`<w:i/>`)
	}
	if sv.Style.Underline {
		buf.WriteString(`<w:u w:val="single"/>`)
	}
	if sv.Style.Size > 0 {
		buf.WriteString(`<w:sz w:val="` + strconv.Itoa(sv.Style.Size*2) + `"/>`)
	}
	if sv.Style.Color != "" {
		buf.WriteString(`<w:color w:val="` + sv.Style.Color + `"/>`)
	}
	buf.WriteString(`</w:rPr><w:t xml:space="preserve">`)
	buf.WriteString(EscapeXML(Stringify(sv.Value)))
	buf.WriteString(`</w:t></w:r><w:r><w:t xml:space="preserve">`)
}
