package fieldmark

import (
	"errors"
	"fmt"
	"strings"
)

// Complexity score weights.
const (
	weightVar        = 1
	weightIf         = 3
	weightLoop       = 5
	weightNestedLoop = 10
	weightAggregate  = 4
	weightStyle      = 2
)

// ValidationIssue is one problem found during static inspection.
type ValidationIssue struct {
	Kind    ErrorKind
	Message string
	Part    string
	Offset  int
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s at %s:%d: %s", i.Kind, i.Part, i.Offset, i.Message)
}

// ValidationStatistics counts directive shapes across the template.
type ValidationStatistics struct {
	Placeholders int
	Conditions   int
	Loops        int
	NestedLoops  int
	Tables       int
	Aggregations int
	Stylings     int
	Complexity   int
}

// ValidationReport is the outcome of inspecting a template without
// executing it.
type ValidationReport struct {
	Valid      bool
	Errors     []ValidationIssue
	Warnings   []ValidationIssue
	Statistics ValidationStatistics
}

var aggregateFormatterNames = map[string]bool{
	"sum": true, "count": true, "avg": true, "max": true, "min": true,
}

var styleFormatterNames = map[string]bool{
	"bold": true, "italic": true, "underline": true, "size": true, "color": true,
}

// suspectRunes are characters that authoring tools smuggle into
// directives: smart quotes and zero-width marks break the lexer in ways
// invisible to the author.
var suspectRunes = map[rune]string{
	'‘': "left smart quote",
	'’': "right smart quote",
	'“': "left smart double quote",
	'”': "right smart double quote",
	'​': "zero-width space",
	'‌': "zero-width non-joiner",
	'‍': "zero-width joiner",
	'\uFEFF': "zero-width no-break space",
}

// ValidateTemplate statically inspects a template container. Archive
// failures surface as the returned error; everything found inside the
// template lands in the report.
func ValidateTemplate(templateBytes []byte) (*ValidationReport, error) {
	pkg, err := OpenPackage(templateBytes)
	if err != nil {
		return nil, err
	}

	report := &ValidationReport{Valid: true}
	registry := DefaultFormatters()
	cfg := GetGlobalConfig()

	for _, part := range pkg.TextParts() {
		raw, err := pkg.ReadPart(part)
		if err != nil {
			return nil, err
		}
		normalized := NormalizeMarkup(raw, cfg)
		report.Statistics.Tables += strings.Count(normalized, "<w:tbl>") + strings.Count(normalized, "<w:tbl ")

		v := &validator{report: report, registry: registry, part: part}
		v.checkSuspectCharacters(normalized)

		nodes, err := ParseTemplate(normalized)
		if err != nil {
			report.Errors = append(report.Errors, issueFromError(err, part))
			continue
		}
		v.walk(nodes, 0)
	}

	stats := &report.Statistics
	stats.Complexity = weightVar*stats.Placeholders +
		weightIf*stats.Conditions +
		weightLoop*stats.Loops +
		weightNestedLoop*stats.NestedLoops +
		weightAggregate*stats.Aggregations +
		weightStyle*stats.Stylings

	report.Valid = len(report.Errors) == 0
	return report, nil
}

type validator struct {
	report   *ValidationReport
	registry *FormatterRegistry
	part     string
}

func (v *validator) walk(nodes []Node, loopDepth int) {
	for _, node := range nodes {
		switch n := node.(type) {
		case *InterpNode:
			v.report.Statistics.Placeholders++
			if n.Expr == nil {
				v.addError(ErrBadExpression, "unparseable expression "+quoteExpr(n.ExprText), n.Start)
			}
			v.checkFormatters(n)
		case *IfNode:
			v.report.Statistics.Conditions++
			if n.Cond == nil {
				v.addError(ErrBadExpression, "unparseable condition "+quoteExpr(n.CondText), n.Start)
			}
			v.walk(n.Then, loopDepth)
			v.walk(n.Else, loopDepth)
		case *EachNode:
			v.report.Statistics.Loops++
			if loopDepth > 0 {
				v.report.Statistics.NestedLoops++
				v.addWarning(ErrNotIterable, "nested loop over "+quoteExpr(n.TargetText), n.Start)
			}
			if n.Target == nil {
				v.addError(ErrBadExpression, "unparseable loop target "+quoteExpr(n.TargetText), n.Start)
			}
			v.walk(n.Body, loopDepth+1)
		}
	}
}

func (v *validator) checkFormatters(n *InterpNode) {
	for _, call := range n.Formatters {
		if _, ok := v.registry.Get(call.Name); !ok {
			v.addWarning(ErrUnknownFormatter, "unknown formatter "+quoteExpr(call.Name), n.Start)
			continue
		}
		if aggregateFormatterNames[call.Name] {
			v.report.Statistics.Aggregations++
		}
		if styleFormatterNames[call.Name] {
			v.report.Statistics.Stylings++
		}
		if call.Name == "currency" && len(call.Args) > 0 {
			code := strings.ToUpper(call.Args[0])
			if len(code) != 3 || strings.Trim(code, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") != "" {
				v.addWarning(ErrBadExpression, "currency code "+quoteExpr(call.Args[0])+" is not a three-letter code", n.Start)
			}
		}
	}
}

// checkSuspectCharacters scans directive interiors for characters that
// survive copy-paste but break parsing or silently change meaning.
func (v *validator) checkSuspectCharacters(xml string) {
	segments, err := ScanSegments(xml)
	if err != nil {
		// Scan errors are reported by the parse step.
		return
	}
	for _, seg := range segments {
		if seg.Type != SegmentDirective {
			continue
		}
		for _, r := range seg.Text {
			if desc, ok := suspectRunes[r]; ok {
				v.addWarning(ErrBadExpression, desc+" inside directive", seg.Start)
			}
		}
	}
}

func (v *validator) addError(kind ErrorKind, message string, offset int) {
	v.report.Errors = append(v.report.Errors, ValidationIssue{
		Kind: kind, Message: message, Part: v.part, Offset: offset,
	})
}

func (v *validator) addWarning(kind ErrorKind, message string, offset int) {
	v.report.Warnings = append(v.report.Warnings, ValidationIssue{
		Kind: kind, Message: message, Part: v.part, Offset: offset,
	})
}

func issueFromError(err error, part string) ValidationIssue {
	issue := ValidationIssue{Kind: KindOf(err), Message: err.Error(), Part: part}
	var pe *ParseError
	if errors.As(err, &pe) {
		issue.Offset = pe.Offset
		issue.Message = pe.Message
	}
	return issue
}

func quoteExpr(s string) string {
	return "\"" + s + "\""
}
