package fieldmark

import "strings"

// Node is one element of the directive tree. Start and End are byte
// offsets into the normalized markup; for block nodes they cover opener
// through closer, which is what the row cleaner needs.
type Node interface {
	Range() (start, end int)
}

// LiteralNode is an inert markup span emitted verbatim.
type LiteralNode struct {
	Span  string
	Start int
	End   int
}

func (n *LiteralNode) Range() (int, int) { return n.Start, n.End }

// FormatterCall is one step of an interpolation's pipe chain.
type FormatterCall struct {
	Name string
	Args []string
}

// InterpNode is a value interpolation with an optional formatter chain.
type InterpNode struct {
	ExprText   string
	Expr       ExprNode
	Formatters []FormatterCall
	Start      int
	End        int
}

func (n *InterpNode) Range() (int, int) { return n.Start, n.End }

// IfNode is a conditional block with an optional else branch.
type IfNode struct {
	CondText string
	Cond     ExprNode
	Then     []Node
	Else     []Node
	Start    int
	End      int
}

func (n *IfNode) Range() (int, int) { return n.Start, n.End }

// EachNode is a loop block over an iterable target.
type EachNode struct {
	TargetText string
	Target     ExprNode
	Body       []Node
	Start      int
	End        int
}

func (n *EachNode) Range() (int, int) { return n.Start, n.End }

// ParseTemplate scans normalized markup and builds the directive tree.
func ParseTemplate(xml string) ([]Node, error) {
	segments, err := ScanSegments(xml)
	if err != nil {
		return nil, err
	}
	p := &treeParser{segments: segments}
	nodes, err := p.parseBodyUntil(nil, 0)
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

type treeParser struct {
	segments []Segment
	pos      int
}

// directive keyword shapes
const (
	kwIf    = "#if"
	kwEach  = "#each"
	kwElse  = "#else"
	kwEndIf = "/if"
	kwEndEa = "/each"
)

// keywordOf extracts the leading keyword of directive content, or "" for
// an interpolation.
func keywordOf(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || (trimmed[0] != '#' && trimmed[0] != '/') {
		return ""
	}
	if idx := strings.IndexFunc(trimmed, func(r rune) bool {
		return r == ' ' || r == '\t'
	}); idx != -1 {
		return trimmed[:idx]
	}
	return trimmed
}

// parseBodyUntil consumes segments until it meets one of the stop
// keywords, which it leaves unconsumed for the caller. openedAt is the
// opener offset of the enclosing block, used for missing-closer reports.
func (p *treeParser) parseBodyUntil(stop []string, openedAt int) ([]Node, error) {
	var nodes []Node
	for p.pos < len(p.segments) {
		seg := p.segments[p.pos]
		if seg.Type == SegmentLiteral {
			nodes = append(nodes, &LiteralNode{Span: seg.Text, Start: seg.Start, End: seg.End})
			p.pos++
			continue
		}

		kw := keywordOf(seg.Text)
		for _, s := range stop {
			if kw == s {
				return nodes, nil
			}
		}

		switch kw {
		case "":
			node, err := parseInterp(seg)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
			p.pos++
		case kwIf:
			node, err := p.parseIf(seg)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		case kwEach:
			node, err := p.parseEach(seg)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		case kwElse:
			return nil, NewParseError(ErrElseOutsideIf,
				"#else outside an #if block", seg.Start)
		case kwEndIf, kwEndEa:
			// A closer here belongs to no open block of its kind.
			if len(stop) > 0 {
				return nil, NewMissingCloserError(blockNameForCloser(stop[len(stop)-1]), openedAt)
			}
			return nil, NewParseError(ErrUnknownKeyword,
				"closer "+kw+" without a matching opener", seg.Start)
		default:
			return nil, NewParseError(ErrUnknownKeyword,
				"unknown directive keyword "+kw, seg.Start)
		}
	}

	if len(stop) > 0 {
		return nil, NewMissingCloserError(blockNameForCloser(stop[len(stop)-1]), openedAt)
	}
	return nodes, nil
}

func blockNameForCloser(closer string) string {
	switch closer {
	case kwEndIf:
		return kwIf
	case kwEndEa:
		return kwEach
	}
	return closer
}

func parseInterp(seg Segment) (*InterpNode, error) {
	parts := splitPipeline(seg.Text)
	exprText := parts[0]
	expr, err := ParseExpression(exprText, seg.Start)
	if err != nil {
		if IsParseError(err) {
			return nil, err
		}
		// Scoped failure: the executor emits a placeholder for this node.
		expr = nil
	}
	var fmts []FormatterCall
	for _, inv := range parts[1:] {
		args := splitFormatterArgs(inv)
		fmts = append(fmts, FormatterCall{Name: args[0], Args: args[1:]})
	}
	return &InterpNode{
		ExprText:   exprText,
		Expr:       expr,
		Formatters: fmts,
		Start:      seg.Start,
		End:        seg.End,
	}, nil
}

func (p *treeParser) parseIf(opener Segment) (*IfNode, error) {
	condText := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(opener.Text), kwIf))
	cond, err := ParseExpression(condText, opener.Start)
	if err != nil {
		if IsParseError(err) {
			return nil, err
		}
		cond = nil
	}
	p.pos++

	thenNodes, err := p.parseBodyUntil([]string{kwElse, kwEndIf}, opener.Start)
	if err != nil {
		return nil, err
	}

	var elseNodes []Node
	if p.pos < len(p.segments) && keywordOf(p.segments[p.pos].Text) == kwElse {
		p.pos++
		elseNodes, err = p.parseBodyUntil([]string{kwEndIf}, opener.Start)
		if err != nil {
			return nil, err
		}
	}

	closer := p.segments[p.pos]
	p.pos++
	return &IfNode{
		CondText: condText,
		Cond:     cond,
		Then:     thenNodes,
		Else:     elseNodes,
		Start:    opener.Start,
		End:      closer.End,
	}, nil
}

func (p *treeParser) parseEach(opener Segment) (*EachNode, error) {
	targetText := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(opener.Text), kwEach))
	if targetText == "" {
		return nil, NewParseError(ErrEmptyEachTarget,
			"#each requires an iterable target", opener.Start)
	}
	target, err := ParseExpression(targetText, opener.Start)
	if err != nil {
		if IsParseError(err) {
			return nil, err
		}
		target = nil
	}
	p.pos++

	body, err := p.parseBodyUntil([]string{kwEndEa}, opener.Start)
	if err != nil {
		return nil, err
	}

	closer := p.segments[p.pos]
	p.pos++
	return &EachNode{
		TargetText: targetText,
		Target:     target,
		Body:       body,
		Start:      opener.Start,
		End:        closer.End,
	}, nil
}
