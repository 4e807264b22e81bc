package fieldmark

import (
	"regexp"
	"sort"
	"strings"
)

// Rows that held only loop markers come out of expansion blank; authors
// rely on them disappearing. The cleaner removes any table row whose
// aggregate text is whitespace, after expansion, without touching rows
// that carry user text.

var textLeafRe = regexp.MustCompile(`(?s)<w:t(?:\s[^>]*)?>(.*?)</w:t>`)

const (
	rowOpenTag  = "<w:tr"
	rowCloseTag = "</w:tr>"
)

type byteSpan struct{ start, end int }

// CleanEmptyRows removes table rows whose text content is empty or
// whitespace only. Nested tables are handled innermost first so an
// outer row emptied by inner removals is itself removed.
func CleanEmptyRows(xml string) string {
	leaves := textLeafRe.FindAllStringSubmatchIndex(xml, -1)

	var removed []byteSpan
	var stack []int
	i := 0
	for i < len(xml) {
		if strings.HasPrefix(xml[i:], rowCloseTag) {
			if len(stack) > 0 {
				start := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				end := i + len(rowCloseTag)
				if rowTextEmpty(xml, leaves, start, end, removed) {
					removed = dropContained(removed, start, end)
					removed = append(removed, byteSpan{start, end})
				}
			}
			i += len(rowCloseTag)
			continue
		}
		if isRowOpen(xml, i) {
			stack = append(stack, i)
			i += len(rowOpenTag)
			continue
		}
		i++
	}

	if len(removed) == 0 {
		return xml
	}
	sort.Slice(removed, func(a, b int) bool { return removed[a].start < removed[b].start })
	var b strings.Builder
	prev := 0
	for _, r := range removed {
		b.WriteString(xml[prev:r.start])
		prev = r.end
	}
	b.WriteString(xml[prev:])
	return b.String()
}

// isRowOpen distinguishes a row opener from other elements sharing the
// prefix, like w:trPr.
func isRowOpen(xml string, i int) bool {
	if !strings.HasPrefix(xml[i:], rowOpenTag) {
		return false
	}
	next := i + len(rowOpenTag)
	return next < len(xml) && (xml[next] == '>' || xml[next] == ' ' || xml[next] == '/')
}

// rowTextEmpty concatenates the row's text leaves, skipping any leaf
// inside an already-removed nested row, and reports whether the result
// is blank.
func rowTextEmpty(xml string, leaves [][]int, start, end int, removed []byteSpan) bool {
	for _, leaf := range leaves {
		if leaf[0] < start || leaf[1] > end {
			continue
		}
		if insideAny(leaf[0], removed) {
			continue
		}
		if strings.TrimSpace(xml[leaf[2]:leaf[3]]) != "" {
			return false
		}
	}
	return true
}

func insideAny(pos int, spans []byteSpan) bool {
	for _, s := range spans {
		if pos >= s.start && pos < s.end {
			return true
		}
	}
	return false
}

func dropContained(spans []byteSpan, start, end int) []byteSpan {
	kept := spans[:0]
	for _, s := range spans {
		if s.start >= start && s.end <= end {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}
