package fieldmark

import (
	"regexp"
	"strings"
)

// Authoring tools fragment a single visible word into many adjacent runs
// and sprinkle revision and proofing attributes over them. The normalizer
// repairs the markup so a directive like ${name} is visible as one
// contiguous text node to the parser.

var (
	revisionAttrRe = regexp.MustCompile(`\s+(?:w:rsid[A-Za-z]*|w14:paraId|w14:textId)="[^"]*"`)
	proofErrRe     = regexp.MustCompile(`<w:proofErr\b[^>]*/>|<w:proofErr\b[^>]*></w:proofErr>`)

	// Seam between two mergeable runs: end-text, end-run, start-run
	// (attributes allowed), start-text (space preservation allowed).
	runSeamRe = regexp.MustCompile(`</w:t></w:r><w:r(?:\s[^>]*)?><w:t(?:\s[^>]*)?>`)

	emptyRunRe = regexp.MustCompile(`<w:r(?:\s[^>]*)?>(?:<w:rPr>(?:[^<]|<[^/])*</w:rPr>)?(?:<w:t(?:\s[^>]*)?/>|<w:t(?:\s[^>]*)?></w:t>)?</w:r>`)

	bareTextOpenRe = regexp.MustCompile(`<w:t>([^<]*[^<\S]|[^<\S][^<]*)</w:t>`)
)

// NormalizeMarkup strips authoring noise and merges fragmented runs so
// every directive occupies a single text node. The merge loop runs to a
// fixed point, capped at cfg.MaxMergeIterations passes.
func NormalizeMarkup(xml string, cfg *Config) string {
	if cfg == nil {
		cfg = GetGlobalConfig()
	}

	log := GetLogger()

	xml = revisionAttrRe.ReplaceAllString(xml, "")
	xml = proofErrRe.ReplaceAllString(xml, "")

	for i := 0; i < cfg.MaxMergeIterations; i++ {
		merged := mergeAdjacentRuns(xml)
		merged = removeEmptyRuns(merged)
		if merged == xml {
			if log.IsDebugMode() {
				log.Debug("run merge reached fixed point after %d passes", i+1)
			}
			break
		}
		xml = merged
	}

	return preserveSignificantSpace(xml)
}

// mergeAdjacentRuns joins run pairs separated by a plain text/run seam.
// Runs whose second half opens with run properties are left alone; their
// formatting boundary is intentional.
func mergeAdjacentRuns(xml string) string {
	return runSeamRe.ReplaceAllString(xml, "")
}

// removeEmptyRuns drops runs whose only content is run properties or an
// empty text node.
func removeEmptyRuns(xml string) string {
	return emptyRunRe.ReplaceAllString(xml, "")
}

// preserveSignificantSpace marks text nodes with leading or trailing
// whitespace so the merged content survives re-opening.
func preserveSignificantSpace(xml string) string {
	return bareTextOpenRe.ReplaceAllStringFunc(xml, func(m string) string {
		inner := strings.TrimSuffix(strings.TrimPrefix(m, "<w:t>"), "</w:t>")
		return `<w:t xml:space="preserve">` + inner + `</w:t>`
	})
}
