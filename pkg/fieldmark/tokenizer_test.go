package fieldmark

import (
	"reflect"
	"testing"
)

func TestScanSegments(t *testing.T) {
	segs, err := ScanSegments("Hello ${name}, welcome")
	if err != nil {
		t.Fatalf("ScanSegments error: %v", err)
	}
	want := []Segment{
		{Type: SegmentLiteral, Text: "Hello ", Start: 0, End: 6},
		{Type: SegmentDirective, Text: "name", Start: 6, End: 13},
		{Type: SegmentLiteral, Text: ", welcome", Start: 13, End: 22},
	}
	if !reflect.DeepEqual(segs, want) {
		t.Errorf("segments = %+v, want %+v", segs, want)
	}
}

func TestScanSegmentsEscape(t *testing.T) {
	segs, err := ScanSegments(`literal \${not a directive}`)
	if err != nil {
		t.Fatalf("ScanSegments error: %v", err)
	}
	if len(segs) != 1 || segs[0].Type != SegmentLiteral {
		t.Fatalf("segments = %+v, want a single literal", segs)
	}
	if segs[0].Text != "literal ${not a directive}" {
		t.Errorf("literal = %q, want backslash consumed", segs[0].Text)
	}
}

func TestScanSegmentsQuotedBrace(t *testing.T) {
	segs, err := ScanSegments(`${name | default:'{none}'}`)
	if err != nil {
		t.Fatalf("ScanSegments error: %v", err)
	}
	if len(segs) != 1 || segs[0].Type != SegmentDirective {
		t.Fatalf("segments = %+v, want a single directive", segs)
	}
	if segs[0].Text != "name | default:'{none}'" {
		t.Errorf("directive = %q", segs[0].Text)
	}
}

func TestScanSegmentsUnterminated(t *testing.T) {
	_, err := ScanSegments("text ${name")
	if err == nil {
		t.Fatal("ScanSegments succeeded, want error")
	}
	if KindOf(err) != ErrUnterminatedDirective {
		t.Errorf("KindOf = %q, want %q", KindOf(err), ErrUnterminatedDirective)
	}
}

func TestScanSegmentsSpansBlock(t *testing.T) {
	_, err := ScanSegments("${na</w:t></w:r>me}")
	if err == nil {
		t.Fatal("ScanSegments succeeded, want error")
	}
	if KindOf(err) != ErrDirectiveSpansBlock {
		t.Errorf("KindOf = %q, want %q", KindOf(err), ErrDirectiveSpansBlock)
	}
}

func TestSplitPipeline(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"name", []string{"name"}},
		{"name | upper", []string{"name", "upper"}},
		{"price | currency:EUR | upper", []string{"price", "currency:EUR", "upper"}},
		{"a || b | upper", []string{"a || b", "upper"}},
		{"tags | join:' | '", []string{"tags", "join:' | '"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := splitPipeline(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitPipeline(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitFormatterArgs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"upper", []string{"upper"}},
		{"currency:EUR", []string{"currency", "EUR"}},
		{"truncate:20:'...'", []string{"truncate", "20", "..."}},
		{"join:', '", []string{"join", ", "}},
		{`default:"n/a"`, []string{"default", "n/a"}},
		{"date:'YYYY-MM-DD HH:mm:ss'", []string{"date", "YYYY-MM-DD HH:mm:ss"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := splitFormatterArgs(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitFormatterArgs(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
