package fieldmark

import (
	"math"
	"testing"
	"time"
)

func applyOne(t *testing.T, name string, v interface{}, args ...string) interface{} {
	t.Helper()
	f, ok := DefaultFormatters().Get(name)
	if !ok {
		t.Fatalf("formatter %q not registered", name)
	}
	out, err := f(v, args)
	if err != nil {
		t.Fatalf("%s(%v, %v) error: %v", name, v, args, err)
	}
	return out
}

func TestTextFormatters(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		args []string
		want interface{}
	}{
		{"upper", "hello", nil, "HELLO"},
		{"lower", "HELLO", nil, "hello"},
		{"capitalize", "alice smith", nil, "Alice smith"},
		{"trim", "  padded  ", nil, "padded"},
		{"truncate", "abcdefgh", []string{"5"}, "abcde..."},
		{"truncate", "short", []string{"10"}, "short"},
		{"default", nil, []string{"n/a"}, "n/a"},
		{"default", "", []string{"n/a"}, "n/a"},
		{"default", "value", []string{"n/a"}, "value"},
		{"escape", `<b>&</b>`, nil, "&lt;b&gt;&amp;&lt;/b&gt;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyOne(t, tt.name, tt.in, tt.args...)
			if got != tt.want {
				t.Errorf("%s(%v) = %v, want %v", tt.name, tt.in, got, tt.want)
			}
		})
	}
}

func TestDefaultFormatterEmptyList(t *testing.T) {
	got := applyOne(t, "default", []interface{}{}, "none")
	if got != "none" {
		t.Errorf("default on empty list = %v, want fallback", got)
	}
}

func TestNumberFormatters(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		args []string
		want string
	}{
		{"currency", 1234.5, nil, "$1,234.50"},
		{"currency", 1234.5, []string{"EUR"}, "€1,234.50"},
		{"currency", 99.0, []string{"SEK"}, "SEK 99.00"},
		{"number", 1234567.891, []string{"2"}, "1,234,567.89"},
		{"number", 1000.0, nil, "1,000.00"},
		{"percent", 0.0725, nil, "7.25%"},
		{"round", 2.5, []string{"0"}, "3"},
		{"round", -2.5, []string{"0"}, "-3"},
		{"round", 3.14159, []string{"2"}, "3.14"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.want, func(t *testing.T) {
			got := applyOne(t, tt.name, tt.in, tt.args...)
			if Stringify(got) != tt.want {
				t.Errorf("%s(%v, %v) = %v, want %v", tt.name, tt.in, tt.args, got, tt.want)
			}
		})
	}
}

func TestCurrencyRejectsBadCode(t *testing.T) {
	f, _ := DefaultFormatters().Get("currency")
	if _, err := f(10.0, []string{"dollars"}); err == nil {
		t.Error("currency accepted a non ISO-4217 code")
	}
}

func TestDateFormatters(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		args []string
		want string
	}{
		{"date", "2024-03-15T10:30:00Z", nil, "2024-03-15"},
		{"date", "2024-03-15", []string{"DD/MM/YYYY"}, "15/03/2024"},
		{"dateTime", "2024-03-15T10:30:05Z", nil, "2024-03-15 10:30:05"},
		{"date", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), nil, "2023-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := applyOne(t, tt.name, tt.in, tt.args...)
			if got != tt.want {
				t.Errorf("%s(%v, %v) = %v, want %v", tt.name, tt.in, tt.args, got, tt.want)
			}
		})
	}
}

func TestDateFormatterRejectsUnparseable(t *testing.T) {
	f, _ := DefaultFormatters().Get("date")
	if _, err := f("not a date", nil); err == nil {
		t.Error("date accepted an unparseable value")
	}
}

func TestListFormatters(t *testing.T) {
	items := []interface{}{
		map[string]interface{}{"name": "a", "price": 10.0},
		map[string]interface{}{"name": "b", "price": 20.0},
		map[string]interface{}{"name": "c", "price": 15.0},
	}
	nums := []interface{}{3.0, 1.0, 2.0}

	if got := applyOne(t, "join", []interface{}{"x", "y"}); got != "x, y" {
		t.Errorf("join = %v", got)
	}
	if got := applyOne(t, "join", []interface{}{"x", "y"}, " - "); got != "x - y" {
		t.Errorf("join with sep = %v", got)
	}
	if got := applyOne(t, "length", nums); got != 3.0 {
		t.Errorf("length = %v", got)
	}
	if got := applyOne(t, "length", "héllo"); got != 5.0 {
		t.Errorf("length of string = %v, want rune count", got)
	}
	if got := applyOne(t, "count", items); got != 3.0 {
		t.Errorf("count = %v", got)
	}
	if got := applyOne(t, "sum", nums); got != 6.0 {
		t.Errorf("sum = %v", got)
	}
	if got := applyOne(t, "sum", items, "price"); got != 45.0 {
		t.Errorf("sum with field = %v", got)
	}
	if got := applyOne(t, "avg", items, "price"); got != 15.0 {
		t.Errorf("avg with field = %v", got)
	}
	if got := applyOne(t, "max", nums); got != 3.0 {
		t.Errorf("max = %v", got)
	}
	if got := applyOne(t, "min", nums); got != 1.0 {
		t.Errorf("min = %v", got)
	}
}

func TestAggregateEmptyList(t *testing.T) {
	got := applyOne(t, "avg", []interface{}{})
	if !math.IsNaN(got.(float64)) {
		t.Errorf("avg of empty list = %v, want NaN", got)
	}
}

func TestAggregateNotIterable(t *testing.T) {
	f, _ := DefaultFormatters().Get("sum")
	_, err := f("not a list", nil)
	if err == nil {
		t.Fatal("sum accepted a scalar")
	}
	if KindOf(err) != ErrNotIterable {
		t.Errorf("KindOf = %q, want %q", KindOf(err), ErrNotIterable)
	}
}

func TestStyleFormatters(t *testing.T) {
	v := applyOne(t, "bold", "text")
	v = applyOne(t, "color", v, "red")
	v = applyOne(t, "size", v, "14")
	sv, ok := v.(StyledValue)
	if !ok {
		t.Fatalf("styled chain produced %T, want StyledValue", v)
	}
	if !sv.Style.Bold || sv.Style.Color != "FF0000" || sv.Style.Size != 14 {
		t.Errorf("style = %+v", sv.Style)
	}
	if sv.Value != "text" {
		t.Errorf("value = %v, want text", sv.Value)
	}
}

func TestColorAcceptsHex(t *testing.T) {
	v := applyOne(t, "color", "x", "#1a2b3c")
	sv := v.(StyledValue)
	if sv.Style.Color != "1A2B3C" {
		t.Errorf("color = %q, want 1A2B3C", sv.Style.Color)
	}
}

func TestSizeBounds(t *testing.T) {
	f, _ := DefaultFormatters().Get("size")
	for _, arg := range []string{"0", "73", "huge"} {
		if _, err := f("x", []string{arg}); err == nil {
			t.Errorf("size accepted %q", arg)
		}
	}
}

func TestApplyFormattersUnknownPassesThrough(t *testing.T) {
	reg := DefaultFormatters()
	out, err := ApplyFormatters(reg, "hello", []FormatterCall{{Name: "nonexistent"}, {Name: "upper"}})
	if err != nil {
		t.Fatalf("ApplyFormatters error: %v", err)
	}
	if out != "HELLO" {
		t.Errorf("out = %v, want unknown step skipped and chain continued", out)
	}
}

func TestApplyFormattersStyleSurvivesTransform(t *testing.T) {
	reg := DefaultFormatters()
	out, err := ApplyFormatters(reg, "hello", []FormatterCall{{Name: "bold"}, {Name: "upper"}})
	if err != nil {
		t.Fatalf("ApplyFormatters error: %v", err)
	}
	sv, ok := out.(StyledValue)
	if !ok {
		t.Fatalf("out is %T, want StyledValue after transform", out)
	}
	if sv.Value != "HELLO" || !sv.Style.Bold {
		t.Errorf("out = %+v, want transformed value with bold kept", sv)
	}
}

func TestApplyFormattersErrorAbortsChain(t *testing.T) {
	reg := DefaultFormatters()
	_, err := ApplyFormatters(reg, "scalar", []FormatterCall{{Name: "sum"}, {Name: "upper"}})
	if err == nil {
		t.Fatal("ApplyFormatters succeeded, want aggregate error")
	}
}

func TestRegistryCustomFormatter(t *testing.T) {
	reg := DefaultFormatters()
	reg.Register("shout", func(v interface{}, args []string) (interface{}, error) {
		return Stringify(v) + "!", nil
	})
	out, err := ApplyFormatters(reg, "hi", []FormatterCall{{Name: "shout"}})
	if err != nil {
		t.Fatalf("ApplyFormatters error: %v", err)
	}
	if out != "hi!" {
		t.Errorf("out = %v, want hi!", out)
	}
}
