package fieldmark

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Date inputs accepted by the date formatters: RFC 3339 timestamps,
// bare dates, date-time without zone, and epoch seconds (milliseconds
// when the magnitude demands it).
var dateInputLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func registerDateFormatters(r *FormatterRegistry) {
	r.Register("date", dateFormatter("YYYY-MM-DD"))
	r.Register("dateTime", dateFormatter("YYYY-MM-DD HH:mm:ss"))

	r.Register("fromNow", func(v interface{}, args []string) (interface{}, error) {
		t, ok := parseTimeValue(Unwrap(v))
		if !ok {
			return nil, NewEvalError(ErrBadExpression, Stringify(v),
				&badTokenError{msg: "value is not a recognizable date"})
		}
		return humanize.Time(t), nil
	})
}

func dateFormatter(defaultPattern string) Formatter {
	return func(v interface{}, args []string) (interface{}, error) {
		pattern := defaultPattern
		if len(args) > 0 && args[0] != "" {
			pattern = args[0]
		}
		t, ok := parseTimeValue(Unwrap(v))
		if !ok {
			return nil, NewEvalError(ErrBadExpression, Stringify(v),
				&badTokenError{msg: "value is not a recognizable date"})
		}
		return t.Format(convertDatePattern(pattern)), nil
	}
}

func parseTimeValue(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range dateInputLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		n, ok := numericValue(v)
		if !ok {
			return time.Time{}, false
		}
		// Epoch values past the year 33658 in seconds are milliseconds.
		if n > 1e12 || n < -1e12 {
			return time.UnixMilli(int64(n)).UTC(), true
		}
		return time.Unix(int64(n), 0).UTC(), true
	}
}

var datePatternTokens = []struct {
	token  string
	layout string
}{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"HH", "15"},
	{"mm", "04"},
	{"ss", "05"},
}

// convertDatePattern translates the template pattern vocabulary into a
// Go reference layout.
func convertDatePattern(pattern string) string {
	var b strings.Builder
	i := 0
	for i < len(pattern) {
		matched := false
		for _, tok := range datePatternTokens {
			if strings.HasPrefix(pattern[i:], tok.token) {
				b.WriteString(tok.layout)
				i += len(tok.token)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(pattern[i])
			i++
		}
	}
	return b.String()
}
