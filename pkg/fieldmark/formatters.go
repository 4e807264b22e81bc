package fieldmark

import (
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// Formatter transforms a value during interpolation. Styling formatters
// return StyledValue; everything else is a pure value transform.
type Formatter func(v interface{}, args []string) (interface{}, error)

// FormatterRegistry maps formatter names to implementations.
type FormatterRegistry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
}

// NewFormatterRegistry creates an empty registry.
func NewFormatterRegistry() *FormatterRegistry {
	return &FormatterRegistry{formatters: make(map[string]Formatter)}
}

// Register adds or replaces a formatter.
func (r *FormatterRegistry) Register(name string, f Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatters[name] = f
}

// Get looks up a formatter by name.
func (r *FormatterRegistry) Get(name string) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formatters[name]
	return f, ok
}

// Names lists registered formatter names.
func (r *FormatterRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	return names
}

var (
	defaultRegistry     *FormatterRegistry
	defaultRegistryOnce sync.Once
)

// DefaultFormatters returns the registry holding the built-in set.
func DefaultFormatters() *FormatterRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewFormatterRegistry()
		registerTextFormatters(defaultRegistry)
		registerNumberFormatters(defaultRegistry)
		registerDateFormatters(defaultRegistry)
		registerListFormatters(defaultRegistry)
		registerStyleFormatters(defaultRegistry)
	})
	return defaultRegistry
}

// ApplyFormatters runs a pipe chain left to right. Unknown names warn
// and pass the value through unchanged. A formatter failure aborts the
// chain and is scoped to the calling node.
func ApplyFormatters(registry *FormatterRegistry, v interface{}, calls []FormatterCall) (interface{}, error) {
	log := GetLogger()
	for _, call := range calls {
		f, ok := registry.Get(call.Name)
		if !ok {
			log.WithField("formatter", call.Name).Warn("unknown formatter, passing value through")
			continue
		}
		out, err := f(v, call.Args)
		if err != nil {
			return nil, err
		}
		// A styling wrapper survives later transforms on its value.
		if sv, wasStyled := v.(StyledValue); wasStyled {
			if _, stillStyled := out.(StyledValue); !stillStyled {
				out = StyledValue{Value: out, Style: sv.Style}
			}
		}
		v = out
	}
	return v, nil
}

func registerTextFormatters(r *FormatterRegistry) {
	r.Register("upper", func(v interface{}, args []string) (interface{}, error) {
		return strings.ToUpper(Stringify(v)), nil
	})
	r.Register("lower", func(v interface{}, args []string) (interface{}, error) {
		return strings.ToLower(Stringify(v)), nil
	})
	r.Register("capitalize", func(v interface{}, args []string) (interface{}, error) {
		s := Stringify(v)
		if s == "" {
			return s, nil
		}
		runes := []rune(s)
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes), nil
	})
	r.Register("trim", func(v interface{}, args []string) (interface{}, error) {
		return strings.TrimSpace(Stringify(v)), nil
	})
	r.Register("truncate", func(v interface{}, args []string) (interface{}, error) {
		n := 50
		if len(args) > 0 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil || parsed < 0 {
				return nil, NewEvalError(ErrBadExpression, "truncate:"+args[0],
					&badTokenError{msg: "truncate length must be a non-negative integer"})
			}
			n = parsed
		}
		s := Stringify(v)
		runes := []rune(s)
		if len(runes) <= n {
			return s, nil
		}
		return string(runes[:n]) + "...", nil
	})
	r.Register("default", func(v interface{}, args []string) (interface{}, error) {
		alt := ""
		if len(args) > 0 {
			alt = args[0]
		}
		switch inner := Unwrap(v).(type) {
		case nil:
			return alt, nil
		case string:
			if inner == "" {
				return alt, nil
			}
		case []interface{}:
			if len(inner) == 0 {
				return alt, nil
			}
		}
		return v, nil
	})
	r.Register("escape", func(v interface{}, args []string) (interface{}, error) {
		return EscapeXML(Stringify(v)), nil
	})
}

func registerStyleFormatters(r *FormatterRegistry) {
	r.Register("bold", styleFormatter(func(s *TextStyle, args []string) error {
		s.Bold = true
		return nil
	}))
	r.Register("italic", styleFormatter(func(s *TextStyle, args []string) error {
		s.Italic = true
		return nil
	}))
	r.Register("underline", styleFormatter(func(s *TextStyle, args []string) error {
		s.Underline = true
		return nil
	}))
	r.Register("size", styleFormatter(func(s *TextStyle, args []string) error {
		if len(args) == 0 {
			return &badTokenError{msg: "size requires a point value"}
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > 72 {
			return &badTokenError{msg: "size must be an integer between 1 and 72"}
		}
		s.Size = n
		return nil
	}))
	r.Register("color", styleFormatter(func(s *TextStyle, args []string) error {
		if len(args) == 0 {
			return &badTokenError{msg: "color requires a name or hex value"}
		}
		hex, ok := resolveColor(args[0])
		if !ok {
			return &badTokenError{msg: "unrecognized color " + strconv.Quote(args[0])}
		}
		s.Color = hex
		return nil
	}))
}

func styleFormatter(apply func(*TextStyle, []string) error) Formatter {
	return func(v interface{}, args []string) (interface{}, error) {
		sv, ok := v.(StyledValue)
		if !ok {
			sv = StyledValue{Value: v}
		}
		if err := apply(&sv.Style, args); err != nil {
			return nil, NewEvalError(ErrBadExpression, "", err)
		}
		return sv, nil
	}
}

var namedColors = map[string]string{
	"black":  "000000",
	"white":  "FFFFFF",
	"red":    "FF0000",
	"green":  "00FF00",
	"blue":   "0000FF",
	"yellow": "FFFF00",
	"orange": "FFA500",
	"purple": "800080",
	"gray":   "808080",
	"grey":   "808080",
}

func resolveColor(s string) (string, bool) {
	if hex, ok := namedColors[strings.ToLower(s)]; ok {
		return hex, true
	}
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return "", false
	}
	for i := 0; i < 6; i++ {
		c := s[i]
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex {
			return "", false
		}
	}
	return strings.ToUpper(s), true
}
