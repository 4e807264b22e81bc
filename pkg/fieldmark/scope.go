package fieldmark

// Scope is one frame of the lexical binding chain. The bottom frame
// wraps the caller's data object; every loop iteration pushes a frame
// with the automatic names. Caller data is never mutated.
type Scope struct {
	parent   *Scope
	bindings map[string]interface{}
}

// NewScope builds the root frame over the caller's data object.
func NewScope(data map[string]interface{}) *Scope {
	bindings := make(map[string]interface{}, len(data))
	for k, v := range data {
		bindings[k] = v
	}
	return &Scope{bindings: bindings}
}

// PushLoopFrame derives a child frame for one loop iteration. parent
// resolves to the enclosing frame's this, or nil at the outermost loop.
func (s *Scope) PushLoopFrame(element interface{}, index, count int) *Scope {
	parentThis, _ := s.Lookup("this")
	return &Scope{
		parent: s,
		bindings: map[string]interface{}{
			"this":   element,
			"index":  float64(index),
			"first":  index == 0,
			"last":   index == count-1,
			"count":  float64(count),
			"parent": parentThis,
		},
	}
}

// Lookup searches frames top-down for the first binding of name. At
// each frame the automatic names win; otherwise the frame's loop
// element is consulted, so a bare field name resolves against the
// nearest enclosing iteration before falling back to outer data.
func (s *Scope) Lookup(name string) (interface{}, bool) {
	for frame := s; frame != nil; frame = frame.parent {
		if v, ok := frame.bindings[name]; ok {
			return v, true
		}
		if this, ok := frame.bindings["this"]; ok {
			if record, ok := Unwrap(this).(map[string]interface{}); ok {
				if v, ok := record[name]; ok {
					return v, true
				}
			}
		}
	}
	return nil, false
}

// This returns the innermost loop element, or nil outside any loop.
func (s *Scope) This() interface{} {
	v, _ := s.Lookup("this")
	return v
}
