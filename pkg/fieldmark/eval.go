package fieldmark

import "math"

// Eval returns a literal unchanged.
func (e *LiteralExpr) Eval(sc *Scope) (interface{}, error) {
	return e.Value, nil
}

// Eval resolves a path against the scope chain. A path rooted at this
// reads the innermost loop element only; any other head searches frames
// top-down. Missing steps short-circuit to nil.
func (e *PathExpr) Eval(sc *Scope) (interface{}, error) {
	head := e.Steps[0]
	var current interface{}
	if head.IsIndex {
		return nil, NewEvalError(ErrBadExpression, e.Text, &badTokenError{msg: "path cannot start with an index"})
	}
	if head.Name == "this" {
		current = sc.This()
	} else {
		current, _ = sc.Lookup(head.Name)
	}
	for _, step := range e.Steps[1:] {
		current = walkStep(current, step)
		if current == nil {
			return nil, nil
		}
	}
	return current, nil
}

func walkStep(current interface{}, step PathStep) interface{} {
	current = Unwrap(current)
	if step.IsIndex {
		list, ok := current.([]interface{})
		if !ok || step.Index < 0 || step.Index >= len(list) {
			return nil
		}
		return list[step.Index]
	}
	record, ok := current.(map[string]interface{})
	if !ok {
		return nil
	}
	return record[step.Name]
}

// Eval applies a unary operator.
func (e *UnaryExpr) Eval(sc *Scope) (interface{}, error) {
	v, err := e.Operand.Eval(sc)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "!":
		return !IsTruthy(v), nil
	case "-":
		return -ToNumber(v), nil
	}
	return nil, NewEvalError(ErrBadExpression, e.Op, &badTokenError{msg: "unknown unary operator"})
}

// Eval applies a binary operator. Boolean operators short-circuit on the
// left operand's truthiness; arithmetic follows IEEE-754, so dividing by
// zero yields an infinity or NaN rather than an error.
func (e *BinaryExpr) Eval(sc *Scope) (interface{}, error) {
	if e.Op == "&&" || e.Op == "||" {
		left, err := e.Left.Eval(sc)
		if err != nil {
			return nil, err
		}
		if e.Op == "&&" && !IsTruthy(left) {
			return false, nil
		}
		if e.Op == "||" && IsTruthy(left) {
			return true, nil
		}
		right, err := e.Right.Eval(sc)
		if err != nil {
			return nil, err
		}
		return IsTruthy(right), nil
	}

	left, err := e.Left.Eval(sc)
	if err != nil {
		return nil, err
	}
	right, err := e.Right.Eval(sc)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "==":
		return weakEquals(left, right), nil
	case "!=":
		return !weakEquals(left, right), nil
	case "===":
		return strictEquals(left, right), nil
	case "!==":
		return !strictEquals(left, right), nil
	case "<", "<=", ">", ">=":
		l, r := ToNumber(left), ToNumber(right)
		switch e.Op {
		case "<":
			return l < r, nil
		case "<=":
			return l <= r, nil
		case ">":
			return l > r, nil
		default:
			return l >= r, nil
		}
	case "+", "-", "*", "/", "%":
		l, r := ToNumber(left), ToNumber(right)
		switch e.Op {
		case "+":
			return l + r, nil
		case "-":
			return l - r, nil
		case "*":
			return l * r, nil
		case "/":
			return l / r, nil
		default:
			return math.Mod(l, r), nil
		}
	}
	return nil, NewEvalError(ErrBadExpression, e.Op, &badTokenError{msg: "unknown operator"})
}

// weakEquals compares with numeric coercion when either side is a
// number; otherwise it compares within the value's own shape.
func weakEquals(a, b interface{}) bool {
	a, b = Unwrap(a), Unwrap(b)
	if a == nil && b == nil {
		return true
	}
	_, aNum := numericValue(a)
	_, bNum := numericValue(b)
	if aNum || bNum {
		l, r := ToNumber(a), ToNumber(b)
		return l == r
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}

// strictEquals requires matching type tags and equal values, with no
// numeric coercion across types.
func strictEquals(a, b interface{}) bool {
	a, b = Unwrap(a), Unwrap(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	an, aNum := numericValue(a)
	bn, bNum := numericValue(b)
	if aNum != bNum {
		return false
	}
	if aNum {
		return an == bn
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}
