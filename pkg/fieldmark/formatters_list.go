package fieldmark

import (
	"math"
	"strings"
)

func registerListFormatters(r *FormatterRegistry) {
	r.Register("join", func(v interface{}, args []string) (interface{}, error) {
		sep := ", "
		if len(args) > 0 {
			sep = args[0]
		}
		list, ok := Unwrap(v).([]interface{})
		if !ok {
			return Stringify(v), nil
		}
		parts := make([]string, len(list))
		for i, e := range list {
			parts[i] = Stringify(e)
		}
		return strings.Join(parts, sep), nil
	})

	r.Register("length", func(v interface{}, args []string) (interface{}, error) {
		switch val := Unwrap(v).(type) {
		case []interface{}:
			return float64(len(val)), nil
		case string:
			return float64(len([]rune(val))), nil
		default:
			return float64(0), nil
		}
	})

	r.Register("count", aggregateFormatter(func(nums []float64) float64 {
		return float64(len(nums))
	}))
	r.Register("sum", aggregateFormatter(func(nums []float64) float64 {
		total := 0.0
		for _, n := range nums {
			total += n
		}
		return total
	}))
	r.Register("avg", aggregateFormatter(func(nums []float64) float64 {
		if len(nums) == 0 {
			return math.NaN()
		}
		total := 0.0
		for _, n := range nums {
			total += n
		}
		return total / float64(len(nums))
	}))
	r.Register("max", aggregateFormatter(func(nums []float64) float64 {
		if len(nums) == 0 {
			return math.NaN()
		}
		best := nums[0]
		for _, n := range nums[1:] {
			if n > best {
				best = n
			}
		}
		return best
	}))
	r.Register("min", aggregateFormatter(func(nums []float64) float64 {
		if len(nums) == 0 {
			return math.NaN()
		}
		best := nums[0]
		for _, n := range nums[1:] {
			if n < best {
				best = n
			}
		}
		return best
	}))
}

// aggregateFormatter lifts a reducer over a list, optionally projecting
// each element through a dotted field path first.
func aggregateFormatter(reduce func([]float64) float64) Formatter {
	return func(v interface{}, args []string) (interface{}, error) {
		list, ok := Unwrap(v).([]interface{})
		if !ok {
			return nil, NewEvalError(ErrNotIterable, Stringify(v),
				&badTokenError{msg: "aggregate target is not a list"})
		}
		var field []string
		if len(args) > 0 && args[0] != "" {
			field = strings.Split(args[0], ".")
		}
		nums := make([]float64, 0, len(list))
		for _, e := range list {
			nums = append(nums, ToNumber(projectField(e, field)))
		}
		return reduce(nums), nil
	}
}

func projectField(v interface{}, field []string) interface{} {
	for _, name := range field {
		record, ok := Unwrap(v).(map[string]interface{})
		if !ok {
			return nil
		}
		v = record[name]
	}
	return v
}
