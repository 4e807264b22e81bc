package fieldmark

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Locale-neutral grouping: the printer is fixed so output does not vary
// with the host locale.
var groupingPrinter = message.NewPrinter(language.English)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"KRW": "₩",
	"INR": "₹",
}

func registerNumberFormatters(r *FormatterRegistry) {
	r.Register("currency", func(v interface{}, args []string) (interface{}, error) {
		code := "USD"
		if len(args) > 0 && args[0] != "" {
			code = strings.ToUpper(args[0])
		}
		if len(code) != 3 || strings.Trim(code, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") != "" {
			return nil, NewEvalError(ErrBadExpression, "currency:"+code,
				&badTokenError{msg: "currency code must be three letters"})
		}
		n := ToNumber(v)
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return FormatNumber(n), nil
		}
		grouped := groupAmount(n, 2)
		if symbol, ok := currencySymbols[code]; ok {
			return symbol + grouped, nil
		}
		return code + " " + grouped, nil
	})

	r.Register("number", func(v interface{}, args []string) (interface{}, error) {
		decimals := 2
		if len(args) > 0 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil || parsed < 0 {
				return nil, NewEvalError(ErrBadExpression, "number:"+args[0],
					&badTokenError{msg: "decimal count must be a non-negative integer"})
			}
			decimals = parsed
		}
		n := ToNumber(v)
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return FormatNumber(n), nil
		}
		return groupAmount(n, decimals), nil
	})

	r.Register("percent", func(v interface{}, args []string) (interface{}, error) {
		n := ToNumber(v)
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return FormatNumber(n) + "%", nil
		}
		return fmt.Sprintf("%.2f%%", n*100), nil
	})

	r.Register("round", func(v interface{}, args []string) (interface{}, error) {
		places := 0
		if len(args) > 0 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil || parsed < 0 {
				return nil, NewEvalError(ErrBadExpression, "round:"+args[0],
					&badTokenError{msg: "rounding places must be a non-negative integer"})
			}
			places = parsed
		}
		return roundHalfAway(ToNumber(v), places), nil
	})
}

// groupAmount renders a fixed-point amount with thousands grouping.
func groupAmount(n float64, decimals int) string {
	return groupingPrinter.Sprintf("%v",
		number.Decimal(n, number.MinFractionDigits(decimals), number.MaxFractionDigits(decimals)))
}

// roundHalfAway rounds half away from zero at the given decimal place.
func roundHalfAway(n float64, places int) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return n
	}
	shift := math.Pow(10, float64(places))
	return math.Round(n*shift) / shift
}
