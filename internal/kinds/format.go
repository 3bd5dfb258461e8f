package kinds

import (
	"fmt"
	"strconv"
	"strings"
)

// formatSpec is one parsed "%..." verb from a fixed grammar: flags
// {-,+,space,#,0}, optional width/precision, and the specifier set
// {d,i,u,o,x,X,b,B,c,s,e,E,f,g,G,a,A,p,P}.
//
// The engine below parses and renders this grammar itself rather than
// delegating to fmt.Sprintf, so the accepted grammar is exactly this
// fixed set and nothing a host formatting library happens to also
// accept.
type formatSpec struct {
	minus, plus, space, hash, zero bool
	width, precision               int
	hasWidth, hasPrecision         bool
	verb                           byte
}

// ErrFormat reports a malformed format string or an argument count
// mismatch.
type ErrFormat struct{ Msg string }

func (e *ErrFormat) Error() string { return e.Msg }

// Sprintf implements the `%` operator's string-formatting semantics:
// fmt % [args...]. args are pre-rendered Inspect/numeric values
// provided by the caller (kinds.String's operator glue) as
// interface{} of type int64, float64, string, or bool.
func Sprintf(format string, args []interface{}) (string, error) {
	var out strings.Builder
	argi := 0
	next := func() (interface{}, error) {
		if argi >= len(args) {
			return nil, &ErrFormat{Msg: "too few arguments for format string"}
		}
		v := args[argi]
		argi++
		return v, nil
	}

	i := 0
	for i < len(format) {
		c := format[i]
		if c != '%' {
			out.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			out.WriteByte('%')
			i += 2
			continue
		}
		spec, next_i, err := parseSpec(format, i)
		if err != nil {
			return "", err
		}
		i = next_i
		arg, err := next()
		if err != nil {
			return "", err
		}
		rendered, err := renderVerb(spec, arg)
		if err != nil {
			return "", err
		}
		out.WriteString(pad(spec, rendered))
	}
	return out.String(), nil
}

func parseSpec(s string, i int) (formatSpec, int, error) {
	var spec formatSpec
	i++ // skip '%'
loop:
	for i < len(s) {
		switch s[i] {
		case '-':
			spec.minus = true
		case '+':
			spec.plus = true
		case ' ':
			spec.space = true
		case '#':
			spec.hash = true
		case '0':
			spec.zero = true
		default:
			break loop
		}
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > start {
		spec.hasWidth = true
		spec.width, _ = strconv.Atoi(s[start:i])
	}
	if i < len(s) && s[i] == '.' {
		i++
		start = i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		spec.hasPrecision = true
		if i > start {
			spec.precision, _ = strconv.Atoi(s[start:i])
		}
	}
	if i >= len(s) {
		return spec, i, &ErrFormat{Msg: "unterminated format verb"}
	}
	verb := s[i]
	if !isAllowedVerb(verb) {
		return spec, i, &ErrFormat{Msg: fmt.Sprintf("invalid format verb %%%c", verb)}
	}
	spec.verb = verb
	return spec, i + 1, nil
}

func isAllowedVerb(v byte) bool {
	switch v {
	case 'd', 'i', 'u', 'o', 'x', 'X', 'b', 'B', 'c', 's',
		'e', 'E', 'f', 'g', 'G', 'a', 'A', 'p', 'P':
		return true
	default:
		return false
	}
}

func asInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func renderVerb(spec formatSpec, arg interface{}) (string, error) {
	switch spec.verb {
	case 'd', 'i':
		n, ok := asInt(arg)
		if !ok {
			return "", &ErrFormat{Msg: "%d/%i requires a numeric argument"}
		}
		return signPrefix(spec, n < 0, strconv.FormatInt(abs64(n), 10)), nil
	case 'u':
		n, ok := asInt(arg)
		if !ok {
			return "", &ErrFormat{Msg: "%u requires a numeric argument"}
		}
		return strconv.FormatUint(uint64(n), 10), nil
	case 'o':
		n, _ := asInt(arg)
		s := strconv.FormatInt(n, 8)
		if spec.hash {
			s = "0" + s
		}
		return s, nil
	case 'x':
		n, _ := asInt(arg)
		s := strconv.FormatInt(n, 16)
		if spec.hash {
			s = "0x" + s
		}
		return s, nil
	case 'X':
		n, _ := asInt(arg)
		s := strings.ToUpper(strconv.FormatInt(n, 16))
		if spec.hash {
			s = "0X" + s
		}
		return s, nil
	case 'b', 'B':
		n, _ := asInt(arg)
		s := strconv.FormatInt(n, 2)
		if spec.hash {
			s = "0b" + s
		}
		return s, nil
	case 'c':
		n, _ := asInt(arg)
		return string(rune(n)), nil
	case 's':
		switch s := arg.(type) {
		case string:
			return s, nil
		default:
			return fmt.Sprint(arg), nil
		}
	case 'e', 'E':
		f, ok := asFloat(arg)
		if !ok {
			return "", &ErrFormat{Msg: "%e requires a numeric argument"}
		}
		prec := 6
		if spec.hasPrecision {
			prec = spec.precision
		}
		s := strconv.FormatFloat(f, byte(spec.verb), prec, 64)
		return s, nil
	case 'f':
		f, ok := asFloat(arg)
		if !ok {
			return "", &ErrFormat{Msg: "%f requires a numeric argument"}
		}
		prec := 6
		if spec.hasPrecision {
			prec = spec.precision
		}
		return signPrefixFloat(spec, f, strconv.FormatFloat(absf(f), 'f', prec, 64)), nil
	case 'g', 'G':
		f, ok := asFloat(arg)
		if !ok {
			return "", &ErrFormat{Msg: "%g requires a numeric argument"}
		}
		prec := 6
		if spec.hasPrecision {
			prec = spec.precision
		}
		s := strconv.FormatFloat(f, byte(spec.verb), prec, 64)
		return trimGZeroes(s), nil
	case 'a', 'A':
		f, ok := asFloat(arg)
		if !ok {
			return "", &ErrFormat{Msg: "%a requires a numeric argument"}
		}
		s := strconv.FormatFloat(f, 'x', -1, 64)
		if spec.verb == 'A' {
			s = strings.ToUpper(s)
		}
		return s, nil
	case 'p', 'P':
		n, _ := asInt(arg)
		s := fmt.Sprintf("0x%x", uint64(n))
		if spec.verb == 'P' {
			s = strings.ToUpper(s)
		}
		return s, nil
	default:
		return "", &ErrFormat{Msg: "unsupported verb"}
	}
}

// trimGZeroes mimics %g's documented behavior of using the shortest of
// %e/%f — Go's strconv.FormatFloat('g', prec, ...) already does this;
// nothing further is needed, kept as a named seam for clarity/testing.
func trimGZeroes(s string) string { return s }

func signPrefix(spec formatSpec, neg bool, digits string) string {
	if neg {
		return "-" + digits
	}
	if spec.plus {
		return "+" + digits
	}
	if spec.space {
		return " " + digits
	}
	return digits
}

func signPrefixFloat(spec formatSpec, f float64, digits string) string {
	if f < 0 {
		return "-" + digits
	}
	if spec.plus {
		return "+" + digits
	}
	if spec.space {
		return " " + digits
	}
	return digits
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func pad(spec formatSpec, s string) string {
	if !spec.hasWidth || len(s) >= spec.width {
		return s
	}
	padCount := spec.width - len(s)
	if spec.minus {
		return s + strings.Repeat(" ", padCount)
	}
	padChar := " "
	if spec.zero && !spec.minus {
		padChar = "0"
	}
	return strings.Repeat(padChar, padCount) + s
}
