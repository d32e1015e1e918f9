package query

import (
	"fmt"
	"math"

	"github.com/kmill/pynomic/dberr"
	"github.com/kmill/pynomic/value"
)

// opFunc implements one whitelisted operation over already-evaluated
// arguments.
type opFunc func(args []value.Value) (value.Value, error)

// Lookup returns the implementation registered for name, for use by the
// interpreter when evaluating an OpNode built through Op (which already
// validated name against this same table at construction time).
func Lookup(name string) (func(args []value.Value) (value.Value, error), bool) {
	f, ok := ops[name]
	return f, ok
}

// ops is the whitelist of operation names available to OpNode, a direct
// translation of original_source/minidb/util.py's allowed_operations dict of
// operator.* functions into a table of Go closures over value.Value.
var ops = map[string]opFunc{
	"lt": cmpOp("lt", func(c int) bool { return c < 0 }),
	"le": cmpOp("le", func(c int) bool { return c <= 0 }),
	"eq": eqOp(false),
	"ne": eqOp(true),
	"ge": cmpOp("ge", func(c int) bool { return c >= 0 }),
	"gt": cmpOp("gt", func(c int) bool { return c > 0 }),

	"not":   unaryBool("not", func(b bool) bool { return !b }),
	"truth": unaryBool("truth", func(b bool) bool { return b }),

	"abs": unaryNum("abs", func(f float64) float64 {
		if f < 0 {
			return -f
		}
		return f
	}),
	"neg": unaryNum("neg", func(f float64) float64 { return -f }),

	"add":      addOp,
	"sub":      binNum("sub", func(a, b float64) float64 { return a - b }),
	"mul":      binNum("mul", func(a, b float64) float64 { return a * b }),
	"div":      divOp,
	"mod":      modOp,
	"pow":      powOp,
	"contains": containsOp,

	"int":   toIntOp,
	"float": toFloatOp,
	"str":   toStrOp,

	"any": reduceOp("any", false),
	"all": reduceOp("all", true),
}

func arity(name string, args []value.Value, n int) error {
	if len(args) != n {
		return &dberr.OpError{Op: name, Msg: fmt.Sprintf("want %d argument(s), got %d", n, len(args))}
	}
	return nil
}

func asNumber(v value.Value) (float64, bool) {
	switch t := v.(type) {
	case value.Int:
		return float64(t), true
	case value.Float:
		return float64(t), true
	}
	return 0, false
}

// compare returns -1, 0, or 1 per Go's usual comparison convention, for the
// numeric and string pairs the whitelisted comparison ops support.
func compare(name string, a, b value.Value) (int, error) {
	if af, aok := asNumber(a); aok {
		if bf, bok := asNumber(b); bok {
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if as, aok := a.(value.Str); aok {
		if bs, bok := b.(value.Str); bok {
			switch {
			case as < bs:
				return -1, nil
			case as > bs:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	return 0, &dberr.OpError{Op: name, Msg: fmt.Sprintf("cannot compare %T with %T", a, b)}
}

func cmpOp(name string, accept func(int) bool) opFunc {
	return func(args []value.Value) (value.Value, error) {
		if err := arity(name, args, 2); err != nil {
			return nil, err
		}
		c, err := compare(name, args[0], args[1])
		if err != nil {
			return nil, err
		}
		return value.Bool(accept(c)), nil
	}
}

func eqOp(negate bool) opFunc {
	return func(args []value.Value) (value.Value, error) {
		if err := arity("eq", args, 2); err != nil {
			return nil, err
		}
		eq := value.Equal(args[0], args[1])
		return value.Bool(eq != negate), nil
	}
}

func unaryBool(name string, f func(bool) bool) opFunc {
	return func(args []value.Value) (value.Value, error) {
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		return value.Bool(f(value.Truth(args[0]))), nil
	}
}

// unaryNum and binNum preserve Int-ness when both operands (or the lone
// operand) were Int, otherwise yield a Float, mirroring Python's int/float
// arithmetic tower.
func unaryNum(name string, f func(float64) float64) opFunc {
	return func(args []value.Value) (value.Value, error) {
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		x, ok := asNumber(args[0])
		if !ok {
			return nil, &dberr.OpError{Op: name, Msg: fmt.Sprintf("%T is not numeric", args[0])}
		}
		result := f(x)
		if _, isInt := args[0].(value.Int); isInt && result == float64(int64(result)) {
			return value.Int(int64(result)), nil
		}
		return value.Float(result), nil
	}
}

func binNum(name string, f func(a, b float64) float64) opFunc {
	return func(args []value.Value) (value.Value, error) {
		if err := arity(name, args, 2); err != nil {
			return nil, err
		}
		a, aok := asNumber(args[0])
		b, bok := asNumber(args[1])
		if !aok || !bok {
			return nil, &dberr.OpError{Op: name, Msg: fmt.Sprintf("cannot %s %T and %T", name, args[0], args[1])}
		}
		result := f(a, b)
		_, aInt := args[0].(value.Int)
		_, bInt := args[1].(value.Int)
		if aInt && bInt && result == float64(int64(result)) {
			return value.Int(int64(result)), nil
		}
		return value.Float(result), nil
	}
}

func addOp(args []value.Value) (value.Value, error) {
	if err := arity("add", args, 2); err != nil {
		return nil, err
	}
	switch a := args[0].(type) {
	case value.Str:
		b, ok := args[1].(value.Str)
		if !ok {
			return nil, &dberr.OpError{Op: "add", Msg: fmt.Sprintf("cannot add Str and %T", args[1])}
		}
		return a + b, nil
	case value.Array:
		b, ok := args[1].(value.Array)
		if !ok {
			return nil, &dberr.OpError{Op: "add", Msg: fmt.Sprintf("cannot add Array and %T", args[1])}
		}
		out := make(value.Array, 0, len(a)+len(b))
		out = append(out, a...)
		out = append(out, b...)
		return out, nil
	}
	return binNum("add", func(a, b float64) float64 { return a + b })(args)
}

func divOp(args []value.Value) (value.Value, error) {
	if err := arity("div", args, 2); err != nil {
		return nil, err
	}
	b, bok := asNumber(args[1])
	if !bok {
		return nil, &dberr.OpError{Op: "div", Msg: fmt.Sprintf("%T is not numeric", args[1])}
	}
	if b == 0 {
		return nil, &dberr.OpError{Op: "div", Msg: "division by zero"}
	}
	a, aok := asNumber(args[0])
	if !aok {
		return nil, &dberr.OpError{Op: "div", Msg: fmt.Sprintf("%T is not numeric", args[0])}
	}
	return value.Float(a / b), nil
}

func modOp(args []value.Value) (value.Value, error) {
	if err := arity("mod", args, 2); err != nil {
		return nil, err
	}
	ai, aok := args[0].(value.Int)
	bi, bok := args[1].(value.Int)
	if aok && bok {
		if bi == 0 {
			return nil, &dberr.OpError{Op: "mod", Msg: "modulo by zero"}
		}
		m := ai % bi
		if (m < 0) != (bi < 0) && m != 0 {
			m += bi
		}
		return m, nil
	}
	a, aok2 := asNumber(args[0])
	b, bok2 := asNumber(args[1])
	if !aok2 || !bok2 {
		return nil, &dberr.OpError{Op: "mod", Msg: fmt.Sprintf("cannot mod %T and %T", args[0], args[1])}
	}
	if b == 0 {
		return nil, &dberr.OpError{Op: "mod", Msg: "modulo by zero"}
	}
	m := a - b*math.Floor(a/b)
	return value.Float(m), nil
}

func powOp(args []value.Value) (value.Value, error) {
	if err := arity("pow", args, 2); err != nil {
		return nil, err
	}
	a, aok := asNumber(args[0])
	b, bok := asNumber(args[1])
	if !aok || !bok {
		return nil, &dberr.OpError{Op: "pow", Msg: fmt.Sprintf("cannot raise %T to %T", args[0], args[1])}
	}
	neg := b < 0
	if neg && a == 0 {
		return nil, &dberr.OpError{Op: "pow", Msg: "division by zero"}
	}
	result := math.Pow(a, b)
	_, aInt := args[0].(value.Int)
	_, bInt := args[1].(value.Int)
	if aInt && bInt && !neg && result == float64(int64(result)) {
		return value.Int(int64(result)), nil
	}
	return value.Float(result), nil
}

func containsOp(args []value.Value) (value.Value, error) {
	if err := arity("contains", args, 2); err != nil {
		return nil, err
	}
	container, item := args[0], args[1]
	switch c := container.(type) {
	case value.Array:
		for _, elt := range c {
			if value.Equal(elt, item) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	case value.Map:
		key, ok := item.(value.Str)
		if !ok {
			return value.Bool(false), nil
		}
		_, found := c[string(key)]
		return value.Bool(found), nil
	case value.Str:
		key, ok := item.(value.Str)
		if !ok {
			return nil, &dberr.OpError{Op: "contains", Msg: "Str can only contain a Str"}
		}
		return value.Bool(stringsContains(string(c), string(key))), nil
	}
	return nil, &dberr.OpError{Op: "contains", Msg: fmt.Sprintf("%T is not a container", container)}
}

func stringsContains(s, substr string) bool {
	if len(substr) == 0 {
		return true
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func toIntOp(args []value.Value) (value.Value, error) {
	if err := arity("int", args, 1); err != nil {
		return nil, err
	}
	switch t := args[0].(type) {
	case value.Int:
		return t, nil
	case value.Float:
		return value.Int(int64(t)), nil
	case value.Str:
		var n int64
		_, err := fmt.Sscanf(string(t), "%d", &n)
		if err != nil {
			return nil, &dberr.OpError{Op: "int", Msg: fmt.Sprintf("cannot parse %q as int", t)}
		}
		return value.Int(n), nil
	case value.Bool:
		if t {
			return value.Int(1), nil
		}
		return value.Int(0), nil
	}
	return nil, &dberr.OpError{Op: "int", Msg: fmt.Sprintf("cannot convert %T to int", args[0])}
}

func toFloatOp(args []value.Value) (value.Value, error) {
	if err := arity("float", args, 1); err != nil {
		return nil, err
	}
	switch t := args[0].(type) {
	case value.Float:
		return t, nil
	case value.Int:
		return value.Float(t), nil
	case value.Str:
		var f float64
		_, err := fmt.Sscanf(string(t), "%g", &f)
		if err != nil {
			return nil, &dberr.OpError{Op: "float", Msg: fmt.Sprintf("cannot parse %q as float", t)}
		}
		return value.Float(f), nil
	}
	return nil, &dberr.OpError{Op: "float", Msg: fmt.Sprintf("cannot convert %T to float", args[0])}
}

func toStrOp(args []value.Value) (value.Value, error) {
	if err := arity("str", args, 1); err != nil {
		return nil, err
	}
	if s, ok := args[0].(value.Str); ok {
		return s, nil
	}
	return value.Str(args[0].String()), nil
}

// reduceOp implements any/all over an Array argument, short-circuiting per
// Go's own && / || evaluation order rather than draining the whole array
// once the answer is known.
func reduceOp(name string, all bool) opFunc {
	return func(args []value.Value) (value.Value, error) {
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		arr, ok := args[0].(value.Array)
		if !ok {
			return nil, &dberr.OpError{Op: name, Msg: fmt.Sprintf("%T is not a list", args[0])}
		}
		for _, elt := range arr {
			t := value.Truth(elt)
			if all && !t {
				return value.Bool(false), nil
			}
			if !all && t {
				return value.Bool(true), nil
			}
		}
		return value.Bool(all), nil
	}
}
