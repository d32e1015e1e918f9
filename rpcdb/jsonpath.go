package rpcdb

import (
	"fmt"
	"strconv"

	"github.com/kmill/pynomic/jpath"
	"github.com/kmill/pynomic/path"
	"github.com/kmill/pynomic/value"
)

// pathFromJSONPath compiles a JSONPath string, as accepted by jpath.Parse,
// into a concrete *path.Path. Only the Member and Index step kinds are
// supported: a wildcard, slice, recursive descent, filter, or script step
// denotes a set of locations rather than one, which *path.Path cannot
// represent, and a comma-separated Index step similarly denotes more than
// one element.
func pathFromJSONPath(expr string) (*path.Path, error) {
	parsed, err := jpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("rpcdb: invalid JSONPath %q: %w", expr, err)
	}
	p := path.Root
	for _, step := range parsed {
		switch step.Op {
		case jpath.Member, jpath.Name, jpath.QName:
			if step.Op == jpath.Member && step.Arg2 == jpath.Wildcard.String() {
				return nil, fmt.Errorf("rpcdb: JSONPath %q: wildcard step does not denote a single location", expr)
			}
			p = p.Append(path.MapKey(step.Arg1))
		case jpath.Index:
			n, err := strconv.Atoi(step.Arg1)
			if err != nil {
				return nil, fmt.Errorf("rpcdb: JSONPath %q: unsupported multi-index step %q", expr, step.Arg1)
			}
			p = p.Append(path.ArrayIndex(n))
		default:
			return nil, fmt.Errorf("rpcdb: JSONPath %q: step kind %v does not denote a single location", expr, step.Op)
		}
	}
	return p, nil
}

// pathFromRequest reads a request's location, preferring a "pathstr" JSONPath
// string when present and falling back to the "path" array-of-steps shape.
func pathFromRequest(params value.Value) (*path.Path, error) {
	if v, ok := field(params, "pathstr"); ok {
		s, ok := v.(value.Str)
		if !ok {
			return nil, fmt.Errorf("rpcdb: \"pathstr\" must be a string")
		}
		return pathFromJSONPath(string(s))
	}
	return pathFrom(params)
}
