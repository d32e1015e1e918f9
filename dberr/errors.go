// Package dberr defines the error taxonomy shared by the query interpreter,
// mutator, and store.
//
// Each kind is its own concrete type, the way jtree reports a concrete
// *SyntaxError rather than an opaque errors.New string for anything a
// caller might need to branch on; each kind also carries enough structured
// context to reconstruct the {type, args} shape of the Python source's
// exception objects, which is what rpcdb serializes into its error
// envelope.
//
// PathNotFound lives on the path package as *path.ErrPathNotFound (it needs
// a *path.Path it has no reason to import here) and OutOfFuel lives on the
// fuel package as fuel.ErrOutOfFuel (a plain sentinel, not a struct, since it
// carries no per-occurrence data); both are part of the same taxonomy.
package dberr

import "fmt"

// NotIterableError is reported when a Get query is applied to a scalar.
type NotIterableError struct {
	Got any
}

func (e *NotIterableError) Error() string {
	return fmt.Sprintf("cannot iterate over %T", e.Got)
}

// OpError is reported by a built-in Op on a type mismatch or division by
// zero.
type OpError struct {
	Op  string
	Msg string
}

func (e *OpError) Error() string { return fmt.Sprintf("op %q: %s", e.Op, e.Msg) }

// UnknownOpError is reported at query-construction time when Op is given a
// name outside the whitelist.
type UnknownOpError struct {
	Name string
}

func (e *UnknownOpError) Error() string { return fmt.Sprintf("unknown op %q", e.Name) }

// TypeRejectedError is reported by Store.Insert when the supplied value
// contains a type outside the whitelist.
type TypeRejectedError struct {
	Got any
}

func (e *TypeRejectedError) Error() string {
	return fmt.Sprintf("type rejected: %T is not a database value", e.Got)
}

// PathConflictError is reported by Store.Insert when the destination is
// already occupied and overwrite was not requested.
type PathConflictError struct {
	Key string
}

func (e *PathConflictError) Error() string {
	return fmt.Sprintf("path conflict: %q already present, overwrite not requested", e.Key)
}

// NotAListError is reported by Store.Insert when append is requested against
// a destination that exists and is not an array.
type NotAListError struct {
	Got any
}

func (e *NotAListError) Error() string {
	return fmt.Sprintf("cannot append to non-list %T", e.Got)
}

// RemovalOfNonTreeValueError is reported by Remove when a query result does
// not carry a path of provenance.
type RemovalOfNonTreeValueError struct{}

func (e *RemovalOfNonTreeValueError) Error() string {
	return "cannot remove a value that did not come directly from the database"
}

// MalformedDoError is reported by the Do builder when its last step is a
// binding form (let/foreach), which cannot be the tail of a Bind chain.
type MalformedDoError struct{}

func (e *MalformedDoError) Error() string {
	return "last step of a Do chain must not be a let or foreach"
}

// InconsistentDataError is reported by Remove/Update when the path-trie or
// change set no longer matches the live tree's shape during the apply
// phase. The Store catches this, rolls back, and re-raises it.
type InconsistentDataError struct {
	Detail string
}

func (e *InconsistentDataError) Error() string {
	return fmt.Sprintf("inconsistent data during mutation apply: %s", e.Detail)
}

// IoError wraps an underlying I/O failure from the backing file.
type IoError struct {
	Op  string
	Err error
}

func (e *IoError) Error() string { return fmt.Sprintf("io error during %s: %v", e.Op, e.Err) }
func (e *IoError) Unwrap() error { return e.Err }
