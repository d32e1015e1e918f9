package value

// Allowed reports whether v is built entirely out of the allowed value
// kinds: Null, Bool, Int, Float, Str, Array, and Map, recursively. This is
// the Go translation of original_source/minidb/util.py's
// check_type_is_ok: any concrete Value implementation defined outside this
// package fails the check, as do Arrays or Maps containing one.
func Allowed(v Value) bool {
	switch t := v.(type) {
	case nil:
		return false
	case nullValue, Bool, Int, Float, Str:
		return true
	case Array:
		for _, elt := range t {
			if !Allowed(elt) {
				return false
			}
		}
		return true
	case Map:
		for _, elt := range t {
			if !Allowed(elt) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
