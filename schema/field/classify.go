package field

// primitives holds the python type names that map directly to a storage
// scalar. Any other type name refers to a generated class.
var primitives = func() map[string]struct{} {
	m := make(map[string]struct{}, len(typeNames)-1)
	for t := TypeBool; t < endTypes; t++ {
		m[t.String()] = struct{}{}
	}
	return m
}()

// IsPrimitive reports whether the type name maps to a storage scalar.
func IsPrimitive(name string) bool {
	_, ok := primitives[name]
	return ok
}

// IsComplex reports whether the type name refers to a generated class.
func IsComplex(name string) bool {
	return !IsPrimitive(name)
}

// HasComplex reports whether at least one of the type names refers to a
// generated class.
func HasComplex(names ...string) bool {
	for _, n := range names {
		if IsComplex(n) {
			return true
		}
	}
	return false
}

// AllComplex reports whether every type name refers to a generated class.
// It returns false for an empty list.
func AllComplex(names ...string) bool {
	if len(names) == 0 {
		return false
	}
	for _, n := range names {
		if !IsComplex(n) {
			return false
		}
	}
	return true
}

// Complex returns the type names that refer to generated classes,
// preserving their order.
func Complex(names ...string) []string {
	var out []string
	for _, n := range names {
		if IsComplex(n) {
			out = append(out, n)
		}
	}
	return out
}
