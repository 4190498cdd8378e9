package modifier

// bitfield is a window of width bits starting at shift.
type bitfield struct {
	shift uint
	width uint
}

func (f bitfield) mask() uint64 {
	return (uint64(1) << f.width) - 1
}

// get extracts the field from mod.
func (f bitfield) get(mod uint64) uint64 {
	return (mod >> f.shift) & f.mask()
}

// set reports whether any bit of the field is set.
func (f bitfield) set(mod uint64) bool {
	return f.get(mod) != 0
}

// put places v into the field's position. Bits beyond width are dropped.
func (f bitfield) put(v uint64) uint64 {
	return (v & f.mask()) << f.shift
}

// enum maps raw field values to labels.
type enum map[uint64]string

func (e enum) label(v uint64) string {
	if s, ok := e[v]; ok {
		return s
	}
	return unknown
}
