package vm

// condValue coerces a value to a conditional. The second result
// reports whether the kind is coercible at all: numbers compare
// against zero, strings and lists against emptiness, none is false.
// Maps, function references and the remaining kinds are not
// conditionals and make the caller raise type-error.
func condValue(v *Value) (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.i != 0, true
	case KindInt:
		return v.i != 0, true
	case KindFloat:
		return v.f != 0, true
	case KindNone:
		return false, true
	case KindShortStr:
		return v.shortLen > 0, true
	case KindPreallocStr:
		return len(v.prealloc) > 0, true
	case KindBoxed:
		switch v.obj.kind {
		case ObjString:
			return len(v.obj.str.cps) > 0, true
		case ObjList:
			return v.obj.list.Len() > 0, true
		}
	}
	return false, false
}
