package vm

import "math"

// ShortStrCap is the maximum codepoint count stored inline in a value
// slot. Longer strings are boxed on the heap.
const ShortStrCap = 3

// Kind tags a value slot.
type Kind uint8

const (
	KindInvalid Kind = iota // zero value, must not appear at runtime
	KindInt
	KindFloat
	KindBool
	KindNone
	KindShortStr
	KindPreallocStr // storage owned by the program image, never refcounted
	KindFuncRef     // index into the program function table
	KindNestRecord  // saved caller frame info
	KindError       // runtime-raised error value
	KindBoxed       // owning reference to a heap object
)

var kindNames = [...]string{
	KindInvalid:     "invalid",
	KindInt:         "int",
	KindFloat:       "float",
	KindBool:        "bool",
	KindNone:        "none",
	KindShortStr:    "shortstr",
	KindPreallocStr: "preallocstr",
	KindFuncRef:     "funcref",
	KindNestRecord:  "nestrecord",
	KindError:       "error",
	KindBoxed:       "boxed",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ErrorKind tags runtime-raised error values.
type ErrorKind uint8

const (
	TypeError ErrorKind = iota
	MathError
	IndexError
	OutOfMemoryError
	ValueError
	IOError
)

var errorKindNames = [...]string{
	TypeError:        "type_error",
	MathError:        "math_error",
	IndexError:       "index_error",
	OutOfMemoryError: "out_of_memory_error",
	ValueError:       "value_error",
	IOError:          "io_error",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return "unknown_error"
}

// ErrorPayload is the payload of a KindError value.
type ErrorPayload struct {
	Kind    ErrorKind
	Message string
}

// Value is one tagged slot. Exactly one payload group is meaningful
// per kind; the storage class per variant is explicit rather than a
// bitwise union.
type Value struct {
	kind Kind

	// KindInt, KindBool (0/1), KindFuncRef (function index),
	// KindNestRecord (previous function bottom)
	i int64

	// KindFloat
	f float64

	// KindShortStr
	short    [ShortStrCap]rune
	shortLen uint8

	// KindPreallocStr: slice into the program string table
	prealloc []rune

	// KindError
	errp *ErrorPayload

	// KindBoxed
	obj *HeapObject
}

// Constructors

func Int(v int64) Value     { return Value{kind: KindInt, i: v} }
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }
func None() Value           { return Value{kind: KindNone} }
func FuncRef(idx int) Value { return Value{kind: KindFuncRef, i: int64(idx)} }
func nestRecord(prevBottom int) Value {
	return Value{kind: KindNestRecord, i: int64(prevBottom)}
}

func Bool(v bool) Value {
	b := int64(0)
	if v {
		b = 1
	}
	return Value{kind: KindBool, i: b}
}

// ShortStr builds an inline string value. cps must fit ShortStrCap.
func ShortStr(cps []rune) Value {
	v := Value{kind: KindShortStr, shortLen: uint8(len(cps))}
	copy(v.short[:], cps)
	return v
}

// PreallocStr wraps a program-owned codepoint slice. The caller keeps
// ownership; the value never refcounts it.
func PreallocStr(cps []rune) Value {
	return Value{kind: KindPreallocStr, prealloc: cps}
}

// ErrorVal builds a runtime error value.
func ErrorVal(kind ErrorKind, message string) Value {
	return Value{kind: KindError, errp: &ErrorPayload{Kind: kind, Message: message}}
}

// boxed wraps a heap object. The object's external refcount is NOT
// touched; callers adjust counts per slot-write discipline.
func boxed(obj *HeapObject) Value {
	return Value{kind: KindBoxed, obj: obj}
}

// Accessors

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// AsInt returns the int payload. Valid for KindInt and KindBool.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns the float payload for KindFloat.
func (v Value) AsFloat() float64 { return v.f }

// AsBool returns the bool payload for KindBool.
func (v Value) AsBool() bool { return v.i != 0 }

// FuncIndex returns the function table index for KindFuncRef.
func (v Value) FuncIndex() int { return int(v.i) }

// PrevBottom returns the saved caller bottom for KindNestRecord.
func (v Value) PrevBottom() int { return int(v.i) }

// ErrorPayload returns the payload for KindError, or nil.
func (v Value) ErrorPayload() *ErrorPayload { return v.errp }

// Obj returns the heap object for KindBoxed, or nil.
func (v Value) Obj() *HeapObject { return v.obj }

// num widens a numeric value to float64.
func (v Value) num() float64 {
	if v.kind == KindFloat {
		return v.f
	}
	return float64(v.i)
}

// IsStr reports whether v is a string of any representation.
func (v Value) IsStr() bool {
	switch v.kind {
	case KindShortStr, KindPreallocStr:
		return true
	case KindBoxed:
		return v.obj.kind == ObjString
	}
	return false
}

// StrRunes returns the codepoint sequence of a string value. The
// returned slice must not be mutated.
func (v Value) StrRunes() []rune {
	switch v.kind {
	case KindShortStr:
		return v.short[:v.shortLen]
	case KindPreallocStr:
		return v.prealloc
	case KindBoxed:
		if v.obj.kind == ObjString {
			return v.obj.str.cps
		}
	}
	return nil
}

// addRef increments the external refcount if v is boxed, else no-op.
func addRef(v *Value) {
	if v.kind == KindBoxed && v.obj != nil {
		v.obj.externalRefs++
	}
}

// valuesEqual implements the equality opcode's semantics: variants
// compare unequal except int/float (numeric equality) and the three
// string representations (codepoint sequence equality). Boxed lists
// compare element-wise, maps by identity.
func valuesEqual(a, b *Value) bool {
	if a.IsNumeric() && b.IsNumeric() {
		if a.kind == KindInt && b.kind == KindInt {
			return a.i == b.i
		}
		return a.num() == b.num()
	}
	if a.IsStr() && b.IsStr() {
		return runesEqual(a.StrRunes(), b.StrRunes())
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindBool:
		return a.i == b.i
	case KindNone:
		return true
	case KindFuncRef:
		return a.i == b.i
	case KindError:
		return a.errp == b.errp
	case KindBoxed:
		return boxedEqual(a.obj, b.obj, 0)
	}
	return false
}

const maxEqualDepth = 64

func boxedEqual(a, b *HeapObject, depth int) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.kind != b.kind {
		return false
	}
	if depth > maxEqualDepth {
		// deep self-similar structures compare by identity past this point
		return false
	}
	switch a.kind {
	case ObjString:
		return runesEqual(a.str.cps, b.str.cps)
	case ObjList:
		if a.list.Len() != b.list.Len() {
			return false
		}
		for i := range a.list.items {
			av, bv := &a.list.items[i], &b.list.items[i]
			if av.kind == KindBoxed && bv.kind == KindBoxed {
				if !boxedEqual(av.obj, bv.obj, depth+1) {
					return false
				}
				continue
			}
			if !valuesEqual(av, bv) {
				return false
			}
		}
		return true
	case ObjMap:
		// map values compare by identity (documented asymmetry)
		return false
	}
	return false
}

// keyEqual is the map-lookup equality: like valuesEqual but boxed
// non-string keys match only by identity, pairing with the identity
// hash hashValue gives them.
func keyEqual(a, b *Value) bool {
	if a.kind == KindBoxed && b.kind == KindBoxed && a.obj.kind != ObjString {
		return a.obj == b.obj
	}
	if a.IsNumeric() && b.IsNumeric() {
		return a.num() == b.num() && !(math.IsNaN(a.num()) || math.IsNaN(b.num()))
	}
	if a.IsStr() && b.IsStr() {
		return runesEqual(a.StrRunes(), b.StrRunes())
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindBool, KindFuncRef:
		return a.i == b.i
	case KindNone:
		return true
	case KindError:
		return a.errp == b.errp
	}
	return false
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
