package vm

import "github.com/wippyai/sable-runtime/utf32"

// newStringValue builds a string value from cps: inline short-string
// when it fits, otherwise a boxed string born with external refcount
// 1. Returns ok=false on pool exhaustion; the partially reserved
// shell is returned to the pool before reporting failure.
func newStringValue(p *Pool, cps []rune) (Value, bool) {
	if len(cps) <= ShortStrCap {
		return ShortStr(cps), true
	}
	o := p.Alloc(classString)
	if o == nil {
		return Value{}, false
	}
	buf, ok := p.allocRunes(len(cps))
	if !ok {
		p.Free(o)
		return Value{}, false
	}
	copy(buf, cps)
	o.str.cps = buf
	o.externalRefs = 1
	return boxed(o), true
}

// concatStrings builds s1+s2 without materializing an intermediate
// slice for the short-string case.
func concatStrings(p *Pool, s1, s2 []rune) (Value, bool) {
	if len(s1)+len(s2) <= ShortStrCap {
		v := Value{kind: KindShortStr, shortLen: uint8(len(s1) + len(s2))}
		copy(v.short[:], s1)
		copy(v.short[len(s1):], s2)
		return v, true
	}
	o := p.Alloc(classString)
	if o == nil {
		return Value{}, false
	}
	buf, ok := p.allocRunes(len(s1) + len(s2))
	if !ok {
		p.Free(o)
		return Value{}, false
	}
	copy(buf, s1)
	copy(buf[len(s1):], s2)
	o.str.cps = buf
	o.externalRefs = 1
	return boxed(o), true
}

// firstLetter returns the codepoint length of the first letter of cps.
func firstLetter(cps []rune) int {
	return utf32.FirstLetterLen(cps)
}

// strLetterLen returns the letter count of any string value, using
// the cached count for boxed strings and recomputing for inline and
// prealloc ones (both are cheap or bounded).
func strLetterLen(v *Value) int64 {
	if v.kind == KindBoxed && v.obj.kind == ObjString {
		return v.obj.letterLen()
	}
	return int64(utf32.LetterLen(v.StrRunes()))
}
