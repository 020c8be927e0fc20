package vm

import (
	"encoding/binary"
	"math"

	"github.com/dchest/siphash"
)

// Fixed SipHash-2-4 key. Hashes only need to be stable within one
// program run; the map layout is never persisted.
const (
	hashKey0 uint64 = 0x7361626c65766d30
	hashKey1 uint64 = 0x686173686b657931
)

// Domain prefixes keep unrelated kinds from colliding by accident.
const (
	hashDomNumber byte = 1
	hashDomBool   byte = 2
	hashDomNone   byte = 3
	hashDomString byte = 4
	hashDomIdent  byte = 5
	hashDomFunc   byte = 6
	hashDomError  byte = 7
)

// hashValue computes the map hash of v. Strings of any representation
// hash by codepoint sequence; int and float hash to the same value iff
// numerically equal, so {1: x} and {1.0: x} collide; all other boxed
// objects hash by identity. Boxed string hashes are cached.
func hashValue(v *Value) uint64 {
	switch v.kind {
	case KindInt:
		return hashNumberInt(v.i)
	case KindFloat:
		f := v.f
		if i := int64(f); float64(i) == f {
			return hashNumberInt(i)
		}
		return hash9(hashDomNumber, math.Float64bits(f))
	case KindBool:
		return hash9(hashDomBool, uint64(v.i))
	case KindNone:
		return hash9(hashDomNone, 0)
	case KindFuncRef:
		return hash9(hashDomFunc, uint64(v.i))
	case KindError:
		return hashError(v.errp)
	case KindShortStr:
		return hashRunes(v.short[:v.shortLen])
	case KindPreallocStr:
		return hashRunes(v.prealloc)
	case KindBoxed:
		o := v.obj
		if o.kind == ObjString {
			if !o.hashKnown {
				o.hash = hashRunes(o.str.cps)
				o.hashKnown = true
			}
			return o.hash
		}
		if !o.hashKnown {
			o.hash = hash9(hashDomIdent, o.id)
			o.hashKnown = true
		}
		return o.hash
	}
	return 0
}

func hashNumberInt(i int64) uint64 {
	return hash9(hashDomNumber, uint64(i))
}

func hash9(dom byte, payload uint64) uint64 {
	var buf [9]byte
	buf[0] = dom
	binary.LittleEndian.PutUint64(buf[1:], payload)
	return siphash.Hash(hashKey0, hashKey1, buf[:])
}

func hashRunes(cps []rune) uint64 {
	buf := make([]byte, 1+len(cps)*4)
	buf[0] = hashDomString
	for i, cp := range cps {
		binary.LittleEndian.PutUint32(buf[1+i*4:], uint32(cp))
	}
	return siphash.Hash(hashKey0, hashKey1, buf)
}

func hashError(p *ErrorPayload) uint64 {
	if p == nil {
		return hash9(hashDomError, 0)
	}
	buf := make([]byte, 0, len(p.Message)+2)
	buf = append(buf, hashDomError, byte(p.Kind))
	buf = append(buf, p.Message...)
	return siphash.Hash(hashKey0, hashKey1, buf)
}
