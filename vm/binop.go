package vm

import "math"

// execBinOp is the binary-operator core. When the destination aliases
// a source slot the result is built in a stack-allocated temporary
// and copied in only at the end, after releasing the destination's
// prior value; otherwise the destination is pre-released and written
// in place. Without the temporary, x = x + y would free its own
// operand mid-operation.
func execBinOp(t *Thread, in Instr) stepStatus {
	i := in.(BinOp)

	copyAtEnd := false
	var tmpBuf Value
	tmp := t.slot(i.To)
	if i.To == i.Arg1 || i.To == i.Arg2 {
		copyAtEnd = true
		tmp = &tmpBuf
	} else {
		t.pool.releaseValue(tmp)
	}

	v1 := t.slot(i.Arg1)
	v2 := t.slot(i.Arg2)

	invalidTypes := true
	divisionByZero := false

	switch i.Op {
	case BinOpAdd:
		if v1.IsNumeric() && v2.IsNumeric() {
			invalidTypes = false
			if v1.kind == KindFloat || v2.kind == KindFloat {
				*tmp = Float(v1.num() + v2.num())
			} else {
				*tmp = Int(v1.i + v2.i)
			}
		} else if v1.IsStr() && v2.IsStr() {
			invalidTypes = false
			v, ok := concatStrings(t.pool, v1.StrRunes(), v2.StrRunes())
			if !ok {
				return t.raiseOOM()
			}
			*tmp = v
		}

	case BinOpSubtract:
		if v1.IsNumeric() && v2.IsNumeric() {
			invalidTypes = false
			if v1.kind == KindFloat || v2.kind == KindFloat {
				*tmp = Float(v1.num() - v2.num())
			} else {
				*tmp = Int(v1.i - v2.i)
			}
		}

	case BinOpMultiply:
		if v1.IsNumeric() && v2.IsNumeric() {
			invalidTypes = false
			if v1.kind == KindFloat || v2.kind == KindFloat {
				*tmp = Float(v1.num() * v2.num())
			} else {
				*tmp = Int(v1.i * v2.i)
			}
		}

	case BinOpDivide:
		if v1.IsNumeric() && v2.IsNumeric() {
			invalidTypes = false
			if v1.kind == KindFloat || v2.kind == KindFloat {
				n1, n2 := v1.num(), v2.num()
				r := n1 / n2
				*tmp = Float(r)
				if math.IsNaN(r) || n2 == 0 {
					divisionByZero = true
				}
			} else if v2.i == 0 {
				divisionByZero = true
			} else {
				*tmp = Int(v1.i / v2.i)
			}
		}

	case BinOpModulo:
		if v1.IsNumeric() && v2.IsNumeric() {
			invalidTypes = false
			if v1.kind == KindFloat || v2.kind == KindFloat {
				n1, n2 := v1.num(), v2.num()
				// result carries the divisor's sign (mathematical
				// modulo, not fmod)
				r := math.Mod(n1, n2)
				if r != 0 && (r < 0) != (n2 < 0) {
					r += n2
				}
				*tmp = Float(r)
				if math.IsNaN(r) || n2 == 0 {
					divisionByZero = true
				}
			} else if v2.i == 0 {
				divisionByZero = true
			} else {
				r := v1.i % v2.i
				if r != 0 && (r < 0) != (v2.i < 0) {
					r += v2.i
				}
				*tmp = Int(r)
			}
		}

	case BinOpEqual:
		invalidTypes = false
		*tmp = Bool(valuesEqual(v1, v2))

	case BinOpNotEqual:
		t.fatalf("binop notequal not implemented")

	case BinOpLargerOrEqual:
		if v1.IsNumeric() && v2.IsNumeric() {
			invalidTypes = false
			*tmp = Bool(compareNum(v1, v2) >= 0)
		}

	case BinOpSmallerOrEqual:
		if v1.IsNumeric() && v2.IsNumeric() {
			invalidTypes = false
			*tmp = Bool(compareNum(v1, v2) <= 0)
		}

	case BinOpLarger:
		if v1.IsNumeric() && v2.IsNumeric() {
			invalidTypes = false
			*tmp = Bool(compareNum(v1, v2) > 0)
		}

	case BinOpSmaller:
		if v1.IsNumeric() && v2.IsNumeric() {
			invalidTypes = false
			*tmp = Bool(compareNum(v1, v2) < 0)
		}

	case BinOpBoolAnd:
		b1, ok := condValue(v1)
		if !ok {
			return t.raise(TypeError, "this value type cannot be evaluated as conditional")
		}
		invalidTypes = false
		if !b1 {
			*tmp = Bool(false)
		} else {
			b2, ok := condValue(v2)
			if !ok {
				return t.raise(TypeError, "this value type cannot be evaluated as conditional")
			}
			*tmp = Bool(b2)
		}

	case BinOpBoolOr:
		b1, ok := condValue(v1)
		if !ok {
			return t.raise(TypeError, "this value type cannot be evaluated as conditional")
		}
		invalidTypes = false
		if b1 {
			*tmp = Bool(true)
		} else {
			b2, ok := condValue(v2)
			if !ok {
				return t.raise(TypeError, "this value type cannot be evaluated as conditional")
			}
			*tmp = Bool(b2)
		}

	case BinOpIndexByExpr:
		return t.execIndexByExpr(i, tmp, copyAtEnd, v1, v2)

	default:
		t.fatalf("binop %d missing in handler table", i.Op)
	}

	if invalidTypes {
		return t.raise(TypeError, "cannot apply %s operator to given types", i.Op)
	}
	if divisionByZero {
		return t.raise(MathError, "division by zero")
	}

	if copyAtEnd {
		dst := t.slot(i.To)
		t.pool.releaseValue(dst)
		*dst = *tmp
	}
	t.pc++
	return stepNext
}

// compareNum orders two numeric values, promoting mixed int/float to
// float.
func compareNum(a, b *Value) int {
	if a.kind == KindInt && b.kind == KindInt {
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		}
		return 0
	}
	x, y := a.num(), b.num()
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// execIndexByExpr implements container and string indexing. Lists and
// strings index 1-based by a numeric value (floats round to nearest);
// maps accept any key.
func (t *Thread) execIndexByExpr(i BinOp, tmp *Value, copyAtEnd bool, v1, v2 *Value) stepStatus {
	isMap := v1.kind == KindBoxed && v1.obj.kind == ObjMap

	var indexBy int64
	if !isMap {
		if !v2.IsNumeric() {
			return t.raise(TypeError, "this value must be indexed with a number")
		}
		if v2.kind == KindInt {
			indexBy = v2.i
		} else {
			indexBy = int64(math.Round(v2.f))
		}
	}

	switch {
	case v1.kind == KindBoxed && v1.obj.kind == ObjList:
		v := v1.obj.list.Get(indexBy)
		if v == nil {
			return t.raise(IndexError, "index %d is out of range", indexBy)
		}
		*tmp = *v
		addRef(tmp)

	case isMap:
		v, ok := v1.obj.m.Get(v2)
		if !ok {
			return t.raise(IndexError, "key not found in map")
		}
		*tmp = v
		addRef(tmp)

	case v1.IsStr():
		s := v1.StrRunes()
		letters := strLetterLen(v1)
		if indexBy < 1 || indexBy > letters {
			return t.raise(IndexError, "index %d is out of range", indexBy)
		}
		for indexBy > 1 {
			s = s[firstLetter(s):]
			indexBy--
		}
		v, ok := newStringValue(t.pool, s[:firstLetter(s)])
		if !ok {
			return t.raise(OutOfMemoryError, "alloc failure creating result string")
		}
		*tmp = v

	default:
		return t.raise(TypeError, "given value cannot be indexed")
	}

	if copyAtEnd {
		dst := t.slot(i.To)
		t.pool.releaseValue(dst)
		*dst = *tmp
	}
	t.pc++
	return stepNext
}
