package vm

import (
	"go.uber.org/multierr"

	"github.com/wippyai/sable-runtime/errors"
)

// sizeClass selects which payload an allocated shell carries.
type sizeClass uint8

const (
	classString sizeClass = iota
	classList
	classMap
	numSizeClasses
)

const poolSlabSize = 64

// Pool is a size-class free-list allocator for heap objects. Each
// class keeps an intrusive free list backed by slabs grown on demand.
// Alloc and Free are O(1). A pool belongs to exactly one thread.
//
// Limits make allocation failure real: when the object count or the
// codepoint budget is exhausted, Alloc/allocRunes report failure and
// the interpreter raises out-of-memory.
type Pool struct {
	free  [numSizeClasses]*HeapObject
	slabs [][]HeapObject

	maxObjects int // 0 = unlimited
	live       int

	runeBudget int64 // 0 = unlimited
	runesLive  int64

	nextID uint64
}

// NewPool creates an unlimited pool.
func NewPool() *Pool {
	return &Pool{}
}

// NewPoolWithLimits creates a pool that fails allocation beyond
// maxObjects live objects or runeBudget live string codepoints.
// Zero means unlimited for either.
func NewPoolWithLimits(maxObjects int, runeBudget int64) *Pool {
	return &Pool{maxObjects: maxObjects, runeBudget: runeBudget}
}

// Alloc returns a zeroed object shell of the given class, or nil if
// the object budget is exhausted.
func (p *Pool) Alloc(class sizeClass) *HeapObject {
	if p.maxObjects > 0 && p.live >= p.maxObjects {
		return nil
	}
	o := p.free[class]
	if o == nil {
		p.grow(class)
		o = p.free[class]
	}
	p.free[class] = o.poolNext
	o.poolNext = nil

	p.live++
	p.nextID++
	o.id = p.nextID
	o.sizeClass = class
	o.externalRefs = 0
	o.internalRefs = 0
	o.hash = 0
	o.hashKnown = false

	switch class {
	case classString:
		o.kind = ObjString
		o.str = strPayload{letterLen: -1}
	case classList:
		o.kind = ObjList
		if o.list == nil {
			o.list = &List{}
		}
	case classMap:
		o.kind = ObjMap
		if o.m == nil {
			o.m = newValueMap()
		}
	}
	return o
}

// Free returns an object shell to its class free list. The payload
// must already be released; Free does not touch child references.
func (p *Pool) Free(o *HeapObject) {
	class := o.sizeClass
	o.kind = ObjInvalid
	o.str = strPayload{}
	if o.list != nil {
		o.list.items = o.list.items[:0]
	}
	if o.m != nil {
		o.m.reset()
	}
	o.poolNext = p.free[class]
	p.free[class] = o
	p.live--
}

func (p *Pool) grow(class sizeClass) {
	slab := make([]HeapObject, poolSlabSize)
	p.slabs = append(p.slabs, slab)
	for i := range slab {
		slab[i].poolNext = p.free[class]
		p.free[class] = &slab[i]
	}
}

// allocRunes reserves a codepoint buffer against the rune budget.
func (p *Pool) allocRunes(n int) ([]rune, bool) {
	if p.runeBudget > 0 && p.runesLive+int64(n) > p.runeBudget {
		return nil, false
	}
	p.runesLive += int64(n)
	return make([]rune, n), true
}

// freeRunes releases a buffer reservation.
func (p *Pool) freeRunes(n int) {
	p.runesLive -= int64(n)
}

// Live returns the number of live heap objects.
func (p *Pool) Live() int { return p.live }

// LiveRunes returns the number of reserved string codepoints.
func (p *Pool) LiveRunes() int64 { return p.runesLive }

// Close verifies that no objects or buffers are still live. A leak is
// reported rather than silently reclaimed so refcount bugs surface.
func (p *Pool) Close() error {
	var err error
	if p.live != 0 {
		err = multierr.Append(err, errors.New(errors.PhaseAlloc, errors.KindAllocation).
			Detail("%d heap objects leaked", p.live).
			Build())
	}
	if p.runesLive != 0 {
		err = multierr.Append(err, errors.New(errors.PhaseAlloc, errors.KindAllocation).
			Detail("%d string codepoints leaked", p.runesLive).
			Build())
	}
	return err
}

// Reference management. Containers hold internal references to their
// children; stack and global slots hold external references.

// releaseValue drops v's external reference (if boxed), destroying the
// object when both counts reach zero, and resets the slot to invalid.
func (p *Pool) releaseValue(v *Value) {
	if v.kind == KindBoxed && v.obj != nil {
		o := v.obj
		o.externalRefs--
		if o.externalRefs <= 0 && o.internalRefs <= 0 {
			p.destroyObject(o)
		}
	}
	*v = Value{}
}

// addInternalRef takes an internal (heap-to-heap) reference.
func addInternalRef(v *Value) {
	if v.kind == KindBoxed && v.obj != nil {
		v.obj.internalRefs++
	}
}

// dropInternalRef releases an internal reference, destroying the
// object when both counts reach zero.
func (p *Pool) dropInternalRef(v *Value) {
	if v.kind == KindBoxed && v.obj != nil {
		o := v.obj
		o.internalRefs--
		if o.externalRefs <= 0 && o.internalRefs <= 0 {
			p.destroyObject(o)
		}
	}
}

// destroyObject releases the payload (dropping child references) and
// returns the shell to the pool.
func (p *Pool) destroyObject(o *HeapObject) {
	switch o.kind {
	case ObjString:
		p.freeRunes(len(o.str.cps))
	case ObjList:
		for i := range o.list.items {
			p.dropInternalRef(&o.list.items[i])
		}
		o.list.items = o.list.items[:0]
	case ObjMap:
		o.m.each(func(k, v *Value) {
			p.dropInternalRef(k)
			p.dropInternalRef(v)
		})
		o.m.reset()
	}
	p.Free(o)
}
