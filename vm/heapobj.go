package vm

import "github.com/wippyai/sable-runtime/utf32"

// ObjKind tags a heap object's payload.
type ObjKind uint8

const (
	ObjInvalid ObjKind = iota
	ObjString
	ObjList
	ObjMap
)

var objKindNames = [...]string{
	ObjInvalid: "invalid",
	ObjString:  "string",
	ObjList:    "list",
	ObjMap:     "map",
}

func (k ObjKind) String() string {
	if int(k) < len(objKindNames) {
		return objKindNames[k]
	}
	return "unknown"
}

// strPayload is the payload of a boxed string: an immutable codepoint
// buffer plus the lazily computed letter count.
type strPayload struct {
	cps       []rune
	letterLen int64 // -1 until computed
}

// HeapObject is a pool-allocated boxed value. externalRefs counts
// references from stack and global slots; internalRefs counts
// references from other heap objects. The object is destroyed when
// both reach zero.
type HeapObject struct {
	kind      ObjKind
	sizeClass sizeClass

	// id is a stable identity assigned at allocation, used for
	// identity hashing of non-string boxed map keys.
	id uint64

	externalRefs int64
	internalRefs int64

	hash      uint64
	hashKnown bool

	str  strPayload
	list *List
	m    *ValueMap

	poolNext *HeapObject
}

// Kind returns the object's payload kind.
func (o *HeapObject) Kind() ObjKind { return o.kind }

// ExternalRefs returns the current external refcount.
func (o *HeapObject) ExternalRefs() int64 { return o.externalRefs }

// InternalRefs returns the current internal refcount.
func (o *HeapObject) InternalRefs() int64 { return o.internalRefs }

// List returns the list payload, or nil for non-lists.
func (o *HeapObject) List() *List {
	if o.kind != ObjList {
		return nil
	}
	return o.list
}

// Map returns the map payload, or nil for non-maps.
func (o *HeapObject) Map() *ValueMap {
	if o.kind != ObjMap {
		return nil
	}
	return o.m
}

// letterLen returns the string's letter count, computing and caching
// it on first demand.
func (o *HeapObject) letterLen() int64 {
	if o.str.letterLen < 0 {
		o.str.letterLen = int64(utf32.LetterLen(o.str.cps))
	}
	return o.str.letterLen
}
