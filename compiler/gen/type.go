package gen

import (
	"github.com/syssam/cdmgen/compiler/resolve"
)

// TypeKind is the shape of a type node.
type TypeKind uint8

// Type kinds.
const (
	KindRecord TypeKind = iota + 1
	KindEnum
	KindArray
	KindUnion
	KindPrimitive
	KindAlias
	// KindUnknown is the placeholder for unresolved references.
	KindUnknown
	// KindMap is an object whose members all share one value schema.
	KindMap
)

var typeKindNames = [...]string{
	KindRecord:    "record",
	KindEnum:      "enum",
	KindArray:     "array",
	KindUnion:     "union",
	KindPrimitive: "primitive",
	KindAlias:     "alias",
	KindUnknown:   "unknown",
	KindMap:       "map",
}

// String returns the kind name.
func (k TypeKind) String() string {
	if k > 0 && int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "invalid"
}

// Primitive is the value kind of a primitive type or an enum.
type Primitive uint8

// Primitive kinds.
const (
	PrimitiveAny Primitive = iota
	PrimitiveString
	PrimitiveInteger
	PrimitiveNumber
	PrimitiveBoolean
	PrimitiveNull
	// PrimitiveObject is an object without declared properties.
	PrimitiveObject
)

var primitiveNames = [...]string{
	PrimitiveAny:     "any",
	PrimitiveString:  "string",
	PrimitiveInteger: "integer",
	PrimitiveNumber:  "number",
	PrimitiveBoolean: "boolean",
	PrimitiveNull:    "null",
	PrimitiveObject:  "object",
}

// String returns the primitive name.
func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "invalid"
}

// Type is one node of the type graph. Named types have a non-empty Name and
// are owned by the Graph; inline types are owned by the TypeRef holding them.
type Type struct {
	// Name is the assigned name. Empty for inline types.
	Name string
	// Key is the schema node the type was built from.
	Key         resolve.Key
	Kind        TypeKind
	Description string
	// Nullable is set when the schema also admits null.
	Nullable bool

	// Fields of a record, in declaration order.
	Fields []*Field
	// Values of an enum, in declaration order without duplicates.
	Values []any
	// Elem is the element type of an array or the value type of a map.
	Elem *TypeRef
	// Branches of a union, in declaration order.
	Branches []*TypeRef
	// Composite is the keyword a union was built from:
	// "allOf", "anyOf", "oneOf" or "type".
	Composite string
	// Primitive is the value kind of a primitive or of an enum's values.
	// Mixed enums use PrimitiveAny.
	Primitive Primitive
	// Format is the "format" keyword of a primitive.
	Format string
	// Target is the aliased type.
	Target *TypeRef
	// Ref is the raw $ref of an unknown type.
	Ref string
}

// Field is a record field.
type Field struct {
	// Name is the property name as declared in the schema.
	Name        string
	Type        *TypeRef
	Required    bool
	Description string
}

// TypeRef links to a type. A reference to a named type carries its Name.
// Owning references also carry the Type; back references (Back == true)
// close a cycle and carry the Name only. Inline types have no Name.
type TypeRef struct {
	Name string
	Type *Type
	Back bool
}

// IsNamed reports whether the reference points at a named type.
func (r *TypeRef) IsNamed() bool { return r.Name != "" }

// IsRecord reports whether t is a record.
func (t *Type) IsRecord() bool { return t.Kind == KindRecord }

// IsEnum reports whether t is an enum.
func (t *Type) IsEnum() bool { return t.Kind == KindEnum }

// IsNamed reports whether t is a named type.
func (t *Type) IsNamed() bool { return t.Name != "" }

// Field returns the record field with the given property name, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Deps returns the names of the named types t refers to, directly or
// through inline types, in first-seen order.
func (t *Type) Deps() []string {
	var (
		deps []string
		seen = make(map[string]bool)
	)
	var walk func(*Type)
	visit := func(r *TypeRef) {
		switch {
		case r == nil:
		case r.IsNamed():
			if !seen[r.Name] {
				seen[r.Name] = true
				deps = append(deps, r.Name)
			}
		case r.Type != nil:
			walk(r.Type)
		}
	}
	walk = func(t *Type) {
		for _, f := range t.Fields {
			visit(f.Type)
		}
		visit(t.Elem)
		for _, b := range t.Branches {
			visit(b)
		}
		visit(t.Target)
	}
	walk(t)
	return deps
}

// sameRef reports whether two references describe the same type, for
// detecting conflicting fields when merging records.
func sameRef(a, b *TypeRef) bool {
	switch {
	case a == nil || b == nil:
		return a == b
	case a.IsNamed() || b.IsNamed():
		return a.Name == b.Name
	}
	x, y := a.Type, b.Type
	if x.Kind != y.Kind || x.Primitive != y.Primitive {
		return false
	}
	switch x.Kind {
	case KindArray, KindMap:
		return sameRef(x.Elem, y.Elem)
	case KindPrimitive, KindUnknown:
		return true
	}
	return x == y
}
