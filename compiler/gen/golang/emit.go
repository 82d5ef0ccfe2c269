package golang

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/cdmgen/compiler/gen"
)

const jsonPkg = "encoding/json"

// Methods declared on generated types. Field names never take them.
var (
	recordMethods = []string{"Validate"}
	unionMethods  = []string{"MarshalJSON", "UnmarshalJSON"}
)

// pending is an inline type waiting to be declared.
type pending struct {
	name string
	t    *gen.Type
}

// emitter declares one named type and the inline types it owns.
type emitter struct {
	helper    gen.GeneratorHelper
	graph     *gen.Graph
	f         *jen.File
	owner     string
	validator bool
	queue     []pending
}

func (e *emitter) declare(name string, t *gen.Type, summary string) {
	e.comment(summary, t.Description)
	switch t.Kind {
	case gen.KindRecord:
		e.record(name, t)
	case gen.KindEnum:
		e.enum(name, t)
	case gen.KindArray:
		e.f.Type().Id(name).Index().Add(e.typeOf(t.Elem, name+"_Item"))
	case gen.KindMap:
		e.f.Type().Id(name).Map(jen.String()).Add(e.typeOf(t.Elem, name+"_Value"))
	case gen.KindUnion:
		e.union(name, t)
	case gen.KindPrimitive:
		e.primitive(name, t)
	case gen.KindAlias:
		e.f.Type().Id(name).Op("=").Add(e.typeOf(t.Target, name+"_Target"))
	default:
		e.f.Type().Id(name).Op("=").Qual(jsonPkg, "RawMessage")
	}
	e.f.Line()
}

func (e *emitter) comment(summary, desc string) {
	e.f.Comment(summary)
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return
	}
	e.f.Comment("")
	for _, line := range strings.Split(desc, "\n") {
		e.f.Comment(strings.TrimRight(line, " \t\r"))
	}
}

// typeOf returns the Go type of r. Inline records, enums and unions are
// queued for declaration under the hoist name.
func (e *emitter) typeOf(r *gen.TypeRef, hoist string) jen.Code {
	switch {
	case r == nil:
		return jen.Id("any")
	case r.IsNamed():
		return jen.Id(r.Name)
	}
	t := r.Type
	switch t.Kind {
	case gen.KindPrimitive:
		return primitiveType(t.Primitive)
	case gen.KindArray:
		return jen.Index().Add(e.typeOf(t.Elem, hoist+"_Item"))
	case gen.KindMap:
		return jen.Map(jen.String()).Add(e.typeOf(t.Elem, hoist+"_Value"))
	case gen.KindAlias:
		return e.typeOf(t.Target, hoist)
	case gen.KindUnknown:
		return jen.Qual(jsonPkg, "RawMessage")
	case gen.KindEnum:
		if len(t.Values) == 0 {
			return jen.Id("any")
		}
	}
	e.queue = append(e.queue, pending{name: hoist, t: t})
	return jen.Id(hoist)
}

func primitiveType(p gen.Primitive) jen.Code {
	switch p {
	case gen.PrimitiveString:
		return jen.String()
	case gen.PrimitiveInteger:
		return jen.Int64()
	case gen.PrimitiveNumber:
		return jen.Float64()
	case gen.PrimitiveBoolean:
		return jen.Bool()
	case gen.PrimitiveObject:
		return jen.Map(jen.String()).Id("any")
	}
	return jen.Id("any")
}

// target follows aliases from r. Nullable is set if any step admits null.
func (e *emitter) target(r *gen.TypeRef) (t *gen.Type, nullable bool) {
	for i := 0; r != nil && i < 64; i++ {
		t = r.Type
		if r.IsNamed() {
			if nt := e.graph.Type(r.Name); nt != nil {
				t = nt
			}
		}
		if t == nil {
			return nil, nullable
		}
		nullable = nullable || t.Nullable
		if t.Kind != gen.KindAlias {
			return t, nullable
		}
		r = t.Target
	}
	return t, nullable
}

// nilable reports whether the Go type of t already admits nil.
func nilable(t *gen.Type) bool {
	if t == nil {
		return true
	}
	switch t.Kind {
	case gen.KindArray, gen.KindMap, gen.KindUnknown:
		return true
	case gen.KindPrimitive:
		return t.Primitive == gen.PrimitiveAny || t.Primitive == gen.PrimitiveNull || t.Primitive == gen.PrimitiveObject
	case gen.KindEnum:
		return len(t.Values) == 0 || t.Primitive == gen.PrimitiveAny
	}
	return false
}

// validEnum reports whether t has an IsValid method.
func validEnum(t *gen.Type) bool {
	return t != nil && t.Kind == gen.KindEnum && len(t.Values) > 0 && t.Primitive != gen.PrimitiveAny
}

// field is a generated struct field.
type field struct {
	id       string
	prop     string
	required bool
	ptr      bool
	nilable  bool
	enum     bool
}

func (e *emitter) record(name string, t *gen.Type) {
	var (
		names  = gen.NewNamer(recordMethods...)
		codes  = make([]jen.Code, 0, len(t.Fields))
		fields = make([]field, 0, len(t.Fields))
	)
	for _, f := range t.Fields {
		id := names.Name(gen.Identifier(f.Name, "Field"))
		typ := e.typeOf(f.Type, name+"_"+id)
		tt, nullable := e.target(f.Type)
		fd := field{
			id:       id,
			prop:     f.Name,
			required: f.Required,
			nilable:  nilable(tt),
			enum:     validEnum(tt),
		}
		switch {
		case fd.nilable:
		case !f.Required || nullable:
			fd.ptr = true
		case f.Type.IsNamed() && e.helper.Cyclic(e.owner, f.Type.Name):
			fd.ptr = true
		}
		tag := f.Name
		if !f.Required {
			tag += ",omitempty"
		}
		if desc := firstLine(f.Description); desc != "" {
			codes = append(codes, jen.Comment(desc))
		}
		code := jen.Id(id)
		if fd.ptr {
			code = code.Op("*")
		}
		codes = append(codes, code.Add(typ).Tag(map[string]string{"json": tag}))
		fields = append(fields, fd)
	}
	e.f.Type().Id(name).Struct(codes...)
	if e.validator {
		e.validate(name, fields)
	}
}

func (e *emitter) validate(name string, fields []field) {
	e.f.Line()
	e.f.Comment("Validate checks that required fields are set and that enum fields hold declared values.")
	e.f.Func().Params(jen.Id("v").Op("*").Id(name)).Id("Validate").Params().Error().BlockFunc(func(g *jen.Group) {
		for _, fd := range fields {
			if fd.required && (fd.ptr || fd.nilable) {
				g.If(jen.Id("v").Dot(fd.id).Op("==").Nil()).Block(
					jen.Return(jen.Qual("errors", "New").Call(jen.Lit(fmt.Sprintf("%s: missing required field %q", name, fd.prop)))),
				)
			}
			if !fd.enum {
				continue
			}
			msg := jen.Lit(fmt.Sprintf("%s: invalid value %%v for field %q", name, fd.prop))
			if fd.ptr {
				g.If(jen.Id("v").Dot(fd.id).Op("!=").Nil().Op("&&").Op("!").Id("v").Dot(fd.id).Dot("IsValid").Call()).Block(
					jen.Return(jen.Qual("fmt", "Errorf").Call(msg, jen.Op("*").Id("v").Dot(fd.id))),
				)
				continue
			}
			g.If(jen.Op("!").Id("v").Dot(fd.id).Dot("IsValid").Call()).Block(
				jen.Return(jen.Qual("fmt", "Errorf").Call(msg, jen.Id("v").Dot(fd.id))),
			)
		}
		g.Return(jen.Nil())
	})
}

func (e *emitter) enum(name string, t *gen.Type) {
	if len(t.Values) == 0 {
		e.f.Type().Id(name).Op("=").Id("any")
		return
	}
	if t.Primitive == gen.PrimitiveAny {
		e.f.Type().Id(name).Id("any")
		e.f.Line()
		e.f.Commentf("%s_Values lists the declared values of %s.", name, name)
		e.f.Var().Id(name + "_Values").Op("=").Index().Id(name).ValuesFunc(func(g *jen.Group) {
			for _, v := range t.Values {
				g.Add(literal(v, true))
			}
		})
		return
	}
	e.f.Type().Id(name).Add(primitiveType(t.Primitive))
	e.f.Line()
	var (
		names = gen.NewNamer()
		ids   []jen.Code
		defs  []jen.Code
		seen  = make(map[any]bool)
	)
	for i, v := range t.Values {
		if t.Primitive == gen.PrimitiveNumber {
			if n, ok := v.(int64); ok {
				v = float64(n)
			}
			if seen[v] {
				continue
			}
			seen[v] = true
		}
		lit := gen.LiteralName(v)
		if lit == "" {
			lit = fmt.Sprintf("Value%d", i)
		}
		id := names.Name(name + "_" + lit)
		ids = append(ids, jen.Id(id))
		defs = append(defs, jen.Id(id).Id(name).Op("=").Add(literal(v, false)))
	}
	e.f.Const().Defs(defs...)
	e.f.Line()
	e.f.Commentf("Values returns the declared values of %s.", name)
	e.f.Func().Params(jen.Id(name)).Id("Values").Params().Index().Id(name).Block(
		jen.Return(jen.Index().Id(name).Values(ids...)),
	)
	if !e.validator {
		return
	}
	e.f.Line()
	e.f.Commentf("IsValid reports whether e is a declared value of %s.", name)
	e.f.Func().Params(jen.Id("e").Id(name)).Id("IsValid").Params().Bool().Block(
		jen.Switch(jen.Id("e")).Block(
			jen.Case(ids...).Block(jen.Return(jen.True())),
		),
		jen.Return(jen.False()),
	)
}

// literal renders an enum value. Mixed enums hold JSON numbers as float64,
// the type encoding/json decodes them into, and arrays and objects as the
// []any and map[string]any it produces.
func literal(v any, mixed bool) jen.Code {
	switch v := v.(type) {
	case int64:
		if mixed {
			return jen.Lit(float64(v))
		}
		return jen.Lit(int(v))
	case float64, string, bool:
		return jen.Lit(v)
	case []any:
		return jen.Index().Id("any").ValuesFunc(func(g *jen.Group) {
			for _, it := range v {
				g.Add(literal(it, true))
			}
		})
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return jen.Map(jen.String()).Id("any").Values(jen.DictFunc(func(d jen.Dict) {
			for _, k := range keys {
				d[jen.Lit(k)] = literal(v[k], true)
			}
		}))
	}
	return jen.Nil()
}

func (e *emitter) primitive(name string, t *gen.Type) {
	switch t.Primitive {
	case gen.PrimitiveAny, gen.PrimitiveNull:
		e.f.Type().Id(name).Op("=").Id("any")
	default:
		e.f.Type().Id(name).Add(primitiveType(t.Primitive))
	}
}

// branch is a generated union member. A branch that reenters its union is
// encoded by MarshalJSON but never tried by UnmarshalJSON.
type branch struct {
	id       string
	typ      jen.Code
	reenters bool
}

func (e *emitter) union(name string, t *gen.Type) {
	var (
		names    = gen.NewNamer(unionMethods...)
		branches []branch
	)
	for i, r := range t.Branches {
		if bt, _ := e.target(r); !r.IsNamed() && bt != nil && bt.Kind == gen.KindPrimitive && bt.Primitive == gen.PrimitiveNull {
			continue
		}
		id := names.Name(e.branchName(r, i))
		branches = append(branches, branch{
			id:       id,
			typ:      e.typeOf(r, name+"_"+id),
			reenters: e.reenters(r, name, make(map[string]bool)),
		})
	}
	e.f.Type().Id(name).StructFunc(func(g *jen.Group) {
		for _, b := range branches {
			g.Id(b.id).Op("*").Add(b.typ)
		}
	})
	e.f.Line()
	e.f.Comment("MarshalJSON encodes the first branch that is set.")
	e.f.Func().Params(jen.Id("u").Id(name)).Id("MarshalJSON").Params().Params(jen.Index().Byte(), jen.Error()).BlockFunc(func(g *jen.Group) {
		for _, b := range branches {
			g.If(jen.Id("u").Dot(b.id).Op("!=").Nil()).Block(
				jen.Return(jen.Qual(jsonPkg, "Marshal").Call(jen.Id("u").Dot(b.id))),
			)
		}
		g.Return(jen.Index().Byte().Call(jen.Lit("null")), jen.Nil())
	})
	e.f.Line()
	e.f.Comment("UnmarshalJSON decodes data into the first branch that accepts it.")
	e.f.Func().Params(jen.Id("u").Op("*").Id(name)).Id("UnmarshalJSON").Params(jen.Id("data").Index().Byte()).Error().BlockFunc(func(g *jen.Group) {
		g.Op("*").Id("u").Op("=").Id(name).Values()
		g.If(jen.Qual("bytes", "Equal").Call(jen.Qual("bytes", "TrimSpace").Call(jen.Id("data")), jen.Index().Byte().Call(jen.Lit("null")))).Block(
			jen.Return(jen.Nil()),
		)
		for _, b := range branches {
			if b.reenters {
				continue
			}
			g.Block(
				jen.Var().Id("v").Add(b.typ),
				jen.If(jen.Err().Op(":=").Qual(jsonPkg, "Unmarshal").Call(jen.Id("data"), jen.Op("&").Id("v")), jen.Err().Op("==").Nil()).Block(
					jen.Id("u").Dot(b.id).Op("=").Op("&").Id("v"),
					jen.Return(jen.Nil()),
				),
			)
		}
		g.Return(jen.Qual("errors", "New").Call(jen.Lit(name + ": value matches no branch")))
	})
}

// reenters reports whether decoding into r reaches the union name again
// without consuming any structure, through aliases and other unions.
func (e *emitter) reenters(r *gen.TypeRef, name string, seen map[string]bool) bool {
	if r == nil {
		return false
	}
	t := r.Type
	if r.IsNamed() {
		if r.Name == name {
			return true
		}
		if seen[r.Name] {
			return false
		}
		seen[r.Name] = true
		t = e.graph.Type(r.Name)
	}
	if t == nil {
		return false
	}
	switch t.Kind {
	case gen.KindAlias:
		return e.reenters(t.Target, name, seen)
	case gen.KindUnion:
		for _, b := range t.Branches {
			if e.reenters(b, name, seen) {
				return true
			}
		}
	}
	return false
}

// branchName names a union member after its type.
func (e *emitter) branchName(r *gen.TypeRef, i int) string {
	if r.IsNamed() {
		return r.Name
	}
	t := r.Type
	switch t.Kind {
	case gen.KindPrimitive:
		return gen.Pascal(t.Primitive.String())
	case gen.KindArray:
		return "Array"
	case gen.KindMap:
		return "Map"
	case gen.KindUnknown:
		return "Raw"
	case gen.KindAlias:
		if t.Target != nil && t.Target.IsNamed() {
			return t.Target.Name
		}
	}
	return fmt.Sprintf("Option%d", i+1)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
