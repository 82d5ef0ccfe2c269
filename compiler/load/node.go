package load

import (
	"fmt"
	"strconv"
	"strings"
)

// schemaError reports a structurally invalid keyword inside a document.
type schemaError struct {
	Pointer string
	Message string
}

func (e *schemaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pointer, e.Message)
}

// newNode converts a decoded JSON value into a schema node. ptr is the JSON
// pointer of v in fragment form and is used for error messages only.
func newNode(v *value, ptr string) (*Node, error) {
	switch v.kind {
	case valueBool:
		b := v.b
		return &Node{Kind: KindAny, Bool: &b}, nil
	case valueObject:
	default:
		return nil, &schemaError{Pointer: ptr, Message: "schema must be an object or a boolean, got " + v.typeName()}
	}
	n := &Node{}
	for _, m := range v.members {
		var err error
		switch m.key {
		case "type":
			n.Types, err = stringList(m.val, ptr+"/type")
		case "title":
			n.Title = stringOf(m.val)
		case "description":
			n.Description = stringOf(m.val)
		case "format":
			n.Format = stringOf(m.val)
		case "$ref":
			if m.val.kind != valueString {
				return nil, &schemaError{Pointer: ptr + "/$ref", Message: "$ref must be a string"}
			}
			if n.Ref == "" {
				n.Ref = m.val.str
			}
		case "required":
			// Draft 3 used a boolean "required" on the property itself.
			if m.val.kind == valueArray {
				n.Required, err = stringList(m.val, ptr+"/required")
			}
		case "enum":
			if m.val.kind != valueArray {
				return nil, &schemaError{Pointer: ptr + "/enum", Message: "enum must be an array"}
			}
			for _, it := range m.val.items {
				n.Enum = append(n.Enum, it.literal())
			}
		case "properties", "definitions", "$defs":
			var props []*Property
			props, err = properties(m.key, m.val, ptr)
			if m.key == "properties" {
				n.Properties = append(n.Properties, props...)
			} else {
				n.Definitions = append(n.Definitions, props...)
			}
		case "items":
			switch m.val.kind {
			case valueArray:
				for i, it := range m.val.items {
					child, cerr := newNode(it, ptr+"/items/"+strconv.Itoa(i))
					if cerr != nil {
						return nil, cerr
					}
					n.TupleItems = append(n.TupleItems, child)
				}
			default:
				if n.Items == nil {
					n.Items, err = newNode(m.val, ptr+"/items")
				}
			}
		case "allOf":
			n.AllOf, err = branches(m.val, ptr+"/allOf")
		case "anyOf":
			n.AnyOf, err = branches(m.val, ptr+"/anyOf")
		case "oneOf":
			n.OneOf, err = branches(m.val, ptr+"/oneOf")
		case "additionalProperties":
			if m.val.kind == valueObject {
				n.AdditionalProperties, err = newNode(m.val, ptr+"/additionalProperties")
			}
		default:
			if p := unknownMember(m, ptr); p != nil {
				n.Members = append(n.Members, p)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	n.Kind = inferKind(n)
	return n, nil
}

// literalKeywords hold JSON values rather than schemas.
var literalKeywords = map[string]bool{
	"default": true, "const": true, "examples": true, "enum": true,
}

// unknownMember keeps an object valued member the loader has no keyword for, so
// that $refs pointing into it, or made from inside it, stay addressable.
// Members that do not parse as a schema are not schemas and are skipped.
func unknownMember(m member, ptr string) *Property {
	if m.val.kind != valueObject || literalKeywords[m.key] {
		return nil
	}
	child, err := newNode(m.val, ptr+"/"+escapeToken(m.key))
	if err != nil {
		return nil
	}
	return &Property{Name: m.key, Schema: child}
}

func inferKind(n *Node) Kind {
	switch {
	case n.Ref != "":
		return KindRef
	case n.IsComposite(), len(n.Types) > 1:
		return KindComposite
	case len(n.Types) == 1:
		if k, ok := kindOf(n.Types[0]); ok {
			return k
		}
		return KindAny
	case len(n.Properties) > 0, n.AdditionalProperties != nil:
		return KindObject
	case n.Items != nil, len(n.TupleItems) > 0:
		return KindArray
	case len(n.Enum) > 0:
		return enumKind(n.Enum)
	}
	return KindAny
}

// enumKind infers the kind of an untyped enum from its literals.
func enumKind(values []any) Kind {
	kind := KindAny
	for _, v := range values {
		var k Kind
		switch v.(type) {
		case string:
			k = KindString
		case int64:
			k = KindInteger
		case float64:
			k = KindNumber
		case bool:
			k = KindBoolean
		case nil:
			continue
		default:
			return KindAny
		}
		switch {
		case kind == KindAny:
			kind = k
		case kind == KindInteger && k == KindNumber, kind == KindNumber && k == KindInteger:
			kind = KindNumber
		case kind != k:
			return KindAny
		}
	}
	return kind
}

func properties(keyword string, v *value, ptr string) ([]*Property, error) {
	if v.kind != valueObject {
		return nil, &schemaError{Pointer: ptr + "/" + keyword, Message: keyword + " must be an object"}
	}
	props := make([]*Property, 0, len(v.members))
	for _, m := range v.members {
		child, err := newNode(m.val, ptr+"/"+keyword+"/"+escapeToken(m.key))
		if err != nil {
			return nil, err
		}
		props = append(props, &Property{Keyword: keyword, Name: m.key, Schema: child})
	}
	return props, nil
}

func branches(v *value, ptr string) ([]*Node, error) {
	if v.kind != valueArray {
		return nil, &schemaError{Pointer: ptr, Message: "must be an array of schemas"}
	}
	nodes := make([]*Node, 0, len(v.items))
	for i, it := range v.items {
		child, err := newNode(it, ptr+"/"+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, child)
	}
	return nodes, nil
}

func stringList(v *value, ptr string) ([]string, error) {
	switch v.kind {
	case valueString:
		return []string{v.str}, nil
	case valueArray:
		out := make([]string, 0, len(v.items))
		for _, it := range v.items {
			if it.kind != valueString {
				return nil, &schemaError{Pointer: ptr, Message: "must contain only strings"}
			}
			out = append(out, it.str)
		}
		return out, nil
	}
	return nil, &schemaError{Pointer: ptr, Message: "must be a string or an array of strings"}
}

func stringOf(v *value) string {
	if v.kind == valueString {
		return v.str
	}
	return ""
}

// escapeToken escapes a JSON pointer reference token (RFC 6901).
func escapeToken(s string) string {
	if !strings.ContainsAny(s, "~/") {
		return s
	}
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}
