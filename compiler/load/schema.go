package load

import (
	"path"
	"strings"
)

// DocumentID identifies a schema document by its slash separated path
// relative to the schema root, e.g. "core/applicationCommon/Account.cdm.json".
type DocumentID string

// Dir returns the directory part of the id ("." for documents at the root).
func (id DocumentID) Dir() string { return path.Dir(string(id)) }

// Stem returns the file name without the schema suffix.
func (id DocumentID) Stem(suffix string) string {
	base := path.Base(string(id))
	if suffix != "" && strings.HasSuffix(base, suffix) && len(base) > len(suffix) {
		return strings.TrimSuffix(base, suffix)
	}
	if i := strings.IndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

// Kind describes the shape of a schema node.
type Kind uint8

// Node kinds.
const (
	KindAny Kind = iota
	KindObject
	KindArray
	KindString
	KindNumber
	KindInteger
	KindBoolean
	KindNull
	KindRef
	KindComposite
)

var kindNames = [...]string{
	KindAny:       "any",
	KindObject:    "object",
	KindArray:     "array",
	KindString:    "string",
	KindNumber:    "number",
	KindInteger:   "integer",
	KindBoolean:   "boolean",
	KindNull:      "null",
	KindRef:       "reference",
	KindComposite: "composite",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// kindOf maps a JSON Schema "type" keyword value to a Kind.
func kindOf(t string) (Kind, bool) {
	switch t {
	case "object":
		return KindObject, true
	case "array":
		return KindArray, true
	case "string":
		return KindString, true
	case "number":
		return KindNumber, true
	case "integer":
		return KindInteger, true
	case "boolean":
		return KindBoolean, true
	case "null":
		return KindNull, true
	}
	return KindAny, false
}

// Document is a parsed schema document.
type Document struct {
	ID   DocumentID `json:"id"`
	Path string     `json:"-"`
	Root *Node      `json:"root"`
	// raw holds the document bytes when metaschema validation is enabled.
	raw []byte
}

// Node is the raw representation of one JSON Schema construct.
// Nodes are immutable once returned by the loader.
type Node struct {
	Kind        Kind        `json:"kind"`
	Types       []string    `json:"type,omitempty"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	Format      string      `json:"format,omitempty"`
	Ref         string      `json:"$ref,omitempty"`
	Properties  []*Property `json:"properties,omitempty"`
	Required    []string    `json:"required,omitempty"`
	// Items holds the schema of "items". Tuple forms ("items": [...])
	// are kept in TupleItems and Items is nil.
	Items       *Node        `json:"items,omitempty"`
	TupleItems  []*Node      `json:"tuple_items,omitempty"`
	AllOf       []*Node      `json:"allOf,omitempty"`
	AnyOf       []*Node      `json:"anyOf,omitempty"`
	OneOf       []*Node      `json:"oneOf,omitempty"`
	Enum        []any        `json:"enum,omitempty"`
	Definitions []*Property  `json:"definitions,omitempty"`
	// AdditionalProperties holds the value schema of "additionalProperties"
	// when it is an object. Boolean forms are not kept.
	AdditionalProperties *Node `json:"additionalProperties,omitempty"`
	// Members holds object valued members under keywords the loader does
	// not interpret ("not", "patternProperties", vendor extensions, or
	// definitions declared directly on the root). Their Keyword is empty.
	Members []*Property `json:"members,omitempty"`
	// Bool is set for boolean schemas (true / false).
	Bool *bool `json:"bool,omitempty"`
}

// Property is a named child schema. Keyword names the object member the
// child was declared under: "properties", "definitions" or "$defs". It is
// empty for Members, whose Name is the member key itself.
type Property struct {
	Keyword string `json:"keyword"`
	Name    string `json:"name"`
	Schema  *Node  `json:"schema"`
}

// IsRequired reports whether the named property is listed in "required".
func (n *Node) IsRequired(name string) bool {
	for _, r := range n.Required {
		if r == name {
			return true
		}
	}
	return false
}

// IsComposite reports whether the node carries allOf, anyOf or oneOf branches.
func (n *Node) IsComposite() bool {
	return len(n.AllOf)+len(n.AnyOf)+len(n.OneOf) > 0
}

// TypeLike reports whether the node describes a value shape, as opposed to a
// container that only holds definitions (the usual shape of a document root).
func (n *Node) TypeLike() bool {
	switch {
	case n.Ref != "", n.IsComposite(), len(n.Properties) > 0, len(n.Enum) > 0,
		n.Items != nil, len(n.TupleItems) > 0, len(n.Types) > 0, n.AdditionalProperties != nil:
		return true
	}
	return false
}

var keywords = map[string]bool{
	"$schema": true, "$id": true, "id": true, "$ref": true, "$comment": true,
	"title": true, "description": true, "type": true, "format": true,
	"enum": true, "const": true, "default": true, "examples": true,
	"properties": true, "required": true, "additionalProperties": true,
	"patternProperties": true, "propertyNames": true, "dependencies": true,
	"dependentSchemas": true, "unevaluatedProperties": true,
	"items": true, "additionalItems": true, "contains": true, "unevaluatedItems": true,
	"allOf": true, "anyOf": true, "oneOf": true, "not": true,
	"if": true, "then": true, "else": true,
	"definitions": true, "$defs": true,
}

// IsKeyword reports whether name is a JSON Schema keyword. Members of a
// document root named otherwise are definitions declared without a
// "definitions" wrapper.
func IsKeyword(name string) bool { return keywords[name] }
