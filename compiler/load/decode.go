package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
)

// maxDepth bounds the nesting of a document.
const maxDepth = 1000

type valueKind uint8

const (
	valueNull valueKind = iota
	valueObject
	valueArray
	valueString
	valueNumber
	valueBool
)

// value is an order preserving JSON tree. Objects keep duplicate members
// so the resolver can report duplicate definitions.
type value struct {
	kind    valueKind
	members []member
	items   []*value
	str     string
	num     json.Number
	b       bool
}

type member struct {
	key string
	val *value
}

// get returns the first member with the given key.
func (v *value) get(key string) (*value, bool) {
	if v == nil || v.kind != valueObject {
		return nil, false
	}
	for _, m := range v.members {
		if m.key == key {
			return m.val, true
		}
	}
	return nil, false
}

func (v *value) typeName() string {
	switch v.kind {
	case valueObject:
		return "object"
	case valueArray:
		return "array"
	case valueString:
		return "string"
	case valueNumber:
		return "number"
	case valueBool:
		return "boolean"
	default:
		return "null"
	}
}

// literal converts a scalar value to its Go representation.
func (v *value) literal() any {
	switch v.kind {
	case valueString:
		return v.str
	case valueBool:
		return v.b
	case valueNumber:
		if i, err := strconv.ParseInt(v.num.String(), 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(v.num.String(), 64); err == nil {
			return f
		}
		return v.num.String()
	case valueArray:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			out[i] = it.literal()
		}
		return out
	case valueObject:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			if _, ok := out[m.key]; !ok {
				out[m.key] = m.val.literal()
			}
		}
		return out
	default:
		return nil
	}
}

// decodeValue reads exactly one JSON value from data.
func decodeValue(data []byte) (*value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := readValue(dec, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func readValue(dec *json.Decoder, depth int) (*value, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("maximum nesting depth %d exceeded", maxDepth)
	}
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return readObject(dec, depth)
		case '[':
			return readArray(dec, depth)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return &value{kind: valueString, str: t}, nil
	case json.Number:
		return &value{kind: valueNumber, num: t}, nil
	case float64:
		return &value{kind: valueNumber, num: json.Number(strconv.FormatFloat(t, 'g', -1, 64))}, nil
	case bool:
		return &value{kind: valueBool, b: t}, nil
	case nil:
		return &value{kind: valueNull}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func readObject(dec *json.Decoder, depth int) (*value, error) {
	v := &value{kind: valueObject}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}
		child, err := readValue(dec, depth+1)
		if err != nil {
			return nil, err
		}
		v.members = append(v.members, member{key: key, val: child})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return v, nil
}

func readArray(dec *json.Decoder, depth int) (*value, error) {
	v := &value{kind: valueArray}
	for dec.More() {
		child, err := readValue(dec, depth+1)
		if err != nil {
			return nil, err
		}
		v.items = append(v.items, child)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return v, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
