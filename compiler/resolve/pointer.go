package resolve

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/syssam/cdmgen/compiler/load"
)

// Pointer is an in-document JSON pointer in URI fragment form,
// e.g. "#" or "#/definitions/Foo". Reference tokens are stored escaped.
type Pointer string

// Root points at the document root.
const Root Pointer = "#"

var (
	tokenEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	tokenUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// Child returns the pointer extended by the given unescaped tokens.
func (p Pointer) Child(tokens ...string) Pointer {
	var b strings.Builder
	b.WriteString(string(p))
	for _, t := range tokens {
		b.WriteByte('/')
		b.WriteString(tokenEscaper.Replace(t))
	}
	return Pointer(b.String())
}

// Tokens returns the unescaped reference tokens of the pointer.
func (p Pointer) Tokens() []string {
	s := strings.TrimPrefix(string(p), "#")
	if s == "" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(s, "/"), "/")
	for i, t := range parts {
		parts[i] = tokenUnescaper.Replace(t)
	}
	return parts
}

// IsRoot reports whether the pointer targets the document root.
func (p Pointer) IsRoot() bool { return p == Root }

// ParsePointer parses a URI fragment (with or without the leading '#') into a
// Pointer. Percent-encoded octets are decoded and an empty fragment yields Root.
func ParsePointer(fragment string) (Pointer, error) {
	s := strings.TrimPrefix(fragment, "#")
	s, err := url.PathUnescape(s)
	if err != nil {
		return "", fmt.Errorf("invalid fragment %q: %w", fragment, err)
	}
	switch {
	case s == "":
		return Root, nil
	case !strings.HasPrefix(s, "/"):
		// Plain-name fragments ("#foo") address $id anchors, which are not indexed.
		return "", fmt.Errorf("fragment %q is not a JSON pointer", fragment)
	}
	return Pointer("#" + s), nil
}

// Key identifies a schema node across the whole run.
type Key struct {
	Doc     load.DocumentID `json:"doc" msgpack:"doc"`
	Pointer Pointer         `json:"pointer" msgpack:"pointer"`
}

// String returns the key in reference form, e.g. "a/b.cdm.json#/definitions/X".
func (k Key) String() string {
	return string(k.Doc) + string(k.Pointer)
}

// Less orders keys by document, then by pointer.
func (k Key) Less(o Key) bool {
	if k.Doc != o.Doc {
		return k.Doc < o.Doc
	}
	return k.Pointer < o.Pointer
}
