package gen

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// Helper functions
// =============================================================================

// Identifier returns an exported Go identifier for s, or fallback when s
// has no identifier characters.
func Identifier(s, fallback string) string {
	return identifier(Pascal(s), fallback)
}

// Namer hands out identifiers that are unique within one scope, such as the
// fields of a struct or the constants of an enum. Clashes are numbered in
// the order names are requested.
type Namer struct {
	used map[string]bool
}

// NewNamer returns a Namer with the given identifiers already in use.
func NewNamer(reserved ...string) *Namer {
	n := &Namer{used: make(map[string]bool, len(reserved))}
	for _, r := range reserved {
		n.used[r] = true
	}
	return n
}

// Name returns name, or name followed by the smallest free number >= 2.
func (n *Namer) Name(name string) string {
	if !n.used[name] {
		n.used[name] = true
		return name
	}
	for i := 2; ; i++ {
		c := name + strconv.Itoa(i)
		if !n.used[c] {
			n.used[c] = true
			return c
		}
	}
}

// LiteralName returns the identifier fragment of an enum literal:
//
//	LiteralName("in progress") // InProgress
//	LiteralName(int64(-1))     // Neg1
//	LiteralName(2.5)           // 2_5
func LiteralName(v any) string {
	var s string
	switch v := v.(type) {
	case string:
		return Pascal(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
		return Pascal(s)
	default:
		s = fmt.Sprint(v)
	}
	s = strings.Replace(s, "-", "Neg", 1)
	return strings.ReplaceAll(s, ".", "_")
}
