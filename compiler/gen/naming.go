package gen

import (
	"path"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/syssam/cdmgen/compiler/load"
	"github.com/syssam/cdmgen/compiler/resolve"
)

var (
	rules    = ruleset()
	acronyms = make(map[string]struct{})
	// pascalCache memoizes Pascal. Schema corpora repeat the same property
	// names across thousands of records.
	pascalCache, _ = lru.New[string, string](8192)
)

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	for _, w := range []string{
		"ACL", "API", "ASCII", "CPU", "CSS", "DNS", "EOF", "GUID", "HTML", "HTTP", "HTTPS", "ID", "IP",
		"JSON", "LHS", "QPS", "RAM", "RHS", "RPC", "SLA", "SMTP", "SQL", "SSH", "TCP", "TLS", "TTL",
		"UDP", "UI", "UID", "URI", "URL", "UTF8", "UUID", "VM", "XML", "XMPP", "XSRF", "XSS",
	} {
		acronyms[w] = struct{}{}
		rules.AddAcronym(w)
	}
	return rules
}

// Pascal converts s into an exported ASCII Go identifier fragment:
//
//	Pascal("account_id")   // AccountID
//	Pascal("crème-brûlée") // CremeBrulee
//	Pascal("msdyn_URL")    // MsdynURL
//
// Characters outside [A-Za-z0-9] separate words. The result may be empty or
// start with a digit; callers decide how to complete it.
func Pascal(s string) string {
	if v, ok := pascalCache.Get(s); ok {
		return v
	}
	words := strings.FieldsFunc(foldASCII(s), func(r rune) bool {
		return !(r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
	})
	for i, w := range words {
		upper := strings.ToUpper(w)
		if _, ok := acronyms[upper]; ok {
			words[i] = upper
		} else {
			words[i] = rules.Capitalize(w)
		}
	}
	v := strings.Join(words, "")
	pascalCache.Add(s, v)
	return v
}

// foldASCII strips diacritics so that "é" becomes "e".
func foldASCII(s string) string {
	for _, r := range s {
		if r >= unicode.MaxASCII {
			t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
			if folded, _, err := transform.String(t, s); err == nil {
				return folded
			}
			return s
		}
	}
	return s
}

// identifier completes a Pascal fragment into a valid exported identifier.
func identifier(s, fallback string) string {
	switch {
	case s == "":
		return fallback
	case s[0] >= '0' && s[0] <= '9':
		return "X" + s
	}
	return s
}

// structural keywords are dropped from candidate names.
var structural = map[string]bool{
	"properties": true, "items": true, "allOf": true, "anyOf": true, "oneOf": true,
}

// candidate returns the naive name of a key: the pointer segments after the
// innermost definitions keyword, or the document stem for the root. A
// non-keyword member of the root is named after itself.
func candidate(k resolve.Key, suffix string) string {
	stem := k.Doc.Stem(suffix)
	tokens := k.Pointer.Tokens()
	if len(tokens) == 0 {
		return identifier(Pascal(stem), "Type")
	}
	start := -1
	for i := len(tokens) - 2; i >= 0; i-- {
		if tokens[i] == "definitions" || tokens[i] == "$defs" {
			start = i + 1
			break
		}
	}
	var words []string
	switch {
	case start >= 0:
	case len(tokens) == 1 && !load.IsKeyword(tokens[0]):
		// Declared directly on the root, without a definitions wrapper.
		start = 0
	default:
		start = 0
		words = append(words, stem)
	}
	for _, t := range tokens[start:] {
		if !structural[t] {
			words = append(words, t)
		}
	}
	var b strings.Builder
	for _, w := range words {
		b.WriteString(Pascal(w))
	}
	return identifier(b.String(), "Type")
}

// contexts returns the path words that disambiguate k, nearest first:
// the document stem (unless k is the root, whose candidate already is the
// stem), then the parent directories.
func contexts(k resolve.Key, suffix string) []string {
	var words []string
	if !k.Pointer.IsRoot() {
		words = append(words, Pascal(k.Doc.Stem(suffix)))
	}
	for dir := k.Doc.Dir(); dir != "." && dir != "/" && dir != ""; dir = path.Dir(dir) {
		words = append(words, Pascal(path.Base(dir)))
	}
	return words
}

// nameAt returns the name of k with the first level context words prepended.
func nameAt(base string, ctx []string, level int) string {
	if level > len(ctx) {
		level = len(ctx)
	}
	var b strings.Builder
	for i := level - 1; i >= 0; i-- {
		b.WriteString(ctx[i])
	}
	b.WriteString(base)
	return identifier(b.String(), "Type")
}

// assignNames maps every key to a name that is unique case-insensitively.
// The result depends only on the set of keys.
func assignNames(keys []resolve.Key, suffix string) (map[resolve.Key]string, []*NameCollision) {
	sorted := append([]resolve.Key(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	type pending struct {
		key  resolve.Key
		base string
		ctx  []string
	}
	var (
		names   = make(map[resolve.Key]string, len(keys))
		taken   = make(map[string]bool, len(keys))
		groups  = make(map[string][]resolve.Key)
		current = make([]*pending, 0, len(sorted))
	)
	for _, k := range sorted {
		p := &pending{key: k, base: candidate(k, suffix), ctx: contexts(k, suffix)}
		current = append(current, p)
		groups[strings.ToLower(p.base)] = append(groups[strings.ToLower(p.base)], k)
	}
	for level := 0; len(current) > 0; level++ {
		byName := make(map[string][]*pending)
		var order []string
		for _, p := range current {
			lower := strings.ToLower(nameAt(p.base, p.ctx, level))
			if _, ok := byName[lower]; !ok {
				order = append(order, lower)
			}
			byName[lower] = append(byName[lower], p)
		}
		var next []*pending
		for _, lower := range order {
			ps := byName[lower]
			if len(ps) == 1 && !taken[lower] {
				names[ps[0].key] = nameAt(ps[0].base, ps[0].ctx, level)
				taken[lower] = true
				continue
			}
			exhausted := true
			for _, p := range ps {
				if level < len(p.ctx) {
					exhausted = false
					break
				}
			}
			if !exhausted {
				next = append(next, ps...)
				continue
			}
			// No more path context: number the group in key order.
			for i, n := 0, 1; i < len(ps); n++ {
				name := nameAt(ps[i].base, ps[i].ctx, level)
				if n > 1 {
					name += strconv.Itoa(n)
				}
				if taken[strings.ToLower(name)] {
					continue
				}
				names[ps[i].key] = name
				taken[strings.ToLower(name)] = true
				i++
			}
		}
		current = next
	}

	var collisions []*NameCollision
	for _, k := range sorted {
		lower := strings.ToLower(candidate(k, suffix))
		ks, ok := groups[lower]
		if !ok {
			continue
		}
		delete(groups, lower)
		if len(ks) < 2 && strings.EqualFold(names[k], candidate(k, suffix)) {
			continue
		}
		c := &NameCollision{Candidate: candidate(k, suffix), Keys: ks}
		for _, gk := range ks {
			c.Names = append(c.Names, names[gk])
		}
		collisions = append(collisions, c)
	}
	return names, collisions
}

// stemSuffix returns the configured suffix, or the loader default.
func stemSuffix(c *Config) string {
	if c != nil && c.Suffix != "" {
		return c.Suffix
	}
	return load.DefaultSuffix
}
