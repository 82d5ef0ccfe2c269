package gen

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot location, relative to the target directory.
const (
	SnapshotDir  = "internal"
	SnapshotFile = "graph.msgpack"
)

// snapshotVersion is bumped on incompatible layout changes.
const snapshotVersion = 1

// Snapshot is the serialized form of a type graph.
type Snapshot struct {
	Version    int                  `msgpack:"version"`
	Package    string               `msgpack:"package"`
	Types      []*SnapshotType      `msgpack:"types"`
	Order      [][]string           `msgpack:"order"`
	Collisions []*SnapshotCollision `msgpack:"collisions,omitempty"`
}

// SnapshotType is a serialized Type.
type SnapshotType struct {
	Name        string           `msgpack:"name,omitempty"`
	Key         string           `msgpack:"key"`
	Kind        string           `msgpack:"kind"`
	Description string           `msgpack:"description,omitempty"`
	Nullable    bool             `msgpack:"nullable,omitempty"`
	Fields      []*SnapshotField `msgpack:"fields,omitempty"`
	// Values holds enum values as JSON literals.
	Values    []string       `msgpack:"values,omitempty"`
	Elem      *SnapshotRef   `msgpack:"elem,omitempty"`
	Branches  []*SnapshotRef `msgpack:"branches,omitempty"`
	Composite string         `msgpack:"composite,omitempty"`
	Primitive string         `msgpack:"primitive,omitempty"`
	Format    string         `msgpack:"format,omitempty"`
	Target    *SnapshotRef   `msgpack:"target,omitempty"`
	Ref       string         `msgpack:"ref,omitempty"`
}

// SnapshotField is a serialized Field.
type SnapshotField struct {
	Name     string       `msgpack:"name"`
	Type     *SnapshotRef `msgpack:"type"`
	Required bool         `msgpack:"required,omitempty"`
}

// SnapshotRef is a serialized TypeRef. References to named types keep the
// name only; inline types are embedded.
type SnapshotRef struct {
	Name   string        `msgpack:"name,omitempty"`
	Back   bool          `msgpack:"back,omitempty"`
	Inline *SnapshotType `msgpack:"inline,omitempty"`
}

// SnapshotCollision is a serialized NameCollision.
type SnapshotCollision struct {
	Candidate string   `msgpack:"candidate"`
	Keys      []string `msgpack:"keys"`
	Names     []string `msgpack:"names"`
}

// NewSnapshot captures g.
func NewSnapshot(g *Graph) *Snapshot {
	s := &Snapshot{Version: snapshotVersion}
	if g.Config != nil {
		s.Package = g.PackageName()
	}
	for _, t := range g.Nodes {
		s.Types = append(s.Types, snapshotType(t))
	}
	for _, group := range g.Order() {
		names := make([]string, len(group))
		for i, t := range group {
			names[i] = t.Name
		}
		s.Order = append(s.Order, names)
	}
	for _, c := range g.Collisions {
		sc := &SnapshotCollision{Candidate: c.Candidate, Names: c.Names}
		for _, k := range c.Keys {
			sc.Keys = append(sc.Keys, k.String())
		}
		s.Collisions = append(s.Collisions, sc)
	}
	return s
}

// Type returns the snapshot type with the given name, or nil.
func (s *Snapshot) Type(name string) *SnapshotType {
	for _, t := range s.Types {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func snapshotType(t *Type) *SnapshotType {
	st := &SnapshotType{
		Name:        t.Name,
		Key:         t.Key.String(),
		Kind:        t.Kind.String(),
		Description: t.Description,
		Nullable:    t.Nullable,
		Elem:        snapshotRef(t.Elem),
		Composite:   t.Composite,
		Format:      t.Format,
		Target:      snapshotRef(t.Target),
		Ref:         t.Ref,
	}
	if t.Kind == KindPrimitive || t.Kind == KindEnum {
		st.Primitive = t.Primitive.String()
	}
	for _, f := range t.Fields {
		st.Fields = append(st.Fields, &SnapshotField{Name: f.Name, Type: snapshotRef(f.Type), Required: f.Required})
	}
	for _, v := range t.Values {
		lit, err := json.Marshal(v)
		if err != nil {
			lit = []byte(fmt.Sprint(v))
		}
		st.Values = append(st.Values, string(lit))
	}
	for _, b := range t.Branches {
		st.Branches = append(st.Branches, snapshotRef(b))
	}
	return st
}

func snapshotRef(r *TypeRef) *SnapshotRef {
	switch {
	case r == nil:
		return nil
	case r.IsNamed():
		return &SnapshotRef{Name: r.Name, Back: r.Back}
	}
	return &SnapshotRef{Inline: snapshotType(r.Type)}
}

// WriteSnapshot encodes the snapshot of g to path.
func WriteSnapshot(path string, g *Graph) error {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(NewSnapshot(g)); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	return &s, nil
}
