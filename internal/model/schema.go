package model

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/google/uuid"
)

// EnumSet holds the names of every enum declared inside a struct body.
type EnumSet struct {
	set *linkedhashset.Set
}

// NewEnumSet creates an EnumSet holding names.
func NewEnumSet(names ...string) *EnumSet {
	s := &EnumSet{set: linkedhashset.New()}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add records an enum name.
func (s *EnumSet) Add(name string) {
	s.set.Add(name)
}

// Contains reports whether name is a known enum.
func (s *EnumSet) Contains(name string) bool {
	if s == nil {
		return false
	}
	return s.set.Contains(name)
}

// Names returns the enum names in the order they were found.
func (s *EnumSet) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, s.set.Size())
	for _, v := range s.set.Values() {
		names = append(names, v.(string))
	}
	return names
}

// Len returns the number of enum names.
func (s *EnumSet) Len() int {
	if s == nil {
		return 0
	}
	return s.set.Size()
}

// Schema is the result of parsing one header: the structures keyed by name
// in discovery order, and the enums declared inside them.
type Schema struct {
	structs    *linkedhashmap.Map // name -> *Structure
	dups       []string
	Enums      *EnumSet
	SourcePath string
	// Fingerprint is a name-based UUID of the header contents; unchanged
	// input yields the same fingerprint.
	Fingerprint uuid.UUID
}

// NewSchema creates an empty Schema.
func NewSchema() *Schema {
	return &Schema{
		structs: linkedhashmap.New(),
		Enums:   NewEnumSet(),
	}
}

// Put registers a structure. A name that was already registered keeps its
// original position and takes the new definition. It reports whether the
// name was new.
func (s *Schema) Put(st *Structure) bool {
	_, found := s.structs.Get(st.Name)
	if found {
		s.dups = append(s.dups, st.Name)
	}
	s.structs.Put(st.Name, st)
	return !found
}

// Lookup returns the structure named name.
func (s *Schema) Lookup(name string) (*Structure, bool) {
	v, ok := s.structs.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Structure), true
}

// Structures returns the structures in discovery order.
func (s *Schema) Structures() []*Structure {
	out := make([]*Structure, 0, s.structs.Size())
	it := s.structs.Iterator()
	for it.Next() {
		out = append(out, it.Value().(*Structure))
	}
	return out
}

// Names returns the structure names in discovery order.
func (s *Schema) Names() []string {
	out := make([]string, 0, s.structs.Size())
	for _, k := range s.structs.Keys() {
		out = append(out, k.(string))
	}
	return out
}

// Len returns the number of distinct structures.
func (s *Schema) Len() int {
	return s.structs.Size()
}

// Duplicates returns every name that was registered more than once, once
// per redefinition.
func (s *Schema) Duplicates() []string {
	return s.dups
}
