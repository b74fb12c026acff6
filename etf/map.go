package etf

import (
	"github.com/ergo-services/termcodec/lib"
)

// Pair is a single key/value association of a Map.
type Pair struct {
	Key   Term
	Value Term
}

// Map is MAP_EXT. Keys are compared by term identity (two atoms with the
// same name are the same key regardless of their wire form, integers are
// compared by value), setting an existing key replaces its value in place.
type Map struct {
	pairs []Pair
	index map[string]int
}

// NewMap returns an empty map with room for n pairs.
func NewMap(n int) *Map {
	return &Map{
		pairs: make([]Pair, 0, n),
		index: make(map[string]int, n),
	}
}

// MapOf builds a map from alternating keys and values. A trailing key
// without a value is ignored.
func MapOf(kv ...Term) *Map {
	m := NewMap(len(kv) / 2)
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

// Set associates value with key. The last write wins.
func (m *Map) Set(key, value Term) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	k := termKey(key)
	if i, ok := m.index[k]; ok {
		m.pairs[i].Value = value
		return
	}
	m.index[k] = len(m.pairs)
	m.pairs = append(m.pairs, Pair{Key: key, Value: value})
}

// Get returns the value stored under key.
func (m *Map) Get(key Term) (Term, bool) {
	if m == nil || m.index == nil {
		return nil, false
	}
	i, ok := m.index[termKey(key)]
	if !ok {
		return nil, false
	}
	return m.pairs[i].Value, true
}

// Lookup finds the value stored under an atom, binary or string key with the
// given text. Gateway payloads use all three for field names.
func (m *Map) Lookup(name string) (Term, bool) {
	if v, ok := m.Get(NewAtom(name)); ok {
		return v, true
	}
	if v, ok := m.Get(Binary(name)); ok {
		return v, true
	}
	return m.Get(String(name))
}

// Len
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.pairs)
}

// Pairs returns the associations in insertion order. The slice must not be
// modified.
func (m *Map) Pairs() []Pair {
	if m == nil {
		return nil
	}
	return m.pairs
}

// termKey returns the canonical encoding of t used for key comparison.
func termKey(t Term) string {
	enc := Encoder{
		cfg:       Config{Version: EtVersion, Loqui: true},
		partial:   true,
		canonical: true,
		versioned: true,
		buf:       lib.TakeBuffer(),
	}
	defer lib.ReleaseBuffer(enc.buf)
	if err := enc.writeTerm(t); err != nil {
		// unencodable keys never collide with encodable ones
		return "\x00" + err.Error()
	}
	return string(enc.buf.B)
}
