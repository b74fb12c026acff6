package etf

import (
	"math/big"
	"unicode/utf8"
)

// Unmarshal decodes the first term of data.
func Unmarshal(data []byte, cfg Config) (Term, error) {
	dec, err := cfg.NewDecoder(data)
	if err != nil {
		return nil, err
	}
	return dec.Next()
}

// UnmarshalMap decodes data that must hold a map, the usual shape of a
// gateway payload.
func UnmarshalMap(data []byte, cfg Config) (*Map, error) {
	dec, err := cfg.NewDecoder(data)
	if err != nil {
		return nil, err
	}
	return dec.NextMap()
}

// Marshal encodes fields as a map with atom keys.
func Marshal(fields map[string]interface{}, cfg Config) ([]byte, error) {
	enc := cfg.NewEncoder()
	if err := enc.Write(fields); err != nil {
		return nil, err
	}
	return enc.Bytes()
}

// ToNative lowers a term to plain Go values: integers become int64 (or
// *big.Int when they do not fit), floats float64, atoms string, tuples and
// lists []interface{}, maps map[string]interface{}. Binaries and strings
// become string if they hold valid UTF-8, []byte otherwise. Nil becomes
// nil. The tail of an improper list is appended as its last element. Pids,
// ports, references and funs are rendered with Sprint.
func ToNative(t Term) interface{} {
	switch v := t.(type) {
	case nil, Nil:
		return nil
	case SmallInt:
		return int64(v)
	case Int:
		return int64(v)
	case Big:
		if v.Int == nil {
			return nil
		}
		if v.Int.IsInt64() {
			return v.Int.Int64()
		}
		return new(big.Int).Set(v.Int)
	case OldFloat:
		return float64(v)
	case NewFloat:
		return float64(v)
	case Bool:
		return bool(v)
	case Atom:
		return v.Name
	case AtomCacheRef:
		return int64(v)
	case Binary:
		return text([]byte(v))
	case String:
		return text([]byte(v))
	case BitBinary:
		return append([]byte(nil), v.Data...)
	case Tuple:
		out := make([]interface{}, len(v))
		for i := range v {
			out[i] = ToNative(v[i])
		}
		return out
	case List:
		out := make([]interface{}, 0, len(v.Elements)+1)
		for i := range v.Elements {
			out = append(out, ToNative(v.Elements[i]))
		}
		if !v.Proper() {
			out = append(out, ToNative(v.Tail))
		}
		return out
	case *Map:
		out := make(map[string]interface{}, v.Len())
		for _, p := range v.Pairs() {
			key, ok := ToNative(p.Key).(string)
			if !ok {
				key = Sprint(p.Key)
			}
			out[key] = ToNative(p.Value)
		}
		return out
	}
	return Sprint(t)
}

func text(b []byte) interface{} {
	if utf8.Valid(b) {
		return string(b)
	}
	return append([]byte(nil), b...)
}
