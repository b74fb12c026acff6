// Package etf implements the Erlang External Term Format: a decoder and an
// encoder for the tagged binary serialization used by the Erlang
// distribution protocol, together with the BERT and Loqui (Discord gateway)
// dialects of it.
package etf

import (
	"fmt"
)

// Erlang external term tags.
const (
	ettAtom          = byte(100)
	ettAtomUTF8      = byte(118)
	ettBinary        = byte(109)
	ettBitBinary     = byte(77)
	ettCacheRef      = byte(82)
	ettDistHeader    = byte(68)
	ettExport        = byte(113)
	ettFloat         = byte(99)
	ettFun           = byte(117)
	ettHeader        = byte(80)
	ettInteger       = byte(98)
	ettLargeBig      = byte(111)
	ettLargeTuple    = byte(105)
	ettList          = byte(108)
	ettMap           = byte(116)
	ettNewFloat      = byte(70)
	ettNewFun        = byte(112)
	ettNewRef        = byte(114)
	ettNil           = byte(106)
	ettPid           = byte(103)
	ettPort          = byte(102)
	ettRef           = byte(101)
	ettSmallAtom     = byte(115)
	ettSmallAtomUTF8 = byte(119)
	ettSmallBig      = byte(110)
	ettSmallInteger  = byte(97)
	ettSmallTuple    = byte(104)
	ettString        = byte(107)
)

const (
	// Erlang external term format version
	EtVersion = byte(131)
)

const (
	// length of the FLOAT_EXT ascii field
	oldFloatLength = 31
)

var tagNames = map[byte]string{
	ettAtom:          "ATOM_EXT",
	ettAtomUTF8:      "ATOM_UTF8_EXT",
	ettBinary:        "BINARY_EXT",
	ettBitBinary:     "BIT_BINARY_EXT",
	ettCacheRef:      "ATOM_CACHE_REF",
	ettDistHeader:    "DISTRIBUTION_HEADER",
	ettExport:        "EXPORT_EXT",
	ettFloat:         "FLOAT_EXT",
	ettFun:           "FUN_EXT",
	ettHeader:        "HEADER",
	ettInteger:       "INTEGER_EXT",
	ettLargeBig:      "LARGE_BIG_EXT",
	ettLargeTuple:    "LARGE_TUPLE_EXT",
	ettList:          "LIST_EXT",
	ettMap:           "MAP_EXT",
	ettNewFloat:      "NEW_FLOAT_EXT",
	ettNewFun:        "NEW_FUN_EXT",
	ettNewRef:        "NEW_REFERENCE_EXT",
	ettNil:           "NIL_EXT",
	ettPid:           "PID_EXT",
	ettPort:          "PORT_EXT",
	ettRef:           "REFERENCE_EXT",
	ettSmallAtom:     "SMALL_ATOM_EXT",
	ettSmallAtomUTF8: "SMALL_ATOM_UTF8_EXT",
	ettSmallBig:      "SMALL_BIG_EXT",
	ettSmallInteger:  "SMALL_INTEGER_EXT",
	ettSmallTuple:    "SMALL_TUPLE_EXT",
	ettString:        "STRING_EXT",
}

// TagName returns the name of the given wire tag as it appears in the
// Erlang documentation, or its decimal value if the tag is unknown.
func TagName(t byte) (name string) {
	name = tagNames[t]
	if name == "" {
		name = fmt.Sprintf("%d", t)
	}
	return
}

// bertIllegal reports whether the tag may not appear in BERT mode.
func bertIllegal(t byte) bool {
	switch t {
	case ettCacheRef, ettSmallAtom, ettNewFloat, ettBitBinary,
		ettPort, ettPid, ettRef, ettNewRef:
		return true
	}
	return false
}
