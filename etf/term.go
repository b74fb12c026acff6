package etf

import (
	"fmt"
	"math/big"
	"strings"
)

// Term is a decoded (or to be encoded) external term. The set of
// implementations is closed: every wire variant has exactly one Go type
// below, and the decoder and encoder switch over all of them.
type Term interface {
	isTerm()
}

// SmallInt is SMALL_INTEGER_EXT.
type SmallInt uint8

// Int is INTEGER_EXT.
type Int int32

// OldFloat is FLOAT_EXT: the legacy 31 byte ascii representation.
type OldFloat float64

// NewFloat is NEW_FLOAT_EXT: an IEEE-754 double.
type NewFloat float64

// AtomForm selects one of the four atom encodings.
type AtomForm uint8

const (
	AtomUTF8 AtomForm = iota
	AtomSmallUTF8
	AtomLatin1
	AtomSmallLatin1
)

// Small reports whether the form uses a one byte length prefix.
func (f AtomForm) Small() bool {
	return f == AtomSmallUTF8 || f == AtomSmallLatin1
}

// Latin1 reports whether the form carries ISO-8859-1 text.
func (f AtomForm) Latin1() bool {
	return f == AtomLatin1 || f == AtomSmallLatin1
}

func (f AtomForm) tag() byte {
	switch f {
	case AtomSmallUTF8:
		return ettSmallAtomUTF8
	case AtomLatin1:
		return ettAtom
	case AtomSmallLatin1:
		return ettSmallAtom
	}
	return ettAtomUTF8
}

// Atom is one of ATOM_EXT, SMALL_ATOM_EXT, ATOM_UTF8_EXT or
// SMALL_ATOM_UTF8_EXT. Name always holds UTF-8 text, whatever the wire
// charset was.
type Atom struct {
	Name string
	Form AtomForm
}

// NewAtom returns an atom in the smallest UTF-8 form able to hold name.
func NewAtom(name string) Atom {
	if len(name) <= 255 {
		return Atom{Name: name, Form: AtomSmallUTF8}
	}
	return Atom{Name: name, Form: AtomUTF8}
}

// AtomCacheRef is ATOM_CACHE_REF: an index into the atom cache of the
// distribution header.
type AtomCacheRef uint8

// Tuple is SMALL_TUPLE_EXT (arity up to 255) or LARGE_TUPLE_EXT.
type Tuple []Term

// Element returns the i-th element, counting from 1 like erlang:element/2.
func (t Tuple) Element(i int) Term {
	return t[i-1]
}

// List is LIST_EXT. A proper list has a Nil tail.
type List struct {
	Elements []Term
	Tail     Term
}

// NewList returns a proper list of the given elements.
func NewList(elements ...Term) List {
	return List{Elements: elements, Tail: Nil{}}
}

// Proper reports whether the list is nil terminated.
func (l List) Proper() bool {
	_, ok := l.Tail.(Nil)
	return ok || l.Tail == nil
}

// Nil is NIL_EXT, the empty list.
type Nil struct{}

// Binary is BINARY_EXT.
type Binary []byte

// BitBinary is BIT_BINARY_EXT. Only the Bits high bits of the last byte
// are significant.
type BitBinary struct {
	Data []byte
	Bits uint8
}

// String is STRING_EXT: a list of byte sized integers sent as raw bytes.
type String string

// Big is SMALL_BIG_EXT or LARGE_BIG_EXT, depending on the magnitude length.
type Big struct {
	Int *big.Int
}

// NewBig wraps x. The value is not copied.
func NewBig(x *big.Int) Big {
	return Big{Int: x}
}

// NodeRef names the node a Pid, Port or reference originates from: either
// an inline atom or an index into the atom cache.
type NodeRef struct {
	Name   Atom
	Index  uint8
	Cached bool
}

func (n NodeRef) String() string {
	if n.Cached {
		return fmt.Sprintf("cache#%d", n.Index)
	}
	return n.Name.Name
}

// Pid is PID_EXT.
type Pid struct {
	Node     NodeRef
	ID       uint32
	Serial   uint32
	Creation uint8
}

// Port is PORT_EXT.
type Port struct {
	Node     NodeRef
	ID       uint32
	Creation uint8
}

// OldRef is REFERENCE_EXT.
type OldRef struct {
	Node     NodeRef
	ID       uint32
	Creation uint8
}

// Ref is NEW_REFERENCE_EXT.
type Ref struct {
	Node     NodeRef
	Creation uint8
	ID       []uint32
}

// Fun is one of FUN_EXT, NEW_FUN_EXT or EXPORT_EXT. The payload is kept
// opaque: the decoder recognizes these tags but does not parse them.
type Fun struct {
	Tag byte
	Raw []byte
}

// DistributionHeader is the opaque distribution header.
type DistributionHeader struct {
	Raw []byte
}

// Bool is a Loqui boolean, sent on the wire as the atom true or false.
type Bool bool

func (SmallInt) isTerm()           {}
func (Int) isTerm()                {}
func (OldFloat) isTerm()           {}
func (NewFloat) isTerm()           {}
func (Atom) isTerm()               {}
func (AtomCacheRef) isTerm()       {}
func (Tuple) isTerm()              {}
func (List) isTerm()               {}
func (*Map) isTerm()               {}
func (Nil) isTerm()                {}
func (Binary) isTerm()             {}
func (BitBinary) isTerm()          {}
func (String) isTerm()             {}
func (Big) isTerm()                {}
func (Pid) isTerm()                {}
func (Port) isTerm()               {}
func (OldRef) isTerm()             {}
func (Ref) isTerm()                {}
func (Fun) isTerm()                {}
func (DistributionHeader) isTerm() {}
func (Bool) isTerm()               {}

// Equal reports whether a and b are the same Erlang term: atoms compare by
// name whatever their wire form, integers and floats compare by value.
func Equal(a, b Term) bool {
	return termKey(a) == termKey(b)
}

// Sprint renders the term in Erlang-like syntax. Meant for diagnostics.
func Sprint(t Term) string {
	var sb strings.Builder
	sprint(&sb, t)
	return sb.String()
}

func sprint(sb *strings.Builder, t Term) {
	switch v := t.(type) {
	case nil:
		sb.WriteString("undefined")
	case SmallInt:
		fmt.Fprintf(sb, "%d", v)
	case Int:
		fmt.Fprintf(sb, "%d", v)
	case OldFloat:
		fmt.Fprintf(sb, "%g", float64(v))
	case NewFloat:
		fmt.Fprintf(sb, "%g", float64(v))
	case Atom:
		sb.WriteString(v.Name)
	case AtomCacheRef:
		fmt.Fprintf(sb, "cache#%d", v)
	case Tuple:
		sb.WriteByte('{')
		for i, e := range v {
			if i > 0 {
				sb.WriteByte(',')
			}
			sprint(sb, e)
		}
		sb.WriteByte('}')
	case List:
		sb.WriteByte('[')
		for i, e := range v.Elements {
			if i > 0 {
				sb.WriteByte(',')
			}
			sprint(sb, e)
		}
		if !v.Proper() {
			sb.WriteByte('|')
			sprint(sb, v.Tail)
		}
		sb.WriteByte(']')
	case *Map:
		sb.WriteString("#{")
		for i, p := range v.Pairs() {
			if i > 0 {
				sb.WriteByte(',')
			}
			sprint(sb, p.Key)
			sb.WriteString(" => ")
			sprint(sb, p.Value)
		}
		sb.WriteByte('}')
	case Nil:
		sb.WriteString("[]")
	case Binary:
		fmt.Fprintf(sb, "<<%q>>", []byte(v))
	case BitBinary:
		fmt.Fprintf(sb, "<<%v:%d>>", v.Data, v.Bits)
	case String:
		fmt.Fprintf(sb, "%q", string(v))
	case Big:
		sb.WriteString(v.Int.String())
	case Pid:
		fmt.Fprintf(sb, "<%s.%d.%d>", v.Node, v.ID, v.Serial)
	case Port:
		fmt.Fprintf(sb, "#Port<%s.%d>", v.Node, v.ID)
	case OldRef:
		fmt.Fprintf(sb, "#Ref<%s.%d>", v.Node, v.ID)
	case Ref:
		fmt.Fprintf(sb, "#Ref<%s", v.Node)
		for _, id := range v.ID {
			fmt.Fprintf(sb, ".%d", id)
		}
		sb.WriteByte('>')
	case Fun:
		fmt.Fprintf(sb, "#Fun<%s>", TagName(v.Tag))
	case DistributionHeader:
		sb.WriteString("#DistHeader<>")
	case Bool:
		fmt.Fprintf(sb, "%t", bool(v))
	default:
		fmt.Fprintf(sb, "%v", v)
	}
}
