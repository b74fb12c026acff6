package etf

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

const (
	// nested terms deeper than this are rejected
	maxDepth = 4096
)

// cursor is a saved decoder position, see mark and reset.
type cursor int

// Decoder reads terms from an immutable byte slice. It keeps a single
// offset into the data and is not safe for concurrent use: allocate one
// per message.
type Decoder struct {
	data   []byte
	offset int
	cfg    Config
	depth  int
}

func newDecoder(data []byte, cfg Config, partial bool) (*Decoder, error) {
	if !partial && cfg.IncludeHeader {
		body, err := unwrapHeader(data, cfg.Version)
		if err != nil {
			return nil, err
		}
		data = body
	}
	return &Decoder{data: data, cfg: cfg}, nil
}

// Offset returns the current position within the working buffer.
func (d *Decoder) Offset() int {
	return d.offset
}

// Len returns the size of the working buffer (after inflating the
// envelope, if any).
func (d *Decoder) Len() int {
	return len(d.data)
}

// Raw returns the working buffer. It must not be modified.
func (d *Decoder) Raw() []byte {
	return d.data
}

// Finished reports whether every byte has been consumed.
func (d *Decoder) Finished() bool {
	return d.offset >= len(d.data)
}

// mark saves the current position so a speculative read can be undone.
func (d *Decoder) mark() cursor {
	return cursor(d.offset)
}

// reset returns to a position saved by mark.
func (d *Decoder) reset(c cursor) {
	d.offset = int(c)
}

func (d *Decoder) skipVersion() {
	if d.offset < len(d.data) && d.data[d.offset] == d.cfg.Version {
		d.offset++
	}
}

// Peek returns the tag of the next term without consuming it. A version
// byte in front of it is skipped.
func (d *Decoder) Peek() (byte, error) {
	d.skipVersion()
	if d.offset >= len(d.data) {
		return 0, d.formatError(0, "no more data to read")
	}
	return d.data[d.offset], nil
}

// Next decodes the next term, whatever its type. In Loqui mode the atoms
// true and false come back as Bool and the atom nil as Nil.
func (d *Decoder) Next() (Term, error) {
	t, err := d.Peek()
	if err != nil {
		return nil, err
	}

	switch t {
	case ettHeader:
		return nil, d.formatError(t, "nested header found, is the data malformed?")

	case ettDistHeader, ettFun, ettNewFun, ettExport:
		return nil, d.unsupported(t)

	case ettCacheRef:
		return d.term(d.NextAtomCacheIndex())

	case ettSmallInteger:
		return d.term(d.NextSmallInt())

	case ettInteger:
		return d.term(d.NextInt())

	case ettFloat:
		return d.term(d.NextOldFloat())

	case ettNewFloat:
		return d.term(d.NextNewFloat())

	case ettAtom, ettSmallAtom, ettAtomUTF8, ettSmallAtomUTF8:
		atom, err := d.NextAtom()
		if err != nil {
			return nil, err
		}
		return d.loquiAtom(atom), nil

	case ettRef:
		return d.term(d.NextOldRef())

	case ettNewRef:
		return d.term(d.NextRef())

	case ettPort:
		return d.term(d.NextPort())

	case ettPid:
		return d.term(d.NextPid())

	case ettSmallTuple, ettLargeTuple:
		return d.term(d.NextTuple())

	case ettMap:
		return d.term(d.NextMap())

	case ettNil:
		d.offset++
		return Nil{}, nil

	case ettString:
		return d.term(d.NextString())

	case ettList:
		return d.term(d.NextList())

	case ettBinary:
		return d.term(d.NextBinary())

	case ettBitBinary:
		return d.term(d.NextBitBinary())

	case ettSmallBig, ettLargeBig:
		return d.term(d.NextBig())
	}

	return nil, d.formatError(t, "unidentified type, is the data malformed?")
}

// term drops the value when err is set, so a failed decode never yields a
// half built term.
func (d *Decoder) term(t Term, err error) (Term, error) {
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (d *Decoder) loquiAtom(atom Atom) Term {
	if !d.cfg.Loqui {
		return atom
	}
	switch atom.Name {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "nil":
		return Nil{}
	}
	return atom
}

// ReadAll decodes terms until the data is exhausted.
func (d *Decoder) ReadAll() ([]Term, error) {
	var terms []Term
	for {
		d.skipVersion()
		if d.Finished() {
			return terms, nil
		}
		t, err := d.Next()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
}

func (d *Decoder) child() (Term, error) {
	if d.depth >= maxDepth {
		return nil, d.formatError(0, "terms nested deeper than %d levels", maxDepth)
	}
	d.depth++
	t, err := d.Next()
	d.depth--
	return t, err
}

//
// low level readers. every read is bounds checked and fails with a
// FormatError instead of running off the end of the buffer.
//

func (d *Decoder) remaining() int {
	return len(d.data) - d.offset
}

func (d *Decoder) take(n int, tag byte) ([]byte, error) {
	if n < 0 || d.remaining() < n {
		return nil, d.formatError(tag, "need %d bytes, %d left", n, d.remaining())
	}
	b := d.data[d.offset : d.offset+n]
	d.offset += n
	return b, nil
}

func (d *Decoder) readU8(tag byte) (byte, error) {
	b, err := d.take(1, tag)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) readU16(tag byte) (uint16, error) {
	b, err := d.take(2, tag)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *Decoder) readU32(tag byte) (uint32, error) {
	b, err := d.take(4, tag)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// expect consumes the tag of the next term if it is one of want. Tags that
// BERT forbids fail with a ModeError in BERT mode.
func (d *Decoder) expect(want ...byte) (byte, error) {
	t, err := d.Peek()
	if err != nil {
		return 0, err
	}
	for _, w := range want {
		if t != w {
			continue
		}
		if err := d.checkMode(t); err != nil {
			return 0, err
		}
		d.offset++
		return t, nil
	}
	return 0, d.formatError(t, "%s", mismatch(want...))
}

func (d *Decoder) checkMode(t byte) error {
	if d.cfg.Bert && bertIllegal(t) {
		return &ModeError{Offset: d.offset, Tag: t, Message: "tag not allowed in BERT mode"}
	}
	return nil
}

// ensureCount rejects element counts that can not possibly fit into the
// rest of the buffer, before anything is allocated for them.
func (d *Decoder) ensureCount(n uint64, size int, tag byte) error {
	if n*uint64(size) > uint64(d.remaining()) {
		return d.formatError(tag, "%d elements declared, %d bytes left", n, d.remaining())
	}
	return nil
}

func (d *Decoder) formatError(tag byte, format string, args ...interface{}) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &FormatError{
		Offset:  d.offset,
		Tag:     tag,
		Message: msg,
		Context: window(d.data, d.offset),
	}
}

func (d *Decoder) unsupported(tag byte) error {
	if ce := Logger().Check(zap.DebugLevel, "etf: unsupported tag"); ce != nil {
		ce.Write(zap.String("tag", TagName(tag)), zap.Int("offset", d.offset))
	}
	return &UnsupportedError{Offset: d.offset, Tag: tag}
}

//
// typed accessors
//

// NextAtomCacheIndex decodes ATOM_CACHE_REF.
func (d *Decoder) NextAtomCacheIndex() (AtomCacheRef, error) {
	if _, err := d.expect(ettCacheRef); err != nil {
		return 0, err
	}
	idx, err := d.readU8(ettCacheRef)
	return AtomCacheRef(idx), err
}

// NextSmallInt decodes SMALL_INTEGER_EXT.
func (d *Decoder) NextSmallInt() (SmallInt, error) {
	if _, err := d.expect(ettSmallInteger); err != nil {
		return 0, err
	}
	v, err := d.readU8(ettSmallInteger)
	return SmallInt(v), err
}

// NextInt decodes INTEGER_EXT.
func (d *Decoder) NextInt() (Int, error) {
	if _, err := d.expect(ettInteger); err != nil {
		return 0, err
	}
	v, err := d.readU32(ettInteger)
	return Int(int32(v)), err
}

// NextInteger decodes any integer term that fits into an int64.
func (d *Decoder) NextInteger() (int64, error) {
	t, err := d.Peek()
	if err != nil {
		return 0, err
	}
	switch t {
	case ettSmallInteger:
		v, err := d.NextSmallInt()
		return int64(v), err
	case ettInteger:
		v, err := d.NextInt()
		return int64(v), err
	case ettSmallBig, ettLargeBig:
		start := d.offset
		v, err := d.NextBig()
		if err != nil {
			return 0, err
		}
		if !v.Int.IsInt64() {
			return 0, &FormatError{Offset: start, Tag: t, Message: "integer overflows int64"}
		}
		return v.Int.Int64(), nil
	}
	return 0, d.formatError(t, "%s", mismatch(ettSmallInteger, ettInteger, ettSmallBig, ettLargeBig))
}

// NextOldFloat decodes FLOAT_EXT.
func (d *Decoder) NextOldFloat() (OldFloat, error) {
	if _, err := d.expect(ettFloat); err != nil {
		return 0, err
	}
	start := d.offset
	raw, err := d.take(oldFloatLength, ettFloat)
	if err != nil {
		return 0, err
	}
	s := strings.TrimRight(string(raw), "\x00 ")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &FormatError{Offset: start, Tag: ettFloat, Message: err.Error(), Context: window(d.data, start)}
	}
	return OldFloat(f), nil
}

// NextNewFloat decodes NEW_FLOAT_EXT.
func (d *Decoder) NextNewFloat() (NewFloat, error) {
	if _, err := d.expect(ettNewFloat); err != nil {
		return 0, err
	}
	raw, err := d.take(8, ettNewFloat)
	if err != nil {
		return 0, err
	}
	return NewFloat(math.Float64frombits(binary.BigEndian.Uint64(raw))), nil
}

// NextFloat decodes either float representation.
func (d *Decoder) NextFloat() (float64, error) {
	t, err := d.Peek()
	if err != nil {
		return 0, err
	}
	if t == ettFloat {
		f, err := d.NextOldFloat()
		return float64(f), err
	}
	f, err := d.NextNewFloat()
	return float64(f), err
}

// NextAtom decodes any of the four atom encodings. Loqui atoms are
// returned as they are.
func (d *Decoder) NextAtom() (Atom, error) {
	t, err := d.expect(ettSmallAtomUTF8, ettAtomUTF8, ettSmallAtom, ettAtom)
	if err != nil {
		return Atom{}, err
	}

	var n int
	var form AtomForm
	switch t {
	case ettSmallAtomUTF8, ettSmallAtom:
		l, err := d.readU8(t)
		if err != nil {
			return Atom{}, err
		}
		n = int(l)
		form = AtomSmallUTF8
		if t == ettSmallAtom {
			form = AtomSmallLatin1
		}
	default:
		l, err := d.readU16(t)
		if err != nil {
			return Atom{}, err
		}
		n = int(l)
		form = AtomUTF8
		if t == ettAtom {
			form = AtomLatin1
		}
	}

	start := d.offset
	raw, err := d.take(n, t)
	if err != nil {
		return Atom{}, err
	}

	if form.Latin1() {
		name, err := decodeLatin1(raw)
		if err != nil {
			return Atom{}, &FormatError{Offset: start, Tag: t, Message: err.Error()}
		}
		return Atom{Name: name, Form: form}, nil
	}

	if !utf8.Valid(raw) {
		return Atom{}, &FormatError{Offset: start, Tag: t, Message: "invalid UTF-8 atom text", Context: window(d.data, start)}
	}
	return Atom{Name: string(raw), Form: form}, nil
}

// NextBool decodes a Loqui boolean.
func (d *Decoder) NextBool() (Bool, error) {
	if !d.cfg.Loqui {
		return false, &ModeError{Offset: d.offset, Message: "Loqui booleans not supported"}
	}
	start := d.mark()
	atom, err := d.NextAtom()
	if err != nil {
		return false, err
	}
	switch atom.Name {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	d.reset(start)
	return false, d.formatError(atom.Form.tag(), "atom %q is not a boolean", atom.Name)
}

// IsNil reports whether the next term is nil: NIL_EXT, or in Loqui mode the
// small atom nil. Nothing is consumed.
func (d *Decoder) IsNil() (bool, error) {
	t, err := d.Peek()
	if err != nil {
		return false, err
	}
	if t == ettNil {
		return true, nil
	}
	if !d.cfg.Loqui || (t != ettSmallAtom && t != ettSmallAtomUTF8) {
		return false, nil
	}

	start := d.mark()
	atom, err := d.NextAtom()
	d.reset(start)
	if err != nil {
		return false, err
	}
	return atom.Name == "nil", nil
}

// NextNil consumes a nil term (see IsNil).
func (d *Decoder) NextNil() error {
	t, err := d.Peek()
	if err != nil {
		return err
	}
	if t == ettNil {
		d.offset++
		return nil
	}

	if d.cfg.Loqui && (t == ettSmallAtom || t == ettSmallAtomUTF8) {
		start := d.mark()
		atom, err := d.NextAtom()
		if err != nil {
			return err
		}
		if atom.Name == "nil" {
			return nil
		}
		// not nil after all
		d.reset(start)
	}
	return d.formatError(t, "%s", mismatch(ettNil))
}

// NextBinary decodes BINARY_EXT. The returned slice is a copy.
func (d *Decoder) NextBinary() (Binary, error) {
	if _, err := d.expect(ettBinary); err != nil {
		return nil, err
	}
	n, err := d.readU32(ettBinary)
	if err != nil {
		return nil, err
	}
	raw, err := d.take(int(n), ettBinary)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, raw)
	return Binary(b), nil
}

// NextBitBinary decodes BIT_BINARY_EXT. The insignificant bits of the last
// byte are cleared.
func (d *Decoder) NextBitBinary() (BitBinary, error) {
	if _, err := d.expect(ettBitBinary); err != nil {
		return BitBinary{}, err
	}
	n, err := d.readU32(ettBitBinary)
	if err != nil {
		return BitBinary{}, err
	}
	bits, err := d.readU8(ettBitBinary)
	if err != nil {
		return BitBinary{}, err
	}
	if bits < 1 || bits > 8 {
		return BitBinary{}, d.formatError(ettBitBinary, "%d trailing bits, must be 1..8", bits)
	}
	if n == 0 {
		return BitBinary{}, d.formatError(ettBitBinary, "empty bitstring")
	}
	raw, err := d.take(int(n), ettBitBinary)
	if err != nil {
		return BitBinary{}, err
	}

	b := make([]byte, n)
	copy(b, raw)
	b[n-1] &= byte(0xff << (8 - bits))
	return BitBinary{Data: b, Bits: bits}, nil
}

// NextString decodes STRING_EXT.
func (d *Decoder) NextString() (String, error) {
	if _, err := d.expect(ettString); err != nil {
		return "", err
	}
	n, err := d.readU16(ettString)
	if err != nil {
		return "", err
	}
	raw, err := d.take(int(n), ettString)
	if err != nil {
		return "", err
	}
	return String(raw), nil
}

// NextText decodes any term carrying text: STRING_EXT, BINARY_EXT,
// BIT_BINARY_EXT or an atom.
func (d *Decoder) NextText() (string, error) {
	t, err := d.Peek()
	if err != nil {
		return "", err
	}
	switch t {
	case ettString:
		s, err := d.NextString()
		return string(s), err
	case ettBinary:
		b, err := d.NextBinary()
		return string(b), err
	case ettBitBinary:
		b, err := d.NextBitBinary()
		return string(b.Data), err
	case ettAtom, ettSmallAtom, ettAtomUTF8, ettSmallAtomUTF8:
		a, err := d.NextAtom()
		return a.Name, err
	}
	return "", d.formatError(t, "%s", mismatch(ettString, ettBinary, ettBitBinary, ettAtomUTF8))
}

// NextTuple decodes SMALL_TUPLE_EXT or LARGE_TUPLE_EXT.
func (d *Decoder) NextTuple() (Tuple, error) {
	t, err := d.expect(ettSmallTuple, ettLargeTuple)
	if err != nil {
		return nil, err
	}

	var arity uint32
	if t == ettSmallTuple {
		a, err := d.readU8(t)
		if err != nil {
			return nil, err
		}
		arity = uint32(a)
	} else {
		if arity, err = d.readU32(t); err != nil {
			return nil, err
		}
	}
	if err := d.ensureCount(uint64(arity), 1, t); err != nil {
		return nil, err
	}

	tuple := make(Tuple, arity)
	for i := range tuple {
		if tuple[i], err = d.child(); err != nil {
			return nil, err
		}
	}
	return tuple, nil
}

// NextMap decodes MAP_EXT. A key repeated later in the payload overwrites
// the earlier value.
func (d *Decoder) NextMap() (*Map, error) {
	if _, err := d.expect(ettMap); err != nil {
		return nil, err
	}
	arity, err := d.readU32(ettMap)
	if err != nil {
		return nil, err
	}
	if err := d.ensureCount(uint64(arity), 2, ettMap); err != nil {
		return nil, err
	}

	m := NewMap(int(arity))
	for i := uint32(0); i < arity; i++ {
		key, err := d.child()
		if err != nil {
			return nil, err
		}
		value, err := d.child()
		if err != nil {
			return nil, err
		}
		m.Set(key, value)
	}
	return m, nil
}

// NextList decodes LIST_EXT, proper or improper.
func (d *Decoder) NextList() (List, error) {
	if _, err := d.expect(ettList); err != nil {
		return List{}, err
	}
	n, err := d.readU32(ettList)
	if err != nil {
		return List{}, err
	}
	// elements plus the tail
	if err := d.ensureCount(uint64(n)+1, 1, ettList); err != nil {
		return List{}, err
	}

	elements := make([]Term, n)
	for i := range elements {
		if elements[i], err = d.child(); err != nil {
			return List{}, err
		}
	}

	isNil, err := d.IsNil()
	if err != nil {
		return List{}, err
	}
	if isNil {
		if err := d.NextNil(); err != nil {
			return List{}, err
		}
		return List{Elements: elements, Tail: Nil{}}, nil
	}

	tail, err := d.child()
	if err != nil {
		return List{}, err
	}
	return List{Elements: elements, Tail: tail}, nil
}

// NextBig decodes SMALL_BIG_EXT or LARGE_BIG_EXT.
func (d *Decoder) NextBig() (Big, error) {
	t, err := d.expect(ettSmallBig, ettLargeBig)
	if err != nil {
		return Big{}, err
	}

	var n uint32
	if t == ettSmallBig {
		l, err := d.readU8(t)
		if err != nil {
			return Big{}, err
		}
		n = uint32(l)
	} else {
		if n, err = d.readU32(t); err != nil {
			return Big{}, err
		}
	}

	sign, err := d.readU8(t)
	if err != nil {
		return Big{}, err
	}
	if sign > 1 {
		return Big{}, d.formatError(t, "invalid sign byte %d", sign)
	}

	raw, err := d.take(int(n), t)
	if err != nil {
		return Big{}, err
	}

	// encoded as little endian. convert it to the big endian order
	l := len(raw)
	bytes := make([]byte, l)
	for i := 0; i < l; i++ {
		bytes[i] = raw[l-1-i]
	}

	bigInt := new(big.Int).SetBytes(bytes)
	if sign == 1 {
		bigInt.Neg(bigInt)
	}
	return Big{Int: bigInt}, nil
}

// nextNode decodes the node of a Pid, Port or reference: an atom or an
// atom cache index.
func (d *Decoder) nextNode(owner byte) (NodeRef, error) {
	t, err := d.Peek()
	if err != nil {
		return NodeRef{}, err
	}
	switch t {
	case ettAtom, ettSmallAtom, ettAtomUTF8, ettSmallAtomUTF8:
		atom, err := d.NextAtom()
		return NodeRef{Name: atom}, err
	case ettCacheRef:
		idx, err := d.NextAtomCacheIndex()
		return NodeRef{Index: uint8(idx), Cached: true}, err
	}
	return NodeRef{}, d.formatError(owner, "node must be an atom or an atom cache reference, got %s", TagName(t))
}

// NextPort decodes PORT_EXT.
func (d *Decoder) NextPort() (Port, error) {
	if _, err := d.expect(ettPort); err != nil {
		return Port{}, err
	}
	node, err := d.nextNode(ettPort)
	if err != nil {
		return Port{}, err
	}
	raw, err := d.take(5, ettPort)
	if err != nil {
		return Port{}, err
	}
	return Port{
		Node:     node,
		ID:       binary.BigEndian.Uint32(raw[:4]),
		Creation: raw[4],
	}, nil
}

// NextPid decodes PID_EXT.
func (d *Decoder) NextPid() (Pid, error) {
	if _, err := d.expect(ettPid); err != nil {
		return Pid{}, err
	}
	node, err := d.nextNode(ettPid)
	if err != nil {
		return Pid{}, err
	}
	raw, err := d.take(9, ettPid)
	if err != nil {
		return Pid{}, err
	}
	return Pid{
		Node:     node,
		ID:       binary.BigEndian.Uint32(raw[:4]),
		Serial:   binary.BigEndian.Uint32(raw[4:8]),
		Creation: raw[8],
	}, nil
}

// NextOldRef decodes REFERENCE_EXT.
func (d *Decoder) NextOldRef() (OldRef, error) {
	if _, err := d.expect(ettRef); err != nil {
		return OldRef{}, err
	}
	node, err := d.nextNode(ettRef)
	if err != nil {
		return OldRef{}, err
	}
	raw, err := d.take(5, ettRef)
	if err != nil {
		return OldRef{}, err
	}
	return OldRef{
		Node:     node,
		ID:       binary.BigEndian.Uint32(raw[:4]),
		Creation: raw[4],
	}, nil
}

// NextRef decodes NEW_REFERENCE_EXT.
func (d *Decoder) NextRef() (Ref, error) {
	if _, err := d.expect(ettNewRef); err != nil {
		return Ref{}, err
	}
	l, err := d.readU16(ettNewRef)
	if err != nil {
		return Ref{}, err
	}
	node, err := d.nextNode(ettNewRef)
	if err != nil {
		return Ref{}, err
	}
	creation, err := d.readU8(ettNewRef)
	if err != nil {
		return Ref{}, err
	}
	raw, err := d.take(int(l)*4, ettNewRef)
	if err != nil {
		return Ref{}, err
	}

	ref := Ref{
		Node:     node,
		Creation: creation,
		ID:       make([]uint32, l),
	}
	for i := range ref.ID {
		ref.ID[i] = binary.BigEndian.Uint32(raw[i*4:])
	}
	return ref, nil
}

// NextFun recognizes FUN_EXT, NEW_FUN_EXT and EXPORT_EXT. Their payload is
// not parsed, so this always fails with an UnsupportedError once the tag
// is confirmed.
func (d *Decoder) NextFun() (Fun, error) {
	t, err := d.Peek()
	if err != nil {
		return Fun{}, err
	}
	switch t {
	case ettFun, ettNewFun, ettExport:
		return Fun{}, d.unsupported(t)
	}
	return Fun{}, d.formatError(t, "%s", mismatch(ettFun, ettNewFun, ettExport))
}

// NextDistributionHeader recognizes the distribution header. Parsing it is
// not implemented.
func (d *Decoder) NextDistributionHeader() (DistributionHeader, error) {
	t, err := d.Peek()
	if err != nil {
		return DistributionHeader{}, err
	}
	if t != ettDistHeader {
		return DistributionHeader{}, d.formatError(t, "%s", mismatch(ettDistHeader))
	}
	return DistributionHeader{}, d.unsupported(t)
}

func (d *Decoder) String() string {
	var sb strings.Builder
	sb.WriteByte('<')
	for i, b := range d.data {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(int(b)))
	}
	sb.WriteByte('>')
	return sb.String()
}

func decodeLatin1(raw []byte) (string, error) {
	for _, c := range raw {
		if c >= utf8.RuneSelf {
			out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
			if err != nil {
				return "", err
			}
			return string(out), nil
		}
	}
	return string(raw), nil
}
