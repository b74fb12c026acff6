package etf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/ergo-services/termcodec/lib"
)

// Encoder appends terms to a growable buffer. It is meant for a single
// writer; after Reset it can be reused for the next message.
type Encoder struct {
	cfg     Config
	buf     *lib.Buffer
	partial bool
	// canonical makes equal terms encode identically whatever their wire
	// variant. Used to build map keys, never for output.
	canonical bool
	// versioned is set once the version byte (or the distribution header)
	// has been emitted
	versioned bool
}

func newEncoder(cfg Config, partial bool) *Encoder {
	return &Encoder{
		cfg:     cfg,
		partial: partial,
		buf:     lib.NewBuffer(64),
	}
}

func (e *Encoder) envelope() bool {
	return !e.partial && e.cfg.IncludeHeader
}

func (e *Encoder) distribution() bool {
	return !e.partial && e.cfg.IncludeDistributionHeader
}

// begin emits the version byte before the first term. With the
// distribution header configured the (empty) header takes its place; with
// the envelope the version byte belongs to the envelope instead.
func (e *Encoder) begin() {
	if e.versioned {
		return
	}
	e.versioned = true
	switch {
	case e.distribution():
		// no atom cache references
		e.buf.Append([]byte{ettDistHeader, 0})
	case e.envelope():
	default:
		e.buf.AppendByte(e.cfg.Version)
	}
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return e.buf.Len()
}

// Reset drops everything written so far.
func (e *Encoder) Reset() {
	if ce := Logger().Check(zap.DebugLevel, "etf: encoder reset"); ce != nil {
		ce.Write(zap.Int("len", e.buf.Len()), zap.Int("cap", e.buf.Cap()))
	}
	e.buf.Reset()
	e.versioned = false
}

// Bytes returns the encoded payload: exactly the bytes written, wrapped into
// the compressed envelope if the config asks for it.
func (e *Encoder) Bytes() ([]byte, error) {
	if e.envelope() {
		return wrapHeader(e.buf.B, e.cfg.Version, e.cfg.Compress)
	}
	return e.buf.Bytes(), nil
}

// guard runs fn and truncates the buffer back if fn fails, so a failed
// write never leaves half a term behind.
func (e *Encoder) guard(fn func() error) error {
	e.begin()
	start := e.buf.Len()
	if err := fn(); err != nil {
		e.buf.B = e.buf.B[:start]
		return err
	}
	return nil
}

// Write encodes v. Terms are written as they are; native Go values are
// mapped: nil to NIL_EXT, bool to a Loqui atom, integers to the smallest
// integer encoding, floats to NEW_FLOAT_EXT, strings to atoms, []byte to
// BINARY_EXT, slices to proper lists and maps to MAP_EXT. Anything else
// fails with an UnsupportedError.
func (e *Encoder) Write(v interface{}) error {
	return e.guard(func() error {
		return e.writeValue(v)
	})
}

// WriteTuple encodes values as a tuple.
func (e *Encoder) WriteTuple(values ...interface{}) error {
	return e.guard(func() error {
		if err := e.tupleHeader(len(values)); err != nil {
			return err
		}
		for _, v := range values {
			if err := e.writeValue(v); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteList encodes values as a proper list.
func (e *Encoder) WriteList(values ...interface{}) error {
	return e.WriteImproperList(nil, values...)
}

// WriteImproperList encodes values as a list terminated by tail. A nil
// tail makes a proper list.
func (e *Encoder) WriteImproperList(tail interface{}, values ...interface{}) error {
	return e.guard(func() error {
		if err := e.putLength(ettList, len(values)); err != nil {
			return err
		}
		for _, v := range values {
			if err := e.writeValue(v); err != nil {
				return err
			}
		}
		return e.writeValue(tail)
	})
}

// WriteAtom encodes name as an atom.
func (e *Encoder) WriteAtom(name string) error {
	return e.guard(func() error {
		return e.writeAtom(e.nativeAtom(name))
	})
}

// WriteString encodes s as STRING_EXT.
func (e *Encoder) WriteString(s string) error {
	return e.guard(func() error {
		return e.writeString(s)
	})
}

// WriteNil encodes nil: NIL_EXT.
func (e *Encoder) WriteNil() error {
	return e.guard(func() error {
		e.buf.AppendByte(ettNil)
		return nil
	})
}

func (e *Encoder) writeValue(v interface{}) error {
	switch x := v.(type) {
	case nil:
		e.buf.AppendByte(ettNil)
		return nil
	case Term:
		return e.writeTerm(x)
	case bool:
		return e.writeTerm(Bool(x))

	// do not use reflect.ValueOf(t) because its too expensive
	case int:
		e.writeInt64(int64(x))
	case int8:
		e.writeInt64(int64(x))
	case int16:
		e.writeInt64(int64(x))
	case int32:
		e.writeInt64(int64(x))
	case int64:
		e.writeInt64(x)
	case uint:
		e.writeUint64(uint64(x))
	case uint8:
		e.writeUint64(uint64(x))
	case uint16:
		e.writeUint64(uint64(x))
	case uint32:
		e.writeUint64(uint64(x))
	case uint64:
		e.writeUint64(x)
	case uintptr:
		e.writeUint64(uint64(x))
	case *big.Int:
		if x == nil {
			e.buf.AppendByte(ettNil)
			return nil
		}
		return e.writeBig(x)
	case big.Int:
		return e.writeBig(&x)

	case float32:
		return e.writeNativeFloat(float64(x))
	case float64:
		return e.writeNativeFloat(x)

	case string:
		return e.writeAtom(e.nativeAtom(x))
	case []byte:
		return e.writeBinary(x)

	case []Term:
		if len(x) == 0 {
			e.buf.AppendByte(ettNil)
			return nil
		}
		if err := e.putLength(ettList, len(x)); err != nil {
			return err
		}
		for _, item := range x {
			if err := e.writeTerm(item); err != nil {
				return err
			}
		}
		e.buf.AppendByte(ettNil)
	case []interface{}:
		if len(x) == 0 {
			e.buf.AppendByte(ettNil)
			return nil
		}
		if err := e.putLength(ettList, len(x)); err != nil {
			return err
		}
		for _, item := range x {
			if err := e.writeValue(item); err != nil {
				return err
			}
		}
		e.buf.AppendByte(ettNil)

	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if err := e.putLength(ettMap, len(keys)); err != nil {
			return err
		}
		for _, k := range keys {
			if err := e.writeAtom(e.nativeAtom(k)); err != nil {
				return err
			}
			if err := e.writeValue(x[k]); err != nil {
				return err
			}
		}

	default:
		return e.writeReflect(reflect.ValueOf(v))
	}
	return nil
}

// writeReflect covers typed slices, arrays, maps and pointers.
func (e *Encoder) writeReflect(rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			e.buf.AppendByte(ettNil)
			return nil
		}
		return e.writeValue(rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		n := rv.Len()
		if n == 0 {
			e.buf.AppendByte(ettNil)
			return nil
		}
		if err := e.putLength(ettList, n); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := e.writeValue(rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		e.buf.AppendByte(ettNil)
		return nil

	case reflect.Map:
		type pair struct {
			key   []byte
			value []byte
		}
		pairs := make([]pair, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, err := e.encodeFragment(iter.Key().Interface())
			if err != nil {
				return err
			}
			value, err := e.encodeFragment(iter.Value().Interface())
			if err != nil {
				return err
			}
			pairs = append(pairs, pair{key: key, value: value})
		}
		// go maps have no order, sort by the encoded key (then value) to
		// keep the output stable
		sort.Slice(pairs, func(i, j int) bool {
			if c := bytes.Compare(pairs[i].key, pairs[j].key); c != 0 {
				return c < 0
			}
			return bytes.Compare(pairs[i].value, pairs[j].value) < 0
		})
		// distinct go keys may encode to the same term (1 and int64(1)),
		// the last of a run wins
		unique := pairs[:0]
		for i, p := range pairs {
			if i+1 < len(pairs) && bytes.Equal(p.key, pairs[i+1].key) {
				continue
			}
			unique = append(unique, p)
		}

		if err := e.putLength(ettMap, len(unique)); err != nil {
			return err
		}
		for _, p := range unique {
			e.buf.Append(p.key)
			e.buf.Append(p.value)
		}
		return nil
	}

	if !rv.IsValid() {
		return &UnsupportedError{Type: "invalid value"}
	}
	return &UnsupportedError{Type: rv.Type().String() + " (" + rv.Kind().String() + ")"}
}

func (e *Encoder) encodeFragment(v interface{}) ([]byte, error) {
	sub := Encoder{
		cfg:       e.cfg,
		partial:   true,
		versioned: true,
		buf:       lib.TakeBuffer(),
	}
	defer lib.ReleaseBuffer(sub.buf)
	if err := sub.writeValue(v); err != nil {
		return nil, err
	}
	return sub.buf.Bytes(), nil
}

func (e *Encoder) writeTerm(t Term) error {
	switch x := t.(type) {
	case nil:
		e.buf.AppendByte(ettNil)

	case SmallInt:
		if e.canonical {
			e.writeInt64(int64(x))
			break
		}
		e.buf.Append([]byte{ettSmallInteger, byte(x)})

	case Int:
		if e.canonical {
			e.writeInt64(int64(x))
			break
		}
		e.putTag32(ettInteger, uint32(x))

	case OldFloat:
		if e.canonical {
			return e.writeNewFloat(float64(x))
		}
		return e.writeOldFloat(float64(x))

	case NewFloat:
		if err := e.checkMode(ettNewFloat); err != nil {
			return err
		}
		return e.writeNewFloat(float64(x))

	case Atom:
		if e.canonical {
			x.Form = AtomUTF8
		}
		return e.writeAtom(x)

	case AtomCacheRef:
		if err := e.checkMode(ettCacheRef); err != nil {
			return err
		}
		e.buf.Append([]byte{ettCacheRef, byte(x)})

	case Tuple:
		if err := e.tupleHeader(len(x)); err != nil {
			return err
		}
		for _, item := range x {
			if err := e.writeTerm(item); err != nil {
				return err
			}
		}

	case List:
		if e.canonical {
			x = flattenList(x)
			if len(x.Elements) == 0 {
				return e.writeTerm(x.Tail)
			}
		}
		if err := e.putLength(ettList, len(x.Elements)); err != nil {
			return err
		}
		for _, item := range x.Elements {
			if err := e.writeTerm(item); err != nil {
				return err
			}
		}
		return e.writeTerm(x.Tail)

	case *Map:
		if err := e.putLength(ettMap, x.Len()); err != nil {
			return err
		}
		pairs := x.Pairs()
		if e.canonical {
			// insertion order must not matter for equality
			pairs = append([]Pair(nil), pairs...)
			sort.Slice(pairs, func(i, j int) bool {
				return termKey(pairs[i].Key) < termKey(pairs[j].Key)
			})
		}
		for _, p := range pairs {
			if err := e.writeTerm(p.Key); err != nil {
				return err
			}
			if err := e.writeTerm(p.Value); err != nil {
				return err
			}
		}

	case Nil:
		e.buf.AppendByte(ettNil)

	case Binary:
		return e.writeBinary(x)

	case BitBinary:
		return e.writeBitBinary(x)

	case String:
		if e.canonical {
			// a string is a list of bytes
			return e.writeTerm(flattenList(List{Tail: x}))
		}
		return e.writeString(string(x))

	case Big:
		if x.Int == nil {
			return e.fieldError(ettSmallBig, "nil big integer")
		}
		if e.canonical && x.Int.IsInt64() {
			e.writeInt64(x.Int.Int64())
			break
		}
		return e.writeBig(x.Int)

	case Pid:
		if err := e.checkMode(ettPid); err != nil {
			return err
		}
		e.buf.AppendByte(ettPid)
		if err := e.writeNode(x.Node); err != nil {
			return err
		}
		b := e.buf.Extend(9)
		binary.BigEndian.PutUint32(b[0:4], x.ID)
		binary.BigEndian.PutUint32(b[4:8], x.Serial)
		b[8] = x.Creation

	case Port:
		if err := e.checkMode(ettPort); err != nil {
			return err
		}
		e.buf.AppendByte(ettPort)
		if err := e.writeNode(x.Node); err != nil {
			return err
		}
		b := e.buf.Extend(5)
		binary.BigEndian.PutUint32(b[0:4], x.ID)
		b[4] = x.Creation

	case OldRef:
		if err := e.checkMode(ettRef); err != nil {
			return err
		}
		e.buf.AppendByte(ettRef)
		if err := e.writeNode(x.Node); err != nil {
			return err
		}
		b := e.buf.Extend(5)
		binary.BigEndian.PutUint32(b[0:4], x.ID)
		b[4] = x.Creation

	case Ref:
		if err := e.checkMode(ettNewRef); err != nil {
			return err
		}
		if len(x.ID) > math.MaxUint16 {
			return e.fieldError(ettNewRef, "%d id words do not fit into 2 bytes", len(x.ID))
		}
		b := e.buf.Extend(3)
		b[0] = ettNewRef
		binary.BigEndian.PutUint16(b[1:3], uint16(len(x.ID)))
		if err := e.writeNode(x.Node); err != nil {
			return err
		}
		e.buf.AppendByte(x.Creation)
		for _, id := range x.ID {
			binary.BigEndian.PutUint32(e.buf.Extend(4), id)
		}

	case Fun:
		switch x.Tag {
		case ettFun, ettNewFun, ettExport:
		default:
			return e.fieldError(x.Tag, "not a fun tag")
		}
		// opaque payload, written back verbatim
		e.buf.AppendByte(x.Tag)
		e.buf.Append(x.Raw)

	case DistributionHeader:
		e.buf.AppendByte(ettDistHeader)
		e.buf.Append(x.Raw)

	case Bool:
		if !e.cfg.Loqui && !e.canonical {
			return &ModeError{Offset: e.buf.Len(), Message: "booleans require Loqui mode"}
		}
		name := "false"
		if x {
			name = "true"
		}
		if e.canonical {
			return e.writeAtom(Atom{Name: name, Form: AtomUTF8})
		}
		return e.writeAtom(e.nativeAtom(name))

	default:
		return &UnsupportedError{Type: reflect.TypeOf(t).String()}
	}
	return nil
}

func (e *Encoder) checkMode(t byte) error {
	if e.cfg.Bert && bertIllegal(t) {
		return &ModeError{Offset: e.buf.Len(), Tag: t, Message: "tag not allowed in BERT mode"}
	}
	return nil
}

func (e *Encoder) fieldError(tag byte, format string, args ...interface{}) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &FormatError{Offset: e.buf.Len(), Tag: tag, Message: msg}
}

func (e *Encoder) putTag32(tag byte, v uint32) {
	b := e.buf.Extend(5)
	b[0] = tag
	binary.BigEndian.PutUint32(b[1:5], v)
}

// putLength writes tag followed by a 4 byte length, refusing lengths that
// do not fit.
func (e *Encoder) putLength(tag byte, n int) error {
	if uint64(n) > math.MaxUint32 {
		return e.fieldError(tag, "length %d does not fit into 4 bytes", n)
	}
	e.putTag32(tag, uint32(n))
	return nil
}

func (e *Encoder) tupleHeader(n int) error {
	if n <= math.MaxUint8 {
		e.buf.Append([]byte{ettSmallTuple, byte(n)})
		return nil
	}
	return e.putLength(ettLargeTuple, n)
}

// nativeAtom picks the atom form for a Go string: the smallest UTF-8 form,
// or ATOM_EXT in BERT mode.
func (e *Encoder) nativeAtom(name string) Atom {
	if e.cfg.Bert {
		if _, err := encodeLatin1(name); err == nil {
			return Atom{Name: name, Form: AtomLatin1}
		}
		return Atom{Name: name, Form: AtomUTF8}
	}
	return NewAtom(name)
}

func (e *Encoder) writeAtom(a Atom) error {
	tag := a.Form.tag()
	if err := e.checkMode(tag); err != nil {
		return err
	}

	var text []byte
	if a.Form.Latin1() {
		encoded, err := encodeLatin1(a.Name)
		if err != nil {
			return e.fieldError(tag, "atom %q is not representable in Latin-1", a.Name)
		}
		text = encoded
	} else {
		if !utf8.ValidString(a.Name) {
			return e.fieldError(tag, "atom %q is not valid UTF-8", a.Name)
		}
		text = []byte(a.Name)
	}

	size := len(text)
	if a.Form.Small() {
		if size > math.MaxUint8 {
			return e.fieldError(tag, "atom is too big (%d bytes)", size)
		}
		e.buf.Append([]byte{tag, byte(size)})
	} else {
		if size > math.MaxUint16 {
			return e.fieldError(tag, "atom is too big (%d bytes)", size)
		}
		e.buf.Append([]byte{tag, byte(size >> 8), byte(size)})
	}
	e.buf.Append(text)
	return nil
}

func (e *Encoder) writeNode(n NodeRef) error {
	if n.Cached {
		if err := e.checkMode(ettCacheRef); err != nil {
			return err
		}
		e.buf.Append([]byte{ettCacheRef, n.Index})
		return nil
	}
	name := n.Name
	if e.canonical {
		name.Form = AtomUTF8
	}
	return e.writeAtom(name)
}

// flattenList merges list and string tails into the elements so that
// [1|[2]], [1,2] and [1|"\x02"] come out the same.
func flattenList(l List) List {
	elements := append([]Term(nil), l.Elements...)
	tail := l.Tail
	for {
		switch t := tail.(type) {
		case List:
			elements = append(elements, t.Elements...)
			tail = t.Tail
			continue
		case String:
			for i := 0; i < len(t); i++ {
				elements = append(elements, SmallInt(t[i]))
			}
			tail = Nil{}
		}
		return List{Elements: elements, Tail: tail}
	}
}

func (e *Encoder) writeString(s string) error {
	size := len(s)
	if size > math.MaxUint16 {
		return e.fieldError(ettString, "string is too big (%d bytes)", size)
	}
	e.buf.Append([]byte{ettString, byte(size >> 8), byte(size)})
	e.buf.AppendString(s)
	return nil
}

func (e *Encoder) writeBinary(b []byte) error {
	if err := e.putLength(ettBinary, len(b)); err != nil {
		return err
	}
	e.buf.Append(b)
	return nil
}

func (e *Encoder) writeBitBinary(b BitBinary) error {
	if err := e.checkMode(ettBitBinary); err != nil {
		return err
	}
	if b.Bits < 1 || b.Bits > 8 {
		return e.fieldError(ettBitBinary, "%d trailing bits, must be 1..8", b.Bits)
	}
	if len(b.Data) == 0 {
		return e.fieldError(ettBitBinary, "empty bitstring")
	}
	if err := e.putLength(ettBitBinary, len(b.Data)); err != nil {
		return err
	}
	e.buf.AppendByte(b.Bits)
	start := e.buf.Len()
	e.buf.Append(b.Data)
	last := start + len(b.Data) - 1
	e.buf.B[last] &= byte(0xff << (8 - b.Bits))
	return nil
}

func (e *Encoder) writeInt64(x int64) {
	switch {
	case x >= 0 && x <= math.MaxUint8:
		e.buf.Append([]byte{ettSmallInteger, byte(x)})

	case x >= math.MinInt32 && x <= math.MaxInt32:
		e.putTag32(ettInteger, uint32(int32(x)))

	default:
		e.writeBig(big.NewInt(x))
	}
}

func (e *Encoder) writeUint64(x uint64) {
	switch {
	case x <= math.MaxUint8:
		e.buf.Append([]byte{ettSmallInteger, byte(x)})

	case x <= math.MaxInt32:
		e.putTag32(ettInteger, uint32(x))

	default:
		e.writeBig(new(big.Int).SetUint64(x))
	}
}

// writeBig writes sign and magnitude, the magnitude little endian in as few
// bytes as it takes. Zero is written with a single magnitude byte.
func (e *Encoder) writeBig(x *big.Int) error {
	sign := byte(0)
	if x.Sign() < 0 {
		sign = 1
	}

	magnitude := new(big.Int).Abs(x).Bytes()
	if len(magnitude) == 0 {
		magnitude = []byte{0}
	}
	reverse(magnitude)

	switch size := len(magnitude); {
	case size <= math.MaxUint8:
		e.buf.Append([]byte{ettSmallBig, byte(size), sign})

	case uint64(size) <= math.MaxUint32:
		b := e.buf.Extend(6)
		b[0] = ettLargeBig
		binary.BigEndian.PutUint32(b[1:5], uint32(size))
		b[5] = sign

	default:
		return e.fieldError(ettLargeBig, "bad big int size (%d)", size)
	}

	e.buf.Append(magnitude)
	return nil
}

func (e *Encoder) writeNativeFloat(f float64) error {
	if e.cfg.Bert {
		return e.writeOldFloat(f)
	}
	return e.writeNewFloat(f)
}

func (e *Encoder) writeNewFloat(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return e.fieldError(ettNewFloat, "%v can not be represented", f)
	}
	b := e.buf.Extend(9)
	b[0] = ettNewFloat
	binary.BigEndian.PutUint64(b[1:9], math.Float64bits(f))
	return nil
}

// writeOldFloat writes the value the way erlang:float_to_list/2 does with
// {scientific, 20}, NUL padded to 31 bytes.
func (e *Encoder) writeOldFloat(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return e.fieldError(ettFloat, "%v can not be represented", f)
	}
	text := strconv.FormatFloat(f, 'e', 20, 64)
	if len(text) > oldFloatLength {
		return e.fieldError(ettFloat, "%q does not fit into %d bytes", text, oldFloatLength)
	}
	b := e.buf.Extend(1 + oldFloatLength)
	b[0] = ettFloat
	n := copy(b[1:], text)
	for i := 1 + n; i < len(b); i++ {
		b[i] = 0
	}
	return nil
}

func encodeLatin1(s string) ([]byte, error) {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
		}
	}
	return []byte(s), nil
}

func reverse(b []byte) []byte {
	size := len(b)
	hsize := size >> 1

	for i := 0; i < hsize; i++ {
		b[i], b[size-i-1] = b[size-i-1], b[i]
	}

	return b
}
