package etf

import (
	"errors"
	"math/big"
	"reflect"
	"testing"
)

func TestMarshal(t *testing.T) {
	fields := map[string]interface{}{
		"op": 2,
		"d": map[string]interface{}{
			"token":      []byte("secret"),
			"properties": []interface{}{"linux", 1.5},
		},
	}

	for _, cfg := range []Config{DefaultConfig(), LoquiConfig()} {
		packet, err := Marshal(fields, cfg)
		if err != nil {
			t.Fatal(err)
		}
		m, err := UnmarshalMap(packet, cfg)
		if err != nil {
			t.Fatal(err)
		}

		if op, ok := m.Lookup("op"); !ok || op != SmallInt(2) {
			t.Fatal(op, ok)
		}

		native := ToNative(m)
		expected := map[string]interface{}{
			"op": int64(2),
			"d": map[string]interface{}{
				"token":      "secret",
				"properties": []interface{}{"linux", 1.5},
			},
		}
		if !reflect.DeepEqual(native, expected) {
			t.Fatalf("got %#v", native)
		}
	}
}

func TestMarshalBool(t *testing.T) {
	packet, err := Marshal(map[string]interface{}{"compress": false}, LoquiConfig())
	if err != nil {
		t.Fatal(err)
	}
	m, err := UnmarshalMap(packet, LoquiConfig())
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := m.Lookup("compress"); v != Bool(false) {
		t.Fatalf("got %#v", v)
	}

	// a bool can not be written without loqui
	var me *ModeError
	if _, err := Marshal(map[string]interface{}{"a": true}, DefaultConfig()); !errors.As(err, &me) {
		t.Fatalf("expected ModeError, got %v", err)
	}
}

func TestUnmarshal(t *testing.T) {
	term, err := Unmarshal([]byte{131, 97, 10}, LoquiConfig())
	if err != nil || term != SmallInt(10) {
		t.Fatal(term, err)
	}

	var fe *FormatError
	if _, err := UnmarshalMap([]byte{131, 97, 10}, LoquiConfig()); !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if _, err := Unmarshal([]byte{131, 97, 10}, DefaultConfig()); !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestToNative(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 70)
	cases := []struct {
		term     Term
		expected interface{}
	}{
		{Nil{}, nil},
		{Int(-5), int64(-5)},
		{NewBig(big.NewInt(7)), int64(7)},
		{NewBig(huge), huge},
		{OldFloat(1.5), 1.5},
		{Binary{0xff}, []byte{0xff}},
		{String("abc"), "abc"},
		{BitBinary{Data: []byte{1}, Bits: 8}, []byte{1}},
		{Tuple{NewAtom("a"), SmallInt(1)}, []interface{}{"a", int64(1)}},
		{List{Elements: []Term{SmallInt(1)}, Tail: SmallInt(2)}, []interface{}{int64(1), int64(2)}},
		{MapOf(SmallInt(1), Bool(true)), map[string]interface{}{"1": true}},
		{Pid{Node: NodeRef{Name: NewAtom("n")}, ID: 1, Serial: 2}, "<n.1.2>"},
	}
	for _, c := range cases {
		if got := ToNative(c.term); !reflect.DeepEqual(got, c.expected) {
			t.Errorf("%s: got %#v, want %#v", Sprint(c.term), got, c.expected)
		}
	}
}
