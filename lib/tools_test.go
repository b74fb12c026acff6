package lib

import (
	"bytes"
	"testing"
)

func TestBuffer(t *testing.T) {
	b := TakeBuffer()
	defer ReleaseBuffer(b)

	if cap(b.B) != DefaultBufferLength {
		t.Fatal("incorrect capacity")
	}

	if len(b.B) != 0 {
		t.Fatal("should be zero length")
	}
}

func TestBufferDoubling(t *testing.T) {
	b := NewBuffer(4)
	b.AppendString("abcd")
	if b.Cap() != 4 {
		t.Fatalf("unexpected capacity %d", b.Cap())
	}

	b.AppendByte('e')
	if b.Cap() != 8 {
		t.Fatalf("capacity must double, got %d", b.Cap())
	}

	b.Append(bytes.Repeat([]byte{'x'}, 20))
	if b.Cap() != 32 {
		t.Fatalf("capacity must double until it fits, got %d", b.Cap())
	}

	out := b.Bytes()
	if len(out) != 25 || string(out[:5]) != "abcde" {
		t.Fatalf("unexpected content %q", out)
	}

	b.Reset()
	if b.Len() != 0 || b.Cap() != 32 {
		t.Fatal("reset must keep capacity and drop content")
	}
}

func TestBufferExtend(t *testing.T) {
	b := NewBuffer(0)
	tail := b.Extend(3)
	copy(tail, "xyz")
	if b.String() != "xyz" {
		t.Fatalf("got %q", b.String())
	}

	for _, n := range []int{0, 1, 31, 32} {
		if len(RandomPayload(n)) != n {
			t.Fatalf("incorrect payload length for %d", n)
		}
	}
}

func TestBufferReadDataFrom(t *testing.T) {
	b := NewBuffer(2)
	src := bytes.NewReader([]byte("abcdefgh"))
	for {
		if _, err := b.ReadDataFrom(src, 0); err != nil {
			break
		}
	}
	if b.String() != "abcdefgh" {
		t.Fatalf("got %q", b.String())
	}

	b = NewBuffer(64)
	src = bytes.NewReader([]byte("abcdefgh"))
	if n, err := b.ReadDataFrom(src, 3); n != 3 || err != nil {
		t.Fatal(n, err)
	}
	if _, err := b.ReadDataFrom(src, 3); err == nil {
		t.Fatal("expected error past the limit")
	}
	if b.String() != "abc" {
		t.Fatalf("got %q", b.String())
	}
}
