package etf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ergo-services/termcodec/lib"
)

func TestHeaderRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.Compress = compress

		packet := encodeOne(t, cfg, Tuple{NewAtom("hello"), Binary(lib.RandomPayload(512))})
		if packet[0] != 131 || packet[1] != ettHeader {
			t.Fatalf("compress=%v: missing envelope %v", compress, packet[:2])
		}
		// the version byte travels on the envelope only
		body := 2 + 7 + 5 + 512
		if size := binary.BigEndian.Uint32(packet[2:6]); size != uint32(body) {
			t.Fatalf("compress=%v: declared size %d", compress, size)
		}

		term := decodeOne(t, cfg, packet)
		tuple, ok := term.(Tuple)
		if !ok || len(tuple) != 2 || tuple[0] != NewAtom("hello") {
			t.Fatalf("compress=%v: got %s", compress, Sprint(term))
		}

		// the version byte in front of the envelope is optional
		term = decodeOne(t, cfg, packet[1:])
		if _, ok := term.(Tuple); !ok {
			t.Fatalf("compress=%v: got %s", compress, Sprint(term))
		}
	}
}

func TestHeaderCompresses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Compress = true
	payload := bytes.Repeat([]byte("abcd"), 1000)

	packet := encodeOne(t, cfg, payload)
	if len(packet) >= len(payload) {
		t.Fatalf("payload of %d bytes compressed to %d", len(payload), len(packet))
	}
}

func TestHeaderErrors(t *testing.T) {
	cfg := DefaultConfig()

	var fe *FormatError
	if _, err := cfg.NewDecoder([]byte{131, 97, 10}); !errors.As(err, &fe) {
		t.Fatalf("expected FormatError for a missing header, got %v", err)
	}
	if _, err := cfg.NewDecoder(nil); !errors.As(err, &fe) {
		t.Fatalf("expected FormatError for empty data, got %v", err)
	}

	packet := encodeOne(t, cfg, SmallInt(10))

	var ce *CompressionError
	wrong := append([]byte{}, packet...)
	binary.BigEndian.PutUint32(wrong[2:], 3)
	if _, err := cfg.NewDecoder(wrong); !errors.As(err, &ce) {
		t.Fatalf("expected CompressionError for a wrong declared size, got %v", err)
	}

	wrong = append([]byte{}, packet...)
	binary.BigEndian.PutUint32(wrong[2:], 1)
	if _, err := cfg.NewDecoder(wrong); !errors.As(err, &ce) {
		t.Fatalf("expected CompressionError for a wrong declared size, got %v", err)
	}

	wrong = append([]byte{}, packet...)
	binary.BigEndian.PutUint32(wrong[2:], 0xffffffff)
	if _, err := cfg.NewDecoder(wrong); !errors.As(err, &ce) {
		t.Fatalf("expected CompressionError for a huge declared size, got %v", err)
	}

	if _, err := cfg.NewDecoder(packet[:len(packet)-3]); !errors.As(err, &ce) {
		t.Fatalf("expected CompressionError for a truncated stream, got %v", err)
	}
	if ce.Unwrap() == nil {
		t.Fatal("expected the underlying error")
	}

	// a fragment never expects the envelope
	dec, err := cfg.NewPartialDecoder([]byte{131, 97, 10})
	if err != nil {
		t.Fatal(err)
	}
	if term, err := dec.Next(); err != nil || term != SmallInt(10) {
		t.Fatal(term, err)
	}
}

func TestHeaderNested(t *testing.T) {
	dec, _ := plain.NewDecoder([]byte{131, ettHeader, 0, 0, 0, 0})
	var fe *FormatError
	if _, err := dec.Next(); !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}
