package etf

import (
	"fmt"

	"github.com/klauspost/compress/zlib"
	"go.uber.org/zap"

	"github.com/ergo-services/termcodec/lib"
)

// unwrapHeader strips [version][80][size:u32] from data and inflates the
// zlib stream that follows. The version byte is optional.
func unwrapHeader(data []byte, version byte) ([]byte, error) {
	offset := 0
	if len(data) > 0 && data[0] == version {
		offset++
	}

	if len(data) <= offset || data[offset] != ettHeader {
		return nil, &FormatError{
			Offset:  offset,
			Message: "missing header, is this data malformed?",
			Context: window(data, offset),
		}
	}
	offset++

	body, err := lib.DecompressZLIB(data, uint(offset))
	if err != nil {
		return nil, &CompressionError{Offset: offset, Err: err}
	}

	if ce := Logger().Check(zap.DebugLevel, "etf: inflated payload"); ce != nil {
		ce.Write(zap.Int("compressed", len(data)), zap.Int("size", len(body)))
	}
	return body, nil
}

// wrapHeader compresses body into [version][80][size:u32][zlib stream].
func wrapHeader(body []byte, version byte, compress bool) ([]byte, error) {
	level := zlib.NoCompression
	if compress {
		level = zlib.BestCompression
	}

	buf, err := lib.CompressZLIB(body, 2, level)
	if err != nil {
		return nil, &CompressionError{Offset: len(body), Err: err}
	}
	buf.B[0] = version
	buf.B[1] = ettHeader

	if ce := Logger().Check(zap.DebugLevel, "etf: deflated payload"); ce != nil {
		ce.Write(zap.Int("size", len(body)), zap.Int("compressed", buf.Len()))
	}
	return buf.B, nil
}

// window returns a copy of the bytes around offset, for diagnostics.
func window(data []byte, offset int) []byte {
	lo := offset - 8
	if lo < 0 {
		lo = 0
	}
	hi := offset + 8
	if hi > len(data) {
		hi = len(data)
	}
	if lo >= hi {
		return nil
	}
	out := make([]byte, hi-lo)
	copy(out, data[lo:hi])
	return out
}

func mismatch(want ...byte) string {
	if len(want) == 1 {
		return fmt.Sprintf("ETF term type mismatch, expected %s", TagName(want[0]))
	}
	s := "ETF term type mismatch, expected one of"
	for _, w := range want {
		s += " " + TagName(w)
	}
	return s
}
