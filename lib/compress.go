package lib

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// inflateRatio bounds the up front allocation relative to the compressed
// size. Streams that inflate further grow the buffer as they go.
const inflateRatio = 8

var (
	// indexed by compression level + 2 (zlib.HuffmanOnly .. zlib.BestCompression)
	zlibWriters [zlib.BestCompression + 3]sync.Pool
)

// CompressZLIB compresses src into a new buffer laid out as
// [preallocate bytes][uncompressed length:u32 BE][zlib stream]. The first
// preallocate bytes are left for the caller to fill in.
func CompressZLIB(src []byte, preallocate uint, level int) (dst *Buffer, err error) {
	if len(src) > math.MaxUint32 {
		return nil, fmt.Errorf("message too large (%d bytes)", len(src))
	}
	if level < zlib.HuffmanOnly || level > zlib.BestCompression {
		return nil, fmt.Errorf("invalid compression level %d", level)
	}

	zBuffer := NewBuffer(int(preallocate) + 4 + len(src)/2)
	zBuffer.Allocate(int(preallocate) + 4)
	binary.BigEndian.PutUint32(zBuffer.B[preallocate:], uint32(len(src)))

	pool := &zlibWriters[level+2]
	zWriter, ok := pool.Get().(*zlib.Writer)
	if ok {
		zWriter.Reset(zBuffer)
	} else {
		zWriter, err = zlib.NewWriterLevel(zBuffer, level)
		if err != nil {
			return nil, err
		}
	}

	if _, err := zWriter.Write(src); err != nil {
		return nil, err
	}
	if err := zWriter.Close(); err != nil {
		return nil, err
	}
	pool.Put(zWriter)
	return zBuffer, nil
}

// DecompressZLIB reads the u32 BE uncompressed length found at src[skip:]
// and inflates the zlib stream that follows it. The stream must produce
// exactly that many bytes. Memory grows with the inflated data, never with
// the declared length alone.
func DecompressZLIB(src []byte, skip uint) (dst []byte, err error) {
	if len(src) < int(skip)+4 {
		return nil, fmt.Errorf("too short source buffer")
	}
	source := src[skip:]
	lenUnpacked := int(binary.BigEndian.Uint32(source[:4]))
	reader, err := zlib.NewReader(bytes.NewReader(source[4:]))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	// one spare byte so a stream that ends on time never forces a growth
	capacity := lenUnpacked + 1
	if guess := inflateRatio*len(source) + 64; capacity > guess {
		capacity = guess
	}
	out := NewBuffer(capacity)
	limited := io.LimitReader(reader, int64(lenUnpacked)+1)
	for {
		_, err := out.ReadDataFrom(limited, 0)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("unpacked size mismatch: got %d, expected %d", out.Len(), lenUnpacked)
		}
		if err != nil {
			return nil, err
		}
	}

	switch {
	case out.Len() > lenUnpacked:
		return nil, fmt.Errorf("unpacked size mismatch: more than %d bytes", lenUnpacked)
	case out.Len() < lenUnpacked:
		return nil, fmt.Errorf("unpacked size mismatch: got %d, expected %d", out.Len(), lenUnpacked)
	}
	return out.B, nil
}
