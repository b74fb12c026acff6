package lib

import (
	"fmt"
	"io"
	"sync"
)

// Buffer is a growable byte sink. Capacity doubles whenever a pending
// write would not fit into the space left, so appends are amortized O(1).
type Buffer struct {
	B        []byte
	original []byte
}

var (
	DefaultBufferLength = 4096
	buffers             = &sync.Pool{
		New: func() interface{} {
			b := &Buffer{
				B: make([]byte, 0, DefaultBufferLength),
			}
			b.original = b.B
			return b
		},
	}
)

// NewBuffer allocates a buffer outside of the pool with the given initial
// capacity. Zero or negative capacity falls back to 64 bytes.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 64
	}
	b := &Buffer{B: make([]byte, 0, capacity)}
	b.original = b.B
	return b
}

// TakeBuffer
func TakeBuffer() *Buffer {
	return buffers.Get().(*Buffer)
}

// ReleaseBuffer returns the buffer to the pool. The caller must not use b
// (or any slice obtained from b.B) afterwards.
func ReleaseBuffer(b *Buffer) {
	b.B = b.original[:0]
	buffers.Put(b)
}

// Reset
func (b *Buffer) Reset() {
	b.B = b.B[:0]
}

// AppendByte
func (b *Buffer) AppendByte(v byte) {
	b.Extend(1)[0] = v
}

// Append
func (b *Buffer) Append(v []byte) {
	copy(b.Extend(len(v)), v)
}

// AppendString
func (b *Buffer) AppendString(s string) {
	copy(b.Extend(len(s)), s)
}

// String
func (b *Buffer) String() string {
	return string(b.B)
}

// Len
func (b *Buffer) Len() int {
	return len(b.B)
}

func (b *Buffer) Cap() int {
	return cap(b.B)
}

// Bytes returns a copy of the written bytes, trimmed to the written length.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, len(b.B))
	copy(out, b.B)
	return out
}

// ReadDataFrom performs a single read from r into the spare capacity,
// doubling it first when the buffer is full. It refuses to read once the
// buffer holds limit bytes or more. Zero limit means no limit.
func (b *Buffer) ReadDataFrom(r io.Reader, limit int) (int, error) {
	lenB := len(b.B)
	if limit > 0 && lenB >= limit {
		return 0, fmt.Errorf("buffer limit of %d bytes reached", limit)
	}
	if lenB == cap(b.B) {
		b.increase()
	}
	end := cap(b.B)
	if limit > 0 && end > limit {
		end = limit
	}
	n, err := r.Read(b.B[lenB:end])
	b.B = b.B[:lenB+n]
	return n, err
}

func (b *Buffer) Write(v []byte) (n int, err error) {
	b.Append(v)
	return len(v), nil
}

func (b *Buffer) increase() {
	cap1 := cap(b.B) * 2
	if cap1 == 0 {
		cap1 = 64
	}
	b1 := make([]byte, len(b.B), cap1)
	copy(b1, b.B)
	b.B = b1
}

// Allocate sets the length of the buffer to n, growing it if needed.
func (b *Buffer) Allocate(n int) {
	for cap(b.B) < n {
		b.increase()
	}
	b.B = b.B[:n]
}

// Extend grows the length by n and returns the newly exposed tail for the
// caller to fill in.
func (b *Buffer) Extend(n int) []byte {
	l := len(b.B)
	e := l + n
	for e > cap(b.B) {
		b.increase()
	}
	b.B = b.B[:e]
	return b.B[l:e]
}
