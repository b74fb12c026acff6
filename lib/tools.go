package lib

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomPayload returns n printable bytes, handy for filling binaries
// that should not compress to nothing.
func RandomPayload(n int) []byte {
	raw := make([]byte, (n+1)/2)
	rand.Read(raw)
	out := make([]byte, len(raw)*2)
	hex.Encode(out, raw)
	return out[:n]
}
