package etf

import (
	"fmt"
)

// FormatError reports malformed input: an unknown or unexpected tag, a
// length running past the end of the buffer, a broken envelope. It is also
// returned by the encoder when a value does not fit its wire field.
type FormatError struct {
	Offset  int
	Tag     byte
	Message string
	// Context holds the bytes surrounding Offset, when available.
	Context []byte
}

func (e *FormatError) Error() string {
	if e.Tag != 0 {
		return fmt.Sprintf("Malformed ETF. %s at offset %d: %s", TagName(e.Tag), e.Offset, e.Message)
	}
	return fmt.Sprintf("Malformed ETF at offset %d: %s", e.Offset, e.Message)
}

// ModeError reports a term that is not allowed by the configured dialect:
// a plain ETF only tag in BERT mode or a Loqui value with Loqui disabled.
type ModeError struct {
	Offset  int
	Tag     byte
	Message string
}

func (e *ModeError) Error() string {
	if e.Tag != 0 {
		return fmt.Sprintf("ETF mode mismatch. %s at offset %d: %s", TagName(e.Tag), e.Offset, e.Message)
	}
	return fmt.Sprintf("ETF mode mismatch at offset %d: %s", e.Offset, e.Message)
}

// UnsupportedError reports a recognized tag the codec does not parse (funs,
// exports, the distribution header), or a Go value the encoder has no
// mapping for.
type UnsupportedError struct {
	Offset int
	Tag    byte
	// Type names the offending Go type on encoding.
	Type string
}

func (e *UnsupportedError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("ETF encoding error. Unsupported type %s", e.Type)
	}
	return fmt.Sprintf("ETF decoding error. %s at offset %d is not supported", TagName(e.Tag), e.Offset)
}

// CompressionError reports a broken compressed envelope: a truncated or
// corrupt zlib stream or a declared size that does not match the payload.
type CompressionError struct {
	Offset int
	Err    error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("ETF compression error at offset %d: %v", e.Offset, e.Err)
}

func (e *CompressionError) Unwrap() error {
	return e.Err
}
