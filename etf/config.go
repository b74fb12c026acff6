package etf

// Config is the capability set shared by decoders and encoders. It is a
// plain value: once built it is only read, so a single Config can serve any
// number of concurrently running decoders and encoders.
type Config struct {
	// Version is the leading protocol byte, 131 for every released OTP.
	Version byte
	// Bert restricts the codec to the tags allowed by BERT.
	Bert bool
	// Loqui enables the Discord gateway dialect: booleans and nil travel
	// as the atoms true, false and nil.
	Loqui bool
	// IncludeHeader wraps the payload into the compressed envelope
	// [version][80][size:u32][zlib stream].
	IncludeHeader bool
	// IncludeDistributionHeader emits an (empty) distribution header in
	// place of the version byte.
	IncludeDistributionHeader bool
	// Compress selects the zlib level used inside the envelope: best
	// compression when set, stored blocks otherwise.
	Compress bool
}

// DefaultConfig returns plain ETF with the compressed envelope enabled.
func DefaultConfig() Config {
	return Config{
		Version:       EtVersion,
		IncludeHeader: true,
	}
}

// LoquiConfig returns the profile spoken by the Discord gateway: no
// envelope, Loqui atoms for booleans and nil.
func LoquiConfig() Config {
	return Config{
		Version: EtVersion,
		Loqui:   true,
	}
}

// BertConfig returns the BERT profile.
func BertConfig() Config {
	return Config{
		Version: EtVersion,
		Bert:    true,
	}
}

// NewDecoder returns a decoder over data, unwrapping the envelope if the
// config asks for it.
func (c Config) NewDecoder(data []byte) (*Decoder, error) {
	return newDecoder(data, c, false)
}

// NewPartialDecoder returns a decoder over a fragment of a payload: the
// envelope is never expected, a leading version byte is still skipped.
func (c Config) NewPartialDecoder(data []byte) (*Decoder, error) {
	return newDecoder(data, c, true)
}

// NewEncoder returns an encoder producing complete payloads.
func (c Config) NewEncoder() *Encoder {
	return newEncoder(c, false)
}

// NewPartialEncoder returns an encoder producing a fragment: the envelope
// and the distribution header are never emitted.
func (c Config) NewPartialEncoder() *Encoder {
	return newEncoder(c, true)
}
