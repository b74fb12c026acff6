package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/ergo-services/termcodec/etf"
)

var (
	// deterministic output: sorted map keys, smallest integer encoding
	cborEnc cbor.EncMode
	// documents with string keys decode into map[string]interface{}, the
	// shape the encoder turns into an atom keyed map
	cborDec cbor.DecMode
)

func init() {
	var err error
	if cborEnc, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic("etfdump: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
	}.DecMode()
	if err != nil {
		panic("etfdump: CBOR decoder initialization failed: " + err.Error())
	}
}

func decode(data []byte, opts options, w io.Writer) error {
	packet, err := parseBytes(data, opts.input)
	if err != nil {
		return err
	}

	dec, err := opts.cfg.NewDecoder(packet)
	if err != nil {
		return err
	}

	var terms []etf.Term
	if opts.all {
		if terms, err = dec.ReadAll(); err != nil {
			return err
		}
	} else {
		term, err := dec.Next()
		if err != nil {
			return err
		}
		terms = append(terms, term)
	}

	for _, term := range terms {
		if err := printTerm(w, term, opts.format); err != nil {
			return err
		}
	}
	return nil
}

func printTerm(w io.Writer, term etf.Term, format string) error {
	switch format {
	case "term":
		_, err := fmt.Fprintln(w, etf.Sprint(term))
		return err

	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(etf.ToNative(term))

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(etf.ToNative(term)); err != nil {
			return err
		}
		return enc.Close()

	case "cbor":
		out, err := cborEnc.Marshal(etf.ToNative(term))
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}

func encode(data []byte, opts options, w io.Writer) error {
	var doc interface{}
	switch opts.input {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return fmt.Errorf("parsing JSON: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing YAML: %w", err)
		}
	case "cbor":
		if err := cborDec.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing CBOR: %w", err)
		}
	default:
		return fmt.Errorf("unknown input format %q", opts.input)
	}

	enc := opts.cfg.NewEncoder()
	if err := enc.Write(lower(doc)); err != nil {
		return err
	}
	packet, err := enc.Bytes()
	if err != nil {
		return err
	}

	switch opts.format {
	case "raw":
		_, err = w.Write(packet)
	case "hex":
		_, err = fmt.Fprintln(w, hex.EncodeToString(packet))
	case "list":
		_, err = fmt.Fprintln(w, byteList(packet))
	default:
		err = fmt.Errorf("unknown output format %q", opts.format)
	}
	return err
}

// lower prepares a parsed document for the encoder: text values become
// binaries (map keys stay atoms) and JSON numbers become int64 or float64.
func lower(v interface{}) interface{} {
	switch x := v.(type) {
	case string:
		return etf.Binary(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return etf.Binary(x.String())
	case []interface{}:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = lower(x[i])
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, item := range x {
			out[k] = lower(item)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[interface{}]interface{}, len(x))
		for k, item := range x {
			out[k] = lower(item)
		}
		return out
	}
	return v
}

// parseBytes turns the input into the payload bytes. hex accepts any
// whitespace between digits; list accepts decimal bytes as printed by
// erlang (<<131,97,1>>) or by the decoder (<131, 97, 1>).
func parseBytes(data []byte, input string) ([]byte, error) {
	switch input {
	case "raw":
		return data, nil

	case "hex":
		text := strings.Join(strings.Fields(string(data)), "")
		packet, err := hex.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("parsing hex input: %w", err)
		}
		return packet, nil

	case "list":
		text := strings.Trim(strings.TrimSpace(string(data)), "<>[]")
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == '\r'
		})
		packet := make([]byte, 0, len(fields))
		for _, f := range fields {
			b, err := strconv.ParseUint(f, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("parsing byte list: %w", err)
			}
			packet = append(packet, byte(b))
		}
		return packet, nil
	}
	return nil, fmt.Errorf("unknown input format %q", input)
}

func byteList(packet []byte) string {
	var sb strings.Builder
	sb.WriteString("<<")
	for i, b := range packet {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(b)))
	}
	sb.WriteString(">>")
	return sb.String()
}
