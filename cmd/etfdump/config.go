package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ergo-services/termcodec/etf"
)

type options struct {
	cfg    etf.Config
	encode bool
	all    bool
	input  string
	format string
}

func defaultOptions() options {
	return options{
		cfg: etf.Config{Version: etf.EtVersion},
	}
}

var (
	decodeInputs  = []string{"raw", "hex", "list"}
	decodeFormats = []string{"term", "json", "yaml", "cbor"}
	encodeInputs  = []string{"json", "yaml", "cbor"}
	encodeFormats = []string{"raw", "hex", "list"}
)

// normalize fills in the defaults for the selected direction and rejects
// formats that make no sense for it.
func (o *options) normalize() error {
	inputs, formats := decodeInputs, decodeFormats
	if o.encode {
		inputs, formats = encodeInputs, encodeFormats
	}

	o.input = strings.ToLower(strings.TrimSpace(o.input))
	if o.input == "" {
		o.input = inputs[0]
	}
	if !contains(inputs, o.input) {
		return fmt.Errorf("unknown input format %q, expected one of %s", o.input, strings.Join(inputs, ", "))
	}

	o.format = strings.ToLower(strings.TrimSpace(o.format))
	if o.format == "" {
		o.format = formats[0]
		if o.encode {
			// raw ETF on a terminal is unreadable
			o.format = "hex"
		}
	}
	if !contains(formats, o.format) {
		return fmt.Errorf("unknown output format %q, expected one of %s", o.format, strings.Join(formats, ", "))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

type fileConfig struct {
	Version                   int    `toml:"version"`
	Bert                      bool   `toml:"bert"`
	Loqui                     bool   `toml:"loqui"`
	IncludeHeader             bool   `toml:"include_header"`
	IncludeDistributionHeader bool   `toml:"include_distribution_header"`
	Compress                  bool   `toml:"compress"`
	Input                     string `toml:"input"`
	Format                    string `toml:"format"`
	All                       bool   `toml:"all"`
}

// loadConfig applies the settings found in the TOML file at path to opts.
// Settings whose flag was given on the command line (changed reports it)
// are left alone.
func loadConfig(path string, opts *options, changed func(name string) bool) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	apply := func(key, flag string, fn func()) {
		if meta.IsDefined(key) && !changed(flag) {
			fn()
		}
	}

	var versionErr error
	apply("version", "version", func() {
		if raw.Version < 0 || raw.Version > 255 {
			versionErr = fmt.Errorf("load config: version %d does not fit into a byte", raw.Version)
			return
		}
		opts.cfg.Version = byte(raw.Version)
	})
	if versionErr != nil {
		return versionErr
	}

	apply("bert", "bert", func() { opts.cfg.Bert = raw.Bert })
	apply("loqui", "loqui", func() { opts.cfg.Loqui = raw.Loqui })
	apply("include_header", "header", func() { opts.cfg.IncludeHeader = raw.IncludeHeader })
	apply("include_distribution_header", "dist-header", func() {
		opts.cfg.IncludeDistributionHeader = raw.IncludeDistributionHeader
	})
	apply("compress", "compress", func() { opts.cfg.Compress = raw.Compress })
	apply("input", "input", func() { opts.input = raw.Input })
	apply("format", "format", func() { opts.format = raw.Format })
	apply("all", "all", func() { opts.all = raw.All })
	return nil
}
