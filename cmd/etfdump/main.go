// etfdump decodes Erlang external term format payloads and prints them as
// Erlang terms, JSON, YAML or CBOR. With --encode it goes the other way:
// JSON (comments allowed), YAML or CBOR documents are encoded into ETF.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ergo-services/termcodec/etf"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		configPath string
		verbose    bool
		version    int
	)
	opts := defaultOptions()

	flagSet := pflag.NewFlagSet("etfdump", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVarP(&configPath, "config", "c", "", "TOML file with the codec settings")
	flagSet.BoolVarP(&opts.encode, "encode", "e", false, "encode a JSON/YAML/CBOR document into ETF")
	flagSet.StringVarP(&opts.input, "input", "i", "", "input format: raw, hex, list (decode); json, yaml, cbor (encode)")
	flagSet.StringVarP(&opts.format, "format", "f", "", "output format: term, json, yaml, cbor (decode); raw, hex, list (encode)")
	flagSet.BoolVarP(&opts.all, "all", "a", false, "decode every term in the input, not just the first one")
	flagSet.IntVar(&version, "version", int(etf.EtVersion), "leading version byte")
	flagSet.BoolVar(&opts.cfg.Bert, "bert", false, "BERT mode")
	flagSet.BoolVar(&opts.cfg.Loqui, "loqui", false, "Loqui mode: true, false and nil atoms")
	flagSet.BoolVar(&opts.cfg.IncludeHeader, "header", false, "compressed envelope")
	flagSet.BoolVar(&opts.cfg.IncludeDistributionHeader, "dist-header", false, "emit an empty distribution header")
	flagSet.BoolVar(&opts.cfg.Compress, "compress", false, "best zlib compression inside the envelope")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(stdout, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stdout, flagSet)
		return nil
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()
	etf.SetLogger(logger)
	defer etf.SetLogger(nil)

	if configPath != "" {
		// flags given on the command line win over the file
		if err := loadConfig(configPath, &opts, flagSet.Changed); err != nil {
			return err
		}
		logger.Debug("loaded config", zap.String("path", configPath))
	}
	if flagSet.Changed("version") {
		if version < 0 || version > 255 {
			return fmt.Errorf("version %d does not fit into a byte", version)
		}
		opts.cfg.Version = byte(version)
	}
	if err := opts.normalize(); err != nil {
		return err
	}

	var source io.Reader = stdin
	if rest := flagSet.Args(); len(rest) > 0 && rest[0] != "-" {
		f, err := os.Open(rest[0])
		if err != nil {
			return err
		}
		defer f.Close()
		source = f
	}

	data, err := io.ReadAll(source)
	if err != nil {
		return err
	}
	logger.Debug("input",
		zap.Int("bytes", len(data)),
		zap.Bool("encode", opts.encode),
		zap.String("input", opts.input),
		zap.String("format", opts.format),
	)

	if opts.encode {
		return encode(data, opts, stdout)
	}
	return decode(data, opts, stdout)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(w, `etfdump: inspect and produce Erlang external term format payloads.

Usage:
  etfdump [flags] [file]

Reads from stdin when no file (or "-") is given.

Examples:
  # print a gateway payload captured as hex
  echo 837400000001770164610a | etfdump -i hex --loqui -f json

  # encode a JSON document the way the Discord gateway expects it
  etfdump -e --loqui payload.json

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
