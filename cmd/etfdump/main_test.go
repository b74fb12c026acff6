package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runString(t *testing.T, input string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := run(args, strings.NewReader(input), &out); err != nil {
		t.Fatal(err)
	}
	return out.String()
}

func TestDecodeFormats(t *testing.T) {
	// #{d => 10}
	payload := "83 74 00000001 77 01 64 61 0a"

	cases := []struct {
		args     []string
		expected string
	}{
		{[]string{"-i", "hex"}, "#{d => 10}\n"},
		{[]string{"-i", "hex", "-f", "json"}, "{\n  \"d\": 10\n}\n"},
		{[]string{"-i", "hex", "-f", "yaml"}, "d: 10\n"},
	}
	for _, c := range cases {
		if got := runString(t, payload, c.args...); got != c.expected {
			t.Errorf("%v: got %q, want %q", c.args, got, c.expected)
		}
	}

	got := runString(t, "<<131,97,10>>", "-i", "list", "-f", "cbor")
	if !bytes.Equal([]byte(got), []byte{0x0a}) {
		t.Fatalf("got %v", []byte(got))
	}

	got = runString(t, "\x83\x61\x01\x83\x6a", "--all")
	if got != "1\n[]\n" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodeLoqui(t *testing.T) {
	payload := "<131, 119, 4, 116, 114, 117, 101>"
	if got := runString(t, payload, "-i", "list"); got != "true\n" {
		t.Fatalf("got %q", got)
	}
	if got := runString(t, payload, "-i", "list", "--loqui", "-f", "json"); got != "true\n" {
		t.Fatalf("got %q", got)
	}
}

func TestEncode(t *testing.T) {
	doc := `{
		// heartbeat
		"op": 1,
		"d": null,
	}`
	got := runString(t, doc, "-e", "--loqui")
	if got != "8374000000027701646a77026f706101\n" {
		t.Fatalf("got %q", got)
	}

	got = runString(t, "t: hello\nn: [1, 2.5]\n", "-e", "-i", "yaml", "-f", "list")
	expected := "<<131,116,0,0,0,2," +
		"119,1,110,108,0,0,0,2,97,1,70,64,4,0,0,0,0,0,0,106," +
		"119,1,116,109,0,0,0,5,104,101,108,108,111>>\n"
	if got != expected {
		t.Fatalf("got %q", got)
	}
}

func TestEncodeDecode(t *testing.T) {
	var packet bytes.Buffer
	if err := run([]string{"-e", "-f", "raw", "--header", "--compress"}, strings.NewReader(`[1, "x"]`), &packet); err != nil {
		t.Fatal(err)
	}
	got := runString(t, packet.String(), "--header")
	if got != "[1,<<\"x\">>]\n" {
		t.Fatalf("got %q", got)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "etfdump.toml")
	content := "loqui = true\ninput = \"hex\"\nformat = \"json\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := runString(t, "837703 6e696c", "-c", path); got != "null\n" {
		t.Fatalf("got %q", got)
	}
	// flags win over the file
	if got := runString(t, "837703 6e696c", "-c", path, "-f", "term"); got != "[]\n" {
		t.Fatalf("got %q", got)
	}

	if err := os.WriteFile(path, []byte("colour = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := run([]string{"-c", path}, strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for an unknown key")
	}
}

func TestErrors(t *testing.T) {
	cases := [][]string{
		{"-f", "xml"},
		{"-e", "-i", "hex"},
		{"--version", "300"},
		{"--no-such-flag"},
	}
	for _, args := range cases {
		if err := run(args, strings.NewReader("\x83\x61\x01"), &bytes.Buffer{}); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}

	// malformed payload
	if err := run([]string{"-i", "hex"}, strings.NewReader("83 c8"), &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for an unknown tag")
	}
	// booleans need loqui
	if err := run([]string{"-e"}, strings.NewReader(`{"a": true}`), &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for a bool without loqui")
	}
}
