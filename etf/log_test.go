package etf

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	dec, _ := plain.NewDecoder([]byte{131, ettExport})
	if _, err := dec.Next(); err == nil {
		t.Fatal("expected error")
	}

	packet := encodeOne(t, DefaultConfig(), SmallInt(1))
	if _, err := DefaultConfig().NewDecoder(packet); err != nil {
		t.Fatal(err)
	}

	for _, msg := range []string{"etf: unsupported tag", "etf: deflated payload", "etf: inflated payload"} {
		if logs.FilterMessage(msg).Len() != 1 {
			t.Errorf("expected one %q record, got %d", msg, logs.FilterMessage(msg).Len())
		}
	}

	entry := logs.FilterMessage("etf: unsupported tag").All()[0]
	if entry.ContextMap()["tag"] != "EXPORT_EXT" {
		t.Fatalf("unexpected fields %v", entry.ContextMap())
	}

	SetLogger(nil)
	if Logger().Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected the no-op logger")
	}
}
