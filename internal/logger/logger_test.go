package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"":        zapcore.InfoLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := parseLevel(in)
		if err != nil || got != want {
			t.Errorf("%q: got %v, %v", in, got, err)
		}
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Errorf("expected error for unknown level")
	}
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	if _, err := New("dev", "loud"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestZap_WritesKeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &Zap{SugaredLogger: zap.New(core).Sugar()}

	l.With("file", "a.qdx").Warn("bad bcd timestamp", "slot", 3)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel || e.Message != "bad bcd timestamp" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	fields := e.ContextMap()
	if fields["file"] != "a.qdx" || fields["slot"] != int64(3) {
		t.Fatalf("fields = %v", fields)
	}
}

func TestNop(t *testing.T) {
	var l Logger = Nop()
	l.Info("discarded", "k", "v")
}

type recorder struct {
	msgs [][]interface{}
}

func (r *recorder) Debug(msg string, kv ...interface{}) { r.msgs = append(r.msgs, kv) }
func (r *recorder) Info(msg string, kv ...interface{})  { r.msgs = append(r.msgs, kv) }
func (r *recorder) Warn(msg string, kv ...interface{})  { r.msgs = append(r.msgs, kv) }
func (r *recorder) Error(msg string, kv ...interface{}) { r.msgs = append(r.msgs, kv) }

func TestWith_WrapsForeignLoggers(t *testing.T) {
	r := &recorder{}
	l := With(r, "file", "a.qdx")
	l.Warn("skipped", "slot", 2)
	l.Info("done")

	if len(r.msgs) != 2 {
		t.Fatalf("calls = %d", len(r.msgs))
	}
	if len(r.msgs[0]) != 4 || r.msgs[0][0] != "file" || r.msgs[0][3] != 2 {
		t.Fatalf("fields = %v", r.msgs[0])
	}
	if len(r.msgs[1]) != 2 || r.msgs[1][1] != "a.qdx" {
		t.Fatalf("fields = %v", r.msgs[1])
	}
}

func TestWith_UsesZapChild(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := With(&Zap{SugaredLogger: zap.New(core).Sugar()}, "file", "b.qdx")
	if _, ok := l.(*Zap); !ok {
		t.Fatalf("expected *Zap, got %T", l)
	}
	l.Info("parsed")
	if logs.All()[0].ContextMap()["file"] != "b.qdx" {
		t.Fatalf("missing field")
	}
}
