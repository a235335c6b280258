package logger

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oggyb/campus-match/internal/config"
)

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(config.LogConfig{Level: "debug", Format: "text", Component: "grpc_server"}, &buf)

	l.Info("swipe recorded", "actor", 7)

	out := buf.String()
	assert.Contains(t, out, "swipe recorded")
	assert.Contains(t, out, "component=grpc_server")
	assert.Contains(t, out, "actor=7")
	assert.Regexp(t, regexp.MustCompile(`time="\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}"`), out)
}

func TestNew_TextFormat_CallerTimeAttr(t *testing.T) {
	var buf bytes.Buffer
	l := New(config.LogConfig{Level: "info", Format: "text"}, &buf)

	assert.NotPanics(t, func() {
		l.Info("cooldown checked", "time", "24h")
		l.WithGroup("window").Info("cooldown checked", "time", 3)
	})

	out := buf.String()
	assert.Contains(t, out, "time=24h")
	assert.Contains(t, out, "window.time=3")
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(config.LogConfig{Level: "info", Format: "JSON", Component: "seed"}, &buf)

	l.Info("campus seeded", "code", "UPD")

	out := buf.String()
	assert.Contains(t, out, `"msg":"campus seeded"`)
	assert.Contains(t, out, `"component":"seed"`)
	assert.Contains(t, out, `"code":"UPD"`)
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(config.LogConfig{Level: "error"}, &buf)

	l.Warn("completion slow")
	l.Error("completion failed")

	assert.NotContains(t, buf.String(), "completion slow")
	assert.Contains(t, buf.String(), "completion failed")
}

func TestNew_SourceAndWith(t *testing.T) {
	var buf bytes.Buffer
	l := New(config.LogConfig{Level: "debug", Format: "json", Source: true}, &buf)

	l.With("user", 42).Debug("location updated")

	assert.Contains(t, buf.String(), `"user":42`)
	assert.Contains(t, buf.String(), `"source":`)
}

func TestInit_ReplacesGlobal(t *testing.T) {
	var buf bytes.Buffer
	prev := L()
	t.Cleanup(func() { Init(prev) })

	Init(New(config.LogConfig{Level: "debug"}, &buf))
	With("req_id", "123").Info("processing request")

	assert.Contains(t, buf.String(), "req_id=123")
	assert.Contains(t, buf.String(), "processing request")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel(" Debug ").Level().String())
	assert.Equal(t, "WARN", parseLevel("warning").Level().String())
	assert.Equal(t, "INFO", parseLevel("nonsense").Level().String())
}
