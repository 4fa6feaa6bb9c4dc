package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func newBufferLogger() (Logger, *zaptest.Buffer) {
	buf := &zaptest.Buffer{}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), buf, zapcore.DebugLevel)
	return NewLoggerFromCore(core), buf
}

func TestNewLogger_Defaults(t *testing.T) {
	l, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, l)
	assert.NoError(t, l.Sync())
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_BadOutputPath(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{"unknown-scheme://x"}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestLogger_Levels(t *testing.T) {
	l, buf := newBufferLogger()

	l.Debug("debug msg")
	l.Info("info msg")
	l.Warn("warn msg")
	l.Error("error msg")

	out := buf.String()
	assert.Contains(t, out, `"level":"debug"`)
	assert.Contains(t, out, `"level":"info"`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, "debug msg")
}

func TestLogger_Fields(t *testing.T) {
	l, buf := newBufferLogger()

	l.Info("built",
		String("smiles", "CCO"),
		Int("atoms", 3),
		Int64("signatures", 9),
		Uint32("bit", 807),
		Float64("fill", 0.25),
		Bool("stereo", false),
		Duration("elapsed", 5*time.Millisecond),
		Any("shape", []int{1, 2}),
	)

	out := buf.String()
	assert.Contains(t, out, `"smiles":"CCO"`)
	assert.Contains(t, out, `"atoms":3`)
	assert.Contains(t, out, `"bit":807`)
	assert.Contains(t, out, `"stereo":false`)
}

func TestLogger_Err(t *testing.T) {
	l, buf := newBufferLogger()

	l.Error("load failed", Err(errors.New("unexpected EOF")))
	assert.Contains(t, buf.String(), `"error":"unexpected EOF"`)

	buf.Reset()
	l.Info("ok", Err(nil))
	assert.Contains(t, buf.String(), `"error":"<nil>"`)
}

func TestLogger_WithAndNamed(t *testing.T) {
	l, buf := newBufferLogger()

	child := l.With(String("component", "alphabet")).Named("fill")
	child.Info("msg")

	out := buf.String()
	assert.Contains(t, out, `"component":"alphabet"`)
	assert.Contains(t, out, `"logger":"fill"`)

	// Parent unchanged.
	buf.Reset()
	l.Info("plain")
	assert.NotContains(t, buf.String(), "component")
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	assert.NoError(t, l.Sync())
	assert.Equal(t, l, l.With(String("k", "v")))
	assert.Equal(t, l, l.Named("x"))
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l := NewNopLogger()
	SetDefault(l)
	assert.Equal(t, l, Default())

	// nil is ignored.
	SetDefault(nil)
	assert.Equal(t, l, Default())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}
