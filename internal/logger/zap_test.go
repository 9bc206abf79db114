package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, toZapLevel(InfoLevel))
	assert.Equal(t, zapcore.WarnLevel, toZapLevel(WarnLevel))
	assert.Equal(t, zapcore.ErrorLevel, toZapLevel(ErrorLevel))
	assert.Equal(t, zapcore.DebugLevel, toZapLevel(DebugLevel))
	assert.Equal(t, zapcore.DebugLevel, toZapLevel("verbose"))
}

func TestSetLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	l := &Logger{
		SugaredLogger: zap.New(newConsoleCore(zapcore.AddSync(&buf), level)).Sugar(),
		level:         level,
	}

	l.Debugw("hidden")
	assert.Empty(t, buf.String())

	l.SetLevel(DebugLevel)
	assert.Equal(t, "debug", l.Level())
	l.Debugw("shown", "label", 3)
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "label")
}
