package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, Field{Key: "ec", Value: "1.1.1.1"}, String("ec", "1.1.1.1"))
	assert.Equal(t, Field{Key: "n", Value: 7}, Int("n", 7))
	assert.Equal(t, Field{Key: "q", Value: 0.5}, Float64("q", 0.5))
	assert.Equal(t, Field{Key: "ok", Value: true}, Bool("ok", true))
	assert.Equal(t, Field{Key: "d", Value: time.Second}, Duration("d", time.Second))
	assert.Equal(t, Field{Key: "error", Value: "<nil>"}, Err(nil))
	assert.Equal(t, Field{Key: "error", Value: "boom"}, Err(errors.New("boom")))
}

func TestZapLoggerEmitsFields(t *testing.T) {
	core, observed := observer.New(zapcore.Level(0))
	log := NewLoggerFromCore(core)

	log.Info("group finished",
		String("ec", "1.1.1.1"),
		Int("entries", 12),
		Bool("timed_out", false),
	)

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "group finished", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "1.1.1.1", fields["ec"])
	assert.EqualValues(t, 12, fields["entries"])
	assert.Equal(t, false, fields["timed_out"])
}

func TestWithCarriesFields(t *testing.T) {
	core, observed := observer.New(zapcore.Level(0))
	log := NewLoggerFromCore(core).With(String("component", "mapper"))

	log.Warn("no rule matched")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "mapper", entries[0].ContextMap()["component"])
}

func TestNamed(t *testing.T) {
	core, observed := observer.New(zapcore.Level(0))
	log := NewLoggerFromCore(core).Named("curation").Named("balance")

	log.Info("cache hit")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "curation.balance", entries[0].LoggerName)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"warn", "warn"},
		{"error", "error"},
		{"", "info"},
		{"verbose", "info"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in).String(), "input %q", tt.in)
	}
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	assert.NotPanics(t, func() {
		Default().Info("default is usable before SetDefault")
	})

	core, observed := observer.New(zapcore.Level(0))
	SetDefault(NewLoggerFromCore(core))
	Default().Info("after set")
	assert.Len(t, observed.All(), 1)

	SetDefault(nil)
	assert.NotNil(t, Default(), "nil must not replace the default")
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	assert.NotPanics(t, func() {
		log.Debug("x")
		log.With(String("k", "v")).Named("n").Error("y", Err(errors.New("e")))
	})
}
