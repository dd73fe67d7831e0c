package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"fatal": zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestFromContext ensures loggers attached to a context are returned and the
// global logger serves as the fallback.
func TestFromContext(t *testing.T) {
	t.Parallel()

	require.Same(t, global, FromContext(context.Background()))
	require.Same(t, global, FromContext(nil)) //nolint:staticcheck // Explicitly testing nil context handling.

	named := zap.NewNop().Sugar()
	ctx := ToContext(context.Background(), named)
	require.Same(t, named, FromContext(ctx))
}
