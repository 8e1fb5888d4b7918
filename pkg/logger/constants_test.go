package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLogLevel_UnmarshalText_Uppercases(t *testing.T) {
	var lvl LogLevel
	require.NoError(t, lvl.UnmarshalText([]byte("debug")))
	require.Equal(t, LogLevelDebug, lvl)
}

func TestLogLevel_ToLogrusLevel_KnownLevels(t *testing.T) {
	cases := map[LogLevel]logrus.Level{
		LogLevelInfo:  logrus.InfoLevel,
		LogLevelDebug: logrus.DebugLevel,
		LogLevelTrace: logrus.TraceLevel,
		LogLevelError: logrus.ErrorLevel,
		LogLevelWarn:  logrus.WarnLevel,
		LogLevelFatal: logrus.FatalLevel,
		LogLevelPanic: logrus.PanicLevel,
	}

	for lvl, want := range cases {
		require.Equal(t, want, lvl.ToLogrusLevel(), "level %s", lvl)
	}
}

func TestLogLevel_ToLogrusLevel_UnknownDefaultsToInfo(t *testing.T) {
	require.Equal(t, logrus.InfoLevel, LogLevel("bogus").ToLogrusLevel())
}

func TestRequestIDCtxKey_IsUnexportedTypedKey(t *testing.T) {
	// guards against a regression to a bare string context key, which a
	// caller could collide with by accident.
	_, isString := RequestIDCtxKey.(string)
	require.False(t, isString)
}
