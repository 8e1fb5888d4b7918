package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// ctxKey is unexported so values stored under it can't collide with keys
// set by other packages using raw strings.
type ctxKey int

const (
	requestIDCtxKey ctxKey = iota
)

// RequestIDCtxKey is the context key the request-id interceptors store and
// read the request id under.
var RequestIDCtxKey any = requestIDCtxKey

// RequestIDMDKey is the outgoing/incoming gRPC metadata key carrying the
// request id across a service boundary.
const RequestIDMDKey = "x-request-id"

type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelTrace LogLevel = "TRACE"
	LogLevelError LogLevel = "ERROR"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelFatal LogLevel = "FATAL"
	LogLevelPanic LogLevel = "PANIC"
)

func (s LogLevel) String() string {
	return string(s)
}

func (s *LogLevel) UnmarshalText(text []byte) error {
	tt := strings.ToUpper(string(text))
	*s = LogLevel(tt)

	return nil
}

func (s LogLevel) ToLogrusLevel() logrus.Level {
	switch s {
	case LogLevelInfo:
		return logrus.InfoLevel
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelTrace:
		return logrus.TraceLevel
	case LogLevelError:
		return logrus.ErrorLevel
	case LogLevelWarn:
		return logrus.WarnLevel
	case LogLevelFatal:
		return logrus.FatalLevel
	case LogLevelPanic:
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}
