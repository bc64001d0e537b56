package x11

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the logger connections use unless WithLogger supplies another.
// It writes to stderr at Warn level; raise the level for protocol tracing or
// call SetOutput(io.Discard) to silence it.
var Logger = newLogger("x11")

// formatter prefixes every message with the owner of the logger.
type formatter struct {
	owner string
	lf    logrus.Formatter
}

// Format satisfies the logrus.Formatter interface.
func (f *formatter) Format(e *logrus.Entry) ([]byte, error) {
	e.Message = fmt.Sprintf("[%s] %s", f.owner, e.Message)
	return f.lf.Format(e)
}

func newLogger(owner string) *logrus.Logger {
	lg := logrus.New()
	lg.SetLevel(logrus.WarnLevel)
	lg.SetFormatter(&formatter{
		owner: owner,
		lf: &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.StampMilli,
		},
	})
	return lg
}

// SetOutput redirects the package logger.
func SetOutput(w io.Writer) { Logger.SetOutput(w) }
