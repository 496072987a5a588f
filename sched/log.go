package sched

import (
	"os"

	"github.com/sirupsen/logrus"
)

// defaultLogLevel is raised to trace by building with -tags debug.
var defaultLogLevel = logrus.WarnLevel

func newDefaultLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(defaultLogLevel)
	return logger
}

// trace logs a scheduling decision. Callers hold e.mu.
func (e *Engine) trace(msg string, fields logrus.Fields) {
	if !e.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		return
	}
	fields["cpu_tick"] = e.clk.cpu
	fields["io_tick"] = e.clk.io
	e.log.WithFields(fields).Trace(msg)
}
