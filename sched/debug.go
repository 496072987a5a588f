//go:build debug

package sched

import "github.com/sirupsen/logrus"

func init() {
	defaultLogLevel = logrus.TraceLevel
}
