package edgedriver

import (
	"github.com/sirupsen/logrus"
)

var (
	// Logger is the default package logger
	Logger = logrus.WithField("pkg", "edgedriver")
)

// LogFunc is the common logging func type.
type LogFunc func(string, ...interface{})

func nopLogf(string, ...interface{}) {}
