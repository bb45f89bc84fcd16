package resolver

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

var assertErr = errors.New("simulated network failure")

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
