// Package log add logging utilities.
package log

import (
	"net"
	"strings"
	"time"

	"linecat/internal/pkg/protocol"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SetLogger sets the default logger's level.
func SetLogger(level string) {
	logrus.SetLevel(logrus.ErrorLevel)
	customFormatter := new(logrus.TextFormatter)
	customFormatter.TimestampFormat = time.RFC3339
	logrus.SetFormatter(customFormatter)
	customFormatter.FullTimestamp = true
	switch strings.ToLower(level) {
	case "trace":
		logrus.SetLevel(logrus.TraceLevel)
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.ErrorLevel)
	}
}

// ConnToFields describes a connection identified by id.
func ConnToFields(id uuid.UUID, conn net.Conn) logrus.Fields {
	fields := logrus.Fields{
		"id": id.String(),
	}
	if conn != nil && conn.RemoteAddr() != nil {
		fields["remote"] = conn.RemoteAddr().String()
	}
	return fields
}

// RequestToFields describes a request frame.
func RequestToFields(token string) logrus.Fields {
	return logrus.Fields{
		"token": token,
		"valid": token == protocol.RequestToken,
	}
}

// ResponseToFields describes a response frame carrying line.
func ResponseToFields(line string) logrus.Fields {
	return logrus.Fields{
		"line": line,
		"len":  len(line),
	}
}

// ErrorToFields describes err, including its kind.
func ErrorToFields(err error) logrus.Fields {
	return logrus.Fields{
		logrus.ErrorKey: err,
		"kind":          protocol.KindOf(err).String(),
	}
}
