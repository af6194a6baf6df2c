package logging

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

type Fields map[string]interface{}

const (
	levelInfo  = "info"
	levelWarn  = "warn"
	levelError = "error"
	levelFatal = "fatal"
)

// withErr folds an error into the field map so every level above info
// carries the error text under a stable key.
func withErr(err error, fields Fields) Fields {
	if fields == nil {
		fields = Fields{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	return fields
}

func output(level, msg string, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}
	fields["level"] = level
	fields["ts"] = time.Now().UTC().Format(time.RFC3339)
	fields["msg"] = msg
	b, err := json.Marshal(fields)
	if err != nil {
		// fallback to plain logging
		log.Printf("%s: %s (%v)\n", level, msg, fields)
		return
	}
	log.Println(string(b))
}

// Info logs an informational message with optional fields.
func Info(msg string, fields Fields) {
	output(levelInfo, msg, fields)
}

// Warn logs a recoverable problem, e.g. a best-effort reward grant that
// failed without blocking the surrounding state transition.
func Warn(msg string, err error, fields Fields) {
	output(levelWarn, msg, withErr(err, fields))
}

// Error logs an error message and includes the error text in the fields.
func Error(msg string, err error, fields Fields) {
	output(levelError, msg, withErr(err, fields))
}

// Fatal logs a fatal error and exits the process.
func Fatal(msg string, err error, fields Fields) {
	output(levelFatal, msg, withErr(err, fields))
	os.Exit(1)
}
