package logger

import (
	"fmt"
	"log"
	"strings"
)

// Logger receives a message followed by alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

var LoggerEnabled = true

type DefaultLogger struct {
	name string
}

func NewDefaultLogger(name string) *DefaultLogger {
	return &DefaultLogger{name: name}
}

func (d *DefaultLogger) Debug(msg string, args ...any) {
	d.print("DEBUG", msg, args)
}

func (d *DefaultLogger) Info(msg string, args ...any) {
	d.print("INFO", msg, args)
}

func (d *DefaultLogger) Error(msg string, args ...any) {
	d.print("ERROR", msg, args)
}

func (d *DefaultLogger) print(level, msg string, args []any) {
	if !LoggerEnabled {
		return
	}
	log.Printf("[%s] %s | %s%s\n", level, d.name, msg, Fields(args...))
}

// Fields renders key/value pairs as " k=v k2=v2". A trailing key without
// a value is rendered with a "!MISSING" placeholder.
func Fields(args ...any) string {
	if len(args) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(args); i += 2 {
		b.WriteByte(' ')
		if i+1 >= len(args) {
			fmt.Fprintf(&b, "%v=!MISSING", args[i])
			break
		}
		fmt.Fprintf(&b, "%v=%v", args[i], args[i+1])
	}
	return b.String()
}

type nop struct{}

func (nop) Debug(string, ...any) {}
func (nop) Info(string, ...any)  {}
func (nop) Error(string, ...any) {}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nop{}
}
