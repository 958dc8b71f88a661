package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level controls which messages are emitted.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

var (
	mu       sync.RWMutex
	minLevel = INFO
	output   = os.Stderr
)

// SetLevel sets the minimum level that will be logged.
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = level
}

func enabled(level Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return level >= minLevel
}

func emit(level Level, component, msg string, fields map[string]interface{}) {
	if !enabled(level) {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().UTC().Format("2006-01-02T15:04:05.000Z"))
	b.WriteString(" [")
	b.WriteString(levelNames[level])
	b.WriteString("] [")
	b.WriteString(component)
	b.WriteString("] ")
	b.WriteString(msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf(" %s=%v", k, fields[k]))
		}
	}
	b.WriteString("\n")

	mu.Lock()
	defer mu.Unlock()
	fmt.Fprint(output, b.String())
}

// DebugC logs a debug message with a component tag.
func DebugC(component, msg string) { emit(DEBUG, component, msg, nil) }

// InfoC logs an info message with a component tag.
func InfoC(component, msg string) { emit(INFO, component, msg, nil) }

// WarnC logs a warning message with a component tag.
func WarnC(component, msg string) { emit(WARN, component, msg, nil) }

// ErrorC logs an error message with a component tag.
func ErrorC(component, msg string) { emit(ERROR, component, msg, nil) }

// DebugCF logs a debug message with a component tag and structured fields.
func DebugCF(component, msg string, fields map[string]interface{}) {
	emit(DEBUG, component, msg, fields)
}

// InfoCF logs an info message with a component tag and structured fields.
func InfoCF(component, msg string, fields map[string]interface{}) {
	emit(INFO, component, msg, fields)
}

// WarnCF logs a warning message with a component tag and structured fields.
func WarnCF(component, msg string, fields map[string]interface{}) {
	emit(WARN, component, msg, fields)
}

// ErrorCF logs an error message with a component tag and structured fields.
func ErrorCF(component, msg string, fields map[string]interface{}) {
	emit(ERROR, component, msg, fields)
}
