// Package nlog provides severity-leveled, timestamped logging used by every
// component in this module. Nothing in the core writes to the standard
// "log" package directly.
package nlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

func (s severity) String() string {
	switch s {
	case sevWarn:
		return "W"
	case sevErr:
		return "E"
	default:
		return "I"
	}
}

var (
	mu  sync.Mutex
	out io.Writer = os.Stderr

	// minLevel suppresses Info lines when raised; set via SetQuiet.
	minLevel = sevInfo
)

// SetOutput redirects all subsequent log lines (default os.Stderr).
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

// SetQuiet suppresses Info-level lines, keeping Warning/Error only.
func SetQuiet(quiet bool) {
	mu.Lock()
	if quiet {
		minLevel = sevWarn
	} else {
		minLevel = sevInfo
	}
	mu.Unlock()
}

func log(sev severity, format string, args []any) {
	mu.Lock()
	defer mu.Unlock()
	if sev < minLevel {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	var line string
	if format == "" {
		line = fmt.Sprintln(args...)
	} else {
		line = fmt.Sprintf(format, args...) + "\n"
	}
	fmt.Fprintf(out, "%s %s %s", ts, sev, line)
}

func Infoln(args ...any)                  { log(sevInfo, "", args) }
func Infof(format string, args ...any)    { log(sevInfo, format, args) }
func Warningln(args ...any)               { log(sevWarn, "", args) }
func Warningf(format string, args ...any) { log(sevWarn, format, args) }
func Errorln(args ...any)                 { log(sevErr, "", args) }
func Errorf(format string, args ...any)   { log(sevErr, format, args) }
