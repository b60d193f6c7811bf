// Package cos provides common low-level types and utilities shared by every
// package in this module: typed errors, ring buffers, and ID generation.
package cos

import (
	"fmt"
	"os"
)

type (
	// ErrNotFound is returned where "absent" and "error" must be
	// distinguishable from a plain nil, e.g. a routing-table miss that a
	// caller wants to log distinctly from a malformed lookup.
	ErrNotFound struct {
		what string
	}
)

func NewErrNotFound(format string, a ...any) *ErrNotFound {
	return &ErrNotFound{fmt.Sprintf(format, a...)}
}

func (e *ErrNotFound) Error() string { return e.what + " does not exist" }

func IsErrNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}

const fatalPrefix = "FATAL ERROR: "

// Exitf prints a fatal message and terminates the process; used only from
// cmd/ksearchd during startup, never from library code.
func Exitf(f string, a ...any) {
	fmt.Fprintln(os.Stderr, fmt.Sprintf(fatalPrefix+f, a...))
	os.Exit(1)
}
