//go:build !debug

// Package debug provides build-tag gated assertions: a no-op build for
// production, and (with the "debug" tag) actual checks. Keeps invariant
// checks in the code without paying for them outside of debug builds.
package debug

func ON() bool { return false }

func Assert(_ bool, _ ...any)            {}
func Assertf(_ bool, _ string, _ ...any) {}
func AssertNoErr(_ error)                {}
func AssertFunc(_ func() bool, _ ...any) {}
