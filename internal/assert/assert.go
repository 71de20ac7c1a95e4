// Package assert implements the fatal tier of this module's error model:
// violated invariants dump a stack trace and abort rather than returning an
// error a caller could silently ignore. A host process may install its own
// Handler to intercept before the default handler aborts.
//
// This is the only panic path objectcore exposes. Every other failure mode
// (archive errors, load failures, property mismatches) is a logged,
// non-panicking return — see pkg/serialize and pkg/pkgfile.
package assert

import (
	"fmt"
	"runtime/debug"
)

// Failure carries the captured stack trace for a triggered assertion.
type Failure struct {
	Message string
	Stack   []byte
}

func (f *Failure) Error() string {
	return f.Message
}

// Handler is invoked on assertion failure before the process aborts. The
// default handler always panics with a *Failure (which, left unrecovered,
// crashes the process with the stack trace attached). A host embedding this
// module may override Handler to log-and-exit cleanly, route to a crash
// reporter, or — in tests — recover and assert on Failure.Message.
var Handler = func(f *Failure) {
	panic(f)
}

// That panics (via Handler) if cond is false. Used for invariants that must
// hold in every build: corrupted handle tables, reflection-graph link
// ordering violations, and similar conditions where continuing would corrupt
// state rather than merely produce a wrong answer.
func That(cond bool, format string, args ...any) {
	if cond {
		return
	}
	Handler(&Failure{
		Message: fmt.Sprintf(format, args...),
		Stack:   debug.Stack(),
	})
}

// Unreachable always fails; used to mark switch/type-switch branches that
// the type system cannot prove exhaustive but that the caller has reasoned
// are impossible.
func Unreachable(format string, args ...any) {
	Handler(&Failure{
		Message: "unreachable: " + fmt.Sprintf(format, args...),
		Stack:   debug.Stack(),
	})
}

// AlertIf runs warn (if non-nil) when cond is true and returns cond
// unchanged — the non-fatal counterpart to That. It never aborts; callers
// use the returned bool to gate a recoverable path.
func AlertIf(cond bool, warn func()) bool {
	if cond && warn != nil {
		warn()
	}
	return cond
}

// AlertIfNot is AlertIf with the condition inverted: it warns when cond is
// false, and returns cond unchanged.
func AlertIfNot(cond bool, warn func()) bool {
	return !AlertIf(!cond, warn)
}
