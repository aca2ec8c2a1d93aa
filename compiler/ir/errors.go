package ir

import (
	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/loc"
)

type (
	// InconsistencyError is a broken invariant of the graph construction.
	// It is raised with panic and is never an input error.
	InconsistencyError struct {
		Msg  string
		From loc.PC
	}
)

func (e *InconsistencyError) Error() string {
	return string(hfmt.Appendf(nil, "internal inconsistency: %s (at %v)", e.Msg, e.From))
}

// Inconsistent panics with InconsistencyError attributed to the caller.
func Inconsistent(f string, args ...any) {
	panic(&InconsistencyError{
		Msg:  string(hfmt.Appendf(nil, f, args...)),
		From: loc.Caller(1),
	})
}
