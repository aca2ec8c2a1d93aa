package symbolic

import (
	"github.com/nikandfor/hacked/hfmt"

	"github.com/slowlang/stackssa/compiler/bytecode"
)

type (
	// UnsupportedSignatureError is returned for functions declaring
	// defaults, *args or **kwargs.
	UnsupportedSignatureError struct {
		Reason string
	}

	UnsupportedBytecodeError struct {
		Op     bytecode.Opcode
		Offset int
		Line   int
		Detail string
	}

	// InvalidArgumentError is a call whose keyword is not a constant.
	InvalidArgumentError struct {
		Offset int
		Line   int
		Reason string
	}
)

func (e *UnsupportedSignatureError) Error() string {
	return "unsupported signature: " + e.Reason
}

func (e *UnsupportedBytecodeError) Error() string {
	b := hfmt.Appendf(nil, "unsupported bytecode %v at offset %d (line %d)", e.Op, e.Offset, e.Line)

	if e.Detail != "" {
		b = hfmt.Appendf(b, ": %s", e.Detail)
	}

	return string(b)
}

func (e *InvalidArgumentError) Error() string {
	return string(hfmt.Appendf(nil, "invalid argument at offset %d (line %d): %s", e.Offset, e.Line, e.Reason))
}
