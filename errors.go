package ble

import "fmt"

// ErrorKind classifies a host status code. The set is closed except for
// KindOther, which carries any code the host may invent.
type ErrorKind int

const (
	KindPermission     ErrorKind = iota // status 1
	KindNotImplemented                  // status 88
	KindNotConnected                    // status 128
	KindOther
)

// Status codes shared with the host stack. The host reports them signed;
// they are normalized to their absolute value before classification.
const (
	codePermission     = 1
	codeNotImplemented = 88
	codeNotConnected   = 128
)

// An Error is a host status code, optionally tagged with the name of the
// subsystem that raised it. Errors produced by this package itself always
// carry a non-negative code.
type Error struct {
	Code    int
	Context string
}

// Kind returns the taxonomy class for the error's code.
func (e *Error) Kind() ErrorKind {
	switch e.Code {
	case codePermission:
		return KindPermission
	case codeNotImplemented:
		return KindNotImplemented
	case codeNotConnected:
		return KindNotConnected
	default:
		return KindOther
	}
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind() {
	case KindPermission:
		msg = "1: Not owner"
	case KindNotImplemented:
		msg = "88: Function not implemented"
	case KindNotConnected:
		msg = "128: Not connected"
	default:
		msg = fmt.Sprintf("Unknown error number: %d", e.Code)
	}
	if e.Context != "" {
		return fmt.Sprintf("[%s]: %s", e.Context, msg)
	}
	return msg
}

// errno converts a host status code into an error, or nil for 0.
// Negative codes are folded onto their positive counterparts.
func errno(code int, context string) error {
	if code == 0 {
		return nil
	}
	if code < 0 {
		code = -code
	}
	return &Error{Code: code, Context: context}
}
