package protocol

import "fmt"

// ErrorCode enumerates the wire error kinds. Every kind maps
// to an Error payload carried on R2AMessage/A2RMessage Error variants.
type ErrorCode uint32

const (
	// ErrorNone signals a clean quit: code 0, empty text.
	ErrorNone ErrorCode = iota
	ErrorVersionMismatch
	ErrorMagicMismatch
	ErrorMalformedFrame
	ErrorTypeMismatch
	ErrorUnknownVar
	ErrorUnknownScene
	ErrorInvalidRef
	ErrorPeerError
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorNone:
		return "None"
	case ErrorVersionMismatch:
		return "VersionMismatch"
	case ErrorMagicMismatch:
		return "MagicMismatch"
	case ErrorMalformedFrame:
		return "MalformedFrame"
	case ErrorTypeMismatch:
		return "TypeMismatch"
	case ErrorUnknownVar:
		return "UnknownVar"
	case ErrorUnknownScene:
		return "UnknownScene"
	case ErrorInvalidRef:
		return "InvalidRef"
	case ErrorPeerError:
		return "PeerError"
	default:
		return "Unknown"
	}
}

// Error is the wire Error payload (code + text) and also implements the Go
// error interface so it can flow through normal Go error handling inside a
// single process.
type Error struct {
	Code ErrorCode
	Text string
}

func (e *Error) Error() string {
	if e.Text == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Text)
}

// NewError builds an Error with the given code and formatted text.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Text: fmt.Sprintf(format, args...)}
}

// IsClean reports whether this is the empty (code=0, text="") clean-quit
// quit signal: code 0 with empty text.
func (e *Error) IsClean() bool {
	return e.Code == ErrorNone && e.Text == ""
}
