// Package toolerr 定义工具层的错误分类；每个失败最终都折叠成一条 "Error: ..." 字符串。
// Package toolerr defines the tool-level error taxonomy; every failure
// ultimately collapses into a single "Error: ..." response string.
package toolerr

import (
	"errors"
	"fmt"
	"io/fs"
)

type Code string

const (
	CodeInvalidPath       Code = "invalid_path"
	CodeNotFound          Code = "not_found"
	CodeWrongType         Code = "wrong_type"
	CodeWrongFormat       Code = "wrong_format"
	CodeNoOpEdit          Code = "noop_edit"
	CodeAmbiguousMatch    Code = "ambiguous_match"
	CodeMalformedDocument Code = "malformed_document"
	CodeInvalidSchema     Code = "invalid_schema"
	CodeMissingCellType   Code = "missing_cell_type"
	CodeEncodingError     Code = "encoding_error"
	CodePermissionDenied  Code = "permission_denied"
	CodeTimeoutExceeded   Code = "timeout_exceeded"
	CodeInvalidArgument   Code = "invalid_argument"
	CodeUnhandled         Code = "unhandled"
)

// Error carries a taxonomy code plus the caller-facing message. The message
// is written to be machine-actionable on its own (occurrence counts, the
// offending path) because the string channel is the only one callers get.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap keeps the underlying error reachable through errors.Is/As while the
// message stays the response text.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// CodeOf classifies an arbitrary error. OS-level errors map onto the
// taxonomy; everything unrecognized is CodeUnhandled.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	switch {
	case errors.Is(err, fs.ErrPermission):
		return CodePermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		return CodeNotFound
	default:
		return CodeUnhandled
	}
}

// FromOS converts a filesystem error into a taxonomy error, keeping the
// operation-specific message.
func FromOS(err error, format string, args ...any) *Error {
	return Wrap(CodeOf(err), err, format, args...)
}
