package errs

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Error codes grouped by the failure class they report. Codes in the 1xxx
// range are caller mistakes and are safe to echo back to a client; 15xx
// codes are infrastructure faults and must not leak internals.
const (
	CodeInvalidPayload = 1001 // malformed or incomplete client input
	CodeUnauthorized   = 1002 // caller lacks permission for the target
	CodeNotFound       = 1003
	CodeConflict       = 1004 // duplicate member, duplicate title
	CodeStorage        = 1500 // durable store unavailable or write failed
)

var (
	ErrInvalidPayload = NewCodeError(CodeInvalidPayload, "invalid payload")
	ErrNotGroupMember = NewCodeError(CodeUnauthorized, "not a member of this group")
	ErrGroupNotFound  = NewCodeError(CodeNotFound, "group not found")
	ErrUserNotFound   = NewCodeError(CodeNotFound, "user not found")
	ErrAlreadyMember  = NewCodeError(CodeConflict, "already a member of this group")
	ErrNotMember      = NewCodeError(CodeNotFound, "not a member of this group")
	ErrDuplicateName  = NewCodeError(CodeConflict, "group name already in use")
	ErrStorage        = NewCodeError(CodeStorage, "storage failure")
)

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

// WithDetail returns a copy carrying extra context; the original sentinel
// stays untouched so errors.Is keeps matching on code.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

// Is matches any CodeError with the same code, so wrapped and detailed
// variants compare equal to their sentinel.
func (e *CodeError) Is(err error) bool {
	var ce *CodeError
	if !stderrors.As(err, &ce) {
		return false
	}
	return ce.Code == e.Code
}

// WrapMsg attaches a message plus key/value context and a stack trace.
func (e *CodeError) WrapMsg(msg string, kv ...any) error {
	return errors.WithStack(e.WithDetail(toString(msg, kv)))
}

// Wrap tags an infrastructure error as a storage fault, keeping the cause
// in the chain for logs while callers only see the coded classification.
func WrapStorage(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(ErrStorage.WithDetail(msg+": "+err.Error()), msg)
}

// As and Is are passthroughs so callers need only this package.
func As(err error, target any) bool { return stderrors.As(err, target) }

func Is(err, target error) bool { return stderrors.Is(err, target) }

func toString(msg string, kv []any) string {
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		if i > 0 || msg != "" {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%v=", kv[i])
		if i+1 < len(kv) {
			fmt.Fprintf(&sb, "%v", kv[i+1])
		}
	}
	return sb.String()
}
