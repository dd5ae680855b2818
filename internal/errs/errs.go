package errs

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindRejection
	KindConnection
	KindFatalDrawdown
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRejection:
		return "exchange_rejection"
	case KindConnection:
		return "connection"
	case KindFatalDrawdown:
		return "fatal_drawdown"
	}
	return "unknown"
}

// Error — типизированная ошибка движка.
type Error struct {
	Kind Kind
	Op   string
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " code=%s", e.Code)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(op, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Rejection(op, code, msg string) error {
	return &Error{Kind: KindRejection, Op: op, Code: code, Msg: msg}
}

func Connection(op string, err error) error {
	return &Error{Kind: KindConnection, Op: op, Err: errors.WithStack(err)}
}

func FatalDrawdown(lossRatio float64) error {
	return &Error{Kind: KindFatalDrawdown, Msg: fmt.Sprintf("account loss %.2f%% breached hard limit", lossRatio*100)}
}

// KindOf достаёт Kind из цепочки обёрток.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, k Kind) bool { return err != nil && KindOf(err) == k }

// CodeOf возвращает код биржи, если он есть.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

var transientCodes = map[string]struct{}{
	"50001": {},
	"50004": {},
	"50011": {},
	"50013": {},
}

// Transient — можно ли повторить запрос.
func Transient(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindConnection:
		return true
	case KindRejection:
		if _, ok := transientCodes[e.Code]; ok {
			return true
		}
		m := strings.ToLower(e.Msg)
		return strings.Contains(m, "timeout") ||
			strings.Contains(m, "timed out") ||
			strings.Contains(m, "connection")
	}
	return false
}
