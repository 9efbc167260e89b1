// Package errors extends the standard library errors with slog annotations and source locations.
//
// Wrap errors at boundaries where extra context helps debugging and log them with SlogError:
//
//	if err != nil {
//		return errors.Wrap(err, "open db", slog.String("url", url))
//	}
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Re-exports so that callers only need to import this package.
//
//nolint:gochecknoglobals // aliases of standard library functions.
var (
	Is     = stderrors.Is
	As     = stderrors.As
	Unwrap = stderrors.Unwrap
	Join   = stderrors.Join
)

type annotatedError struct {
	msg   string
	err   error
	attrs []slog.Attr
	file  string
	line  int
}

func (e *annotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

// NewSentinel creates a comparable error without source location. Use it for package level error values.
func NewSentinel(msg string) error {
	return stderrors.New(msg)
}

// New creates an error annotated with attrs and the caller's source location.
func New(msg string, attrs ...slog.Attr) error {
	file, line := caller(2) //nolint:mnd // skip New and runtime.Caller.
	return &annotatedError{msg: msg, err: nil, attrs: attrs, file: file, line: line}
}

// Wrap annotates err with msg, attrs, and the caller's source location.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	file, line := caller(2) //nolint:mnd // skip Wrap and runtime.Caller.
	return &annotatedError{msg: msg, err: err, attrs: attrs, file: file, line: line}
}

// DecoratePanic converts a recovered panic value into an error pointing to the panicking line.
func DecoratePanic(recovered any) error {
	if recovered == nil {
		return nil
	}
	file, line := panicSite()
	var cause error
	if err, ok := recovered.(error); ok {
		cause = err
	} else {
		cause = NewSentinel(fmt.Sprint(recovered))
	}
	return &annotatedError{msg: "panic", err: cause, attrs: nil, file: file, line: line}
}

// SlogError returns an slog group with the error message, all annotations in the chain, and the innermost
// source location.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Group("error", slog.String("message", "<nil>"))
	}

	var (
		annotations []any
		source      string
	)
	collect(err, func(ae *annotatedError) {
		for _, a := range ae.attrs {
			annotations = append(annotations, a)
		}
		if ae.file != "" {
			source = filepath.Base(ae.file) + ":" + strconv.Itoa(ae.line)
		}
	})

	args := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		args = append(args, slog.Group("annotations", annotations...))
	}
	if source != "" {
		args = append(args, slog.String("source", source))
	}
	return slog.Group("error", args...)
}

// collect walks the error tree outermost first, including joined errors.
func collect(err error, fn func(*annotatedError)) {
	if err == nil {
		return
	}
	if ae, ok := err.(*annotatedError); ok { //nolint:errorlint // walking the tree manually.
		fn(ae)
	}
	switch x := err.(type) { //nolint:errorlint // walking the tree manually.
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			collect(e, fn)
		}
	case interface{ Unwrap() error }:
		collect(x.Unwrap(), fn)
	}
}

func caller(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "", 0
	}
	return file, line
}

// panicSite finds the first frame after runtime.gopanic.
func panicSite() (string, int) {
	pcs := make([]uintptr, 32) //nolint:mnd // deep enough for panics in handlers.
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	sawPanic := false
	for {
		frame, more := frames.Next()
		if sawPanic && !strings.HasPrefix(frame.Function, "runtime.") {
			return frame.File, frame.Line
		}
		if frame.Function == "runtime.gopanic" {
			sawPanic = true
		}
		if !more {
			return "", 0
		}
	}
}
