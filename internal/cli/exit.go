package cli

import (
	"errors"
	"fmt"
	"os"
)

// Process exit codes. 0 covers success and idempotent no-ops, 2 covers
// resolution failures (unknown kits, unsupported repository URLs), 6 covers
// I/O failures (copy, fetch, removal). Usage and config errors exit 1.
const (
	codeResolution = 2
	codeIO         = 6
)

// exitError carries a process exit code through the cobra error return.
// Commands print their diagnostics before returning one, so Execute leaves
// these unprinted.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }

// failf prints the message to stdout and returns it wrapped with code.
func failf(code int, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(msg)
	return &exitError{code: code, err: errors.New(msg)}
}

// warnf prints a warning line to stderr. Warnings never affect the exit
// code.
func warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}

// ExitCode maps the error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coded *exitError
	if errors.As(err, &coded) {
		return coded.code
	}
	return 1
}
