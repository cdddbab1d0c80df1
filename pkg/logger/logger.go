// Package logger provides the plain logger used before structured logging
// is configured (config loading, flag parsing).
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

// New returns a stderr logger prefixed with the component name. Stdout is
// left alone so CLI output stays machine readable.
func New(component string) *log.Logger {
	return NewWithWriter(os.Stderr, component)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, component string) *log.Logger {
	if w == nil {
		w = io.Discard
	}
	return log.New(w, fmt.Sprintf("[%s] ", component), log.LstdFlags)
}
