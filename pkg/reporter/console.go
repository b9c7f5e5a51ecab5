package reporter

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Console writes colored, prefixed lines to a writer
type Console struct {
	out     io.Writer
	info    *color.Color
	success *color.Color
	warn    *color.Color
	err     *color.Color
}

// NewConsole creates a reporter writing to stdout
func NewConsole() *Console {
	return NewConsoleWriter(os.Stdout)
}

// NewConsoleWriter creates a reporter writing to the given writer
func NewConsoleWriter(out io.Writer) *Console {
	return &Console{
		out:     out,
		info:    color.New(color.FgCyan),
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		err:     color.New(color.FgRed, color.Bold),
	}
}

func (c *Console) line(col *color.Color, prefix, format string, args ...interface{}) {
	fmt.Fprintf(c.out, "%s %s\n", col.Sprint(prefix), fmt.Sprintf(format, args...))
}

// Info reports neutral progress
func (c *Console) Info(format string, args ...interface{}) {
	c.line(c.info, "•", format, args...)
}

// Success reports a completed step
func (c *Console) Success(format string, args ...interface{}) {
	c.line(c.success, "✓", format, args...)
}

// Warn reports a recoverable problem
func (c *Console) Warn(format string, args ...interface{}) {
	c.line(c.warn, "!", format, args...)
}

// Error reports a failure
func (c *Console) Error(format string, args ...interface{}) {
	c.line(c.err, "✗", format, args...)
}
