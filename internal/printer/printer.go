// Package printer provides the output sinks a cursor prints through:
// the process stdout/stderr sinks and the in-memory capture sink that
// backs open-printer/close-printer capture blocks.
package printer

import (
	"bytes"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Sink is one print destination. The VM holds a stack of these per
// call frame; `print` writes to the innermost open one.
type Sink interface {
	io.Writer
	// Flush pushes buffered output to the underlying destination.
	// Capture sinks keep their buffer; Flush is a no-op for them.
	Flush() error
}

// OS wraps a process stream. Terminal reports whether the stream is
// attached to a TTY, which stdlib modules consult for pretty-printing
// hints (the core itself never changes output based on it).
type OS struct {
	f        *os.File
	terminal bool
}

func NewStdout() *OS { return wrap(os.Stdout) }
func NewStderr() *OS { return wrap(os.Stderr) }

func wrap(f *os.File) *OS {
	return &OS{f: f, terminal: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())}
}

func (s *OS) Write(p []byte) (int, error) { return s.f.Write(p) }
func (s *OS) Flush() error                { return s.f.Sync() }
func (s *OS) Terminal() bool              { return s.terminal }

// Capture accumulates printed output in memory; close-printer hands
// the accumulated text back to the script as a string.
type Capture struct {
	buf bytes.Buffer
}

func NewCapture() *Capture { return &Capture{} }

func (c *Capture) Write(p []byte) (int, error) { return c.buf.Write(p) }
func (c *Capture) Flush() error                { return nil }
func (c *Capture) String() string              { return c.buf.String() }
