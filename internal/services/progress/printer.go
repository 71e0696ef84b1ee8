// Package progress prints human-readable step lines for the operator.
package progress

import (
	"io"
	"strings"

	"github.com/fatih/color"
)

// Printer writes step banners and command output. A nil writer discards.
type Printer struct {
	out    io.Writer
	errOut io.Writer
}

// New creates a printer writing progress to out and failures to errOut.
func New(out, errOut io.Writer) *Printer {
	return &Printer{out: out, errOut: errOut}
}

// Discard returns a printer that writes nothing.
func Discard() *Printer {
	return &Printer{}
}

// Step announces the step about to run.
func (p *Printer) Step(message string) {
	p.write(false, message, color.FgYellow)
}

// Success marks a completed step or run.
func (p *Printer) Success(message string) {
	p.write(false, "✓ "+message, color.FgGreen)
}

// Warn reports a failure that does not stop the run.
func (p *Printer) Warn(message string) {
	p.write(true, "! "+message, color.FgYellow)
}

// Failure reports a failure that stops the run.
func (p *Printer) Failure(message string) {
	p.write(true, "✗ "+message, color.FgRed)
}

// Output echoes command output verbatim.
func (p *Printer) Output(text string) {
	text = strings.TrimRight(text, "\n")
	if p == nil || p.out == nil || text == "" {
		return
	}
	_, _ = io.WriteString(p.out, text+"\n")
}

// ErrorOutput echoes command error output verbatim.
func (p *Printer) ErrorOutput(text string) {
	text = strings.TrimRight(text, "\n")
	if p == nil || p.errOut == nil || text == "" {
		return
	}
	_, _ = io.WriteString(p.errOut, "Error: "+text+"\n")
}

func (p *Printer) write(toErr bool, message string, attr color.Attribute) {
	if p == nil {
		return
	}
	stream := p.out
	if toErr {
		stream = p.errOut
	}
	if stream != nil {
		_, _ = color.New(attr).Fprintln(stream, message)
	}
}
