// Package report writes the human readable run transcript.
package report

import (
	"fmt"
	"io"
	"strings"
)

// Console formats transcript blocks onto an io.Writer.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Write(s string) {
	fmt.Fprint(c.w, s)
}

func (c *Console) Writeln(s string) {
	fmt.Fprintln(c.w, s)
}

func (c *Console) Title(s string) {
	c.Writeln(s)
	c.Writeln(strings.Repeat("=", len(s)))
}

func (c *Console) Section(s string) {
	c.Writeln("")
	c.Writeln(s)
	c.Writeln(strings.Repeat("-", len(s)))
	c.Writeln("")
}

func (c *Console) Note(s string) {
	c.Writeln(" ! [NOTE] " + s)
}

func (c *Console) Success(s string) {
	c.Writeln(" [OK] " + s)
}

func (c *Console) Error(s string) {
	c.Writeln(" [ERROR] " + s)
}
