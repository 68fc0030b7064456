package ir

import (
	"fmt"
	"strings"
)

// Printer produces a textual dump of a Program, used by the CLI's -o-ir
// flag.
// Tracks indentation with a writeLine helper so nested blocks read as
// nested text.
type Printer struct {
	indent int
	output strings.Builder
}

func NewPrinter() *Printer { return &Printer{} }

func Print(p *Program) string {
	pr := NewPrinter()
	pr.printProgram(p)
	return pr.output.String()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...any) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printProgram(prog *Program) {
	p.writeLine("PROGRAM %s", prog.ID)
	for _, sub := range prog.AllSubroutines() {
		p.printSubroutine(sub)
	}
}

func (p *Printer) printSubroutine(sub *Subroutine) {
	var params []string
	for _, param := range sub.Params {
		params = append(params, fmt.Sprintf("%s: %s", param.Reg.String(), param.Reg.AT))
	}
	p.writeLine("sub %s(%s)", sub.Name, strings.Join(params, ", "))
	p.indent++
	for _, b := range sub.Body {
		p.printBlock(b)
	}
	p.indent--
}

func (p *Printer) printBlock(b *BasicBlock) {
	p.writeLine("%s:", b.Label())
	p.indent++
	for _, phi := range b.Phis {
		p.writeLine("%s", phi.String())
	}
	for _, op := range b.Ops {
		p.writeLine("%s", op.String())
	}
	if b.Terminator != nil {
		p.writeLine("%s", b.Terminator.String())
	}
	p.indent--
}
