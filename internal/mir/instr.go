// Package mir lowers destructured (phi-free) IR subroutines into a linear,
// stack-machine instruction stream: pushes/loads/stores in place of SSA
// registers, symbolic labels in place of basic blocks, and subroutine
// names resolved to their shortest unambiguous form (spec 4.F).
package mir

import (
	"fmt"

	"tealc/internal/ir"
)

// Instr is one linear MIR instruction. The assembler (spec 4.G) is the
// only later stage that needs to know about these concrete shapes; the
// MIR layer itself is blind to constant-pool packing and byte offsets.
type Instr interface {
	isInstr()
	String() string
}

// Push places a constant or a compiled-reference value directly on the
// stack top.
type Push struct {
	Value ir.Value
}

func (Push) isInstr()        {}
func (p Push) String() string { return fmt.Sprintf("push %s", p.Value) }

// Load reads a scratch slot onto the stack.
type Load struct {
	Slot int
	Name string // original register name, kept for readable TEAL comments
}

func (Load) isInstr()        {}
func (l Load) String() string { return fmt.Sprintf("load %d // %s", l.Slot, l.Name) }

// Store pops the stack top into a scratch slot.
type Store struct {
	Slot int
	Name string
}

func (Store) isInstr()        {}
func (s Store) String() string { return fmt.Sprintf("store %d // %s", s.Slot, s.Name) }

// Op is an intrinsic op-code call; by the time MIR is built, all of its
// arguments have already been pushed in the op's expected stack order.
type Op struct {
	Name      string
	Immediate []any
}

func (Op) isInstr() {}
func (o Op) String() string {
	if len(o.Immediate) == 0 {
		return o.Name
	}
	return fmt.Sprintf("%s %v", o.Name, o.Immediate)
}

// CallSub invokes another subroutine by its resolved name.
type CallSub struct {
	Target string
}

func (CallSub) isInstr()        {}
func (c CallSub) String() string { return fmt.Sprintf("callsub %s", c.Target) }

// Label marks a jump target.
type Label struct {
	Name string
}

func (Label) isInstr()        {}
func (l Label) String() string { return l.Name + ":" }

// Jump is an unconditional branch.
type Jump struct {
	Target string
}

func (Jump) isInstr()        {}
func (j Jump) String() string { return fmt.Sprintf("b %s", j.Target) }

// BranchZero/BranchNonZero are the two arms of a CondBranch.
type BranchZero struct{ Target string }
type BranchNonZero struct{ Target string }

func (BranchZero) isInstr()           {}
func (b BranchZero) String() string   { return fmt.Sprintf("bz %s", b.Target) }
func (BranchNonZero) isInstr()        {}
func (b BranchNonZero) String() string { return fmt.Sprintf("bnz %s", b.Target) }

// Match is a dense-dispatch jump table (the `match` pseudo-op / GotoNth).
type Match struct {
	Targets []string
	Default string
}

func (Match) isInstr()        {}
func (m Match) String() string { return fmt.Sprintf("match %v default %s", m.Targets, m.Default) }

// Switch is a value-keyed jump table.
type Switch struct {
	Values  []ir.Value
	Targets []string
	Default string
}

func (Switch) isInstr()        {}
func (s Switch) String() string { return fmt.Sprintf("switch %v default %s", s.Targets, s.Default) }

// Retsub returns from the current subroutine.
type Retsub struct{}

func (Retsub) isInstr()        {}
func (Retsub) String() string { return "retsub" }

// ProgramExit ends the whole program with the top-of-stack value.
type ProgramExit struct{}

func (ProgramExit) isInstr()        {}
func (ProgramExit) String() string { return "return" }

// Err fails the program unconditionally.
type Err struct {
	Comment string
}

func (Err) isInstr() {}
func (e Err) String() string {
	if e.Comment == "" {
		return "err"
	}
	return "err // " + e.Comment
}

// FallthroughComment replaces a Jump whose target is the block physically
// next in the emitted sequence: the branch is redundant and would only
// cost code size, but a human (or the round-trip parser) reading the
// listing should still see where control would have gone.
type FallthroughComment struct {
	Target string
}

func (FallthroughComment) isInstr() {}
func (f FallthroughComment) String() string {
	return fmt.Sprintf("// falls through to %s", f.Target)
}

// Pop discards n unused values, emitted for a zero-target Assignment whose
// source still produced stack outputs (spec 4.F).
type Pop struct {
	N int
}

func (Pop) isInstr() {}
func (p Pop) String() string {
	if p.N <= 1 {
		return "pop"
	}
	return fmt.Sprintf("pop %d", p.N)
}
