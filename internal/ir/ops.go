package ir

import (
	"fmt"
	"strings"

	"tealc/internal/optable"
)

// Intrinsic is a call to a VM op-code with its immediates and stack
// arguments (spec section 3, "Operations"). The lowering pass validates
// arity against the op table for binary expressions only; unary
// expressions and direct intrinsic calls are lowered without that check.
type Intrinsic struct {
	Op        string
	Immediate []any // int or string immediates, per optable.Immediate.Kind
	Args      []Value
}

func (i *Intrinsic) String() string {
	var imm []string
	for _, v := range i.Immediate {
		imm = append(imm, fmt.Sprintf("%v", v))
	}
	var args []string
	for _, a := range i.Args {
		args = append(args, a.String())
	}
	parts := append(append([]string{}, imm...), args...)
	return fmt.Sprintf("%s(%s)", i.Op, strings.Join(parts, ", "))
}

// InvokeSubroutine calls another Subroutine by value; arity and types must
// match target.Params.
type InvokeSubroutine struct {
	Target *Subroutine
	Args   []Value
}

func (i *InvokeSubroutine) String() string {
	var args []string
	for _, a := range i.Args {
		args = append(args, a.String())
	}
	return fmt.Sprintf("call %s(%s)", i.Target.Name, strings.Join(args, ", "))
}

// AssignmentSource is the right-hand side of an Assignment: an intrinsic
// call, a subroutine invocation, or a bare value (a trivial copy, which the
// optimizer's copy-propagation pass eliminates).
type AssignmentSource interface {
	isAssignmentSource()
}

func (*Intrinsic) isAssignmentSource()        {}
func (*InvokeSubroutine) isAssignmentSource() {}

// ValueSource wraps a Value so it can appear as an Assignment's source,
// representing `y = x`.
type ValueSource struct{ V Value }

func (ValueSource) isAssignmentSource() {}

// Assignment binds zero or more target registers to the result(s) of a
// source. Zero targets models a statement-level call whose results are
// unused (spec 4.F: the MIR builder emits a Pop(n) for these).
type Assignment struct {
	ID      int
	Targets []*Register
	Source  AssignmentSource
	Loc     SourceLoc
}

func (a *Assignment) String() string {
	var srcStr string
	switch s := a.Source.(type) {
	case *Intrinsic:
		srcStr = s.String()
	case *InvokeSubroutine:
		srcStr = s.String()
	case ValueSource:
		srcStr = s.V.String()
	}
	if len(a.Targets) == 0 {
		return srcStr
	}
	var targets []string
	for _, t := range a.Targets {
		targets = append(targets, t.String())
	}
	return fmt.Sprintf("%s = %s", strings.Join(targets, ", "), srcStr)
}

// Arity returns the number of values a source produces, used to validate
// |targets| against source arity (spec section 3 invariant on Assignment).
func Arity(src AssignmentSource, ops *optable.Table) (int, error) {
	switch s := src.(type) {
	case *Intrinsic:
		entry, err := ops.Lookup(s.Op)
		if err != nil {
			return 0, err
		}
		return len(entry.Outputs), nil
	case *InvokeSubroutine:
		return len(s.Target.Returns), nil
	case ValueSource:
		return 1, nil
	default:
		return 0, fmt.Errorf("unknown assignment source %T", src)
	}
}

// PhiArg is one incoming edge of a φ-node.
type PhiArg struct {
	Pred  *BasicBlock
	Value Value
}

// Phi represents the choice of value at a merge point based on which
// predecessor transferred control. One arg per predecessor, in a fixed
// order matching BasicBlock.Predecessors (spec section 3 invariant 3).
type Phi struct {
	ID     int
	Result *Register
	Args   []PhiArg
	Block  *BasicBlock
}

func (p *Phi) String() string {
	var parts []string
	for _, a := range p.Args {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Pred.Label(), a.Value.String()))
	}
	return fmt.Sprintf("%s = phi(%s)", p.Result.String(), strings.Join(parts, ", "))
}

// SourceLoc is a best-effort pointer back to the originating AWST node,
// threaded through the pipeline for diagnostics.
type SourceLoc struct {
	File   string
	Line   int
	Column int
}
