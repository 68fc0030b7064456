package mir

import "tealc/internal/ir"

// Build linearizes a single destructured subroutine (no φs: run
// destructure.Convert first) into a flat MIR instruction stream. names
// resolves subroutine call targets (ResolveNames); slots assigns scratch
// storage to registers that survive past the expression that produced
// them (AllocateSlots); ops supplies each intrinsic's output arity so a
// discarded statement-level result can be popped correctly.
func Build(sub *ir.Subroutine, names map[*ir.Subroutine]string, slots map[*ir.Register]int, ops *OpTableArity) []Instr {
	var out []Instr

	for i, b := range sub.Body {
		if i != 0 {
			out = append(out, Label{Name: b.Label()})
		}
		for _, a := range b.Ops {
			out = append(out, lowerAssignment(a, names, slots, ops)...)
		}
		out = append(out, lowerTerminator(b, i, sub.Body, slots)...)
	}

	return dropRedundantFallthroughs(out)
}

func emitPush(v ir.Value, slots map[*ir.Register]int) Instr {
	if r, ok := v.(*ir.Register); ok {
		return Load{Slot: slots[r], Name: r.String()}
	}
	return Push{Value: v}
}

func lowerAssignment(a *ir.Assignment, names map[*ir.Subroutine]string, slots map[*ir.Register]int, ops *OpTableArity) []Instr {
	var out []Instr
	outputs := 0

	switch src := a.Source.(type) {
	case *ir.Intrinsic:
		for _, arg := range src.Args {
			out = append(out, emitPush(arg, slots))
		}
		out = append(out, Op{Name: src.Op, Immediate: src.Immediate})
		outputs = ops.outputs(src.Op)
	case *ir.InvokeSubroutine:
		for _, arg := range src.Args {
			out = append(out, emitPush(arg, slots))
		}
		out = append(out, CallSub{Target: names[src.Target]})
		outputs = len(src.Target.Returns)
	case ir.ValueSource:
		out = append(out, emitPush(src.V, slots))
		outputs = 1
	}

	if len(a.Targets) == 0 {
		if outputs > 0 {
			out = append(out, Pop{N: outputs})
		}
		return out
	}

	// Right-to-left target ordering: a multi-output source leaves its
	// last output on top of the stack, so the rightmost declared target
	// must be stored first.
	for i := len(a.Targets) - 1; i >= 0; i-- {
		t := a.Targets[i]
		out = append(out, Store{Slot: slots[t], Name: t.String()})
	}
	return out
}

func lowerTerminator(b *ir.BasicBlock, idx int, body []*ir.BasicBlock, slots map[*ir.Register]int) []Instr {
	nextIsPhysically := func(target *ir.BasicBlock) bool {
		return idx+1 < len(body) && body[idx+1] == target
	}

	switch t := b.Terminator.(type) {
	case *ir.Goto:
		return []Instr{Jump{Target: t.Target.Label()}}
	case *ir.CondBranch:
		var out []Instr
		out = append(out, emitPush(t.Cond, slots))
		out = append(out, BranchNonZero{Target: t.NonZero.Label()})
		if !nextIsPhysically(t.Zero) {
			out = append(out, Jump{Target: t.Zero.Label()})
		}
		return out
	case *ir.Switch:
		var out []Instr
		out = append(out, emitPush(t.Value, slots))
		var targets []string
		for _, c := range t.Cases {
			targets = append(targets, c.Block.Label())
		}
		var values []ir.Value
		for _, c := range t.Cases {
			values = append(values, c.Value)
		}
		out = append(out, Switch{Values: values, Targets: targets, Default: t.Default.Label()})
		return out
	case *ir.GotoNth:
		var out []Instr
		out = append(out, emitPush(t.Value, slots))
		var targets []string
		for _, blk := range t.Blocks {
			targets = append(targets, blk.Label())
		}
		out = append(out, Match{Targets: targets, Default: t.Default.Label()})
		return out
	case *ir.SubroutineReturn:
		var out []Instr
		for _, v := range t.Values {
			out = append(out, emitPush(v, slots))
		}
		out = append(out, Retsub{})
		return out
	case *ir.ProgramExit:
		return []Instr{emitPush(t.Value, slots), ProgramExit{}}
	case *ir.Fail:
		return []Instr{Err{Comment: t.Comment}}
	}
	return nil
}

// dropRedundantFallthroughs replaces a Jump immediately preceding the
// label it targets with a comment: the branch would do nothing but cost
// code size, since execution already falls into that label.
func dropRedundantFallthroughs(instrs []Instr) []Instr {
	out := make([]Instr, 0, len(instrs))
	for i, instr := range instrs {
		if j, ok := instr.(Jump); ok && i+1 < len(instrs) {
			if lbl, ok := instrs[i+1].(Label); ok && lbl.Name == j.Target {
				out = append(out, FallthroughComment{Target: j.Target})
				continue
			}
		}
		out = append(out, instr)
	}
	return out
}

// OpTableArity is the narrow slice of optable.Table the MIR builder
// needs: how many stack values an op produces. Kept as its own tiny type
// instead of importing optable.Table directly, so tests can supply a fake
// without constructing a full op table.
type OpTableArity struct {
	lookup func(op string) int
}

func NewOpTableArity(lookup func(op string) int) *OpTableArity {
	return &OpTableArity{lookup: lookup}
}

func (o *OpTableArity) outputs(op string) int {
	if o == nil || o.lookup == nil {
		return 0
	}
	return o.lookup(op)
}
