package destructure

import "tealc/internal/ir"

// Convert performs the full CSSA destruction of spec 4.E on sub: it
// replaces every φ with sequentialized parallel copies materialized on
// their originating edges (splitting critical edges where a predecessor
// has more than one successor), clears every block's Phis, and finally
// coalesces copy-related registers that never interfere (spec 4.E step 3,
// "local coalescing via live-range analysis").
func Convert(sub *ir.Subroutine) {
	pcs := BuildParallelCopies(sub)
	temps := NewTempAllocator()
	nextBlockID := nextBlockID(sub)

	for _, pc := range pcs {
		seq := Sequentialize(pc.Copies, temps)
		if len(seq) == 0 {
			continue
		}
		target := materializationTarget(sub, pc.Pred, pc.Succ, &nextBlockID)
		for _, c := range seq {
			target.AddOp(&ir.Assignment{
				Targets: []*ir.Register{c.Dst},
				Source:  ir.ValueSource{V: c.Src},
			})
		}
	}

	for _, b := range sub.Body {
		b.Phis = nil
	}

	Coalesce(sub)
}

func nextBlockID(sub *ir.Subroutine) uint32 {
	var max uint32
	for _, b := range sub.Body {
		if b.ID > max {
			max = b.ID
		}
	}
	return max + 1
}

// materializationTarget returns the block the parallel copy's assignments
// should be appended to: pred itself if the pred->succ edge is not
// critical (pred has exactly one successor), or a freshly split edge block
// otherwise.
func materializationTarget(sub *ir.Subroutine, pred, succ *ir.BasicBlock, nextID *uint32) *ir.BasicBlock {
	if len(pred.Successors) <= 1 {
		return pred
	}

	edgeBlock := &ir.BasicBlock{ID: *nextID}
	*nextID++

	ir.Unlink(pred, succ)
	retarget(pred.Terminator, succ, edgeBlock)
	pred.SetTerminator(pred.Terminator)
	edgeBlock.SetTerminator(&ir.Goto{Target: succ})

	sub.Body = append(sub.Body, edgeBlock)
	return edgeBlock
}

// retarget rewrites every reference to `from` inside t to `to`, in place.
// Every terminator variant that can name more than one successor (and
// therefore create a critical edge) is covered.
func retarget(t ir.Terminator, from, to *ir.BasicBlock) {
	switch term := t.(type) {
	case *ir.CondBranch:
		if term.Zero == from {
			term.Zero = to
		}
		if term.NonZero == from {
			term.NonZero = to
		}
	case *ir.Switch:
		if term.Default == from {
			term.Default = to
		}
		for i := range term.Cases {
			if term.Cases[i].Block == from {
				term.Cases[i].Block = to
			}
		}
	case *ir.GotoNth:
		if term.Default == from {
			term.Default = to
		}
		for i := range term.Blocks {
			if term.Blocks[i] == from {
				term.Blocks[i] = to
			}
		}
	case *ir.Goto:
		if term.Target == from {
			term.Target = to
		}
	}
}
