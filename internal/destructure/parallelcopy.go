// Package destructure lowers φ-form SSA into conventional SSA (CSSA) by
// replacing every φ with a parallel copy on each predecessor edge, then
// sequentializes each parallel copy (breaking copy cycles with a scratch
// register) and finally coalesces registers that never interfere, per spec
// 4.E.
package destructure

import "tealc/internal/ir"

// Copy is one assignment dst <- src within a parallel copy: all copies in a
// ParallelCopy are conceptually simultaneous (spec 4.E, "Parallel copies").
type Copy struct {
	Dst *ir.Register
	Src ir.Value
}

// ParallelCopy is the full set of copies to insert on one CFG edge.
type ParallelCopy struct {
	Pred *ir.BasicBlock
	Succ *ir.BasicBlock
	Copies []Copy
}

// BuildParallelCopies turns every φ in sub into one ParallelCopy per
// predecessor edge of the φ's block (spec 4.E step 1: "φ-elimination").
// A block with multiple φs produces one ParallelCopy per predecessor that
// bundles all of that predecessor's incoming values together, since they
// must be read simultaneously before any of the assignments happen (spec
// 4.E's motivating example: swapping two loop-carried values through a
// naive sequence of copies corrupts one of them).
func BuildParallelCopies(sub *ir.Subroutine) []*ParallelCopy {
	byPred := map[*ir.BasicBlock]*ParallelCopy{}
	var order []*ir.BasicBlock

	for _, b := range sub.Body {
		for _, phi := range b.Phis {
			for _, arg := range phi.Args {
				pc, ok := byPred[arg.Pred]
				if !ok {
					pc = &ParallelCopy{Pred: arg.Pred, Succ: b}
					byPred[arg.Pred] = pc
					order = append(order, arg.Pred)
				}
				pc.Copies = append(pc.Copies, Copy{Dst: phi.Result, Src: arg.Value})
			}
		}
	}

	out := make([]*ParallelCopy, 0, len(order))
	for _, pred := range order {
		out = append(out, byPred[pred])
	}
	return out
}
