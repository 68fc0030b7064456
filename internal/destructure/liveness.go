package destructure

import "tealc/internal/ir"

// LiveIn and LiveOut hold the standard backward dataflow solution: the set
// of registers live entering/leaving each block. Coalesce uses LiveOut to
// decide whether a copy's source can be safely merged with its
// destination (spec 4.E step 3).
type LiveIn map[*ir.BasicBlock]map[*ir.Register]bool
type LiveOut map[*ir.BasicBlock]map[*ir.Register]bool

// ComputeLiveness runs the classic upward-exposed-use / var-kill fixpoint
// over sub's CFG: LiveOut(b) = union of LiveIn(successors); LiveIn(b) =
// Use(b) ∪ (LiveOut(b) \ Def(b)).
func ComputeLiveness(sub *ir.Subroutine) (LiveIn, LiveOut) {
	in := LiveIn{}
	out := LiveOut{}
	for _, b := range sub.Body {
		in[b] = map[*ir.Register]bool{}
		out[b] = map[*ir.Register]bool{}
	}

	use := map[*ir.BasicBlock]map[*ir.Register]bool{}
	def := map[*ir.BasicBlock]map[*ir.Register]bool{}
	for _, b := range sub.Body {
		u, d := localSets(b)
		use[b] = u
		def[b] = d
	}

	changed := true
	for changed {
		changed = false
		for _, b := range sub.Body {
			newOut := map[*ir.Register]bool{}
			for _, s := range b.Successors {
				for r := range in[s] {
					newOut[r] = true
				}
			}
			newIn := map[*ir.Register]bool{}
			for r := range use[b] {
				newIn[r] = true
			}
			for r := range newOut {
				if !def[b][r] {
					newIn[r] = true
				}
			}
			if !setEqual(newIn, in[b]) {
				in[b] = newIn
				changed = true
			}
			if !setEqual(newOut, out[b]) {
				out[b] = newOut
				changed = true
			}
		}
	}
	return in, out
}

// localSets returns the upward-exposed uses and the kill set of a single
// block: use(b) is every register read before any local redefinition,
// def(b) is every register assigned anywhere in the block.
func localSets(b *ir.BasicBlock) (use, def map[*ir.Register]bool) {
	use = map[*ir.Register]bool{}
	def = map[*ir.Register]bool{}
	markUse := func(v ir.Value) {
		if r, ok := v.(*ir.Register); ok && !def[r] {
			use[r] = true
		}
	}
	for _, a := range b.Ops {
		switch src := a.Source.(type) {
		case *ir.Intrinsic:
			for _, arg := range src.Args {
				markUse(arg)
			}
		case *ir.InvokeSubroutine:
			for _, arg := range src.Args {
				markUse(arg)
			}
		case ir.ValueSource:
			markUse(src.V)
		}
		for _, t := range a.Targets {
			def[t] = true
		}
	}
	switch t := b.Terminator.(type) {
	case *ir.CondBranch:
		markUse(t.Cond)
	case *ir.Switch:
		markUse(t.Value)
	case *ir.GotoNth:
		markUse(t.Value)
	case *ir.SubroutineReturn:
		for _, v := range t.Values {
			markUse(v)
		}
	case *ir.ProgramExit:
		markUse(t.Value)
	}
	return use, def
}

func setEqual(a, b map[*ir.Register]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for r := range a {
		if !b[r] {
			return false
		}
	}
	return true
}
