package optimize

import "tealc/internal/ir"

// UseCount counts every occurrence of reg as a Value anywhere in sub: as an
// intrinsic/invoke argument, a phi operand, or a terminator operand. It is
// always computed with a fresh traversal (spec 4.D.3: "Usage count is
// computed by a fresh IR traversal"), never cached, since the optimizer
// mutates the IR between passes and a stale count would silently corrupt
// the commutative-sinking precondition.
func UseCount(sub *ir.Subroutine, reg *ir.Register) int {
	count := 0
	matches := func(v ir.Value) {
		if r, ok := v.(*ir.Register); ok && r.Equal(reg) {
			count++
		}
	}
	for _, b := range sub.Body {
		for _, phi := range b.Phis {
			for _, arg := range phi.Args {
				matches(arg.Value)
			}
		}
		for _, a := range b.Ops {
			switch src := a.Source.(type) {
			case *ir.Intrinsic:
				for _, arg := range src.Args {
					matches(arg)
				}
			case *ir.InvokeSubroutine:
				for _, arg := range src.Args {
					matches(arg)
				}
			case ir.ValueSource:
				matches(src.V)
			}
		}
		switch t := b.Terminator.(type) {
		case *ir.CondBranch:
			matches(t.Cond)
		case *ir.Switch:
			matches(t.Value)
		case *ir.GotoNth:
			matches(t.Value)
		case *ir.SubroutineReturn:
			for _, v := range t.Values {
				matches(v)
			}
		case *ir.ProgramExit:
			matches(t.Value)
		}
	}
	return count
}
