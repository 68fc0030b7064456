package optimize

import "tealc/internal/ir"

var commutativeOps = map[string]bool{
	"+": true, "*": true, "&": true, "|": true, "^": true,
	"b+": true, "b*": true, "b&": true, "b|": true, "b^": true,
}

// SinkConstant implements spec 4.D.3's commutative-associative constant
// sinking: given `f(const c1, f(const c2, r))` (in any orientation) where
// the inner result is read exactly once, rewrite to `f(r, fold(c1, c2))`.
// The precondition guards against duplicating the inner op's evaluation if
// it were read elsewhere — not a correctness issue for pure intrinsics, but
// a code-size/gas regression the pass must not introduce.
func SinkConstant(sub *ir.Subroutine, intr *ir.Intrinsic) (*ir.Intrinsic, bool) {
	if !commutativeOps[intr.Op] || len(intr.Args) != 2 {
		return nil, false
	}
	orientations := [2][2]ir.Value{
		{intr.Args[0], intr.Args[1]},
		{intr.Args[1], intr.Args[0]},
	}
	for _, o := range orientations {
		outerConst, innerVal := o[0], o[1]
		if !isConstLike(outerConst) {
			continue
		}
		tReg, ok := innerVal.(*ir.Register)
		if !ok {
			continue
		}
		def := GetDefinition(sub, tReg)
		if def == nil || len(def.Targets) != 1 {
			continue
		}
		inner, ok := def.Source.(*ir.Intrinsic)
		if !ok || inner.Op != intr.Op || len(inner.Args) != 2 {
			continue
		}
		if UseCount(sub, tReg) != 1 {
			continue
		}
		innerOrientations := [2][2]ir.Value{
			{inner.Args[0], inner.Args[1]},
			{inner.Args[1], inner.Args[0]},
		}
		for _, io := range innerOrientations {
			c2, x := io[0], io[1]
			if !isConstLike(c2) {
				continue
			}
			folded, ok := foldGenericTwoConst(sub, &ir.Intrinsic{Op: intr.Op, Args: []ir.Value{outerConst, c2}})
			if !ok {
				continue
			}
			foldedVal := folded.(ir.ValueSource).V
			return &ir.Intrinsic{Op: intr.Op, Args: []ir.Value{x, foldedVal}}, true
		}
	}
	return nil, false
}

func isConstLike(v ir.Value) bool {
	_, isReg := v.(*ir.Register)
	return !isReg
}
