// Package optimize implements the fixed-point optimizer of spec section
// 4.D: a constant-fold registry over intrinsic definitions, an exhaustive
// peephole rule set, commutative-associative constant sinking, and
// dead-code/dead-block/copy-propagation cleanup, composed by a driver that
// loops every pass until none report a change or an iteration cap is hit.
package optimize

import (
	"math/big"

	"tealc/internal/ir"
)

// GetDefinition walks sub and returns the sole Assignment whose Targets
// contains reg, or nil for a parameter or a phi-defined register (spec
// 4.D.1: "Registers defined by φ have no constant value").
func GetDefinition(sub *ir.Subroutine, reg *ir.Register) *ir.Assignment {
	if reg == nil {
		return nil
	}
	for _, b := range sub.Body {
		for _, a := range b.Ops {
			for _, t := range a.Targets {
				if t.Equal(reg) {
					return a
				}
			}
		}
	}
	return nil
}

// AsU64 matches a literal U64Const.
func AsU64(v ir.Value) (uint64, bool) {
	c, ok := v.(ir.U64Const)
	if !ok {
		return 0, false
	}
	return c.V, true
}

// AsBigUint matches BigUIntConst directly, and BytesConst of length <= 64
// interpreted as a big-endian unsigned integer (spec 4.D.1).
func AsBigUint(v ir.Value) (*big.Int, bool) {
	switch c := v.(type) {
	case ir.BigUIntConst:
		return c.V, true
	case ir.BytesConst:
		if len(c.V) > 64 {
			return nil, false
		}
		return new(big.Int).SetBytes(c.V), true
	default:
		return nil, false
	}
}

// AsBytes matches a direct BytesConst, and folds two intrinsic patterns
// into an equivalent BytesConst: `itob(const u64)` to its 8-byte
// big-endian encoding, and `bzero(const u64 <= 64)` to a zero-filled byte
// string of that length (spec 4.D.1).
func AsBytes(sub *ir.Subroutine, v ir.Value) (ir.BytesConst, bool) {
	switch c := v.(type) {
	case ir.BytesConst:
		return c, true
	case *ir.Register:
		def := GetDefinition(sub, c)
		if def == nil {
			return ir.BytesConst{}, false
		}
		intr, ok := def.Source.(*ir.Intrinsic)
		if !ok || len(def.Targets) != 1 {
			return ir.BytesConst{}, false
		}
		switch intr.Op {
		case "itob":
			if n, ok := AsU64(intr.Args[0]); ok {
				buf := make([]byte, 8)
				for i := 7; i >= 0; i-- {
					buf[i] = byte(n)
					n >>= 8
				}
				return ir.BytesConst{V: buf, Enc: 0}, true
			}
		case "bzero":
			if n, ok := AsU64(intr.Args[0]); ok && n <= 64 {
				return ir.BytesConst{V: make([]byte, n), Enc: 0}, true
			}
		}
		return ir.BytesConst{}, false
	default:
		return ir.BytesConst{}, false
	}
}
