package optimize

import (
	"math/big"

	"tealc/internal/atype"
	"tealc/internal/ir"
)

var u64CompareOps = map[string]bool{
	"<": true, "<=": true, ">": true, ">=": true, "==": true, "!=": true,
	"&&": true, "||": true,
}

var u64BinaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "<<": true, ">>": true,
	"exp": true, "&": true, "|": true, "^": true,
}

var bytesMathArith = map[string]bool{"b+": true, "b-": true, "b*": true, "b/": true, "b%": true}
var bytesMathCompare = map[string]bool{"b<": true, "b<=": true, "b>": true, "b>=": true, "b==": true, "b!=": true}
var bytesMathBitwise = map[string]bool{"b&": true, "b|": true, "b^": true}

// foldGenericTwoConst is the "generic two-const fold" row of spec 4.D.2's
// table: compute in exact integer arithmetic and reject (leave the op
// unmodified) if the result would be negative or overflow u64, so the VM
// still raises at runtime exactly as it would have on the unfolded op
// (spec 4.D.5).
func foldGenericTwoConst(sub *ir.Subroutine, intr *ir.Intrinsic) (ir.AssignmentSource, bool) {
	if len(intr.Args) != 2 {
		return nil, false
	}
	switch {
	case u64CompareOps[intr.Op] || u64BinaryOps[intr.Op]:
		return foldU64(intr)
	case bytesMathArith[intr.Op] || bytesMathCompare[intr.Op] || bytesMathBitwise[intr.Op]:
		return foldBytesMath(sub, intr)
	default:
		return nil, false
	}
}

func foldU64(intr *ir.Intrinsic) (ir.AssignmentSource, bool) {
	l, lok := AsU64(intr.Args[0])
	r, rok := AsU64(intr.Args[1])
	if !lok || !rok {
		return nil, false
	}
	switch intr.Op {
	case "+":
		sum := l + r
		if sum < l {
			return nil, false // overflow
		}
		return constU64(sum), true
	case "-":
		if r > l {
			return nil, false // negative result: VM raises
		}
		return constU64(l - r), true
	case "*":
		if l == 0 || r == 0 {
			return constU64(0), true
		}
		product := l * r
		if product/l != r {
			return nil, false // overflow
		}
		return constU64(product), true
	case "/":
		if r == 0 {
			return nil, false // division by zero: VM raises
		}
		return constU64(l / r), true
	case "%":
		if r == 0 {
			return nil, false
		}
		return constU64(l % r), true
	case "<":
		return constU64(boolU64(l < r)), true
	case "<=":
		return constU64(boolU64(l <= r)), true
	case ">":
		return constU64(boolU64(l > r)), true
	case ">=":
		return constU64(boolU64(l >= r)), true
	case "==":
		return constU64(boolU64(l == r)), true
	case "!=":
		return constU64(boolU64(l != r)), true
	case "&&":
		return constU64(boolU64(l != 0 && r != 0)), true
	case "||":
		return constU64(boolU64(l != 0 || r != 0)), true
	case "<<":
		if r >= 64 || (l<<r)>>r != l {
			return nil, false // overflow
		}
		return constU64(l << r), true
	case ">>":
		if r >= 64 {
			return constU64(0), true
		}
		return constU64(l >> r), true
	case "exp":
		if l == 0 && r == 0 {
			return nil, false // unspecified VM behavior; do not guess (spec section 9)
		}
		result := new(big.Int).Exp(big.NewInt(0).SetUint64(l), big.NewInt(0).SetUint64(r), nil)
		if !result.IsUint64() {
			return nil, false // overflow
		}
		return constU64(result.Uint64()), true
	case "&":
		return constU64(l & r), true
	case "|":
		return constU64(l | r), true
	case "^":
		return constU64(l ^ r), true
	default:
		return nil, false
	}
}

// bytesBitwiseOps maps the byte-math bitwise family to the per-byte
// operator byteWise applies (spec 4.D.2's "same for bytes-math" row).
var bytesBitwiseOps = map[string]func(a, b byte) byte{
	"b&": func(a, b byte) byte { return a & b },
	"b|": func(a, b byte) byte { return a | b },
	"b^": func(a, b byte) byte { return a ^ b },
}

// byteWise applies op byte-by-byte over lhs and rhs aligned on their
// least-significant (rightmost) byte, zero-extending the shorter operand,
// so the result is always max(len(lhs), len(rhs)) bytes long — matching
// the original puya compiler's `byte_wise` helper (a reversed
// `zip_longest` with a zero fill value), rather than big.Int's `.Bytes()`
// which strips leading zeros and can silently shorten the result.
func byteWise(op func(a, b byte) byte, lhs, rhs []byte) []byte {
	n := len(lhs)
	if len(rhs) > n {
		n = len(rhs)
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		var a, b byte
		if li := len(lhs) - 1 - i; li >= 0 {
			a = lhs[li]
		}
		if ri := len(rhs) - 1 - i; ri >= 0 {
			b = rhs[ri]
		}
		out[n-1-i] = op(a, b)
	}
	return out
}

func foldBytesMath(sub *ir.Subroutine, intr *ir.Intrinsic) (ir.AssignmentSource, bool) {
	if op, ok := bytesBitwiseOps[intr.Op]; ok {
		lb, lok := AsBytes(sub, intr.Args[0])
		rb, rok := AsBytes(sub, intr.Args[1])
		if !lok || !rok {
			return nil, false
		}
		return constBytes(byteWise(op, lb.V, rb.V), atype.MergeEncoding(lb.Enc, rb.Enc)), true
	}

	l, lok := AsBigUint(intr.Args[0])
	r, rok := AsBigUint(intr.Args[1])
	if !lok || !rok {
		return nil, false
	}
	enc := atype.EncodingUnknown
	if lc, ok := intr.Args[0].(ir.BytesConst); ok {
		if rc, ok := intr.Args[1].(ir.BytesConst); ok {
			enc = atype.MergeEncoding(lc.Enc, rc.Enc)
		}
	}
	switch intr.Op {
	case "b+":
		return constBytes(new(big.Int).Add(l, r).Bytes(), enc), true
	case "b-":
		diff := new(big.Int).Sub(l, r)
		if diff.Sign() < 0 {
			return nil, false
		}
		return constBytes(diff.Bytes(), enc), true
	case "b*":
		return constBytes(new(big.Int).Mul(l, r).Bytes(), enc), true
	case "b/":
		if r.Sign() == 0 {
			return nil, false
		}
		return constBytes(new(big.Int).Div(l, r).Bytes(), enc), true
	case "b%":
		if r.Sign() == 0 {
			return nil, false
		}
		return constBytes(new(big.Int).Mod(l, r).Bytes(), enc), true
	case "b<":
		return constU64(boolU64(l.Cmp(r) < 0)), true
	case "b<=":
		return constU64(boolU64(l.Cmp(r) <= 0)), true
	case "b>":
		return constU64(boolU64(l.Cmp(r) > 0)), true
	case "b>=":
		return constU64(boolU64(l.Cmp(r) >= 0)), true
	case "b==":
		return constU64(boolU64(l.Cmp(r) == 0)), true
	case "b!=":
		return constU64(boolU64(l.Cmp(r) != 0)), true
	case "b&":
		return constBytes(new(big.Int).And(l, r).Bytes(), enc), true
	case "b|":
		return constBytes(new(big.Int).Or(l, r).Bytes(), enc), true
	case "b^":
		return constBytes(new(big.Int).Xor(l, r).Bytes(), enc), true
	default:
		return nil, false
	}
}
