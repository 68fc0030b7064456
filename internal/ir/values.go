package ir

import (
	"fmt"
	"math/big"

	"tealc/internal/atype"
)

// Value is the union of Register and Constant described in spec section 3:
// every Value carries an AType, and equality for constants is structural
// while register equality is by (local_id, version, atype).
type Value interface {
	AType() atype.AType
	String() string
	isValue()
}

// Register is an SSA name: `local_id#version`. Two registers are equal iff
// all three fields match (spec section 3, "Values").
type Register struct {
	Local   string
	Version uint32
	AT      atype.AType
}

func NewRegister(local string, version uint32, at atype.AType) *Register {
	return &Register{Local: local, Version: version, AT: at}
}

func (r *Register) AType() atype.AType { return r.AT }
func (r *Register) String() string     { return fmt.Sprintf("%s#%d", r.Local, r.Version) }
func (r *Register) isValue()           {}

// Equal implements the SSA-name equality rule: local id, version and type
// must all match.
func (r *Register) Equal(o *Register) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Local == o.Local && r.Version == o.Version && r.AT == o.AT
}

// Constant is the tagged union of literal values from spec section 3.
type Constant interface {
	Value
	isConstant()
}

type U64Const struct {
	V uint64
}

func (c U64Const) AType() atype.AType { return atype.Uint64 }
func (c U64Const) String() string     { return fmt.Sprintf("%d", c.V) }
func (c U64Const) isValue()           {}
func (c U64Const) isConstant()        {}

// BigUIntConst is a non-negative integer of at most 512 bits, stored
// separately from BytesConst so the optimizer can fold VM bigint ops
// without reinterpreting an arbitrary byte string each time.
type BigUIntConst struct {
	V *big.Int
}

func (c BigUIntConst) AType() atype.AType { return atype.Bytes }
func (c BigUIntConst) String() string     { return c.V.String() + "n" }
func (c BigUIntConst) isValue()           {}
func (c BigUIntConst) isConstant()        {}

const maxBigUintBits = 512

// ValidBigUint reports whether v is a non-negative integer representable
// in at most 512 bits.
func ValidBigUint(v *big.Int) bool {
	return v.Sign() >= 0 && v.BitLen() <= maxBigUintBits
}

type BytesConst struct {
	V   []byte
	Enc atype.Encoding
}

func (c BytesConst) AType() atype.AType { return atype.Bytes }
func (c BytesConst) String() string     { return fmt.Sprintf("0x%x", c.V) }
func (c BytesConst) isValue()           {}
func (c BytesConst) isConstant()        {}

// AddressConst is a base32 VM account address (a fixed-width byte string
// once decoded, but kept as its textual form for diagnostics and MIR
// emission until the assembler decodes it).
type AddressConst struct {
	V string
}

func (c AddressConst) AType() atype.AType { return atype.Bytes }
func (c AddressConst) String() string     { return c.V }
func (c AddressConst) isValue()           {}
func (c AddressConst) isConstant()        {}

// MethodConst is an ARC4 method selector source string, hashed at assembly
// time (spec 4.G.1, `Method(str)`).
type MethodConst struct {
	V string
}

func (c MethodConst) AType() atype.AType { return atype.Bytes }
func (c MethodConst) String() string     { return fmt.Sprintf("method(%q)", c.V) }
func (c MethodConst) isValue()           {}
func (c MethodConst) isConstant()        {}

// TemplateVarConst is a named placeholder resolved at assembly time.
type TemplateVarConst struct {
	Name string
	AT   atype.AType
}

func (c TemplateVarConst) AType() atype.AType { return c.AT }
func (c TemplateVarConst) String() string     { return "TMPL_" + c.Name }
func (c TemplateVarConst) isValue()           {}
func (c TemplateVarConst) isConstant()        {}

// CompiledReferenceConst embeds a reference to another program's
// approval/clear bytecode, resolved recursively by the MIR builder
// (spec 4.F, "Compiled references").
type CompiledReferenceConst struct {
	Artifact     string
	Field        string // e.g. "bytecode", "address", "hash", "page_count"
	TemplateVars map[string]Value
	AT           atype.AType
}

func (c CompiledReferenceConst) AType() atype.AType { return c.AT }
func (c CompiledReferenceConst) String() string {
	return fmt.Sprintf("compiled_ref(%s.%s)", c.Artifact, c.Field)
}
func (c CompiledReferenceConst) isValue()    {}
func (c CompiledReferenceConst) isConstant() {}

// Equal implements structural equality for constants, used by the
// constant-fold registry and by tests.
func Equal(a, b Value) bool {
	ra, aIsReg := a.(*Register)
	rb, bIsReg := b.(*Register)
	if aIsReg || bIsReg {
		return aIsReg && bIsReg && ra.Equal(rb)
	}
	switch av := a.(type) {
	case U64Const:
		bv, ok := b.(U64Const)
		return ok && av.V == bv.V
	case BigUIntConst:
		bv, ok := b.(BigUIntConst)
		return ok && av.V.Cmp(bv.V) == 0
	case BytesConst:
		bv, ok := b.(BytesConst)
		return ok && av.Enc == bv.Enc && string(av.V) == string(bv.V)
	case AddressConst:
		bv, ok := b.(AddressConst)
		return ok && av.V == bv.V
	case MethodConst:
		bv, ok := b.(MethodConst)
		return ok && av.V == bv.V
	case TemplateVarConst:
		bv, ok := b.(TemplateVarConst)
		return ok && av.Name == bv.Name && av.AT == bv.AT
	default:
		return false
	}
}

// EmptyBytes reports whether v is the zero-length byte string, used by the
// concat identity rules (spec 4.D.2).
func EmptyBytes(v Value) bool {
	bc, ok := v.(BytesConst)
	return ok && len(bc.V) == 0
}
