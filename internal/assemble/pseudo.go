// Package assemble turns a linear MIR instruction stream (spec 4.F) into a
// packed, offset-resolved byte stream: pseudo-op lowering (4.G.1),
// constant-block packing (4.G.2), label/offset resolution (4.G.3) and a
// final validation pass (4.G.4).
package assemble

import (
	"crypto/sha512"
	"encoding/base32"
	"fmt"
	"strings"

	"tealc/internal/atype"
	"tealc/internal/diag"
	"tealc/internal/ir"
	"tealc/internal/mir"
)

// PseudoOp is one program-order entry after lowering but before constant
// packing: still carries raw push values rather than pool indices.
type PseudoOp interface {
	isPseudoOp()
}

// PushInt is a literal integer push, still eligible for intcblock pooling.
type PushInt struct{ Value uint64 }

// PushBytes is a literal byte-string push, still eligible for bytecblock
// pooling.
type PushBytes struct{ Value []byte }

// Branch is a single-label control transfer: "b", "bz", "bnz" or
// "callsub".
type Branch struct {
	Op     string
	Target string
}

// MultiBranch is the dense dispatch form ("switch"/"match").
type MultiBranch struct {
	Op      string
	Targets []string
}

// Generic is any concrete intrinsic op-code with its immediates, passed
// through unchanged from MIR.
type Generic struct {
	Op        string
	Immediate []any
}

// PseudoLabel marks a jump target; it contributes zero bytes.
type PseudoLabel struct{ Name string }

func (PushInt) isPseudoOp()     {}
func (PushBytes) isPseudoOp()   {}
func (Branch) isPseudoOp()      {}
func (MultiBranch) isPseudoOp() {}
func (Generic) isPseudoOp()     {}
func (PseudoLabel) isPseudoOp() {}

// TemplateValue is one resolved entry of the template-variable mapping
// supplied by the caller (spec section 6).
type TemplateValue struct {
	Int   uint64
	Bytes []byte
	IsInt bool
}

// TemplateError reports an unknown template-variable name or a mismatch
// between its declared and its provided kind (spec 4.G.1).
type TemplateError struct {
	Name string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template variable error: %s", e.Name)
}

// AddressError reports an Address pseudo-op whose literal is not a valid
// 58-character base32 account address with checksum (spec 4.G.1).
type AddressError struct {
	Address string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("invalid address: %q", e.Address)
}

// ReferenceResolver resolves a CompiledReferenceConst's artifact/field pair
// to a concrete value, reusing the mir package's reference resolution and
// cycle detection.
type ReferenceResolver interface {
	Resolve(artifact string) ([]byte, error)
}

// LowerOptions controls pseudo-op lowering.
type LowerOptions struct {
	TemplateVars map[string]TemplateValue
	References   ReferenceResolver
}

// Lower rewrites a MIR instruction stream into pseudo-ops (spec 4.G.1). It
// resolves every constant that assembly-time information can resolve
// (method selectors, addresses, template variables, compiled references)
// but leaves the label-targeted instructions symbolic; offset resolution
// happens later, once constant-pool packing has fixed every op's length.
func Lower(instrs []mir.Instr, opts LowerOptions, sink *diag.Sink) ([]PseudoOp, error) {
	var out []PseudoOp
	for _, instr := range instrs {
		switch v := instr.(type) {
		case mir.Push:
			op, err := lowerPush(v.Value, opts)
			if err != nil {
				return nil, err
			}
			out = append(out, op)
		case mir.Load:
			out = append(out, Generic{Op: "load", Immediate: []any{v.Slot}})
		case mir.Store:
			out = append(out, Generic{Op: "store", Immediate: []any{v.Slot}})
		case mir.Op:
			out = append(out, Generic{Op: v.Name, Immediate: v.Immediate})
		case mir.CallSub:
			out = append(out, Branch{Op: "callsub", Target: v.Target})
		case mir.Label:
			out = append(out, PseudoLabel{Name: v.Name})
		case mir.Jump:
			out = append(out, Branch{Op: "b", Target: v.Target})
		case mir.BranchZero:
			out = append(out, Branch{Op: "bz", Target: v.Target})
		case mir.BranchNonZero:
			out = append(out, Branch{Op: "bnz", Target: v.Target})
		case mir.Match:
			out = append(out, MultiBranch{Op: "match", Targets: v.Targets})
		case mir.Switch:
			for _, val := range v.Values {
				op, err := lowerPush(val, opts)
				if err != nil {
					return nil, err
				}
				out = append(out, op)
			}
			out = append(out, MultiBranch{Op: "switch", Targets: v.Targets})
		case mir.Retsub:
			out = append(out, Generic{Op: "retsub"})
		case mir.ProgramExit:
			out = append(out, Generic{Op: "return"})
		case mir.Err:
			if sink != nil && v.Comment != "" {
				sink.Warnf(diag.KindCodeError, "unconditional-err", "unreachable: %s", v.Comment)
			}
			out = append(out, Generic{Op: "err"})
		case mir.Pop:
			for i := 0; i < v.N; i++ {
				out = append(out, Generic{Op: "pop"})
			}
		case mir.FallthroughComment:
			// Carries no bytecode; the TEAL text emitter renders it as a
			// comment, the assembler drops it.
		default:
			return nil, fmt.Errorf("assemble: unhandled MIR instruction %T", instr)
		}
	}
	return out, nil
}

func lowerPush(v ir.Value, opts LowerOptions) (PseudoOp, error) {
	switch c := v.(type) {
	case ir.U64Const:
		return PushInt{Value: c.V}, nil
	case ir.BytesConst:
		return PushBytes{Value: c.V}, nil
	case ir.AddressConst:
		decoded, err := decodeAddress(c.V)
		if err != nil {
			return nil, err
		}
		return PushBytes{Value: decoded}, nil
	case ir.MethodConst:
		sum := sha512.Sum512_256([]byte(c.V))
		return PushBytes{Value: sum[:4]}, nil
	case ir.TemplateVarConst:
		tv, ok := opts.TemplateVars[c.Name]
		if !ok {
			return nil, &TemplateError{Name: c.Name}
		}
		if c.AT == atype.Uint64 {
			if !tv.IsInt {
				return nil, &TemplateError{Name: c.Name}
			}
			return PushInt{Value: tv.Int}, nil
		}
		if tv.IsInt {
			return nil, &TemplateError{Name: c.Name}
		}
		return PushBytes{Value: tv.Bytes}, nil
	case ir.CompiledReferenceConst:
		if opts.References == nil {
			return nil, fmt.Errorf("assemble: compiled reference %s.%s with no resolver configured", c.Artifact, c.Field)
		}
		bytecode, err := opts.References.Resolve(c.Artifact)
		if err != nil {
			return nil, err
		}
		field, err := mir.Field(bytecode, c.Field)
		if err != nil {
			return nil, err
		}
		switch fv := field.(type) {
		case []byte:
			return PushBytes{Value: fv}, nil
		case uint64:
			return PushInt{Value: fv}, nil
		default:
			return nil, fmt.Errorf("assemble: compiled reference field %q of unexpected type %T", c.Field, field)
		}
	case *ir.Register:
		return nil, fmt.Errorf("assemble: register %s reached the assembler; destructure.Convert + mir.Build must eliminate all registers into scratch slots first", c)
	default:
		return nil, fmt.Errorf("assemble: unhandled constant kind %T", v)
	}
}

// decodeAddress validates and decodes a 58-character base32 VM account
// address: 32 bytes of public key followed by a 4-byte checksum
// (sha512_256 of the public key, truncated to its last 4 bytes).
func decodeAddress(addr string) ([]byte, error) {
	if len(addr) != 58 {
		return nil, &AddressError{Address: addr}
	}
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(addr))
	if err != nil || len(raw) != 36 {
		return nil, &AddressError{Address: addr}
	}
	pubKey, checksum := raw[:32], raw[32:]
	sum := sha512.Sum512_256(pubKey)
	if string(sum[28:]) != string(checksum) {
		return nil, &AddressError{Address: addr}
	}
	return pubKey, nil
}
