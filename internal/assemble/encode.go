package assemble

import "fmt"

// UndefinedLabel is raised when a branch references a label that was never
// declared (spec 4.G.3).
type UndefinedLabel struct{ Name string }

func (e *UndefinedLabel) Error() string { return fmt.Sprintf("undefined label: %s", e.Name) }

// DuplicateLabel is raised when the same label name is declared more than
// once (spec 4.G.3).
type DuplicateLabel struct{ Name string }

func (e *DuplicateLabel) Error() string { return fmt.Sprintf("duplicate label: %s", e.Name) }

// BranchTooFar is raised when a resolved branch offset does not fit in a
// signed 16-bit integer (spec 4.G.3).
type BranchTooFar struct {
	Label  string
	Offset int
}

func (e *BranchTooFar) Error() string {
	return fmt.Sprintf("branch to %s is too far: offset %d exceeds +/-0x7FFF", e.Label, e.Offset)
}

const maxBranchOffset = 0x7FFF
const minBranchOffset = -0x8000

// leb128 appends the unsigned LEB128 encoding of v to buf.
func leb128(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			break
		}
	}
	return buf
}

func leb128Len(v uint64) int {
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}

// opLength returns the byte length a pseudo-op will occupy in the final
// stream, independent of its contents' interpretation: every op spends one
// byte on its opcode tag, then whatever its own immediates need.
func opLength(op PseudoOp) int {
	switch v := op.(type) {
	case PseudoLabel:
		return 0
	case PushInt:
		return 1 + leb128Len(v.Value)
	case PushBytes:
		return 1 + leb128Len(uint64(len(v.Value))) + len(v.Value)
	case Intc, Bytec:
		return 2
	case IntcBlock:
		n := 1 + leb128Len(uint64(len(v.Values)))
		for _, val := range v.Values {
			n += leb128Len(val)
		}
		return n
	case BytecBlock:
		n := 1 + leb128Len(uint64(len(v.Values)))
		for _, val := range v.Values {
			n += leb128Len(uint64(len(val))) + len(val)
		}
		return n
	case PushInts:
		n := 1 + leb128Len(uint64(len(v.Values)))
		for _, val := range v.Values {
			n += leb128Len(val)
		}
		return n
	case PushBytess:
		n := 1 + leb128Len(uint64(len(v.Values)))
		for _, val := range v.Values {
			n += leb128Len(uint64(len(val))) + len(val)
		}
		return n
	case Branch:
		return 1 + 2
	case MultiBranch:
		return 1 + 1 + 2*len(v.Targets)
	case Generic:
		n := 1
		for _, imm := range v.Immediate {
			n += immediateLength(imm)
		}
		return n
	}
	return 0
}

func immediateLength(imm any) int {
	switch v := imm.(type) {
	case int:
		return leb128Len(uint64(v))
	case uint64:
		return leb128Len(v)
	case []byte:
		return leb128Len(uint64(len(v))) + len(v)
	case string:
		return leb128Len(uint64(len(v))) + len(v)
	default:
		return 0
	}
}

func encodeImmediate(buf []byte, imm any) []byte {
	switch v := imm.(type) {
	case int:
		return leb128(buf, uint64(v))
	case uint64:
		return leb128(buf, v)
	case []byte:
		buf = leb128(buf, uint64(len(v)))
		return append(buf, v...)
	case string:
		buf = leb128(buf, uint64(len(v)))
		return append(buf, []byte(v)...)
	default:
		return buf
	}
}

// Encode computes program-counter positions for every op, resolves every
// branch's relative offset (spec 4.G.3), and serializes the result to a
// flat byte stream. Each instruction is prefixed by one of the tag bytes
// below: op-table-driven byte values are an external generated artifact
// out of scope here (spec 4.A), so this encoding is internally
// self-consistent rather than algod wire-compatible.
func Encode(ops []PseudoOp) ([]byte, error) {
	labelPC := map[string]int{}
	pc := 0
	for _, op := range ops {
		if lbl, ok := op.(PseudoLabel); ok {
			if _, dup := labelPC[lbl.Name]; dup {
				return nil, &DuplicateLabel{Name: lbl.Name}
			}
			labelPC[lbl.Name] = pc
			continue
		}
		pc += opLength(op)
	}

	var out []byte
	pc = 0
	for _, op := range ops {
		length := opLength(op)
		switch v := op.(type) {
		case PseudoLabel:
			continue
		case PushInt:
			out = append(out, tagPushInt)
			out = leb128(out, v.Value)
		case PushBytes:
			out = append(out, tagPushBytes)
			out = leb128(out, uint64(len(v.Value)))
			out = append(out, v.Value...)
		case Intc:
			out = append(out, tagIntc, byte(v.Index))
		case Bytec:
			out = append(out, tagBytec, byte(v.Index))
		case IntcBlock:
			out = append(out, tagIntcBlock)
			out = leb128(out, uint64(len(v.Values)))
			for _, val := range v.Values {
				out = leb128(out, val)
			}
		case BytecBlock:
			out = append(out, tagBytecBlock)
			out = leb128(out, uint64(len(v.Values)))
			for _, val := range v.Values {
				out = leb128(out, uint64(len(val)))
				out = append(out, val...)
			}
		case PushInts:
			out = append(out, tagPushInts)
			out = leb128(out, uint64(len(v.Values)))
			for _, val := range v.Values {
				out = leb128(out, val)
			}
		case PushBytess:
			out = append(out, tagPushBytess)
			out = leb128(out, uint64(len(v.Values)))
			for _, val := range v.Values {
				out = leb128(out, uint64(len(val)))
				out = append(out, val...)
			}
		case Branch:
			target, ok := labelPC[v.Target]
			if !ok {
				return nil, &UndefinedLabel{Name: v.Target}
			}
			offset := target - (pc + length)
			if offset > maxBranchOffset || offset < minBranchOffset {
				return nil, &BranchTooFar{Label: v.Target, Offset: offset}
			}
			out = append(out, tagBranch)
			out = append(out, byte(int16(offset)>>8), byte(int16(offset)))
		case MultiBranch:
			out = append(out, tagMultiBranch, byte(len(v.Targets)))
			for _, t := range v.Targets {
				target, ok := labelPC[t]
				if !ok {
					return nil, &UndefinedLabel{Name: t}
				}
				offset := target - (pc + length)
				if offset > maxBranchOffset || offset < minBranchOffset {
					return nil, &BranchTooFar{Label: t, Offset: offset}
				}
				out = append(out, byte(int16(offset)>>8), byte(int16(offset)))
			}
		case Generic:
			out = append(out, tagGeneric)
			for _, imm := range v.Immediate {
				out = encodeImmediate(out, imm)
			}
		}
		pc += length
	}
	return out, nil
}

// Tag bytes distinguish op shapes within the self-consistent encoding
// (see Encode's doc comment); they carry no relation to any real AVM
// opcode value.
const (
	tagPushInt = iota
	tagPushBytes
	tagIntc
	tagBytec
	tagIntcBlock
	tagBytecBlock
	tagPushInts
	tagPushBytess
	tagBranch
	tagMultiBranch
	tagGeneric
)
