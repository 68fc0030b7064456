package tealtext

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"tealc/internal/assemble"
)

// Emit renders a packed pseudo-op stream (the output of assemble.Pack) as
// a textual TEAL listing, one mnemonic or label per line.
func Emit(ops []assemble.PseudoOp) string {
	var b strings.Builder
	for _, op := range ops {
		line := emitOne(op)
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func emitOne(op assemble.PseudoOp) string {
	switch v := op.(type) {
	case assemble.PseudoLabel:
		return v.Name + ":"
	case assemble.PushInt:
		return fmt.Sprintf("pushint %d", v.Value)
	case assemble.PushBytes:
		return "pushbytes " + hexLit(v.Value)
	case assemble.Intc:
		return fmt.Sprintf("intc %d", v.Index)
	case assemble.Bytec:
		return fmt.Sprintf("bytec %d", v.Index)
	case assemble.IntcBlock:
		return "intcblock " + joinInts(v.Values)
	case assemble.BytecBlock:
		return "bytecblock " + joinBytes(v.Values)
	case assemble.PushInts:
		return "pushints " + joinInts(v.Values)
	case assemble.PushBytess:
		return "pushbytess " + joinBytes(v.Values)
	case assemble.Branch:
		return v.Op + " " + v.Target
	case assemble.MultiBranch:
		return v.Op + " " + strings.Join(v.Targets, " ")
	case assemble.Generic:
		if len(v.Immediate) == 0 {
			return v.Op
		}
		return v.Op + " " + joinImmediates(v.Immediate)
	}
	return ""
}

func hexLit(b []byte) string { return "0x" + hex.EncodeToString(b) }

func joinInts(vs []uint64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatUint(v, 10)
	}
	return strings.Join(parts, " ")
}

func joinBytes(vs [][]byte) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = hexLit(v)
	}
	return strings.Join(parts, " ")
}

func joinImmediates(imms []any) string {
	parts := make([]string, 0, len(imms))
	for _, imm := range imms {
		switch v := imm.(type) {
		case []byte:
			parts = append(parts, hexLit(v))
		case string:
			parts = append(parts, strconv.Quote(v))
		default:
			parts = append(parts, fmt.Sprintf("%v", v))
		}
	}
	return strings.Join(parts, " ")
}

// Parse parses a textual TEAL listing back into the same packed pseudo-op
// shape Emit consumes, completing the round-trip of spec section 8
// property 1.
func Parse(filename, src string) ([]assemble.PseudoOp, error) {
	prog, err := ParseString(filename, src)
	if err != nil {
		return nil, err
	}

	var out []assemble.PseudoOp
	for _, line := range prog.Lines {
		switch {
		case line.Label != nil:
			out = append(out, assemble.PseudoLabel{Name: line.Label.Name})
		case line.Instr != nil:
			op, err := parseInstr(line.Instr)
			if err != nil {
				return nil, err
			}
			out = append(out, op)
		}
	}
	return out, nil
}

func parseInstr(in *InstrLine) (assemble.PseudoOp, error) {
	switch in.Mnemonic {
	case "pushint":
		v, err := parseUint(in.Args, 0)
		if err != nil {
			return nil, err
		}
		return assemble.PushInt{Value: v}, nil
	case "pushbytes":
		b, err := parseBytes(in.Args, 0)
		if err != nil {
			return nil, err
		}
		return assemble.PushBytes{Value: b}, nil
	case "intc":
		i, err := parseInt(in.Args, 0)
		if err != nil {
			return nil, err
		}
		return assemble.Intc{Index: i}, nil
	case "bytec":
		i, err := parseInt(in.Args, 0)
		if err != nil {
			return nil, err
		}
		return assemble.Bytec{Index: i}, nil
	case "intcblock":
		vs, err := parseUints(in.Args)
		if err != nil {
			return nil, err
		}
		return assemble.IntcBlock{Values: vs}, nil
	case "bytecblock":
		vs, err := parseByteSlices(in.Args)
		if err != nil {
			return nil, err
		}
		return assemble.BytecBlock{Values: vs}, nil
	case "pushints":
		vs, err := parseUints(in.Args)
		if err != nil {
			return nil, err
		}
		return assemble.PushInts{Values: vs}, nil
	case "pushbytess":
		vs, err := parseByteSlices(in.Args)
		if err != nil {
			return nil, err
		}
		return assemble.PushBytess{Values: vs}, nil
	case "b", "bz", "bnz", "callsub":
		if len(in.Args) != 1 {
			return nil, fmt.Errorf("tealtext: %s expects exactly one label argument", in.Mnemonic)
		}
		return assemble.Branch{Op: in.Mnemonic, Target: in.Args[0]}, nil
	case "switch", "match":
		return assemble.MultiBranch{Op: in.Mnemonic, Targets: in.Args}, nil
	default:
		if len(in.Args) == 0 {
			return assemble.Generic{Op: in.Mnemonic}, nil
		}
		imms := make([]any, len(in.Args))
		for i, a := range in.Args {
			imms[i] = parseGenericImmediate(a)
		}
		return assemble.Generic{Op: in.Mnemonic, Immediate: imms}, nil
	}
}

func parseGenericImmediate(s string) any {
	if strings.HasPrefix(s, "0x") {
		if b, err := hex.DecodeString(s[2:]); err == nil {
			return b
		}
	}
	if strings.HasPrefix(s, `"`) {
		if unq, err := strconv.Unquote(s); err == nil {
			return unq
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}

func parseUint(args []string, idx int) (uint64, error) {
	if idx >= len(args) {
		return 0, fmt.Errorf("tealtext: missing integer argument")
	}
	return strconv.ParseUint(args[idx], 10, 64)
}

func parseInt(args []string, idx int) (int, error) {
	if idx >= len(args) {
		return 0, fmt.Errorf("tealtext: missing integer argument")
	}
	n, err := strconv.Atoi(args[idx])
	return n, err
}

func parseBytes(args []string, idx int) ([]byte, error) {
	if idx >= len(args) {
		return nil, fmt.Errorf("tealtext: missing byte-string argument")
	}
	s := args[idx]
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("tealtext: expected 0x-prefixed byte literal, got %q", s)
	}
	return hex.DecodeString(s[2:])
}

func parseUints(args []string) ([]uint64, error) {
	out := make([]uint64, len(args))
	for i, a := range args {
		n, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func parseByteSlices(args []string) ([][]byte, error) {
	out := make([][]byte, len(args))
	for i := range args {
		b, err := parseBytes(args, i)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}
