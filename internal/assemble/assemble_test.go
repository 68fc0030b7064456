package assemble_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tealc/internal/assemble"
	"tealc/internal/atype"
	"tealc/internal/ir"
	"tealc/internal/mir"
)

func TestPackBuildsIntPoolFromFrequency(t *testing.T) {
	// S6: five occurrences of PushInt(1000), two of PushInt(42).
	var ops []assemble.PseudoOp
	for i := 0; i < 5; i++ {
		ops = append(ops, assemble.PushInt{Value: 1000})
	}
	for i := 0; i < 2; i++ {
		ops = append(ops, assemble.PushInt{Value: 42})
	}

	packed := assemble.Pack(ops, assemble.PackOptions{})

	block, ok := packed[0].(assemble.IntcBlock)
	require.True(t, ok, "intcblock must be first")
	require.Equal(t, []uint64{1000, 42}, block.Values)

	var intcs []assemble.Intc
	for _, op := range packed[1:] {
		if ic, ok := op.(assemble.Intc); ok {
			intcs = append(intcs, ic)
		}
	}
	require.Len(t, intcs, 7)
	for i := 0; i < 5; i++ {
		require.Equal(t, 0, intcs[i].Index)
	}
	for i := 5; i < 7; i++ {
		require.Equal(t, 1, intcs[i].Index)
	}
}

func TestPackLeavesSingleOccurrenceUnpooled(t *testing.T) {
	ops := []assemble.PseudoOp{assemble.PushInt{Value: 7}}
	packed := assemble.Pack(ops, assemble.PackOptions{})
	require.Equal(t, []assemble.PseudoOp{assemble.PushInt{Value: 7}}, packed)
}

func TestPackCombinesConsecutiveNonPooledPushes(t *testing.T) {
	ops := []assemble.PseudoOp{
		assemble.PushInt{Value: 1},
		assemble.PushInt{Value: 2},
		assemble.PushInt{Value: 3},
	}
	packed := assemble.Pack(ops, assemble.PackOptions{MatchAlgodBytecode: false})
	require.Equal(t, []assemble.PseudoOp{assemble.PushInts{Values: []uint64{1, 2, 3}}}, packed)
}

func TestPackKeepsPushesSeparateWhenMatchingAlgodBytecode(t *testing.T) {
	ops := []assemble.PseudoOp{
		assemble.PushInt{Value: 1},
		assemble.PushInt{Value: 2},
	}
	packed := assemble.Pack(ops, assemble.PackOptions{MatchAlgodBytecode: true})
	require.Equal(t, ops, packed)
}

func TestEncodeResolvesForwardBranchOffset(t *testing.T) {
	// S7: one forward `b L` whose distance from the end of the branch
	// instruction to L is 5 bytes (5 one-byte filler ops in between).
	ops := []assemble.PseudoOp{
		assemble.Branch{Op: "b", Target: "L"},
		assemble.Generic{Op: "noop1"},
		assemble.Generic{Op: "noop2"},
		assemble.Generic{Op: "noop3"},
		assemble.Generic{Op: "noop4"},
		assemble.Generic{Op: "noop5"},
		assemble.PseudoLabel{Name: "L"},
	}

	out, err := assemble.Encode(ops)
	require.NoError(t, err)
	require.Equal(t, byte(0x00), out[1])
	require.Equal(t, byte(0x05), out[2])
}

func TestEncodeUndefinedLabel(t *testing.T) {
	ops := []assemble.PseudoOp{assemble.Branch{Op: "b", Target: "nope"}}
	_, err := assemble.Encode(ops)
	require.Error(t, err)
	var undef *assemble.UndefinedLabel
	require.ErrorAs(t, err, &undef)
	require.Equal(t, "nope", undef.Name)
}

func TestEncodeDuplicateLabel(t *testing.T) {
	ops := []assemble.PseudoOp{
		assemble.PseudoLabel{Name: "L"},
		assemble.PseudoLabel{Name: "L"},
	}
	_, err := assemble.Encode(ops)
	require.Error(t, err)
	var dup *assemble.DuplicateLabel
	require.ErrorAs(t, err, &dup)
}

func TestEncodeBranchTooFar(t *testing.T) {
	ops := []assemble.PseudoOp{assemble.Branch{Op: "b", Target: "L"}}
	for i := 0; i < 0x8100; i++ {
		ops = append(ops, assemble.Generic{Op: "noop"})
	}
	ops = append(ops, assemble.PseudoLabel{Name: "L"})

	_, err := assemble.Encode(ops)
	require.Error(t, err)
	var tooFar *assemble.BranchTooFar
	require.ErrorAs(t, err, &tooFar)
}

func TestLowerTemplateVarMismatchFails(t *testing.T) {
	// S8: TemplateVar(name="N", op_code="int") with a caller mapping of
	// bytes instead of an integer fails with TemplateError("N").
	instrs := []mir.Instr{
		mir.Push{Value: ir.TemplateVarConst{Name: "N", AT: atype.Uint64}},
	}
	opts := assemble.LowerOptions{
		TemplateVars: map[string]assemble.TemplateValue{
			"N": {Bytes: []byte("abc"), IsInt: false},
		},
	}

	_, err := assemble.Lower(instrs, opts, nil)
	require.Error(t, err)
	var tmplErr *assemble.TemplateError
	require.ErrorAs(t, err, &tmplErr)
	require.Equal(t, "N", tmplErr.Name)
}

func TestLowerTemplateVarResolvesMatchingKind(t *testing.T) {
	instrs := []mir.Instr{
		mir.Push{Value: ir.TemplateVarConst{Name: "N", AT: atype.Uint64}},
	}
	opts := assemble.LowerOptions{
		TemplateVars: map[string]assemble.TemplateValue{
			"N": {Int: 42, IsInt: true},
		},
	}

	out, err := assemble.Lower(instrs, opts, nil)
	require.NoError(t, err)
	require.Equal(t, []assemble.PseudoOp{assemble.PushInt{Value: 42}}, out)
}

func TestLowerUnknownTemplateVarFails(t *testing.T) {
	instrs := []mir.Instr{
		mir.Push{Value: ir.TemplateVarConst{Name: "missing", AT: atype.Uint64}},
	}
	_, err := assemble.Lower(instrs, assemble.LowerOptions{}, nil)
	require.Error(t, err)
	var tmplErr *assemble.TemplateError
	require.ErrorAs(t, err, &tmplErr)
}

func TestLowerMethodSelectorHashesToFourBytes(t *testing.T) {
	instrs := []mir.Instr{
		mir.Push{Value: ir.MethodConst{V: "transfer(address,uint64)void"}},
	}
	out, err := assemble.Lower(instrs, assemble.LowerOptions{}, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	pb, ok := out[0].(assemble.PushBytes)
	require.True(t, ok)
	require.Len(t, pb.Value, 4)
}

func TestLowerInvalidAddressFails(t *testing.T) {
	instrs := []mir.Instr{
		mir.Push{Value: ir.AddressConst{V: "not-a-valid-address"}},
	}
	_, err := assemble.Lower(instrs, assemble.LowerOptions{}, nil)
	require.Error(t, err)
	var addrErr *assemble.AddressError
	require.ErrorAs(t, err, &addrErr)
}

func TestAssembleEndToEndProducesRetsubTerminatedStream(t *testing.T) {
	instrs := []mir.Instr{
		mir.Push{Value: ir.U64Const{V: 3}},
		mir.Push{Value: ir.U64Const{V: 4}},
		mir.Op{Name: "+"},
		mir.Retsub{},
	}
	result, err := assemble.Assemble(instrs, assemble.Options{}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Bytecode)
}
