package optimize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tealc/internal/atype"
	"tealc/internal/diag"
	"tealc/internal/ir"
	"tealc/internal/optimize"
)

func reg(name string, v uint32) *ir.Register { return ir.NewRegister(name, v, atype.Uint64) }

func block(id uint32) *ir.BasicBlock { return &ir.BasicBlock{ID: id} }

func oneBlockSub(name string, ops ...*ir.Assignment) *ir.Subroutine {
	b := block(0)
	for _, op := range ops {
		b.AddOp(op)
	}
	b.SetTerminator(&ir.SubroutineReturn{})
	return &ir.Subroutine{Name: name, Body: []*ir.BasicBlock{b}}
}

func TestFoldAssignmentConstantAdd(t *testing.T) {
	a := &ir.Assignment{
		Targets: []*ir.Register{reg("y", 0)},
		Source:  &ir.Intrinsic{Op: "+", Args: []ir.Value{ir.U64Const{V: 2}, ir.U64Const{V: 3}}},
	}
	sub := oneBlockSub("main", a)
	changed := optimize.FoldAssignment(sub, a, nil)
	require.True(t, changed)
	vs, ok := a.Source.(ir.ValueSource)
	require.True(t, ok)
	require.Equal(t, ir.U64Const{V: 5}, vs.V)
}

func TestFoldAssignmentRejectsOverflow(t *testing.T) {
	const maxU64 = ^uint64(0)
	a := &ir.Assignment{
		Targets: []*ir.Register{reg("y", 0)},
		Source:  &ir.Intrinsic{Op: "+", Args: []ir.Value{ir.U64Const{V: maxU64}, ir.U64Const{V: 1}}},
	}
	sub := oneBlockSub("main", a)
	changed := optimize.FoldAssignment(sub, a, nil)
	require.False(t, changed, "overflowing add must be left unmodified so the VM raises at runtime")
}

func TestFoldAssignmentRejectsDivisionByZero(t *testing.T) {
	a := &ir.Assignment{
		Targets: []*ir.Register{reg("y", 0)},
		Source:  &ir.Intrinsic{Op: "/", Args: []ir.Value{ir.U64Const{V: 10}, ir.U64Const{V: 0}}},
	}
	sub := oneBlockSub("main", a)
	require.False(t, optimize.FoldAssignment(sub, a, nil))
}

func TestFoldAssignmentZeroEqualityBecomesNot(t *testing.T) {
	x := reg("x", 0)
	a := &ir.Assignment{
		Targets: []*ir.Register{reg("y", 0)},
		Source:  &ir.Intrinsic{Op: "==", Args: []ir.Value{ir.U64Const{V: 0}, x}},
	}
	sub := oneBlockSub("main", a)
	require.True(t, optimize.FoldAssignment(sub, a, nil))
	intr, ok := a.Source.(*ir.Intrinsic)
	require.True(t, ok)
	require.Equal(t, "not", intr.Op)
}

func TestFoldAssignmentSameRegisterSubtractIsZero(t *testing.T) {
	x := reg("x", 0)
	a := &ir.Assignment{
		Targets: []*ir.Register{reg("y", 0)},
		Source:  &ir.Intrinsic{Op: "-", Args: []ir.Value{x, x}},
	}
	sub := oneBlockSub("main", a)
	require.True(t, optimize.FoldAssignment(sub, a, nil))
	vs, ok := a.Source.(ir.ValueSource)
	require.True(t, ok)
	require.Equal(t, ir.U64Const{V: 0}, vs.V)
}

func TestFoldAssignmentSameRegisterComparisonWarns(t *testing.T) {
	x := reg("x", 0)
	a := &ir.Assignment{
		Targets: []*ir.Register{reg("y", 0)},
		Source:  &ir.Intrinsic{Op: "!=", Args: []ir.Value{x, x}},
	}
	sub := oneBlockSub("main", a)
	sink := diag.NewSink()

	require.True(t, optimize.FoldAssignment(sub, a, sink))
	vs, ok := a.Source.(ir.ValueSource)
	require.True(t, ok)
	require.Equal(t, ir.U64Const{V: 0}, vs.V)

	require.False(t, sink.HasErrors(), "a same-register comparison is downgraded to a warning, not an error")
	require.Len(t, sink.Diagnostics(), 1)
	require.Equal(t, diag.SeverityWarning, sink.Diagnostics()[0].Severity)
}

func TestFoldConcatEmptyIdentity(t *testing.T) {
	x := &ir.Register{Local: "x", Version: 0, AT: atype.Bytes}
	a := &ir.Assignment{
		Targets: []*ir.Register{x},
		Source:  &ir.Intrinsic{Op: "concat", Args: []ir.Value{ir.BytesConst{V: nil}, x}},
	}
	sub := oneBlockSub("main", a)
	require.True(t, optimize.FoldAssignment(sub, a, nil))
	vs, ok := a.Source.(ir.ValueSource)
	require.True(t, ok)
	require.Equal(t, ir.Value(x), vs.V)
}

func TestFoldBytesBitwiseZeroExtendsToLongerOperand(t *testing.T) {
	// b&(0x0100, 0x0001) must fold to the 2-byte 0x0000, not the 0-byte
	// string big.Int.Bytes() would produce after stripping leading zeros.
	a := &ir.Assignment{
		Targets: []*ir.Register{&ir.Register{Local: "y", Version: 0, AT: atype.Bytes}},
		Source: &ir.Intrinsic{Op: "b&", Args: []ir.Value{
			ir.BytesConst{V: []byte{0x01, 0x00}},
			ir.BytesConst{V: []byte{0x00, 0x01}},
		}},
	}
	sub := oneBlockSub("main", a)
	require.True(t, optimize.FoldAssignment(sub, a, nil))
	vs, ok := a.Source.(ir.ValueSource)
	require.True(t, ok)
	require.Equal(t, ir.BytesConst{V: []byte{0x00, 0x00}}, vs.V)
}

func TestFoldBytesBitwiseOrZeroExtendsToLongerOperand(t *testing.T) {
	a := &ir.Assignment{
		Targets: []*ir.Register{&ir.Register{Local: "y", Version: 0, AT: atype.Bytes}},
		Source: &ir.Intrinsic{Op: "b|", Args: []ir.Value{
			ir.BytesConst{V: []byte{0x01, 0x00}},
			ir.BytesConst{V: []byte{0x00, 0x01}},
		}},
	}
	sub := oneBlockSub("main", a)
	require.True(t, optimize.FoldAssignment(sub, a, nil))
	vs, ok := a.Source.(ir.ValueSource)
	require.True(t, ok)
	require.Equal(t, ir.BytesConst{V: []byte{0x01, 0x01}}, vs.V)
}

func TestFoldBytesBitwiseXorZeroExtendsToLongerOperand(t *testing.T) {
	a := &ir.Assignment{
		Targets: []*ir.Register{&ir.Register{Local: "y", Version: 0, AT: atype.Bytes}},
		Source: &ir.Intrinsic{Op: "b^", Args: []ir.Value{
			ir.BytesConst{V: []byte{0x01, 0x00}},
			ir.BytesConst{V: []byte{0x00, 0x01}},
		}},
	}
	sub := oneBlockSub("main", a)
	require.True(t, optimize.FoldAssignment(sub, a, nil))
	vs, ok := a.Source.(ir.ValueSource)
	require.True(t, ok)
	require.Equal(t, ir.BytesConst{V: []byte{0x01, 0x01}}, vs.V)
}

func TestSinkConstantCombinesOuterAndInnerConstants(t *testing.T) {
	// t = r + 1; y = t + 2  =>  y = r + 3, with r's single use sunk in.
	r := reg("r", 0)
	tReg := reg("t", 0)
	inner := &ir.Assignment{
		Targets: []*ir.Register{tReg},
		Source:  &ir.Intrinsic{Op: "+", Args: []ir.Value{r, ir.U64Const{V: 1}}},
	}
	outer := &ir.Intrinsic{Op: "+", Args: []ir.Value{tReg, ir.U64Const{V: 2}}}
	outerAssign := &ir.Assignment{Targets: []*ir.Register{reg("y", 0)}, Source: outer}
	sub := oneBlockSub("main", inner, outerAssign)

	sunk, ok := optimize.SinkConstant(sub, outer)
	require.True(t, ok)
	require.Equal(t, "+", sunk.Op)
	require.Equal(t, ir.Value(r), sunk.Args[0])
	require.Equal(t, ir.U64Const{V: 3}, sunk.Args[1])
}

func TestSinkConstantRefusesWhenInnerUsedTwice(t *testing.T) {
	r := reg("r", 0)
	tReg := reg("t", 0)
	inner := &ir.Assignment{
		Targets: []*ir.Register{tReg},
		Source:  &ir.Intrinsic{Op: "+", Args: []ir.Value{r, ir.U64Const{V: 1}}},
	}
	outer := &ir.Intrinsic{Op: "+", Args: []ir.Value{tReg, ir.U64Const{V: 2}}}
	outerAssign := &ir.Assignment{Targets: []*ir.Register{reg("y", 0)}, Source: outer}
	// second use of tReg keeps it alive, e.g. as a return value
	retUse := &ir.Assignment{Targets: nil, Source: ir.ValueSource{V: tReg}}
	sub := oneBlockSub("main", inner, outerAssign, retUse)

	_, ok := optimize.SinkConstant(sub, outer)
	require.False(t, ok)
}

func TestRemoveDeadCodeDropsUnreferencedAssignment(t *testing.T) {
	dead := &ir.Assignment{
		Targets: []*ir.Register{reg("dead", 0)},
		Source:  &ir.Intrinsic{Op: "+", Args: []ir.Value{ir.U64Const{V: 1}, ir.U64Const{V: 2}}},
	}
	sub := oneBlockSub("main", dead)
	changed := optimize.RemoveDeadCode(sub)
	require.True(t, changed)
	require.Empty(t, sub.Body[0].Ops)
}

func TestRemoveDeadCodeKeepsZeroTargetStatement(t *testing.T) {
	assertOp := &ir.Assignment{
		Source: &ir.Intrinsic{Op: "assert", Args: []ir.Value{ir.U64Const{V: 1}}},
	}
	sub := oneBlockSub("main", assertOp)
	changed := optimize.RemoveDeadCode(sub)
	require.False(t, changed)
	require.Len(t, sub.Body[0].Ops, 1)
}

func TestRemoveDeadBlocksDropsUnreachableBlock(t *testing.T) {
	entry := block(0)
	entry.SetTerminator(&ir.SubroutineReturn{})
	orphan := block(1)
	orphan.SetTerminator(&ir.SubroutineReturn{})
	sub := &ir.Subroutine{Name: "main", Body: []*ir.BasicBlock{entry, orphan}}

	changed := optimize.RemoveDeadBlocks(sub)
	require.True(t, changed)
	require.Len(t, sub.Body, 1)
	require.Same(t, entry, sub.Body[0])
}

func TestPropagateCopiesReplacesUsesAndEnablesDCE(t *testing.T) {
	x := reg("x", 0)
	y := reg("y", 0)
	copyAssign := &ir.Assignment{Targets: []*ir.Register{y}, Source: ir.ValueSource{V: x}}
	entry := block(0)
	entry.AddOp(copyAssign)
	entry.SetTerminator(&ir.SubroutineReturn{Values: []ir.Value{y}})
	sub := &ir.Subroutine{Name: "main", Body: []*ir.BasicBlock{entry}}

	require.True(t, optimize.PropagateCopies(sub))
	ret := entry.Terminator.(*ir.SubroutineReturn)
	require.Equal(t, ir.Value(x), ret.Values[0])

	require.True(t, optimize.RemoveDeadCode(sub))
	require.Empty(t, entry.Ops)
}

func TestRunConvergesOnFoldableChain(t *testing.T) {
	// y = (1 + 2) + 3  =>  y = 6: the first sweep folds t to 3, copy
	// propagation substitutes it into the outer add and DCE drops t; the
	// second sweep folds the outer add, and a third finds nothing to change.
	tReg := reg("t", 0)
	inner := &ir.Assignment{
		Targets: []*ir.Register{tReg},
		Source:  &ir.Intrinsic{Op: "+", Args: []ir.Value{ir.U64Const{V: 1}, ir.U64Const{V: 2}}},
	}
	outer := &ir.Assignment{
		Targets: []*ir.Register{reg("y", 0)},
		Source:  &ir.Intrinsic{Op: "+", Args: []ir.Value{tReg, ir.U64Const{V: 3}}},
	}
	entry := block(0)
	entry.AddOp(inner)
	entry.AddOp(outer)
	entry.SetTerminator(&ir.SubroutineReturn{Values: []ir.Value{outer.Targets[0]}})
	sub := &ir.Subroutine{Name: "main", Body: []*ir.BasicBlock{entry}}

	result := optimize.Run(sub, nil)
	require.Equal(t, optimize.Converged, result.State)

	vs, ok := outer.Source.(ir.ValueSource)
	require.True(t, ok)
	require.Equal(t, ir.U64Const{V: 6}, vs.V)
}

func TestRunCapsAtIterationLimitOnNonConvergingLoop(t *testing.T) {
	// Two cross-referencing copies with no base case: copy propagation will
	// keep reporting change forever, so the driver must report Capped
	// rather than loop indefinitely.
	a := reg("a", 0)
	b := reg("b", 0)
	copyA := &ir.Assignment{Targets: []*ir.Register{a}, Source: ir.ValueSource{V: b}}
	copyB := &ir.Assignment{Targets: []*ir.Register{b}, Source: ir.ValueSource{V: a}}
	entry := block(0)
	entry.AddOp(copyA)
	entry.AddOp(copyB)
	entry.SetTerminator(&ir.SubroutineReturn{Values: []ir.Value{a, b}})
	sub := &ir.Subroutine{Name: "main", Body: []*ir.BasicBlock{entry}}

	result := optimize.Run(sub, nil)
	require.Equal(t, optimize.Capped, result.State)
	require.Equal(t, optimize.DefaultIterationCap, result.Iterations)
}
