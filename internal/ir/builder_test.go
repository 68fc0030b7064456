package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tealc/internal/atype"
	"tealc/internal/awst"
	"tealc/internal/diag"
	"tealc/internal/ir"
	"tealc/internal/optable"
)

func build(t *testing.T, prog *awst.Program) (*ir.Program, *diag.Sink) {
	t.Helper()
	sink := diag.NewSink()
	b := ir.NewBuilder(optable.Default(), sink)
	return b.BuildProgram(prog), sink
}

func straightLineProgram() *awst.Program {
	// fn main(x: u64) -> u64 { let y = x + 3; return y; }
	fn := &awst.Function{
		Name:       "main",
		Params:     []awst.Param{{Name: "x", Type: atype.Uint64}},
		ReturnType: []atype.AType{atype.Uint64},
		Body: []awst.Stmt{
			&awst.LetStmt{Name: "y", Value: &awst.BinaryExpr{
				Op: "+", T: atype.Uint64,
				Left:  &awst.IdentExpr{Name: "x", T: atype.Uint64},
				Right: &awst.U64Literal{Value: 3},
			}},
			&awst.ReturnStmt{Values: []awst.Expr{&awst.IdentExpr{Name: "y", T: atype.Uint64}}},
		},
	}
	return &awst.Program{Name: "test", Main: fn}
}

func TestBuilderStraightLine(t *testing.T) {
	prog, sink := build(t, straightLineProgram())
	require.False(t, sink.HasErrors())
	require.Len(t, prog.Main.Body, 1)
	entry := prog.Main.Body[0]
	require.Len(t, entry.Ops, 1)
	require.IsType(t, &ir.SubroutineReturn{}, entry.Terminator)
}

func TestBuilderIfElseInsertsPhi(t *testing.T) {
	// fn main(x: u64) -> u64 {
	//   let y;
	//   if x { y = 1; } else { y = 2; }
	//   return y;
	// }
	fn := &awst.Function{
		Name:       "main",
		Params:     []awst.Param{{Name: "x", Type: atype.Uint64}},
		ReturnType: []atype.AType{atype.Uint64},
		Body: []awst.Stmt{
			&awst.IfStmt{
				Cond: &awst.IdentExpr{Name: "x", T: atype.Uint64},
				Then: []awst.Stmt{&awst.AssignStmt{Name: "y", Value: &awst.U64Literal{Value: 1}}},
				Else: []awst.Stmt{&awst.AssignStmt{Name: "y", Value: &awst.U64Literal{Value: 2}}},
			},
			&awst.ReturnStmt{Values: []awst.Expr{&awst.IdentExpr{Name: "y", T: atype.Uint64}}},
		},
	}
	prog, sink := build(t, &awst.Program{Name: "test", Main: fn})
	require.False(t, sink.HasErrors())

	var mergeBlock *ir.BasicBlock
	for _, b := range prog.Main.Body {
		if len(b.Phis) == 1 {
			mergeBlock = b
		}
	}
	require.NotNil(t, mergeBlock, "expected a merge block with a phi for y")
	require.Len(t, mergeBlock.Phis[0].Args, 2)
}

func TestBuilderWhileLoopSealsHeaderAfterBackEdge(t *testing.T) {
	// fn main(n: u64) -> u64 {
	//   let i = 0;
	//   while i != n { i = i + 1; }
	//   return i;
	// }
	fn := &awst.Function{
		Name:       "main",
		Params:     []awst.Param{{Name: "n", Type: atype.Uint64}},
		ReturnType: []atype.AType{atype.Uint64},
		Body: []awst.Stmt{
			&awst.LetStmt{Name: "i", Value: &awst.U64Literal{Value: 0}},
			&awst.WhileStmt{
				Cond: &awst.BinaryExpr{Op: "!=", T: atype.Uint64,
					Left:  &awst.IdentExpr{Name: "i", T: atype.Uint64},
					Right: &awst.IdentExpr{Name: "n", T: atype.Uint64}},
				Body: []awst.Stmt{
					&awst.AssignStmt{Name: "i", Value: &awst.BinaryExpr{
						Op: "+", T: atype.Uint64,
						Left:  &awst.IdentExpr{Name: "i", T: atype.Uint64},
						Right: &awst.U64Literal{Value: 1},
					}},
				},
			},
			&awst.ReturnStmt{Values: []awst.Expr{&awst.IdentExpr{Name: "i", T: atype.Uint64}}},
		},
	}
	prog, sink := build(t, &awst.Program{Name: "test", Main: fn})
	require.False(t, sink.HasErrors())

	var header *ir.BasicBlock
	for _, blk := range prog.Main.Body {
		if len(blk.Predecessors) == 2 {
			header = blk
		}
	}
	require.NotNil(t, header, "expected a loop header with two predecessors")
	require.Len(t, header.Phis, 1, "loop-carried variable i needs exactly one phi")
	require.Len(t, header.Phis[0].Args, 2)
}

func TestBuilderUndefinedSubroutineIsCodeError(t *testing.T) {
	fn := &awst.Function{
		Name:       "main",
		ReturnType: []atype.AType{atype.Uint64},
		Body: []awst.Stmt{
			&awst.ReturnStmt{Values: []awst.Expr{&awst.CallExpr{Callee: "nope", T: atype.Uint64}}},
		},
	}
	_, sink := build(t, &awst.Program{Name: "test", Main: fn})
	require.True(t, sink.HasErrors())
	require.Equal(t, diag.KindCodeError, sink.Diagnostics()[0].Kind)
}
