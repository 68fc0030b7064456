package mir_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"tealc/internal/atype"
	"tealc/internal/awst"
	"tealc/internal/destructure"
	"tealc/internal/diag"
	"tealc/internal/ir"
	"tealc/internal/mir"
	"tealc/internal/optable"
)

func arity() *mir.OpTableArity {
	ops := optable.Default()
	return mir.NewOpTableArity(func(op string) int {
		entry, err := ops.Lookup(op)
		if err != nil {
			return 0
		}
		return len(entry.Outputs)
	})
}

func buildStraightLine(t *testing.T) *ir.Subroutine {
	t.Helper()
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
	sink := diag.NewSink()
	b := ir.NewBuilder(optable.Default(), sink)
	prog := b.BuildProgram(&awst.Program{Name: "test", Main: fn})
	require.False(t, sink.HasErrors())
	return prog.Main
}

func TestBuildEmitsLoadOpStoreRetsub(t *testing.T) {
	sub := buildStraightLine(t)
	names := map[*ir.Subroutine]string{sub: "main"}
	slots := mir.AllocateSlots(sub)

	instrs := mir.Build(sub, names, slots, arity())

	var ops []string
	for _, i := range instrs {
		switch v := i.(type) {
		case mir.Op:
			ops = append(ops, v.Name)
		case mir.Retsub:
			ops = append(ops, "retsub")
		}
	}
	require.Contains(t, ops, "+")
	require.Contains(t, ops, "retsub")

	_, isLast := instrs[len(instrs)-1].(mir.Retsub)
	require.True(t, isLast)
}

func TestResolveNamesMainIsAlwaysMain(t *testing.T) {
	mainSub := &ir.Subroutine{Name: "approval"}
	helper := &ir.Subroutine{Name: "Contract.helper"}
	prog := &ir.Program{Main: mainSub, Subroutines: []*ir.Subroutine{helper}}

	names := mir.ResolveNames(prog)
	require.Equal(t, "main", names[mainSub])
	require.Equal(t, "helper", names[helper])
}

func TestResolveNamesFallsBackOnCollision(t *testing.T) {
	mainSub := &ir.Subroutine{Name: "approval"}
	a := &ir.Subroutine{Name: "A.run"}
	b := &ir.Subroutine{Name: "B.run"}
	prog := &ir.Program{Main: mainSub, Subroutines: []*ir.Subroutine{a, b}}

	names := mir.ResolveNames(prog)
	require.Equal(t, "run", names[a])
	require.Equal(t, "B.run", names[b], "second 'run' collides on the short name, falls back to qualified")
}

func TestResolveNamesTriesClassMethodBeforeFullyQualified(t *testing.T) {
	mainSub := &ir.Subroutine{Name: "approval"}
	a := &ir.Subroutine{Name: "A.run"}
	// qualified three deep: bare "run" collides with a's short name, so
	// this must settle on the middle "Contract.run" tier rather than
	// skipping straight to the fully-qualified "module.Contract.run".
	b := &ir.Subroutine{Name: "module.Contract.run"}
	prog := &ir.Program{Main: mainSub, Subroutines: []*ir.Subroutine{a, b}}

	names := mir.ResolveNames(prog)
	require.Equal(t, "run", names[a])
	require.Equal(t, "Contract.run", names[b],
		"middle class.method tier must be tried before falling back to the full dotted name")
}

func TestReferenceResolverCachesResolvedArtifact(t *testing.T) {
	calls := 0
	resolver := mir.NewReferenceResolver(func(artifact string) ([]byte, error) {
		calls++
		if artifact == "a" {
			return nil, errors.New("unused: cycle triggers before this matters")
		}
		return []byte{1, 2, 3}, nil
	})

	b1, err := resolver.Resolve("b")
	require.NoError(t, err)
	b2, err := resolver.Resolve("b")
	require.NoError(t, err)
	require.Equal(t, b1, b2)
	require.Equal(t, 1, calls, "second resolve must hit the cache, not recompile")
}

func TestReferenceResolverDetectsSelfCycle(t *testing.T) {
	var resolver *mir.ReferenceResolver
	resolver = mir.NewReferenceResolver(func(artifact string) ([]byte, error) {
		_, err := resolver.Resolve(artifact) // re-enters while still InProgress
		return nil, err
	})
	_, err := resolver.Resolve("self")
	require.Error(t, err)
	var cycleErr *mir.CompiledReferenceCycle
	require.ErrorAs(t, err, &cycleErr)
}

func TestAllocateSlotsReusesSlotForNonOverlappingBranchLocals(t *testing.T) {
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
	sink := diag.NewSink()
	b := ir.NewBuilder(optable.Default(), sink)
	prog := b.BuildProgram(&awst.Program{Name: "test", Main: fn})
	require.False(t, sink.HasErrors())

	slots := mir.AllocateSlots(prog.Main)

	var yRegs []*ir.Register
	for _, blk := range prog.Main.Body {
		for _, op := range blk.Ops {
			for _, target := range op.Targets {
				if target.Local == "y" {
					yRegs = append(yRegs, target)
				}
			}
		}
	}
	require.Len(t, yRegs, 2, "then and else each define their own SSA version of y via an Assignment (the phi's own y is a third, separate register)")
	require.Equal(t, slots[yRegs[0]], slots[yRegs[1]],
		"the two branch-local y definitions never coexist, so they should share a slot")
}

func TestDestructureThenBuildProducesNoPhiReferences(t *testing.T) {
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
	sink := diag.NewSink()
	b := ir.NewBuilder(optable.Default(), sink)
	prog := b.BuildProgram(&awst.Program{Name: "test", Main: fn})
	require.False(t, sink.HasErrors())

	destructure.Convert(prog.Main)
	names := map[*ir.Subroutine]string{prog.Main: "main"}
	slots := mir.AllocateSlots(prog.Main)
	instrs := mir.Build(prog.Main, names, slots, arity())
	require.NotEmpty(t, instrs)

	var sawRetsub bool
	for _, i := range instrs {
		if _, ok := i.(mir.Retsub); ok {
			sawRetsub = true
		}
	}
	require.True(t, sawRetsub)
}
