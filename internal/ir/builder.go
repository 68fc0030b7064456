package ir

import (
	"fmt"

	"tealc/internal/atype"
	"tealc/internal/awst"
	"tealc/internal/diag"
	"tealc/internal/optable"
)

// Builder lowers a typed AWST program into SSA IR using on-the-fly SSA
// construction with incomplete blocks (spec 4.C step 1): reads of a
// variable in a not-yet-sealed block install a placeholder Phi whose
// operands are filled in once the block is sealed (all its predecessors
// are known). This avoids computing dominance frontiers up front, at the
// cost of a little bookkeeping per block, tracked with a
// currentDef/incompletePhis/sealed triple generalized to
// arbitrary structured control flow (if/else and while).
type Builder struct {
	ops  *optable.Table
	sink *diag.Sink

	sub   *Subroutine
	block *BasicBlock

	blockCounter uint32
	tempCounter  int
	versions     map[string]uint32

	currentDef     map[string]map[*BasicBlock]Value
	incompletePhis map[*BasicBlock]map[string]*Phi
	sealed         map[*BasicBlock]bool

	subsByName map[string]*Subroutine
	allBlocks  []*BasicBlock
}

func NewBuilder(ops *optable.Table, sink *diag.Sink) *Builder {
	return &Builder{ops: ops, sink: sink, subsByName: map[string]*Subroutine{}}
}

// BuildProgram lowers an entire AWST program, returning the IR Program and
// reporting CodeErrors through the sink (spec 4.C: TypeMismatch,
// UndefinedSymbol).
func (b *Builder) BuildProgram(prog *awst.Program) *Program {
	// Pre-register every subroutine's signature so calls (including
	// forward and mutually recursive ones) can resolve a stable *Subroutine
	// pointer before any body is lowered.
	all := append([]*awst.Function{prog.Main}, prog.Subroutines...)
	for _, fn := range all {
		b.subsByName[fn.Name] = &Subroutine{Name: fn.Name, Returns: fn.ReturnType}
	}

	for _, fn := range all {
		b.lowerFunction(fn)
	}

	out := &Program{ID: prog.Name, Main: b.subsByName[prog.Main.Name]}
	for _, fn := range prog.Subroutines {
		out.Subroutines = append(out.Subroutines, b.subsByName[fn.Name])
	}
	return out
}

func (b *Builder) lowerFunction(fn *awst.Function) {
	b.sub = b.subsByName[fn.Name]
	b.versions = map[string]uint32{}
	b.currentDef = map[string]map[*BasicBlock]Value{}
	b.incompletePhis = map[*BasicBlock]map[string]*Phi{}
	b.sealed = map[*BasicBlock]bool{}
	b.allBlocks = nil

	entry := b.newBlock()
	b.seal(entry)
	b.block = entry

	for _, p := range fn.Params {
		reg := b.newRegister(p.Name, p.Type)
		b.sub.Params = append(b.sub.Params, &Parameter{Reg: reg})
		b.writeVariable(p.Name, entry, reg)
	}

	b.lowerStmts(fn.Body)

	if b.block.Terminator == nil {
		b.block.SetTerminator(&SubroutineReturn{})
	}

	b.sub.Body = b.reachableBlocks(entry)
}

// reachableBlocks performs the BFS that both assigns final sequential block
// IDs and discards blocks orphaned by dead code after an unconditional
// terminator (e.g. statements following a return), matching spec 4.D.4's
// dead-block criterion ("not reachable from entry").
func (b *Builder) reachableBlocks(entry *BasicBlock) []*BasicBlock {
	seen := map[*BasicBlock]bool{entry: true}
	order := []*BasicBlock{entry}
	for i := 0; i < len(order); i++ {
		for _, s := range order[i].Successors {
			if !seen[s] {
				seen[s] = true
				order = append(order, s)
			}
		}
	}
	for i, blk := range order {
		blk.ID = uint32(i)
	}
	return order
}

func (b *Builder) newBlock() *BasicBlock {
	blk := &BasicBlock{ID: b.blockCounter}
	b.blockCounter++
	b.allBlocks = append(b.allBlocks, blk)
	return blk
}

func (b *Builder) newRegister(name string, t atype.AType) *Register {
	v := b.versions[name]
	b.versions[name] = v + 1
	return NewRegister(name, v, t)
}

func (b *Builder) newTemp(t atype.AType) *Register {
	name := fmt.Sprintf("%%t%d", b.tempCounter)
	b.tempCounter++
	return b.newRegister(name, t)
}

// --- on-the-fly SSA construction (Braun, Buchwald et al.) --------------

func (b *Builder) writeVariable(name string, block *BasicBlock, v Value) {
	if b.currentDef[name] == nil {
		b.currentDef[name] = map[*BasicBlock]Value{}
	}
	b.currentDef[name][block] = v
}

func (b *Builder) readVariable(name string, block *BasicBlock) Value {
	if v, ok := b.currentDef[name][block]; ok {
		return v
	}
	return b.readVariableRecursive(name, block)
}

func (b *Builder) readVariableRecursive(name string, block *BasicBlock) Value {
	var val Value
	if !b.sealed[block] {
		// The block isn't sealed yet (a loop header whose back edge hasn't
		// been lowered): install a placeholder phi and fill it in once
		// sealed.
		phi := &Phi{Result: b.newRegister(name, b.inferType(name, block)), Block: block}
		block.AddPhi(phi)
		if b.incompletePhis[block] == nil {
			b.incompletePhis[block] = map[string]*Phi{}
		}
		b.incompletePhis[block][name] = phi
		val = phi.Result
	} else if len(block.Predecessors) == 1 {
		val = b.readVariable(name, block.Predecessors[0])
	} else if len(block.Predecessors) == 0 {
		// Unreachable block with no writer: synthesize nothing usable; this
		// path is dead and will be dropped by reachableBlocks.
		val = U64Const{V: 0}
	} else {
		phi := &Phi{Result: b.newRegister(name, b.inferType(name, block)), Block: block}
		block.AddPhi(phi)
		b.writeVariable(name, block, phi.Result) // break potential read cycles
		val = b.addPhiOperands(name, phi)
	}
	b.writeVariable(name, block, val)
	return val
}

func (b *Builder) addPhiOperands(name string, phi *Phi) Value {
	for _, pred := range phi.Block.Predecessors {
		phi.Args = append(phi.Args, PhiArg{Pred: pred, Value: b.readVariable(name, pred)})
	}
	return phi.Result
}

// seal marks a block as having all its predecessors known, resolving any
// phi placeholders installed while it was open (spec 4.C step 1).
func (b *Builder) seal(block *BasicBlock) {
	for name, phi := range b.incompletePhis[block] {
		b.addPhiOperands(name, phi)
	}
	delete(b.incompletePhis, block)
	b.sealed[block] = true
}

// inferType is a narrow helper: phi placeholders need a type before any
// operand is known. Since the frontend already type-checked the source,
// every read of `name` in this function shares one type; the first write
// we can find (walking any live definition) supplies it.
func (b *Builder) inferType(name string, block *BasicBlock) atype.AType {
	for _, v := range b.currentDef[name] {
		return v.AType()
	}
	_ = block
	return atype.Uint64
}

// --- statement lowering --------------------------------------------------

func (b *Builder) lowerStmts(stmts []awst.Stmt) {
	for _, s := range stmts {
		if b.block.Terminator != nil {
			// Dead code after a terminator; reachableBlocks will drop
			// whatever block we'd otherwise keep filling.
			return
		}
		b.lowerStmt(s)
	}
}

func (b *Builder) lowerStmt(s awst.Stmt) {
	switch st := s.(type) {
	case *awst.LetStmt:
		v := b.lowerExpr(st.Value)
		if _, isReg := v.(*Register); !isReg {
			// A literal bound to a variable gets its own SSA version through
			// a copy Assignment, which copy propagation removes when optimizing.
			reg := b.newRegister(st.Name, v.AType())
			b.block.AddOp(&Assignment{Targets: []*Register{reg}, Source: ValueSource{V: v}})
			v = reg
		}
		b.writeVariable(st.Name, b.block, v)
	case *awst.AssignStmt:
		v := b.lowerExpr(st.Value)
		if _, isReg := v.(*Register); !isReg {
			reg := b.newRegister(st.Name, v.AType())
			b.block.AddOp(&Assignment{Targets: []*Register{reg}, Source: ValueSource{V: v}})
			v = reg
		}
		b.writeVariable(st.Name, b.block, v)
	case *awst.ExprStmt:
		b.lowerExprStatement(st.Value)
	case *awst.ReturnStmt:
		var vals []Value
		for _, e := range st.Values {
			vals = append(vals, b.lowerExpr(e))
		}
		b.block.SetTerminator(&SubroutineReturn{Values: vals})
	case *awst.AssertStmt:
		cond := b.lowerExpr(st.Cond)
		var args []Value
		args = append(args, cond)
		b.block.AddOp(&Assignment{Source: &Intrinsic{Op: "assert", Args: args}})
	case *awst.IfStmt:
		b.lowerIf(st)
	case *awst.WhileStmt:
		b.lowerWhile(st)
	default:
		b.sink.Report(diag.InternalError("E_IR001", fmt.Sprintf("unhandled statement %T", s)).Build())
	}
}

func (b *Builder) lowerIf(st *awst.IfStmt) {
	cond := b.lowerExpr(st.Cond)
	thenBlock, elseBlock, mergeBlock := b.newBlock(), b.newBlock(), b.newBlock()
	b.block.SetTerminator(&CondBranch{Cond: cond, Zero: elseBlock, NonZero: thenBlock})
	b.seal(thenBlock)
	b.seal(elseBlock)

	b.block = thenBlock
	b.lowerStmts(st.Then)
	if b.block.Terminator == nil {
		b.block.SetTerminator(&Goto{Target: mergeBlock})
	}

	b.block = elseBlock
	b.lowerStmts(st.Else)
	if b.block.Terminator == nil {
		b.block.SetTerminator(&Goto{Target: mergeBlock})
	}

	b.seal(mergeBlock)
	b.block = mergeBlock
}

func (b *Builder) lowerWhile(st *awst.WhileStmt) {
	header := b.newBlock()
	b.block.SetTerminator(&Goto{Target: header})

	b.block = header
	cond := b.lowerExpr(st.Cond)
	bodyBlock, afterBlock := b.newBlock(), b.newBlock()
	header.SetTerminator(&CondBranch{Cond: cond, Zero: afterBlock, NonZero: bodyBlock})
	b.seal(bodyBlock)

	b.block = bodyBlock
	b.lowerStmts(st.Body)
	if b.block.Terminator == nil {
		b.block.SetTerminator(&Goto{Target: header})
	}

	b.seal(header) // all predecessors (preheader + latch) are now known
	b.seal(afterBlock)
	b.block = afterBlock
}

// --- expression lowering --------------------------------------------------

func (b *Builder) lowerExpr(e awst.Expr) Value {
	switch ex := e.(type) {
	case *awst.IdentExpr:
		return b.readVariable(ex.Name, b.block)
	case *awst.U64Literal:
		return U64Const{V: ex.Value}
	case *awst.BytesLiteral:
		return BytesConst{V: ex.Value, Enc: ex.Enc}
	case *awst.BinaryExpr:
		left, right := b.lowerExpr(ex.Left), b.lowerExpr(ex.Right)
		if err := b.checkArity(ex.Op, left, right); err != nil {
			b.sink.Report(diag.CodeError("E_IR002", err.Error()).Build())
		}
		target := b.newTemp(ex.T)
		b.block.AddOp(&Assignment{Targets: []*Register{target}, Source: &Intrinsic{Op: ex.Op, Args: []Value{left, right}}})
		return target
	case *awst.UnaryExpr:
		operand := b.lowerExpr(ex.Operand)
		target := b.newTemp(ex.T)
		b.block.AddOp(&Assignment{Targets: []*Register{target}, Source: &Intrinsic{Op: ex.Op, Args: []Value{operand}}})
		return target
	case *awst.IntrinsicCallExpr:
		var args []Value
		for _, a := range ex.Args {
			args = append(args, b.lowerExpr(a))
		}
		target := b.newTemp(ex.T)
		b.block.AddOp(&Assignment{
			Targets: []*Register{target},
			Source:  &Intrinsic{Op: ex.Op, Immediate: ex.Immediate, Args: args},
		})
		return target
	case *awst.CallExpr:
		target, ok := b.subsByName[ex.Callee]
		if !ok {
			b.sink.Report(diag.CodeError("E_IR003", fmt.Sprintf("undefined subroutine %q", ex.Callee)).Build())
			return U64Const{V: 0}
		}
		var args []Value
		for _, a := range ex.Args {
			args = append(args, b.lowerExpr(a))
		}
		result := b.newTemp(ex.T)
		b.block.AddOp(&Assignment{Targets: []*Register{result}, Source: &InvokeSubroutine{Target: target, Args: args}})
		return result
	default:
		b.sink.Report(diag.InternalError("E_IR004", fmt.Sprintf("unhandled expression %T", e)).Build())
		return U64Const{V: 0}
	}
}

// lowerExprStatement lowers an expression used only for its side effects,
// emitting a zero-target Assignment when the result is discarded (spec 4.F:
// the MIR builder later turns these into an explicit Pop(n)).
func (b *Builder) lowerExprStatement(e awst.Expr) {
	switch ex := e.(type) {
	case *awst.IntrinsicCallExpr:
		var args []Value
		for _, a := range ex.Args {
			args = append(args, b.lowerExpr(a))
		}
		b.block.AddOp(&Assignment{Source: &Intrinsic{Op: ex.Op, Immediate: ex.Immediate, Args: args}})
	case *awst.CallExpr:
		target, ok := b.subsByName[ex.Callee]
		if !ok {
			b.sink.Report(diag.CodeError("E_IR003", fmt.Sprintf("undefined subroutine %q", ex.Callee)).Build())
			return
		}
		var args []Value
		for _, a := range ex.Args {
			args = append(args, b.lowerExpr(a))
		}
		b.block.AddOp(&Assignment{Source: &InvokeSubroutine{Target: target, Args: args}})
	default:
		b.lowerExpr(e) // pure expression with no observable effect; value dropped
	}
}

func (b *Builder) checkArity(op string, args ...Value) error {
	entry, err := b.ops.Lookup(op)
	if err != nil {
		return err
	}
	if len(entry.Inputs) != len(args) {
		return fmt.Errorf("op %s expects %d args, got %d", op, len(entry.Inputs), len(args))
	}
	for i, a := range args {
		if !entry.Inputs[i].Accepts(a.AType()) {
			return fmt.Errorf("op %s arg %d: type mismatch", op, i)
		}
	}
	return nil
}
