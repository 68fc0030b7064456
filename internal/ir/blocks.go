package ir

import "fmt"

// BasicBlock is a sequence of instructions with no internal branches (spec
// section 3). Predecessors/Successors are kept symmetric: invariant 2
// requires `A in preds(B) <=> B in succs(A)`; every mutation helper in this
// file maintains that.
type BasicBlock struct {
	ID           uint32
	Ops          []*Assignment
	Phis         []*Phi
	Terminator   Terminator
	Predecessors []*BasicBlock
	Successors   []*BasicBlock
	Loc          SourceLoc
}

func (b *BasicBlock) Label() string { return fmt.Sprintf("block_%d", b.ID) }

// AddOp appends an Assignment to the block's straight-line instruction
// stream.
func (b *BasicBlock) AddOp(a *Assignment) { b.Ops = append(b.Ops, a) }

// AddPhi appends a Phi, keeping Block backreferences consistent.
func (b *BasicBlock) AddPhi(p *Phi) {
	p.Block = b
	b.Phis = append(b.Phis, p)
}

// link establishes a predecessor -> successor edge symmetrically.
func link(pred, succ *BasicBlock) {
	for _, s := range pred.Successors {
		if s == succ {
			return
		}
	}
	pred.Successors = append(pred.Successors, succ)
	succ.Predecessors = append(succ.Predecessors, pred)
}

// SetTerminator installs t as the block's terminator and links every
// successor it names.
func (b *BasicBlock) SetTerminator(t Terminator) {
	b.Terminator = t
	for _, s := range t.GetSuccessors() {
		link(b, s)
	}
}

// Terminator ends a BasicBlock. Every variant in spec section 3 is
// represented by its own type rather than a single tagged struct.
type Terminator interface {
	GetSuccessors() []*BasicBlock
	Deadens() bool
	String() string
}

type Goto struct {
	Target *BasicBlock
}

func (g *Goto) GetSuccessors() []*BasicBlock { return []*BasicBlock{g.Target} }
func (g *Goto) Deadens() bool                { return true }
func (g *Goto) String() string               { return fmt.Sprintf("goto %s", g.Target.Label()) }

type CondBranch struct {
	Cond    Value
	Zero    *BasicBlock
	NonZero *BasicBlock
}

func (c *CondBranch) GetSuccessors() []*BasicBlock { return []*BasicBlock{c.Zero, c.NonZero} }
func (c *CondBranch) Deadens() bool                { return true }
func (c *CondBranch) String() string {
	return fmt.Sprintf("branch %s ? %s : %s", c.Cond, c.NonZero.Label(), c.Zero.Label())
}

// SwitchCase pairs a constant value with its target block.
type SwitchCase struct {
	Value Value
	Block *BasicBlock
}

type Switch struct {
	Value   Value
	Cases   []SwitchCase
	Default *BasicBlock
}

func (s *Switch) GetSuccessors() []*BasicBlock {
	out := []*BasicBlock{s.Default}
	for _, c := range s.Cases {
		out = append(out, c.Block)
	}
	return out
}
func (s *Switch) Deadens() bool { return true }
func (s *Switch) String() string {
	return fmt.Sprintf("switch %s (%d cases)", s.Value, len(s.Cases))
}

// GotoNth jumps to Blocks[Value] (or Default if out of range), matching the
// `match` pseudo-op's dense-dispatch shape.
type GotoNth struct {
	Value   Value
	Blocks  []*BasicBlock
	Default *BasicBlock
}

func (g *GotoNth) GetSuccessors() []*BasicBlock {
	return append(append([]*BasicBlock{}, g.Blocks...), g.Default)
}
func (g *GotoNth) Deadens() bool { return true }
func (g *GotoNth) String() string {
	return fmt.Sprintf("goto_nth %s (%d targets)", g.Value, len(g.Blocks))
}

type SubroutineReturn struct {
	Values []Value
}

func (r *SubroutineReturn) GetSuccessors() []*BasicBlock { return nil }
func (r *SubroutineReturn) Deadens() bool                { return true }
func (r *SubroutineReturn) String() string               { return "retsub" }

type ProgramExit struct {
	Value Value
}

func (p *ProgramExit) GetSuccessors() []*BasicBlock { return nil }
func (p *ProgramExit) Deadens() bool                { return true }
func (p *ProgramExit) String() string               { return fmt.Sprintf("exit %s", p.Value) }

type Fail struct {
	Comment string
}

func (f *Fail) GetSuccessors() []*BasicBlock { return nil }
func (f *Fail) Deadens() bool                { return true }
func (f *Fail) String() string               { return fmt.Sprintf("err // %s", f.Comment) }

// Unlink removes a predecessor/successor edge symmetrically. Used by
// dead-block elimination (spec 4.D.4) when a block is deleted.
func Unlink(pred, succ *BasicBlock) {
	pred.Successors = removeBlock(pred.Successors, succ)
	succ.Predecessors = removeBlock(succ.Predecessors, pred)
}

func removeBlock(list []*BasicBlock, b *BasicBlock) []*BasicBlock {
	out := list[:0:0]
	for _, x := range list {
		if x != b {
			out = append(out, x)
		}
	}
	return out
}
