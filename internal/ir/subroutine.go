package ir

import "tealc/internal/atype"

// Parameter is a Subroutine formal argument; it also owns the Register that
// names it inside the subroutine body.
type Parameter struct {
	Reg *Register
}

// Subroutine is one function of the program: a name, typed parameters and
// return slots, and the list of basic blocks that make up its body.
// body[0] is always the entry block (spec section 3).
type Subroutine struct {
	Name    string
	Params  []*Parameter
	Returns []atype.AType
	Body    []*BasicBlock
}

func (s *Subroutine) Entry() *BasicBlock {
	if len(s.Body) == 0 {
		return nil
	}
	return s.Body[0]
}

// AllRegisters walks every block and returns the set of registers defined
// anywhere in the subroutine (by Assignment target or Phi result), used by
// the MIR slot allocator (mir.AllocateSlots).
func (s *Subroutine) AllRegisters() []*Register {
	var out []*Register
	for _, b := range s.Body {
		for _, p := range b.Phis {
			out = append(out, p.Result)
		}
		for _, a := range b.Ops {
			out = append(out, a.Targets...)
		}
	}
	return out
}

// Program is the full compiled unit: a distinguished main subroutine plus
// the rest (spec section 3). It holds only the subroutine set;
// contract/program-artifact metadata (ARC4 method specs, state schema) is
// not modelled anywhere in the pipeline.
type Program struct {
	ID          string
	Main        *Subroutine
	Subroutines []*Subroutine
}

// AllSubroutines returns Main followed by every other subroutine, the
// traversal order the optimizer driver and MIR builder both use ("the
// pipeline processes them in definition order", spec section 5).
func (p *Program) AllSubroutines() []*Subroutine {
	return append([]*Subroutine{p.Main}, p.Subroutines...)
}
