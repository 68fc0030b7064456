package destructure

import "tealc/internal/atype"
import "tealc/internal/ir"

// TempAllocator hands out fresh scratch registers for cycle-breaking, kept
// distinct from the builder's own temp counter so the two never collide.
type TempAllocator struct {
	counter int
}

func NewTempAllocator() *TempAllocator { return &TempAllocator{} }

func (t *TempAllocator) New(at atype.AType) *ir.Register {
	t.counter++
	return ir.NewRegister("%cp", uint32(t.counter), at)
}

// Sequentialize orders a parallel copy into a sequence of ordinary
// assignments, breaking any copy cycle with a scratch register (spec 4.E
// step 2: "cycle-breaking sequentialization"). The classic algorithm: a
// copy dst<-src is safe to emit once no other pending copy still needs
// dst's original value as its own source; once all safe copies are
// drained and copies remain, they form one or more cycles, broken by
// saving one register's value to a temp before continuing.
func Sequentialize(copies []Copy, temps *TempAllocator) []Copy {
	pending := map[*ir.Register]ir.Value{}
	var order []*ir.Register
	for _, c := range copies {
		pending[c.Dst] = c.Src
		order = append(order, c.Dst)
	}

	asReg := func(v ir.Value) (*ir.Register, bool) {
		r, ok := v.(*ir.Register)
		return r, ok
	}

	useCount := map[*ir.Register]int{}
	for _, src := range pending {
		if r, ok := asReg(src); ok {
			useCount[r]++
		}
	}

	loc := map[*ir.Register]ir.Value{}
	for _, d := range order {
		loc[d] = d
	}

	done := map[*ir.Register]bool{}
	var ready []*ir.Register
	for _, d := range order {
		if useCount[d] == 0 {
			ready = append(ready, d)
		}
	}

	var result []Copy
	remaining := len(order)

	drain := func() {
		for len(ready) > 0 {
			d := ready[0]
			ready = ready[1:]
			if done[d] {
				continue
			}
			src, ok := pending[d]
			if !ok {
				continue
			}
			cur := src
			if r, isReg := asReg(src); isReg {
				if l, ok := loc[r]; ok {
					cur = l
				}
			}
			result = append(result, Copy{Dst: d, Src: cur})
			done[d] = true
			remaining--
			if r, isReg := asReg(src); isReg {
				useCount[r]--
				loc[r] = d
				if useCount[r] == 0 {
					if _, stillPending := pending[r]; stillPending && !done[r] {
						ready = append(ready, r)
					}
				}
			}
		}
	}

	drain()
	for remaining > 0 {
		var n *ir.Register
		for _, d := range order {
			if !done[d] {
				if _, ok := pending[d]; ok {
					n = d
					break
				}
			}
		}
		if n == nil {
			break
		}
		tmp := temps.New(n.AT)
		result = append(result, Copy{Dst: tmp, Src: n})
		loc[n] = tmp
		useCount[n] = 0
		ready = append(ready, n)
		drain()
	}

	return result
}
