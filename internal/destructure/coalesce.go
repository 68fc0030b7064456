package destructure

import "tealc/internal/ir"

type unionFind struct {
	parent map[*ir.Register]*ir.Register
}

func newUnionFind() *unionFind { return &unionFind{parent: map[*ir.Register]*ir.Register{}} }

func (u *unionFind) find(r *ir.Register) *ir.Register {
	p, ok := u.parent[r]
	if !ok || p == r {
		return r
	}
	root := u.find(p)
	u.parent[r] = root
	return root
}

// union merges dst into canonical's class, keeping canonical (the copy's
// source) as the class root so coalescing preserves the original variable's
// name.
func (u *unionFind) union(dst, canonical *ir.Register) {
	u.parent[u.find(dst)] = u.find(canonical)
}

// Coalesce merges a copy's destination into its source wherever the two
// do not interfere (spec 4.E step 3: "local coalescing via live-range
// (variable-lifetime) analysis"), then drops every copy assignment that
// became an identity after renaming.
func Coalesce(sub *ir.Subroutine) {
	_, liveOut := ComputeLiveness(sub)
	uf := newUnionFind()

	for _, b := range sub.Body {
		for i, a := range b.Ops {
			if len(a.Targets) != 1 {
				continue
			}
			vs, ok := a.Source.(ir.ValueSource)
			if !ok {
				continue
			}
			src, ok := vs.V.(*ir.Register)
			if !ok {
				continue
			}
			dst := a.Targets[0]
			if interferes(b, i, src, liveOut[b]) {
				continue
			}
			uf.union(dst, src)
		}
	}

	rename := func(v ir.Value) ir.Value {
		if r, ok := v.(*ir.Register); ok {
			return uf.find(r)
		}
		return v
	}

	for _, b := range sub.Body {
		var kept []*ir.Assignment
		for _, a := range b.Ops {
			switch src := a.Source.(type) {
			case *ir.Intrinsic:
				for i := range src.Args {
					src.Args[i] = rename(src.Args[i])
				}
			case *ir.InvokeSubroutine:
				for i := range src.Args {
					src.Args[i] = rename(src.Args[i])
				}
			case ir.ValueSource:
				a.Source = ir.ValueSource{V: rename(src.V)}
			}
			for i, t := range a.Targets {
				a.Targets[i] = uf.find(t)
			}
			if len(a.Targets) == 1 {
				if vs, ok := a.Source.(ir.ValueSource); ok {
					if r, ok := vs.V.(*ir.Register); ok && r.Equal(a.Targets[0]) {
						continue // identity copy after renaming: drop it
					}
				}
			}
			kept = append(kept, a)
		}
		b.Ops = kept

		switch t := b.Terminator.(type) {
		case *ir.CondBranch:
			t.Cond = rename(t.Cond)
		case *ir.Switch:
			t.Value = rename(t.Value)
		case *ir.GotoNth:
			t.Value = rename(t.Value)
		case *ir.SubroutineReturn:
			for i := range t.Values {
				t.Values[i] = rename(t.Values[i])
			}
		case *ir.ProgramExit:
			t.Value = rename(t.Value)
		}
	}
}

// interferes reports whether src is read again after position i in b, or
// is live leaving b: either means the copy at i is not src's last use, so
// merging it with dst would extend src's lifetime across a point where a
// different value might be live under the same name.
func interferes(b *ir.BasicBlock, i int, src *ir.Register, liveOut map[*ir.Register]bool) bool {
	if liveOut[src] {
		return true
	}
	for j := i + 1; j < len(b.Ops); j++ {
		if usesRegister(b.Ops[j], src) {
			return true
		}
	}
	return usesRegisterInTerminator(b.Terminator, src)
}

func usesRegister(a *ir.Assignment, r *ir.Register) bool {
	match := func(v ir.Value) bool {
		reg, ok := v.(*ir.Register)
		return ok && reg.Equal(r)
	}
	switch src := a.Source.(type) {
	case *ir.Intrinsic:
		for _, arg := range src.Args {
			if match(arg) {
				return true
			}
		}
	case *ir.InvokeSubroutine:
		for _, arg := range src.Args {
			if match(arg) {
				return true
			}
		}
	case ir.ValueSource:
		return match(src.V)
	}
	return false
}

func usesRegisterInTerminator(t ir.Terminator, r *ir.Register) bool {
	match := func(v ir.Value) bool {
		reg, ok := v.(*ir.Register)
		return ok && reg.Equal(r)
	}
	switch term := t.(type) {
	case *ir.CondBranch:
		return match(term.Cond)
	case *ir.Switch:
		return match(term.Value)
	case *ir.GotoNth:
		return match(term.Value)
	case *ir.SubroutineReturn:
		for _, v := range term.Values {
			if match(v) {
				return true
			}
		}
	case *ir.ProgramExit:
		return match(term.Value)
	}
	return false
}
