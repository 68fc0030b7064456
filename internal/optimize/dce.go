package optimize

import "tealc/internal/ir"

// RemoveDeadCode drops every Assignment whose targets are all unreferenced
// (spec 4.D.4: "remove unreferenced assignments (no use of any target)").
// It is applied after constant folding/sinking so that an op whose result
// became dead only because its consumer folded away in the same iteration
// is still caught this same pass.
func RemoveDeadCode(sub *ir.Subroutine) bool {
	changed := false
	for _, b := range sub.Body {
		var kept []*ir.Assignment
		for _, a := range b.Ops {
			if len(a.Targets) == 0 {
				kept = append(kept, a)
				continue
			}
			used := false
			for _, t := range a.Targets {
				if UseCount(sub, t) > 0 {
					used = true
					break
				}
			}
			if used {
				kept = append(kept, a)
			} else {
				changed = true
			}
		}
		b.Ops = kept
	}
	return changed
}

// RemoveDeadBlocks drops every block not reachable from the entry block
// (spec 4.D.4), unlinking their CFG edges so invariant 2
// (predecessor/successor symmetry) still holds afterward.
func RemoveDeadBlocks(sub *ir.Subroutine) bool {
	entry := sub.Entry()
	if entry == nil {
		return false
	}
	reachable := map[*ir.BasicBlock]bool{entry: true}
	queue := []*ir.BasicBlock{entry}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		for _, s := range b.Successors {
			if !reachable[s] {
				reachable[s] = true
				queue = append(queue, s)
			}
		}
	}
	changed := false
	var kept []*ir.BasicBlock
	for _, b := range sub.Body {
		if reachable[b] {
			kept = append(kept, b)
			continue
		}
		changed = true
		for _, succ := range append([]*ir.BasicBlock{}, b.Successors...) {
			ir.Unlink(b, succ)
		}
		for _, pred := range append([]*ir.BasicBlock{}, b.Predecessors...) {
			ir.Unlink(pred, b)
		}
	}
	sub.Body = kept
	return changed
}

// PropagateCopies replaces every use of a trivially-copied register
// (`y = x`) with x directly, then lets RemoveDeadCode reclaim the now-dead
// copy (spec 4.D.4: "propagate trivial copies ... replaced by x everywhere
// dominated by the definition"). SSA's single-definition property means
// every use of y is already dominated by y's one definition, so a global
// substitution is safe without computing a dominator tree.
func PropagateCopies(sub *ir.Subroutine) bool {
	changed := false
	for _, b := range sub.Body {
		for _, a := range b.Ops {
			if len(a.Targets) != 1 {
				continue
			}
			vs, ok := a.Source.(ir.ValueSource)
			if !ok {
				continue
			}
			if replaceUses(sub, a.Targets[0], vs.V) {
				changed = true
			}
		}
	}
	return changed
}

func replaceUses(sub *ir.Subroutine, from *ir.Register, to ir.Value) bool {
	changed := false
	sub1 := func(v ir.Value) ir.Value {
		if r, ok := v.(*ir.Register); ok && r.Equal(from) {
			changed = true
			return to
		}
		return v
	}
	for _, b := range sub.Body {
		for _, phi := range b.Phis {
			for i := range phi.Args {
				phi.Args[i].Value = sub1(phi.Args[i].Value)
			}
		}
		for _, a := range b.Ops {
			switch src := a.Source.(type) {
			case *ir.Intrinsic:
				for i := range src.Args {
					src.Args[i] = sub1(src.Args[i])
				}
			case *ir.InvokeSubroutine:
				for i := range src.Args {
					src.Args[i] = sub1(src.Args[i])
				}
			case ir.ValueSource:
				a.Source = ir.ValueSource{V: sub1(src.V)}
			}
		}
		switch t := b.Terminator.(type) {
		case *ir.CondBranch:
			t.Cond = sub1(t.Cond)
		case *ir.Switch:
			t.Value = sub1(t.Value)
		case *ir.GotoNth:
			t.Value = sub1(t.Value)
		case *ir.SubroutineReturn:
			for i := range t.Values {
				t.Values[i] = sub1(t.Values[i])
			}
		case *ir.ProgramExit:
			t.Value = sub1(t.Value)
		}
	}
	return changed
}
