package mir

import (
	"tealc/internal/destructure"
	"tealc/internal/ir"
)

// AllocateSlots assigns each register defined in sub a scratch-space slot
// index, reusing an index across registers whose live ranges never
// overlap (spec 4.F's stack model still needs named storage for any value
// that outlives the expression it's produced in). Interference is
// approximated at block granularity using the same liveness solution the
// destructure package computes for coalescing: two registers interfere if
// both are live (in, or defined) within the same block. This is coarser
// than a true point-in-block interval graph, so it may hand out more
// slots than strictly necessary, but it never merges two simultaneously
// live registers into the same slot.
func AllocateSlots(sub *ir.Subroutine) map[*ir.Register]int {
	liveIn, _ := destructure.ComputeLiveness(sub)

	var regs []*ir.Register
	seen := map[*ir.Register]bool{}
	addReg := func(r *ir.Register) {
		if r != nil && !seen[r] {
			seen[r] = true
			regs = append(regs, r)
		}
	}
	for _, p := range sub.Params {
		addReg(p.Reg)
	}
	for _, r := range sub.AllRegisters() {
		addReg(r)
	}

	interferes := map[*ir.Register]map[*ir.Register]bool{}
	mark := func(a, b *ir.Register) {
		if a == b {
			return
		}
		if interferes[a] == nil {
			interferes[a] = map[*ir.Register]bool{}
		}
		interferes[a][b] = true
	}

	for _, b := range sub.Body {
		live := map[*ir.Register]bool{}
		for r := range liveIn[b] {
			live[r] = true
		}
		for _, a := range b.Ops {
			for _, t := range a.Targets {
				live[t] = true
			}
		}
		for r1 := range live {
			for r2 := range live {
				mark(r1, r2)
			}
		}
	}

	slots := map[*ir.Register]int{}
	for _, r := range regs {
		used := map[int]bool{}
		for neighbor := range interferes[r] {
			if slot, ok := slots[neighbor]; ok {
				used[slot] = true
			}
		}
		slot := 0
		for used[slot] {
			slot++
		}
		slots[r] = slot
	}
	return slots
}
