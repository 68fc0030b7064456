package assemble

import "sort"

const maxPoolEntries = 256

// Intc/Bytec reference a pooled constant by its intcblock/bytecblock index
// (spec 4.G.2 point 4), replacing the PushInt/PushBytes they were packed
// from.
type Intc struct{ Index int }
type Bytec struct{ Index int }

func (Intc) isPseudoOp()  {}
func (Bytec) isPseudoOp() {}

// IntcBlock/BytecBlock are emitted once at program start, ahead of every
// other op, holding the packed constant pools in descending-frequency
// order.
type IntcBlock struct{ Values []uint64 }
type BytecBlock struct{ Values [][]byte }

func (IntcBlock) isPseudoOp()  {}
func (BytecBlock) isPseudoOp() {}

// PushInts/PushBytess are the combined multi-push forms used for
// non-pooled literals when match_algod_bytecode is false (spec 4.G.2
// point 5).
type PushInts struct{ Values []uint64 }
type PushBytess struct{ Values [][]byte }

func (PushInts) isPseudoOp()   {}
func (PushBytess) isPseudoOp() {}

type intFreq struct {
	value uint64
	count int
}

type bytesFreq struct {
	value []byte
	count int
}

// PackOptions controls constant-block packing.
type PackOptions struct {
	// MatchAlgodBytecode disables the pushints/pushbytess combining step
	// (spec 4.G.2 point 5): when true, every non-pooled literal keeps its
	// own single-value push op, matching algod's own assembler output
	// byte-for-byte for programs that never hit the combining heuristic.
	MatchAlgodBytecode bool
}

// Pack scans every PushInt/PushBytes in ops, builds the int and bytes
// constant pools (values appearing at least twice, most frequent first,
// truncated to 256 entries), rewrites pooled pushes to Intc/Bytec, prepends
// the resulting intcblock/bytecblock, and (unless MatchAlgodBytecode is
// set) combines consecutive non-pooled same-kind pushes into
// pushints/pushbytess.
func Pack(ops []PseudoOp, opts PackOptions) []PseudoOp {
	intPool, intIndex := buildIntPool(ops)
	bytesPool, bytesIndex := buildBytesPool(ops)

	rewritten := make([]PseudoOp, 0, len(ops)+2)
	for _, op := range ops {
		switch v := op.(type) {
		case PushInt:
			if idx, ok := intIndex[v.Value]; ok {
				rewritten = append(rewritten, Intc{Index: idx})
				continue
			}
		case PushBytes:
			if idx, ok := bytesIndex[string(v.Value)]; ok {
				rewritten = append(rewritten, Bytec{Index: idx})
				continue
			}
		}
		rewritten = append(rewritten, op)
	}

	if !opts.MatchAlgodBytecode {
		rewritten = combineMultiPush(rewritten)
	}

	var header []PseudoOp
	if len(intPool) > 0 {
		header = append(header, IntcBlock{Values: intPool})
	}
	if len(bytesPool) > 0 {
		header = append(header, BytecBlock{Values: bytesPool})
	}
	return append(header, rewritten...)
}

func buildIntPool(ops []PseudoOp) ([]uint64, map[uint64]int) {
	counts := map[uint64]int{}
	var order []uint64
	for _, op := range ops {
		pi, ok := op.(PushInt)
		if !ok {
			continue
		}
		if counts[pi.Value] == 0 {
			order = append(order, pi.Value)
		}
		counts[pi.Value]++
	}
	var freqs []intFreq
	for _, v := range order {
		if counts[v] >= 2 {
			freqs = append(freqs, intFreq{value: v, count: counts[v]})
		}
	}
	sort.SliceStable(freqs, func(i, j int) bool { return freqs[i].count > freqs[j].count })
	if len(freqs) > maxPoolEntries {
		freqs = freqs[:maxPoolEntries]
	}
	pool := make([]uint64, len(freqs))
	index := make(map[uint64]int, len(freqs))
	for i, f := range freqs {
		pool[i] = f.value
		index[f.value] = i
	}
	return pool, index
}

func buildBytesPool(ops []PseudoOp) ([][]byte, map[string]int) {
	counts := map[string]int{}
	var order []string
	values := map[string][]byte{}
	for _, op := range ops {
		pb, ok := op.(PushBytes)
		if !ok {
			continue
		}
		key := string(pb.Value)
		if counts[key] == 0 {
			order = append(order, key)
			values[key] = pb.Value
		}
		counts[key]++
	}
	var freqs []bytesFreq
	for _, k := range order {
		if counts[k] >= 2 {
			freqs = append(freqs, bytesFreq{value: values[k], count: counts[k]})
		}
	}
	sort.SliceStable(freqs, func(i, j int) bool { return freqs[i].count > freqs[j].count })
	if len(freqs) > maxPoolEntries {
		freqs = freqs[:maxPoolEntries]
	}
	pool := make([][]byte, len(freqs))
	index := make(map[string]int, len(freqs))
	for i, f := range freqs {
		pool[i] = f.value
		index[string(f.value)] = i
	}
	return pool, index
}

// combineMultiPush merges maximal runs of consecutive non-pooled
// same-kind pushes into a single pushints/pushbytess op.
func combineMultiPush(ops []PseudoOp) []PseudoOp {
	var out []PseudoOp
	i := 0
	for i < len(ops) {
		if ints, ok := ops[i].(PushInt); ok {
			j := i
			var vals []uint64
			for j < len(ops) {
				pi, ok := ops[j].(PushInt)
				if !ok {
					break
				}
				vals = append(vals, pi.Value)
				j++
			}
			if len(vals) > 1 {
				out = append(out, PushInts{Values: vals})
			} else {
				out = append(out, ints)
			}
			i = j
			continue
		}
		if bs, ok := ops[i].(PushBytes); ok {
			j := i
			var vals [][]byte
			for j < len(ops) {
				pb, ok := ops[j].(PushBytes)
				if !ok {
					break
				}
				vals = append(vals, pb.Value)
				j++
			}
			if len(vals) > 1 {
				out = append(out, PushBytess{Values: vals})
			} else {
				out = append(out, bs)
			}
			i = j
			continue
		}
		out = append(out, ops[i])
		i++
	}
	return out
}
