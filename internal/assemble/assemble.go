package assemble

import (
	"tealc/internal/diag"
	"tealc/internal/mir"
)

// Options bundles everything Assemble needs beyond the MIR instruction
// stream itself.
type Options struct {
	TemplateVars       map[string]TemplateValue
	References         ReferenceResolver
	MatchAlgodBytecode bool
}

// Result is one subroutine's assembled output.
type Result struct {
	Bytecode []byte
	Pseudo   []PseudoOp // post-packing, pre-encoding; useful for the TEAL text emitter
}

// Assemble runs the full pipeline of spec 4.G over a single subroutine's
// MIR instruction stream: pseudo-op lowering (4.G.1), constant-pool
// packing (4.G.2), and label/offset resolution (4.G.3), in that order,
// since each stage depends on the prior one having fixed every op's final
// shape before byte lengths are computed.
func Assemble(instrs []mir.Instr, opts Options, sink *diag.Sink) (*Result, error) {
	pseudo, err := Lower(instrs, LowerOptions{TemplateVars: opts.TemplateVars, References: opts.References}, sink)
	if err != nil {
		return nil, err
	}
	packed := Pack(pseudo, PackOptions{MatchAlgodBytecode: opts.MatchAlgodBytecode})
	bytecode, err := Encode(packed)
	if err != nil {
		return nil, err
	}
	return &Result{Bytecode: bytecode, Pseudo: packed}, nil
}

// AssembleProgram concatenates every subroutine's MIR stream in the order
// given, `main` first, matching the layout a single AVM program expects,
// and assembles the combined stream with one call to Assemble, so `main`
// and every subroutine share one constant pool.
func AssembleProgram(mainInstrs []mir.Instr, subInstrs [][]mir.Instr, opts Options, sink *diag.Sink) (*Result, error) {
	all := append([]mir.Instr{}, mainInstrs...)
	for _, s := range subInstrs {
		all = append(all, s...)
	}
	return Assemble(all, opts, sink)
}
