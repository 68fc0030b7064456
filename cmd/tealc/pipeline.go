package main

import (
	"fmt"
	"os"

	"tealc/internal/assemble"
	"tealc/internal/awst"
	"tealc/internal/config"
	"tealc/internal/destructure"
	"tealc/internal/diag"
	"tealc/internal/ir"
	"tealc/internal/mir"
	"tealc/internal/optable"
	"tealc/internal/optimize"
	"tealc/internal/tealtext"
	"tealc/internal/tmplvar"
)

// CompileResult is everything one Compile call can hand back: the
// assembled bytecode (always set), plus its TEAL-text form and the
// optimized IR dump, each populated only when the caller asked for it.
type CompileResult struct {
	Bytecode []byte
	Teal     string
	IRDump   string
}

// Compile runs the full pipeline of spec section 5 over prog: IR
// construction, optimization, SSA destruction, MIR linearization and
// assembly. It stops at the first stage that reports a diagnostic error.
func Compile(prog *awst.Program, opts config.Options, sink *diag.Sink) (*CompileResult, error) {
	ops := optable.Default()

	builder := ir.NewBuilder(ops, sink)
	irProg := builder.BuildProgram(prog)
	if sink.HasErrors() {
		return nil, fmt.Errorf("tealc: AWST lowering failed")
	}

	if opts.OptimizationLevel > 0 {
		optimize.RunProgram(irProg, sink)
		if sink.HasErrors() {
			return nil, fmt.Errorf("tealc: optimization failed")
		}
	}

	var irDump string
	if opts.EmitIR {
		irDump = ir.Print(irProg)
	}

	for _, sub := range irProg.AllSubroutines() {
		destructure.Convert(sub)
	}

	names := mir.ResolveNames(irProg)
	arity := mir.NewOpTableArity(func(op string) int {
		entry, err := ops.Lookup(op)
		if err != nil {
			return 0
		}
		return len(entry.Outputs)
	})

	var mainInstrs []mir.Instr
	var subInstrs [][]mir.Instr
	for _, sub := range irProg.AllSubroutines() {
		slots := mir.AllocateSlots(sub)
		instrs := mir.Build(sub, names, slots, arity)
		if sub == irProg.Main {
			mainInstrs = instrs
		} else {
			subInstrs = append(subInstrs, instrs)
		}
	}

	templateVars, err := loadTemplateVars(opts.TemplateVarsPath)
	if err != nil {
		return nil, err
	}

	asmOpts := assemble.Options{
		TemplateVars:       templateVars,
		MatchAlgodBytecode: opts.MatchAlgodBytecode,
	}
	result, err := assemble.AssembleProgram(mainInstrs, subInstrs, asmOpts, sink)
	if err != nil {
		return nil, fmt.Errorf("tealc: assembly failed: %w", err)
	}

	out := &CompileResult{Bytecode: result.Bytecode, IRDump: irDump}
	if opts.EmitTeal {
		out.Teal = tealtext.Emit(result.Pseudo)
	}
	return out, nil
}

func loadTemplateVars(path string) (map[string]assemble.TemplateValue, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tealc: reading template-var file: %w", err)
	}
	resolved, err := tmplvar.Resolve(path, string(data))
	if err != nil {
		return nil, fmt.Errorf("tealc: parsing template-var file: %w", err)
	}
	out := make(map[string]assemble.TemplateValue, len(resolved))
	for name, v := range resolved {
		out[name] = assemble.TemplateValue{Int: v.Int, Bytes: v.Bytes, IsInt: v.IsInt}
	}
	return out, nil
}
