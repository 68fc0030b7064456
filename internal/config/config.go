// Package config models the compiler's command-line surface: the handful
// of knobs spec section 4 exposes as pipeline-wide options rather than
// per-invocation flags, kept in their own type so cmd/tealc's flag
// parsing and the library entry point it calls share one definition.
package config

// Options controls one compilation run end to end.
type Options struct {
	// OptimizationLevel gates which optimizer sweeps run (spec 4.D);
	// 0 disables the optimizer entirely, 1 is the default full sweep.
	OptimizationLevel int

	// DebugLevel is carried from the command line into the options; no
	// pipeline stage reads it, so the MIR and TEAL output are the same at
	// every level.
	DebugLevel int

	// MatchAlgodBytecode disables the assembler's pushints/pushbytess
	// multi-push combining (spec 4.G.3) so the constant stream matches a
	// reference assembler instruction-for-instruction.
	MatchAlgodBytecode bool

	// TemplateVarsPath, if set, points at a template-variable text file
	// (internal/tmplvar's NAME=VALUE format) resolved before assembly.
	TemplateVarsPath string

	// EmitTeal requests a textual TEAL listing alongside the bytecode.
	EmitTeal bool

	// EmitIR requests a textual dump of the optimized, pre-destructure IR.
	EmitIR bool
}

// Default returns the options a bare invocation with no flags gets.
func Default() Options {
	return Options{OptimizationLevel: 1, DebugLevel: 0}
}
