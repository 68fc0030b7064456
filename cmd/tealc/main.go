package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"tealc/internal/awst"
	"tealc/internal/config"
	"tealc/internal/diag"
)

func main() {
	var (
		optLevel    = flag.Int("opt-level", 1, "optimization level (0 disables the optimizer)")
		debugLevel  = flag.Int("debug-level", 0, "debug level (recorded in the options; does not change the output)")
		matchAlgod  = flag.Bool("match-algod-bytecode", false, "disable multi-push combining to match a reference assembler instruction-for-instruction")
		tmplFile    = flag.String("tmplvars", "", "path to a template-variable file (NAME=VALUE lines)")
		tealOut     = flag.String("o-teal", "", "write the assembled program's TEAL text listing to this path")
		irOut       = flag.String("o-ir", "", "write the optimized IR dump to this path")
		bytecodeOut = flag.String("o", "", "write assembled bytecode to this path (default: stdout)")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tealc [flags] <program.json>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	path := flag.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read %s: %s", path, err)
		os.Exit(1)
	}

	prog, err := awst.DecodeProgram(data)
	if err != nil {
		color.Red("❌ %s", err)
		os.Exit(1)
	}

	opts := config.Options{
		OptimizationLevel:  *optLevel,
		DebugLevel:         *debugLevel,
		MatchAlgodBytecode: *matchAlgod,
		TemplateVarsPath:   *tmplFile,
		EmitTeal:           *tealOut != "",
		EmitIR:             *irOut != "",
	}

	sink := diag.NewSink()
	result, err := Compile(prog, opts, sink)
	if len(sink.Diagnostics()) > 0 {
		fmt.Fprintln(os.Stderr, diag.Render(sink.Diagnostics()))
	}
	if err != nil {
		color.Red("❌ %s", err)
		os.Exit(1)
	}

	if opts.EmitIR {
		if err := os.WriteFile(*irOut, []byte(result.IRDump), 0o644); err != nil {
			color.Red("failed to write IR dump: %s", err)
			os.Exit(1)
		}
	}

	if opts.EmitTeal {
		if err := os.WriteFile(*tealOut, []byte(result.Teal), 0o644); err != nil {
			color.Red("failed to write TEAL text: %s", err)
			os.Exit(1)
		}
	}

	if *bytecodeOut != "" {
		if err := os.WriteFile(*bytecodeOut, result.Bytecode, 0o644); err != nil {
			color.Red("failed to write bytecode: %s", err)
			os.Exit(1)
		}
	} else {
		os.Stdout.Write(result.Bytecode)
	}

	color.Green("✅ assembled %s: %d bytes", path, len(result.Bytecode))
}
