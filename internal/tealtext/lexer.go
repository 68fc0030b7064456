// Package tealtext parses and emits the textual TEAL assembly listing
// produced from an assembled program's packed pseudo-ops (spec 4.G,
// "TealProgram"), supporting the round-trip property of spec section 8
// ("parse(emit_teal(P)) == P"). Parsing raises no label diagnostics and
// keeps no source positions; DuplicateLabel/UndefinedLabel come from
// assemble.Encode when the parsed ops are encoded. Built as a stateful participle
// lexer in its own file and a participle-built parser in its own, the
// same two-file split used throughout this module's grammars.
package tealtext

import "github.com/alecthomas/participle/v2/lexer"

var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Hex", `0x[0-9a-fA-F]+`, nil},
		{"String", `"(\\.|[^"\\])*"`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Integer", `-?[0-9]+`, nil},
		// Symbolic op mnemonics (+, -, ==, !=, ...) that the Ident rule
		// above can't match, since the AVM's arithmetic/comparison/bitwise
		// ops are punctuation, not identifiers. Mixed mnemonics such as b~
		// and b+ lex as an Ident "b" followed by a Sym.
		{"Sym", `[+\-*/%!=<>&|^~]+`, nil},
		{"Colon", `:`, nil},
		{"Newline", `[\r\n]+`, nil},
		{"Whitespace", `[ \t]+`, nil},
	},
})
