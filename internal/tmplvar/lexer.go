// Package tmplvar parses the template-variable text format of spec
// section 6: a flat list of `NAME=VALUE` lines, each value a `0x...` hex
// string, a `"..."` UTF-8 string, or a decimal integer, plus an optional
// `prefix="..."` directive line overriding the default `TMPL_` prefix for
// the rest of the file. Built as a stateful participle lexer in its own
// file and a participle-built parser in its own, the same two-file split
// used throughout this module's grammars.
package tmplvar

import "github.com/alecthomas/participle/v2/lexer"

var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Hex", `0x[0-9a-fA-F]+`, nil},
		{"String", `"(\\.|[^"\\])*"`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Integer", `[0-9]+`, nil},
		{"Equals", `=`, nil},
		{"Newline", `[\r\n]+`, nil},
		{"Whitespace", `[ \t]+`, nil},
	},
})
