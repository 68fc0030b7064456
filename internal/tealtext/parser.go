package tealtext

import "github.com/alecthomas/participle/v2"

// Program is the grammar root: one line per label or instruction.
type Program struct {
	Lines []*Line `(@@ Newline*)*`
}

// Line is either a label declaration or an instruction with its
// whitespace-separated arguments.
type Line struct {
	Label *LabelLine `  @@`
	Instr *InstrLine `| @@`
}

type LabelLine struct {
	Name string `@Ident Colon`
}

type InstrLine struct {
	Mnemonic string   `@(Ident|Sym)`
	Args     []string `{ @(Ident|Integer|Hex|String|Sym) }`
}

var grammarParser = participle.MustBuild[Program](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// ParseString parses a TEAL text listing from an in-memory string;
// filename is used only for error messages.
func ParseString(filename, src string) (*Program, error) {
	return grammarParser.ParseString(filename, src)
}
