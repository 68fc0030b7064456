package tmplvar

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
)

// File is the grammar root: a sequence of directive or assignment lines.
type File struct {
	Lines []*Line `(@@ Newline*)*`
}

// Line is either a prefix directive or a NAME=VALUE assignment.
type Line struct {
	Prefix *PrefixDirective `  @@`
	Entry  *Entry           `| @@`
}

// PrefixDirective overrides the default "TMPL_" prefix for every
// subsequent line in the file.
type PrefixDirective struct {
	Value string `"prefix" Equals @String`
}

// Entry is one NAME=VALUE line.
type Entry struct {
	Name  string `@Ident Equals`
	Value *Value `@@`
}

// Value is one of the three literal forms spec section 6 allows.
type Value struct {
	Hex string `  @Hex`
	Str string `| @String`
	Int string `| @Integer`
}

var grammarParser = participle.MustBuild[File](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// ParseString parses the template-variable text format from an in-memory
// string, filename used only for error messages.
func ParseString(filename, src string) (*File, error) {
	return grammarParser.ParseString(filename, src)
}

// ResolvedValue is an evaluated template-variable value: either a
// non-negative integer or a byte string, matching the two AVM template
// kinds of spec 4.G.1 ("int"/"byte").
type ResolvedValue struct {
	Int   uint64
	Bytes []byte
	IsInt bool
}

// Resolve parses src and evaluates every line into a map keyed by the bare
// variable name (the prefix, default "TMPL_", is stripped before the name
// is stored, matching the bare names IR's TemplateVarConst carries - see
// ir.TemplateVarConst.String(), which re-adds "TMPL_" only for display).
func Resolve(filename, src string) (map[string]ResolvedValue, error) {
	file, err := ParseString(filename, src)
	if err != nil {
		return nil, err
	}

	prefix := "TMPL_"
	out := map[string]ResolvedValue{}
	for _, line := range file.Lines {
		if line.Prefix != nil {
			p, err := unquote(line.Prefix.Value)
			if err != nil {
				return nil, fmt.Errorf("tmplvar: invalid prefix directive: %w", err)
			}
			prefix = p
			continue
		}
		if line.Entry == nil {
			continue
		}
		name := strings.TrimPrefix(line.Entry.Name, prefix)
		val, err := resolveValue(line.Entry.Value)
		if err != nil {
			return nil, fmt.Errorf("tmplvar: %s: %w", line.Entry.Name, err)
		}
		out[name] = val
	}
	return out, nil
}

func resolveValue(v *Value) (ResolvedValue, error) {
	switch {
	case v.Hex != "":
		b, err := hex.DecodeString(v.Hex[2:])
		if err != nil {
			return ResolvedValue{}, fmt.Errorf("invalid hex literal %q: %w", v.Hex, err)
		}
		return ResolvedValue{Bytes: b}, nil
	case v.Str != "":
		s, err := unquote(v.Str)
		if err != nil {
			return ResolvedValue{}, err
		}
		return ResolvedValue{Bytes: []byte(s)}, nil
	default:
		n, err := strconv.ParseUint(v.Int, 10, 64)
		if err != nil {
			return ResolvedValue{}, fmt.Errorf("invalid decimal integer %q: %w", v.Int, err)
		}
		return ResolvedValue{Int: n, IsInt: true}, nil
	}
}

func unquote(s string) (string, error) {
	return strconv.Unquote(s)
}
