// Package diag implements the error taxonomy and diagnostic sink: CodeError,
// InternalError and PuyaError kinds, reported through an accumulating sink
// with error/warning/info severities, and rendered to the terminal with
// github.com/fatih/color.
package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Severity is restricted to the three levels the backend actually needs.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Kind is the error taxonomy of spec section 7.
type Kind string

const (
	// CodeError surfaces to the user and carries a source location: unknown
	// symbol, type mismatch, invalid template value, branch too far,
	// undefined label.
	KindCodeError Kind = "code_error"
	// InternalError is an invariant violation: an IR node encountered where
	// it should have been eliminated, mismatched successor/predecessor
	// lists, intrinsic arity mismatch post-validation. Aborts the compile.
	KindInternalError Kind = "internal_error"
	// PuyaError is a configuration/runtime error without a source location:
	// file not found, malformed options.
	KindPuyaError Kind = "puya_error"
)

// SourceLocation points at a location in the AWST or TEAL text being
// compiled. Line and Column are 1-based; File may be empty for synthesized
// locations (e.g. optimizer-introduced folds).
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

func (l SourceLocation) String() string {
	if l.Line == 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Diagnostic is a single reported problem, built through the fluent builder
// below.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Code     string
	Message  string
	Loc      *SourceLocation
	Notes    []string
}

func (d Diagnostic) Error() string { return d.Message }

// Builder constructs a Diagnostic fluently, mirroring
// errors.SemanticErrorBuilder's WithNote/WithSuggestion chain.
type Builder struct {
	d Diagnostic
}

func New(severity Severity, kind Kind, code, message string) *Builder {
	return &Builder{d: Diagnostic{Severity: severity, Kind: kind, Code: code, Message: message}}
}

func CodeError(code, message string) *Builder {
	return New(SeverityError, KindCodeError, code, message)
}

func InternalError(code, message string) *Builder {
	return New(SeverityError, KindInternalError, code, message)
}

func PuyaError(code, message string) *Builder {
	return New(SeverityError, KindPuyaError, code, message)
}

func (b *Builder) At(loc SourceLocation) *Builder {
	b.d.Loc = &loc
	return b
}

func (b *Builder) WithNote(note string) *Builder {
	b.d.Notes = append(b.d.Notes, note)
	return b
}

func (b *Builder) AsWarning() *Builder {
	b.d.Severity = SeverityWarning
	return b
}

func (b *Builder) Build() Diagnostic { return b.d }

// Sink accumulates diagnostics across passes. A compile fails overall iff
// at least one error-severity diagnostic was logged; warnings never stop
// compilation (spec section 7).
type Sink struct {
	diagnostics []Diagnostic
}

func NewSink() *Sink { return &Sink{} }

func (s *Sink) Report(d Diagnostic) { s.diagnostics = append(s.diagnostics, d) }

func (s *Sink) Errorf(kind Kind, code, format string, args ...any) {
	s.Report(New(SeverityError, kind, code, fmt.Sprintf(format, args...)).Build())
}

func (s *Sink) Warnf(kind Kind, code, format string, args ...any) {
	s.Report(New(SeverityWarning, kind, code, fmt.Sprintf(format, args...)).Build())
}

func (s *Sink) HasErrors() bool {
	for _, d := range s.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (s *Sink) Diagnostics() []Diagnostic { return s.diagnostics }

// Render formats every accumulated diagnostic, color-coded by severity, as
// a terse "level[code]: message" header line followed by its notes.
func Render(diagnostics []Diagnostic) string {
	var out strings.Builder
	for _, d := range diagnostics {
		levelColor := color.New(color.FgGreen)
		switch d.Severity {
		case SeverityError:
			levelColor = color.New(color.FgRed, color.Bold)
		case SeverityWarning:
			levelColor = color.New(color.FgYellow)
		}
		label := levelColor.Sprintf("%s", d.Severity)
		if d.Code != "" {
			out.WriteString(fmt.Sprintf("%s[%s]: %s", label, d.Code, d.Message))
		} else {
			out.WriteString(fmt.Sprintf("%s: %s", label, d.Message))
		}
		if d.Loc != nil {
			out.WriteString(fmt.Sprintf(" (%s)", d.Loc))
		}
		out.WriteString("\n")
		for _, n := range d.Notes {
			out.WriteString(fmt.Sprintf("  note: %s\n", n))
		}
	}
	return out.String()
}
