// Package optable is the read-only op-code registry described in spec
// section 4.A. It is generated from an external data artifact
// (langspec.json, out of scope here) and exposes, for each op-code, its
// immediate kinds, stack input/output types and whether it "deadens" flow.
package optable

import (
	"encoding/json"
	"fmt"
	"io"

	"tealc/internal/atype"
)

// ImmediateKind is the shape of one immediate argument to an op.
type ImmediateKind string

const (
	ImmU8     ImmediateKind = "u8"
	ImmI8     ImmediateKind = "i8"
	ImmU64    ImmediateKind = "u64"
	ImmString ImmediateKind = "string"
	ImmEnum   ImmediateKind = "arg-enum"
)

// Immediate describes one positional immediate argument.
type Immediate struct {
	Kind ImmediateKind `json:"kind"`
	Enum string        `json:"enum,omitempty"` // arg_enums key, when Kind == ImmEnum
}

// StackSlot is one stack input slot: the ordered set of primitive types the
// VM accepts there.
type StackSlot struct {
	Allowed []atype.AType
}

func (s StackSlot) Accepts(t atype.AType) bool {
	for _, a := range s.Allowed {
		if a == t {
			return true
		}
	}
	return false
}

// Entry is a single op-table row.
type Entry struct {
	OpCode     string
	Immediates []Immediate
	Inputs     []StackSlot
	Outputs    []atype.AType
	Deadens    bool
	Doc        string
}

// Table is the read-only registry, keyed by op-code string.
type Table struct {
	entries map[string]Entry
}

// UnknownOpError is returned by Lookup for an op-code absent from the
// table.
type UnknownOpError struct {
	Op string
}

func (e *UnknownOpError) Error() string { return fmt.Sprintf("unknown op: %s", e.Op) }

func (t *Table) Lookup(op string) (Entry, error) {
	e, ok := t.entries[op]
	if !ok {
		return Entry{}, &UnknownOpError{Op: op}
	}
	return e, nil
}

func (t *Table) Has(op string) bool {
	_, ok := t.entries[op]
	return ok
}

// Len returns the number of registered ops, mostly useful for tests.
func (t *Table) Len() int { return len(t.entries) }

// --- JSON loading -----------------------------------------------------
//
// langspec.json shape (spec section 6): {ops: {op_code: {...}}, arg_enums:
// {name: [...]}}. The generator that produces one internal function per
// (op-code, immediate-value) pair for overridden-immediate variants (e.g.
// extract3 vs extract) is an external build-time artifact per spec 4.A;
// this loader only builds the runtime lookup table from whatever variants
// the artifact already emitted as distinct op-code keys.

type jsonAType string

const (
	jsonUint64 jsonAType = "uint64"
	jsonBytes  jsonAType = "bytes"
)

func (a jsonAType) toAType() (atype.AType, error) {
	switch a {
	case jsonUint64:
		return atype.Uint64, nil
	case jsonBytes:
		return atype.Bytes, nil
	default:
		return 0, fmt.Errorf("unknown stack type %q", a)
	}
}

type jsonImmediate struct {
	Kind string `json:"kind"`
	Enum string `json:"enum,omitempty"`
}

type jsonStackSlot struct {
	Allowed []jsonAType `json:"allowed"`
}

type jsonOp struct {
	Immediates []jsonImmediate `json:"immediate_args"`
	Inputs     []jsonStackSlot `json:"stack_inputs"`
	Outputs    []jsonAType     `json:"stack_outputs"`
	Deadens    bool            `json:"deadens"`
	Doc        string          `json:"doc"`
}

type langspec struct {
	Ops map[string]jsonOp `json:"ops"`
}

// Load parses a langspec.json document into a Table.
func Load(r io.Reader) (*Table, error) {
	var spec langspec
	if err := json.NewDecoder(r).Decode(&spec); err != nil {
		return nil, fmt.Errorf("parse op table: %w", err)
	}
	t := &Table{entries: make(map[string]Entry, len(spec.Ops))}
	for opcode, op := range spec.Ops {
		entry := Entry{OpCode: opcode, Deadens: op.Deadens, Doc: op.Doc}
		for _, imm := range op.Immediates {
			entry.Immediates = append(entry.Immediates, Immediate{Kind: ImmediateKind(imm.Kind), Enum: imm.Enum})
		}
		for _, in := range op.Inputs {
			slot := StackSlot{}
			for _, a := range in.Allowed {
				at, err := a.toAType()
				if err != nil {
					return nil, fmt.Errorf("op %s: %w", opcode, err)
				}
				slot.Allowed = append(slot.Allowed, at)
			}
			entry.Inputs = append(entry.Inputs, slot)
		}
		for _, o := range op.Outputs {
			at, err := o.toAType()
			if err != nil {
				return nil, fmt.Errorf("op %s: %w", opcode, err)
			}
			entry.Outputs = append(entry.Outputs, at)
		}
		t.entries[opcode] = entry
	}
	return t, nil
}

// New builds a Table directly from entries, mainly for tests and for the
// default table below.
func New(entries map[string]Entry) *Table {
	t := &Table{entries: make(map[string]Entry, len(entries))}
	for k, v := range entries {
		v.OpCode = k
		t.entries[k] = v
	}
	return t
}
