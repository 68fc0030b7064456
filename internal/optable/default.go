package optable

import "tealc/internal/atype"

func slot(types ...atype.AType) StackSlot { return StackSlot{Allowed: types} }

func u64() StackSlot  { return slot(atype.Uint64) }
func bts() StackSlot  { return slot(atype.Bytes) }
func any2() StackSlot { return slot(atype.Uint64, atype.Bytes) }

// Default returns the curated subset of the AVM op table needed to exercise
// every optimizer rule, MIR op and assembler pseudo-op named in spec
// sections 4.D-4.G. The full table is generated at build time from
// langspec.json (spec 4.A); this is the runtime-loadable equivalent scoped
// to what this backend actually needs, kept as Go literals.
func Default() *Table {
	entries := map[string]Entry{
		// u64 arithmetic and comparisons
		"+":   {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"-":   {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"*":   {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"/":   {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"%":   {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"<":   {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"<=":  {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		">":   {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		">=":  {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"==":  {Inputs: []StackSlot{any2(), any2()}, Outputs: []atype.AType{atype.Uint64}},
		"!=":  {Inputs: []StackSlot{any2(), any2()}, Outputs: []atype.AType{atype.Uint64}},
		"&&":  {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"||":  {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"<<":  {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		">>":  {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"exp": {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"&":   {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"|":   {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"^":   {Inputs: []StackSlot{u64(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"~":   {Inputs: []StackSlot{u64()}, Outputs: []atype.AType{atype.Uint64}},
		"not": {Inputs: []StackSlot{u64()}, Outputs: []atype.AType{atype.Uint64}},

		// bytes-math (arbitrary precision, spec 4.D.2 "bytes-math")
		"b+":  {Inputs: []StackSlot{bts(), bts()}, Outputs: []atype.AType{atype.Bytes}},
		"b-":  {Inputs: []StackSlot{bts(), bts()}, Outputs: []atype.AType{atype.Bytes}},
		"b*":  {Inputs: []StackSlot{bts(), bts()}, Outputs: []atype.AType{atype.Bytes}},
		"b/":  {Inputs: []StackSlot{bts(), bts()}, Outputs: []atype.AType{atype.Bytes}},
		"b%":  {Inputs: []StackSlot{bts(), bts()}, Outputs: []atype.AType{atype.Bytes}},
		"b<":  {Inputs: []StackSlot{bts(), bts()}, Outputs: []atype.AType{atype.Uint64}},
		"b<=": {Inputs: []StackSlot{bts(), bts()}, Outputs: []atype.AType{atype.Uint64}},
		"b>":  {Inputs: []StackSlot{bts(), bts()}, Outputs: []atype.AType{atype.Uint64}},
		"b>=": {Inputs: []StackSlot{bts(), bts()}, Outputs: []atype.AType{atype.Uint64}},
		"b==": {Inputs: []StackSlot{bts(), bts()}, Outputs: []atype.AType{atype.Uint64}},
		"b!=": {Inputs: []StackSlot{bts(), bts()}, Outputs: []atype.AType{atype.Uint64}},
		"b&":  {Inputs: []StackSlot{bts(), bts()}, Outputs: []atype.AType{atype.Bytes}},
		"b|":  {Inputs: []StackSlot{bts(), bts()}, Outputs: []atype.AType{atype.Bytes}},
		"b^":  {Inputs: []StackSlot{bts(), bts()}, Outputs: []atype.AType{atype.Bytes}},
		"b~":  {Inputs: []StackSlot{bts()}, Outputs: []atype.AType{atype.Bytes}},

		// bytes/uint conversions and slicing
		"itob":           {Inputs: []StackSlot{u64()}, Outputs: []atype.AType{atype.Bytes}},
		"btoi":           {Inputs: []StackSlot{bts()}, Outputs: []atype.AType{atype.Uint64}},
		"concat":         {Inputs: []StackSlot{bts(), bts()}, Outputs: []atype.AType{atype.Bytes}},
		"len":            {Inputs: []StackSlot{bts()}, Outputs: []atype.AType{atype.Uint64}},
		"substring3":     {Inputs: []StackSlot{bts(), u64(), u64()}, Outputs: []atype.AType{atype.Bytes}},
		"extract3":       {Inputs: []StackSlot{bts(), u64(), u64()}, Outputs: []atype.AType{atype.Bytes}},
		"extract":        {Immediates: []Immediate{{Kind: ImmU8}, {Kind: ImmU8}}, Inputs: []StackSlot{bts()}, Outputs: []atype.AType{atype.Bytes}},
		"substring":      {Immediates: []Immediate{{Kind: ImmU8}, {Kind: ImmU8}}, Inputs: []StackSlot{bts()}, Outputs: []atype.AType{atype.Bytes}},
		"extract_uint16": {Inputs: []StackSlot{bts(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"extract_uint32": {Inputs: []StackSlot{bts(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"extract_uint64": {Inputs: []StackSlot{bts(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"setbit":         {Inputs: []StackSlot{any2(), u64(), u64()}, Outputs: []atype.AType{atype.Bytes}},
		"getbit":         {Inputs: []StackSlot{any2(), u64()}, Outputs: []atype.AType{atype.Uint64}},
		"bzero":          {Inputs: []StackSlot{u64()}, Outputs: []atype.AType{atype.Bytes}},

		// control and misc
		"assert":  {Inputs: []StackSlot{u64()}, Outputs: nil},
		"pop":     {Inputs: []StackSlot{any2()}, Outputs: nil},
		"dup":     {Inputs: []StackSlot{any2()}, Outputs: []atype.AType{atype.Bytes}},
		"return":  {Inputs: []StackSlot{u64()}, Outputs: nil, Deadens: true},
		"err":     {Inputs: nil, Outputs: nil, Deadens: true},
		"sha512_256": {Inputs: []StackSlot{bts()}, Outputs: []atype.AType{atype.Bytes}},
	}
	return New(entries)
}
