// Package atype defines the two primitive stack types of the target VM.
package atype

import "fmt"

// AType is one of the two primitive stack types tracked throughout the
// pipeline: unsigned 64-bit integers and byte-strings. Every Value in the
// IR, every op-table stack slot, and every MIR push/load carries one.
type AType int

const (
	Uint64 AType = iota
	Bytes
)

func (t AType) String() string {
	switch t {
	case Uint64:
		return "uint64"
	case Bytes:
		return "bytes"
	default:
		return fmt.Sprintf("atype(%d)", int(t))
	}
}

// Encoding records how a BytesConst's payload is meant to be displayed or
// re-derived; it never affects the bytes themselves, only how constant
// folds choose an encoding for a synthesized result (spec 4.D.2, "Encoding
// choice on bytes folds").
type Encoding int

const (
	EncodingUnknown Encoding = iota
	EncodingBase16
	EncodingBase32
	EncodingBase64
	EncodingUTF8
)

func (e Encoding) String() string {
	switch e {
	case EncodingBase16:
		return "base16"
	case EncodingBase32:
		return "base32"
	case EncodingBase64:
		return "base64"
	case EncodingUTF8:
		return "utf8"
	default:
		return "unknown"
	}
}

// MergeEncoding implements the concat fold's encoding-choice rule: keep a
// shared encoding, otherwise fall back to base64.
func MergeEncoding(a, b Encoding) Encoding {
	if a == b {
		return a
	}
	return EncodingBase64
}
