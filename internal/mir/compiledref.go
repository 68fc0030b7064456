package mir

import (
	"crypto/sha512"
	"fmt"
)

// ReferenceState tracks the resolution status of a compiled-reference
// artifact during the (possibly recursive, since one contract can embed
// another) compilation pipeline re-invocation of spec 4.F's "compiled
// references" feature.
type ReferenceState int

const (
	Unseen ReferenceState = iota
	InProgress
	Done
)

// CompiledReferenceCycle reports that resolving a compiled reference
// looped back on an artifact still being compiled.
type CompiledReferenceCycle struct {
	Artifact string
	Chain    []string
}

func (e *CompiledReferenceCycle) Error() string {
	return fmt.Sprintf("compiled reference cycle detected at %q (chain: %v)", e.Artifact, e.Chain)
}

// CompileFunc compiles a named artifact down to raw program bytecode,
// re-entering the whole pipeline for that artifact's own program. Supplied
// by the caller (cmd/tealc) so this package never depends on the
// top-level driver.
type CompileFunc func(artifact string) ([]byte, error)

// ReferenceResolver caches compiled artifacts and detects cycles via an
// explicit state map rather than a call-stack check, so the same
// resolver instance can be reused, and so a cycle report can name the
// exact artifact that closed the loop.
type ReferenceResolver struct {
	compile CompileFunc
	state   map[string]ReferenceState
	cache   map[string][]byte
	stack   []string
}

func NewReferenceResolver(compile CompileFunc) *ReferenceResolver {
	return &ReferenceResolver{
		compile: compile,
		state:   map[string]ReferenceState{},
		cache:   map[string][]byte{},
	}
}

// Resolve returns the compiled bytecode for artifact, compiling it on
// first request and serving every subsequent request for the same
// artifact from cache.
func (r *ReferenceResolver) Resolve(artifact string) ([]byte, error) {
	switch r.state[artifact] {
	case Done:
		return r.cache[artifact], nil
	case InProgress:
		return nil, &CompiledReferenceCycle{Artifact: artifact, Chain: append(append([]string{}, r.stack...), artifact)}
	}

	r.state[artifact] = InProgress
	r.stack = append(r.stack, artifact)
	bytecode, err := r.compile(artifact)
	r.stack = r.stack[:len(r.stack)-1]
	if err != nil {
		r.state[artifact] = Unseen
		return nil, err
	}
	r.state[artifact] = Done
	r.cache[artifact] = bytecode
	return bytecode, nil
}

// Field derives one named field of a compiled reference from its
// resolved bytecode (spec 4.F: "compiled references" expose bytecode,
// hash, address and page_count of the referenced artifact).
func Field(bytecode []byte, field string) (any, error) {
	switch field {
	case "bytecode":
		return bytecode, nil
	case "hash", "address":
		sum := sha512.Sum512_256(bytecode)
		return sum[:], nil
	case "page_count":
		const pageSize = 2048
		return uint64((len(bytecode) + pageSize - 1) / pageSize), nil
	default:
		return nil, fmt.Errorf("unknown compiled-reference field %q", field)
	}
}
