// Package script executes user code against the engine's API surface. Buffers
// hold the text, the evaluator runs it under commit-on-success discipline so a
// broken edit can never stop playback.
package script

import (
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// Buffer is one editable script. The candidate is the draft text, replaced by
// the surrounding editor; the committed text is the last draft that evaluated
// without error and is what keeps running while the draft is broken. The
// committed text and the evaluation count are mutated only by the evaluator,
// and only on success.
//
// Drafts arrive from the UI goroutine while the evaluator reads on the
// scheduler goroutine, hence the mutex.
type Buffer struct {
	name string

	mu          sync.Mutex
	candidate   string
	committed   string
	evaluations int

	// compiled caches the committed proto, refreshed on commit.
	compiled *lua.FunctionProto
	// failed remembers a candidate that already reported an error, so a
	// broken draft is reported once per edit rather than once per pulse.
	failed string
}

func NewBuffer(name string) *Buffer {
	return &Buffer{name: name}
}

func (b *Buffer) Name() string { return b.name }

// SetCandidate replaces the draft text. A changed draft clears the failure
// note so the next pulse tries it again.
func (b *Buffer) SetCandidate(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if text == b.candidate {
		return
	}
	b.candidate = text
	b.failed = ""
}

func (b *Buffer) Candidate() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.candidate
}

func (b *Buffer) Committed() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committed
}

// Evaluations returns the count of successful runs of a candidate.
func (b *Buffer) Evaluations() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.evaluations
}

// Dirty reports whether the draft differs from the committed text.
func (b *Buffer) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.candidate != b.committed
}

// pending returns the draft when it deserves an evaluation attempt: changed
// since the last commit and not already reported as broken.
func (b *Buffer) pending() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.candidate == b.committed || b.candidate == b.failed {
		return "", false
	}
	return b.candidate, true
}

func (b *Buffer) commit(text string, proto *lua.FunctionProto) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed = text
	b.compiled = proto
	b.evaluations++
}

func (b *Buffer) markFailed(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failed = text
}

func (b *Buffer) committedState() (string, *lua.FunctionProto) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committed, b.compiled
}

func (b *Buffer) setProto(proto *lua.FunctionProto) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.compiled = proto
}
