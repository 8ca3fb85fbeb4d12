package script

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/endrorytm/Topos/internal/clock"
	"github.com/endrorytm/Topos/internal/output"
	"github.com/endrorytm/Topos/internal/seq"
)

// ErrorSink receives script faults. Reports are transient display material,
// not control flow: the engine has already recovered by the time one arrives.
type ErrorSink interface {
	Report(err error)
}

// EvalError wraps a fault raised by a script buffer.
type EvalError struct {
	Buffer string
	Err    error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("script %q: %v", e.Buffer, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Evaluator runs buffer text in a persistent Lua state whose globals are the
// engine API. The state, the registry, and Lua-side globals survive across
// evaluations; only the per-call transient context (current pulse, boundary
// timestamp) is rebound before each run.
//
// All evaluation happens on the scheduler goroutine.
type Evaluator struct {
	L *lua.LState

	clock  *clock.Clock
	source clock.TimeSource
	reg    *seq.Registry
	sink   output.Sink
	errs   ErrorSink
	logger *log.Logger

	locals map[string]*Buffer

	// transient, rebound at every pulse boundary
	pulse int
	at    float64

	// lastPulse is the previous boundary, for rewind detection. The
	// scheduler fires each boundary exactly once in strictly increasing
	// order, so a boundary at or behind this one means stop then start.
	lastPulse int
}

func NewEvaluator(c *clock.Clock, source clock.TimeSource, reg *seq.Registry, sink output.Sink, errs ErrorSink, logger *log.Logger) *Evaluator {
	if logger == nil {
		logger = log.Default()
	}
	e := &Evaluator{
		L:         lua.NewState(),
		clock:     c,
		source:    source,
		reg:       reg,
		sink:      sink,
		errs:      errs,
		logger:    logger,
		locals:    make(map[string]*Buffer),
		lastPulse: -1,
	}
	e.bind()
	return e
}

// Close releases the Lua state.
func (e *Evaluator) Close() {
	e.L.Close()
}

// RegisterLocal adds a buffer invocable by name from scripts via run(), or
// from the application via EvaluateLocal. Local buffers never run on the
// periodic tick.
func (e *Evaluator) RegisterLocal(b *Buffer) {
	e.locals[b.Name()] = b
}

// Pulse processes one boundary for the global buffer: rebind the transient
// context, try a changed candidate once, and keep the committed text running
// regardless of the candidate's fate.
func (e *Evaluator) Pulse(b *Buffer, pulse int, at float64) {
	if pulse <= e.lastPulse {
		// The counter was rewound by a stop, even one so early that the
		// cursors' own rewind check cannot see it. Patterns forget their
		// place; counters keep theirs until counter_clear.
		e.reg.RewindPatterns()
	}
	e.lastPulse = pulse
	e.pulse = pulse
	e.at = at

	if text, try := b.pending(); try {
		if e.evaluate(b, text) == nil {
			return
		}
		// Fault reported; fall through to the committed text.
	}
	if err := e.runCommitted(b); err != nil {
		// A committed script can still fail at runtime (state-dependent
		// paths). Report it, keep the clock running.
		e.report(b, err)
	}
}

// Evaluate runs the buffer's current candidate text once, on explicit
// request. On success the candidate is committed and the evaluation count
// incremented; on failure nothing is touched and the fault goes to the error
// sink, exactly once per failing evaluation.
func (e *Evaluator) Evaluate(b *Buffer) error {
	return e.evaluate(b, b.Candidate())
}

func (e *Evaluator) evaluate(b *Buffer, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	proto, err := e.compile(text, b.Name())
	if err == nil {
		err = e.call(proto)
	}
	if err != nil {
		b.markFailed(text)
		e.report(b, err)
		return err
	}
	b.commit(text, proto)
	return nil
}

// EvaluateLocal runs a registered local buffer on explicit request.
func (e *Evaluator) EvaluateLocal(name string) error {
	b, ok := e.locals[name]
	if !ok {
		err := fmt.Errorf("no local buffer %q", name)
		e.errs.Report(err)
		return err
	}
	return e.Evaluate(b)
}

func (e *Evaluator) runCommitted(b *Buffer) error {
	src, proto := b.committedState()
	if src == "" {
		return nil
	}
	if proto == nil {
		var err error
		proto, err = e.compile(src, b.Name())
		if err != nil {
			return err
		}
		b.setProto(proto)
	}
	return e.call(proto)
}

func (e *Evaluator) compile(src, name string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(strings.NewReader(src), name)
	if err != nil {
		return nil, err
	}
	return lua.Compile(chunk, name)
}

func (e *Evaluator) call(proto *lua.FunctionProto) error {
	e.L.Push(e.L.NewFunctionFromProto(proto))
	return e.L.PCall(0, 0, nil)
}

func (e *Evaluator) report(b *Buffer, err error) {
	e.errs.Report(&EvalError{Buffer: b.Name(), Err: err})
}
