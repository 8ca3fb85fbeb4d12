package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/endrorytm/Topos/internal/output"
	"github.com/endrorytm/Topos/internal/rhythm"
)

// Script-facing defaults. Velocity is MIDI-style, duration is in beats and
// pattern durations in whole-note units (0.25 = one beat at 4/4).
const (
	defaultVelocity = 100
	defaultGate     = 0.5
	defaultPatDur   = 0.25
)

// bind installs the engine API as Lua globals. Everything a script can touch
// goes through here; there is no other capability surface.
func (e *Evaluator) bind() {
	fns := map[string]lua.LGFunction{
		"bpm":            e.luaBPM,
		"ppqn":           e.luaPPQN,
		"time_signature": e.luaTimeSignature,
		"bar":            e.luaBar,
		"beat":           e.luaBeat,
		"pulse":          e.luaPulse,
		"ebeat":          e.luaEBeat,
		"epulse":         e.luaEPulse,
		"time":           e.luaTime,

		"mod":    e.luaMod,
		"div":    e.luaDiv,
		"divbar": e.luaDivBar,
		"onbar":  e.luaOnBar,
		"onbeat": e.luaOnBeat,
		"euclid": e.luaEuclid,
		"bin":    e.luaBin,

		"counter":       e.luaCounter,
		"counter_reset": e.luaCounterReset,
		"counter_del":   e.luaCounterDel,
		"counter_clear": e.luaCounterClear,
		"drunk":         e.luaDrunk,
		"drunk_pos":     e.luaDrunkPos,
		"drunk_set":     e.luaDrunkSet,
		"drunk_range":   e.luaDrunkRange,
		"pattern":       e.luaPattern,

		"note": e.luaNote,
		"hush": e.luaHush,
		"run":  e.luaRun,
		"log":  e.luaLog,
	}
	for name, fn := range fns {
		e.L.SetGlobal(name, e.L.NewFunction(fn))
	}
}

// state is the clock position the gates read: the boundary being processed,
// never a counter of their own.
func (e *Evaluator) state() rhythm.State {
	snap := e.clock.Snapshot()
	return rhythm.State{
		Pulses:      e.pulse,
		PPQN:        snap.PPQN,
		BeatsPerBar: snap.BeatsPerBar,
	}
}

func (e *Evaluator) luaBPM(L *lua.LState) int {
	if L.GetTop() >= 1 {
		e.clock.SetBPM(float64(L.CheckNumber(1)))
	}
	L.Push(lua.LNumber(e.clock.BPM()))
	return 1
}

func (e *Evaluator) luaPPQN(L *lua.LState) int {
	if L.GetTop() >= 1 {
		e.clock.SetPPQN(L.CheckInt(1))
	}
	L.Push(lua.LNumber(e.clock.PPQN()))
	return 1
}

func (e *Evaluator) luaTimeSignature(L *lua.LState) int {
	if L.GetTop() >= 2 {
		e.clock.SetTimeSignature(L.CheckInt(1), L.CheckInt(2))
	}
	num, den := e.clock.TimeSignature()
	L.Push(lua.LNumber(num))
	L.Push(lua.LNumber(den))
	return 2
}

func (e *Evaluator) luaBar(L *lua.LState) int {
	st := e.state()
	L.Push(lua.LNumber(st.Bar()))
	return 1
}

func (e *Evaluator) luaBeat(L *lua.LState) int {
	st := e.state()
	L.Push(lua.LNumber(st.Beat()))
	return 1
}

func (e *Evaluator) luaPulse(L *lua.LState) int {
	st := e.state()
	L.Push(lua.LNumber(st.Pulses % st.PPQN))
	return 1
}

func (e *Evaluator) luaEBeat(L *lua.LState) int {
	st := e.state()
	L.Push(lua.LNumber(st.Pulses/st.PPQN + 1))
	return 1
}

func (e *Evaluator) luaEPulse(L *lua.LState) int {
	L.Push(lua.LNumber(e.pulse))
	return 1
}

func (e *Evaluator) luaTime(L *lua.LState) int {
	L.Push(lua.LNumber(e.source.Now()))
	return 1
}

func (e *Evaluator) luaMod(L *lua.LState) int {
	beats := make([]float64, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		beats = append(beats, float64(L.CheckNumber(i)))
	}
	L.Push(lua.LBool(rhythm.Mod(e.state(), beats...)))
	return 1
}

func (e *Evaluator) luaDiv(L *lua.LState) int {
	L.Push(lua.LBool(rhythm.Div(e.state(), float64(L.CheckNumber(1)))))
	return 1
}

func (e *Evaluator) luaDivBar(L *lua.LState) int {
	L.Push(lua.LBool(rhythm.DivBar(e.state(), L.CheckInt(1))))
	return 1
}

func (e *Evaluator) luaOnBar(L *lua.LState) int {
	n := L.CheckInt(1)
	bars := make([]int, 0, L.GetTop()-1)
	for i := 2; i <= L.GetTop(); i++ {
		bars = append(bars, L.CheckInt(i))
	}
	L.Push(lua.LBool(rhythm.OnBar(e.state(), n, bars...)))
	return 1
}

func (e *Evaluator) luaOnBeat(L *lua.LState) int {
	beats := make([]float64, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		beats = append(beats, float64(L.CheckNumber(i)))
	}
	L.Push(lua.LBool(rhythm.OnBeat(e.state(), beats...)))
	return 1
}

func (e *Evaluator) luaEuclid(L *lua.LState) int {
	i := L.CheckInt(1)
	hits := L.CheckInt(2)
	length := L.CheckInt(3)
	rotate := L.OptInt(4, 0)
	L.Push(lua.LBool(rhythm.Euclid(i, hits, length, rotate)))
	return 1
}

func (e *Evaluator) luaBin(L *lua.LState) int {
	L.Push(lua.LBool(rhythm.Bin(L.CheckInt(1), L.CheckInt(2))))
	return 1
}

func (e *Evaluator) luaCounter(L *lua.LState) int {
	name := L.CheckString(1)
	hasLimit := L.GetTop() >= 2 && L.Get(2) != lua.LNil
	limit := 0
	if hasLimit {
		limit = L.CheckInt(2)
	}
	step := L.OptInt(3, 1)
	L.Push(lua.LNumber(e.reg.Counter(name, limit, step, hasLimit)))
	return 1
}

func (e *Evaluator) luaCounterReset(L *lua.LState) int {
	e.reg.ResetCounter(L.CheckString(1))
	return 0
}

func (e *Evaluator) luaCounterDel(L *lua.LState) int {
	e.reg.DeleteCounter(L.CheckString(1))
	return 0
}

func (e *Evaluator) luaCounterClear(L *lua.LState) int {
	e.reg.Clear()
	return 0
}

func (e *Evaluator) luaDrunk(L *lua.LState) int {
	by := L.OptInt(1, 1)
	L.Push(lua.LNumber(e.reg.Drunk().Step(by)))
	return 1
}

func (e *Evaluator) luaDrunkPos(L *lua.LState) int {
	L.Push(lua.LNumber(e.reg.Drunk().Position()))
	return 1
}

func (e *Evaluator) luaDrunkSet(L *lua.LState) int {
	e.reg.Drunk().SetPosition(L.CheckInt(1))
	return 0
}

func (e *Evaluator) luaDrunkRange(L *lua.LState) int {
	min := L.CheckInt(1)
	max := L.CheckInt(2)
	wrap := L.OptBool(3, false)
	e.reg.Drunk().SetRange(min, max, wrap)
	return 0
}

// luaPattern queries a duration-aware cursor: pattern("bass", {36, 39, 43},
// 0.25) returns the due element or nil when the cursor signals a skip.
// Durations may be a single number or a per-element table, in whole-note
// units.
func (e *Evaluator) luaPattern(L *lua.LState) int {
	name := L.CheckString(1)
	tbl := L.CheckTable(2)
	values := make([]float64, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		values = append(values, float64(lua.LVAsNumber(tbl.RawGetInt(i))))
	}

	durs := []float64{defaultPatDur}
	if L.GetTop() >= 3 {
		switch v := L.Get(3).(type) {
		case lua.LNumber:
			durs = []float64{float64(v)}
		case *lua.LTable:
			durs = durs[:0]
			for i := 1; i <= v.Len(); i++ {
				durs = append(durs, float64(lua.LVAsNumber(v.RawGetInt(i))))
			}
		}
	}

	snap := e.clock.Snapshot()
	p := e.reg.Pattern(name, values, durs)
	val, due := p.Query(e.pulse, snap.BPM, snap.PPQN)
	if !due {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(val))
	return 1
}

// luaNote emits one event at the boundary's precomputed timestamp:
// note(key [, velocity [, channel [, duration-in-beats]]]).
func (e *Evaluator) luaNote(L *lua.LState) int {
	key := L.CheckInt(1)
	vel := L.OptInt(2, defaultVelocity)
	ch := L.OptInt(3, 1)
	durBeats := float64(L.OptNumber(4, defaultGate))

	snap := e.clock.Snapshot()
	ev := output.Event{
		When:     e.at,
		Channel:  uint8(clampInt(ch-1, 0, 15)),
		Key:      uint8(clampInt(key, 0, 127)),
		Velocity: uint8(clampInt(vel, 0, 127)),
		Duration: durBeats * 60.0 / snap.BPM,
	}
	if err := e.sink.Send(ev); err != nil {
		e.logger.Error("event rejected by sink", "err", err)
	}
	return 0
}

func (e *Evaluator) luaHush(L *lua.LState) int {
	if err := e.sink.Silence(); err != nil {
		e.logger.Error("hush failed", "err", err)
	}
	return 0
}

// luaRun invokes a registered local buffer by name. Local buffers only run on
// explicit request, never on the periodic tick.
func (e *Evaluator) luaRun(L *lua.LState) int {
	name := L.CheckString(1)
	_ = e.EvaluateLocal(name)
	return 0
}

func (e *Evaluator) luaLog(L *lua.LState) int {
	e.logger.Info("script", "msg", L.CheckString(1))
	return 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
