//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"syscall/js"

	"github.com/catoptric/catoptric/client-go/internal/backend"
	"github.com/catoptric/catoptric/client-go/internal/binding"
	"github.com/catoptric/catoptric/client-go/internal/engine"
	"github.com/catoptric/catoptric/client-go/internal/geom"
	"github.com/catoptric/catoptric/client-go/internal/render"
	"github.com/catoptric/catoptric/client-go/internal/session"
)

// events is the controller goroutine's inbox. Every exported JS entry
// point posts a closure here instead of touching the controller directly.
var events = make(chan func(), 256)

var ctrl *engine.Controller

// rafScheduler defers painting to the browser's next animation frame. The
// paint closure is bounced back through the event channel so it runs on
// the controller goroutine.
type rafScheduler struct{}

func (rafScheduler) SchedulePaint(paint func()) {
	var cb js.Func
	cb = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		cb.Release()
		events <- paint
		return nil
	})
	js.Global().Call("requestAnimationFrame", cb)
}

// jsSampler bridges to the numeric engine loaded alongside this module.
// The global catoptricSample function takes the request JSON and returns
// the response body as a string; an empty string signals an engine error.
type jsSampler struct{}

func (jsSampler) SampleReflection(ctx context.Context, req backend.Request) (*backend.Dataset, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	fn := js.Global().Get("catoptricSample")
	if fn.Type() != js.TypeFunction {
		return nil, fmt.Errorf("numeric engine not loaded")
	}
	body := fn.Invoke(string(data)).String()

	return backend.ParseDataset([]byte(body))
}

func main() {
	ctrl = engine.New(engine.Config{
		Sampler:   jsSampler{},
		Scheduler: rafScheduler{},
		Deliver:   func(fn func()) { events <- fn },
		OnFrame:   emitFrame,
		OnSliders: emitSliders,
	})

	catoptricEngine := js.Global().Get("Object").New()

	// --- Edits ---
	catoptricEngine.Set("setEquation", js.FuncOf(setEquation))
	catoptricEngine.Set("setBinding", js.FuncOf(setBinding))
	catoptricEngine.Set("setMethod", js.FuncOf(setMethod))
	catoptricEngine.Set("setThreshold", js.FuncOf(setThreshold))

	// --- Gestures ---
	catoptricEngine.Set("pointerDown", js.FuncOf(pointerDown))
	catoptricEngine.Set("pointerMove", js.FuncOf(pointerMove))
	catoptricEngine.Set("pointerUp", js.FuncOf(pointerUp))
	catoptricEngine.Set("wheel", js.FuncOf(wheel))
	catoptricEngine.Set("doubleClick", js.FuncOf(doubleClick))

	// --- Session ---
	catoptricEngine.Set("loadState", js.FuncOf(loadState))
	catoptricEngine.Set("saveState", js.FuncOf(saveState))

	// Register on global scope
	js.Global().Set("catoptricEngine", catoptricEngine)

	// An embed host sets catoptricEmbedState before loading the module.
	initial := session.DefaultState()
	if raw := js.Global().Get("catoptricEmbedState"); raw.Type() == js.TypeString {
		initial = session.Decode([]byte(raw.String()))
	}

	events <- func() {
		ctrl.LoadState(initial)
	}

	// Signal that WASM is ready
	js.Global().Set("catoptricWasmReady", js.ValueOf(true))

	// Controller loop; also keeps the Go runtime alive
	for fn := range events {
		fn()
	}
}

// --- Outputs (backend → frontend) ---

func emitFrame(commands []render.DrawCommand) {
	out, err := render.CommandsToJSON(commands)
	if err != nil {
		return
	}
	fn := js.Global().Get("catoptricOnFrame")
	if fn.Type() == js.TypeFunction {
		fn.Invoke(out)
	}
}

func emitSliders(patches []binding.SliderPatch) {
	data, err := json.Marshal(patches)
	if err != nil {
		return
	}
	fn := js.Global().Get("catoptricOnSliders")
	if fn.Type() == js.TypeFunction {
		fn.Invoke(string(data))
	}
}

// --- Edit Handlers ---

func setEquation(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(map[string]interface{}{"error": "missing slot, component or text"})
	}
	slot, ok := slotFromString(args[0].String())
	if !ok {
		return js.ValueOf(map[string]interface{}{"error": "unknown slot"})
	}
	component := args[1].Int()
	text := args[2].String()

	events <- func() { ctrl.SetEquation(slot, component, text) }
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func setBinding(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	name := args[0].String()
	value := args[1].Float()

	events <- func() { ctrl.SetBindingValue(name, value) }
	return nil
}

func setMethod(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	method := args[0].String()
	events <- func() { ctrl.SetMethod(method) }
	return nil
}

func setThreshold(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	threshold := args[0].Int()
	events <- func() { ctrl.SetThreshold(threshold) }
	return nil
}

// --- Gesture Handlers ---

func pointerDown(this js.Value, args []js.Value) interface{} {
	if p, ok := pointArg(args); ok {
		events <- func() { ctrl.PointerDown(p) }
	}
	return nil
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if p, ok := pointArg(args); ok {
		events <- func() { ctrl.PointerMove(p) }
	}
	return nil
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	if p, ok := pointArg(args); ok {
		events <- func() { ctrl.PointerUp(p) }
	}
	return nil
}

func wheel(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	p := geom.Pt(args[0].Float(), args[1].Float())
	delta := args[2].Float()
	events <- func() { ctrl.Wheel(p, delta) }
	return nil
}

func doubleClick(this js.Value, args []js.Value) interface{} {
	events <- func() { ctrl.DoubleClick() }
	return nil
}

// --- Session Handlers ---

func loadState(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing state JSON"})
	}
	st := session.Decode([]byte(args[0].String()))

	events <- func() { ctrl.LoadState(st) }
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// saveState round-trips through the controller goroutine so the captured
// state is consistent with any edits already queued ahead of it.
func saveState(this js.Value, args []js.Value) interface{} {
	out := make(chan string, 1)
	events <- func() {
		data, err := session.Encode(ctrl.SaveState())
		if err != nil {
			out <- ""
			return
		}
		out <- string(data)
	}
	return js.ValueOf(<-out)
}

func slotFromString(s string) (engine.Slot, bool) {
	switch strings.ToLower(s) {
	case "mirror":
		return engine.SlotMirror, true
	case "figure":
		return engine.SlotFigure, true
	case "sigma_tau", "sigmatau":
		return engine.SlotSigmaTau, true
	}
	return 0, false
}

func pointArg(args []js.Value) (geom.Point, bool) {
	if len(args) < 2 {
		return geom.Point{}, false
	}
	return geom.Pt(args[0].Float(), args[1].Float()), true
}
