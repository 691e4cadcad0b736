package live

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/catoptric/catoptric/client-go/internal/backend"
	"github.com/catoptric/catoptric/client-go/internal/binding"
	"github.com/catoptric/catoptric/client-go/internal/engine"
	"github.com/catoptric/catoptric/client-go/internal/geom"
	"github.com/catoptric/catoptric/client-go/internal/render"
	"github.com/catoptric/catoptric/client-go/internal/session"
)

// Session binds one websocket client to one controller. The controller is
// single-goroutine: every input event and compute result is posted onto
// the events channel and executed by Run, in arrival order.
type Session struct {
	client *Client
	ctrl   *engine.Controller
	events chan func()
	done   chan struct{}
}

func NewSession(client *Client, sampler backend.Sampler, initial session.State) *Session {
	s := &Session{
		client: client,
		events: make(chan func(), 256),
		done:   make(chan struct{}),
	}
	s.ctrl = engine.New(engine.Config{
		Sampler:   sampler,
		Scheduler: loopScheduler{s},
		Deliver:   s.post,
		OnFrame:   s.sendFrame,
		OnSliders: s.sendSliders,
	})
	s.post(func() { s.ctrl.LoadState(initial) })
	return s
}

// Run executes posted events until the session stops.
func (s *Session) Run(ctx context.Context) {
	for {
		select {
		case f := <-s.events:
			f()
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop terminates the event loop. In-flight compute results for this
// session are delivered to a stopped loop's channel and dropped there.
func (s *Session) Stop() {
	close(s.done)
}

func (s *Session) post(f func()) {
	select {
	case s.events <- f:
	case <-s.done:
	}
}

// Dispatch translates a protocol message into a controller call on the
// session goroutine.
func (s *Session) Dispatch(msg *Message) {
	switch msg.Type {
	case TypePointerDown:
		if p, ok := decode[PointerPayload](msg); ok {
			s.post(func() { s.ctrl.PointerDown(geom.Pt(p.X, p.Y)) })
		}
	case TypePointerMove:
		if p, ok := decode[PointerPayload](msg); ok {
			s.post(func() { s.ctrl.PointerMove(geom.Pt(p.X, p.Y)) })
		}
	case TypePointerUp:
		if p, ok := decode[PointerPayload](msg); ok {
			s.post(func() { s.ctrl.PointerUp(geom.Pt(p.X, p.Y)) })
		}
	case TypeWheel:
		if p, ok := decode[WheelPayload](msg); ok {
			s.post(func() { s.ctrl.Wheel(geom.Pt(p.X, p.Y), p.Delta) })
		}
	case TypeDoubleClick:
		s.post(func() { s.ctrl.DoubleClick() })
	case TypeEquationSet:
		if p, ok := decode[EquationPayload](msg); ok {
			slot, valid := slotFromString(p.Slot)
			if !valid {
				slog.Warn("unknown equation slot", "slot", p.Slot)
				return
			}
			s.post(func() { s.ctrl.SetEquation(slot, p.Component, p.Text) })
		}
	case TypeBindingSet:
		if p, ok := decode[BindingPayload](msg); ok {
			s.post(func() { s.ctrl.SetBindingValue(p.Name, p.Value) })
		}
	case TypeMethodSet:
		if p, ok := decode[MethodPayload](msg); ok {
			s.post(func() { s.ctrl.SetMethod(p.Method) })
		}
	case TypeThreshold:
		if p, ok := decode[ThresholdPayload](msg); ok {
			s.post(func() { s.ctrl.SetThreshold(p.Threshold) })
		}
	case TypeStateLoad:
		st := session.Decode(msg.Payload)
		s.post(func() { s.ctrl.LoadState(st) })
	default:
		slog.Warn("unknown session message type", "type", msg.Type)
	}
}

func decode[T any](msg *Message) (T, bool) {
	var payload T
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		slog.Warn("invalid payload", "type", msg.Type, "error", err)
		return payload, false
	}
	return payload, true
}

func slotFromString(s string) (engine.Slot, bool) {
	switch s {
	case "mirror":
		return engine.SlotMirror, true
	case "figure":
		return engine.SlotFigure, true
	case "sigma_tau":
		return engine.SlotSigmaTau, true
	}
	return 0, false
}

// loopScheduler defers painting to the next event loop turn, after the
// current input batch has drained.
type loopScheduler struct {
	s *Session
}

func (ls loopScheduler) SchedulePaint(paint func()) {
	ls.s.post(paint)
}

func (s *Session) sendFrame(commands []render.DrawCommand) {
	payload, err := json.Marshal(FramePayload{Commands: commands})
	if err != nil {
		slog.Error("marshal frame", "error", err)
		return
	}
	s.client.Send(&Message{Type: TypeFrame, Payload: payload})
}

func (s *Session) sendSliders(patches []binding.SliderPatch) {
	payload, err := json.Marshal(SlidersPayload{Patches: patches})
	if err != nil {
		slog.Error("marshal sliders", "error", err)
		return
	}
	s.client.Send(&Message{Type: TypeSliders, Payload: payload})
}
