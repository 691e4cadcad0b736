// Package engine is the interaction controller: it owns the current view
// and reflection dataset, decides per input event whether to recompute or
// merely redraw, and reconciles out-of-order results from the numeric
// engine.
package engine

import (
	"context"
	"image"
	"log/slog"

	"github.com/catoptric/catoptric/client-go/internal/backend"
	"github.com/catoptric/catoptric/client-go/internal/binding"
	"github.com/catoptric/catoptric/client-go/internal/equation"
	"github.com/catoptric/catoptric/client-go/internal/geom"
	"github.com/catoptric/catoptric/client-go/internal/proximity"
	"github.com/catoptric/catoptric/client-go/internal/render"
	"github.com/catoptric/catoptric/client-go/internal/session"
)

// State is the controller's recompute state. Panning and zooming are not
// states: they only touch the view and never wait on the engine.
type State int

const (
	StateIdle State = iota
	StateComputing
)

// Slot names one of the three equation pairs.
type Slot int

const (
	SlotMirror Slot = iota
	SlotFigure
	SlotSigmaTau
)

const (
	// hoverThreshold is the initial proximity radius in surface pixels.
	hoverThreshold = 12.0
	// wheelDamping converts raw wheel deltas into scale exponent steps.
	wheelDamping = 1.0 / 400.0
)

// PaintScheduler defers drawing to the host's next paint opportunity
// (requestAnimationFrame in the browser, the loop flush in the server
// session). The callback must run on the controller's goroutine.
type PaintScheduler interface {
	SchedulePaint(paint func())
}

// Config wires a controller to its host.
type Config struct {
	Sampler   backend.Sampler
	Scheduler PaintScheduler

	// Deliver posts a closure back onto the controller's goroutine; the
	// sampler round trip is the only work that leaves it.
	Deliver func(func())

	// OnFrame receives each compiled frame.
	OnFrame func(commands []render.DrawCommand)
	// OnSliders receives slider reconciliation patches after edits.
	OnSliders func(patches []binding.SliderPatch)

	// RetainRaster keeps a pixel buffer of the last painted frame for
	// snapshot export.
	RetainRaster bool
}

// Controller implements the interaction state machine. All methods must be
// called from one goroutine; see Config.Deliver.
type Controller struct {
	cfg   Config
	store *binding.Store

	mirror    [2]string
	figure    [2]string
	sigmaTau  [2]string
	method    string
	threshold int
	locked    bool

	view      geom.View
	dataset   *backend.Dataset
	highlight *proximity.Match

	state       State
	latestTag   uint64
	drawPending bool

	dragging bool
	dragLast geom.Point

	frameBuffer *image.RGBA
}

// result carries one resolved compute back to the controller goroutine.
type result struct {
	tag     uint64
	dataset *backend.Dataset
	err     error
}

// New builds a controller with the default session state. Call Start to
// issue the first compute.
func New(cfg Config) *Controller {
	c := &Controller{
		cfg:       cfg,
		store:     binding.NewStore(),
		method:    backend.MethodRasterisation,
		threshold: 1,
		view:      geom.DefaultView(render.SurfaceWidth, render.SurfaceHeight),
	}
	c.applyState(session.DefaultState())
	return c
}

// Start issues the initial compute.
func (c *Controller) Start() {
	c.recompute()
}

// State returns the current recompute state.
func (c *Controller) State() State {
	return c.state
}

// View returns the current view snapshot.
func (c *Controller) View() geom.View {
	return c.view
}

// Dataset returns the most recent successfully computed dataset, which may
// be nil before the first compute resolves.
func (c *Controller) Dataset() *backend.Dataset {
	return c.dataset
}

// Locked reports whether pan/zoom/reset input is disabled (embed mode).
func (c *Controller) Locked() bool {
	return c.locked
}

// Snapshot returns the retained pixel buffer of the last painted frame, if
// raster retention is enabled.
func (c *Controller) Snapshot() *image.RGBA {
	return c.frameBuffer
}

// --- Edits: anything that changes what the engine must compute ---

// SetEquation replaces one component of an equation pair and recomputes.
func (c *Controller) SetEquation(slot Slot, component int, text string) {
	if component < 0 || component > 1 {
		return
	}
	switch slot {
	case SlotMirror:
		c.mirror[component] = text
	case SlotFigure:
		c.figure[component] = text
	case SlotSigmaTau:
		c.sigmaTau[component] = text
	}
	c.reconcileSliders()
	c.recompute()
}

// SetBindingValue moves a slider. Sliders stay live even in locked embeds.
func (c *Controller) SetBindingValue(name string, value float64) {
	c.store.Set(name, value)
	c.recompute()
}

// SetMethod switches the sampling method.
func (c *Controller) SetMethod(method string) {
	switch method {
	case backend.MethodRasterisation, backend.MethodLinear, backend.MethodQuadratic:
		c.method = method
		c.recompute()
	default:
		slog.Warn("ignoring unknown sampling method", "method", method)
	}
}

// SetThreshold adjusts the approximation threshold.
func (c *Controller) SetThreshold(threshold int) {
	if threshold < 1 {
		threshold = 1
	}
	c.threshold = threshold
	c.recompute()
}

// LoadState replaces the whole session (share link load, embed config).
func (c *Controller) LoadState(st session.State) {
	c.applyState(st)
	c.recompute()
}

// SaveState captures the session for persistence or share links.
func (c *Controller) SaveState() session.State {
	st := session.State{
		Mirror:   c.mirror,
		Figure:   c.figure,
		SigmaTau: c.sigmaTau,
		Locked:   c.locked,
	}
	for _, name := range c.store.Names() {
		b, _ := c.store.Get(name)
		st.Bindings = append(st.Bindings, session.NamedBinding{Name: name, Binding: b})
	}
	return st
}

func (c *Controller) applyState(st session.State) {
	c.mirror = st.Mirror
	c.figure = st.Figure
	c.sigmaTau = st.SigmaTau
	c.locked = st.Locked
	for _, nb := range st.Bindings {
		c.store.Replace(nb.Name, nb.Binding)
	}
	c.reconcileSliders()
}

// reconcileSliders diffs the slider list against the variables currently
// free across all equation components.
func (c *Controller) reconcileSliders() {
	var free []string
	seen := make(map[string]bool)
	for _, text := range []string{
		c.mirror[0], c.mirror[1],
		c.figure[0], c.figure[1],
		c.sigmaTau[0], c.sigmaTau[1],
	} {
		for _, name := range equation.FreeVariables(text) {
			if !seen[name] {
				seen[name] = true
				free = append(free, name)
			}
		}
	}

	patches := c.store.Reconcile(free)
	if len(patches) > 0 && c.cfg.OnSliders != nil {
		c.cfg.OnSliders(patches)
	}
}

// --- Gestures: view-only, never recompute ---

// PointerDown begins a drag.
func (c *Controller) PointerDown(pos geom.Point) {
	if c.locked {
		return
	}
	c.dragging = true
	c.dragLast = pos
}

// PointerMove pans while dragging, otherwise runs the hover search against
// the last computed dataset.
func (c *Controller) PointerMove(pos geom.Point) {
	if c.dragging {
		delta := pos.Sub(c.dragLast)
		c.dragLast = pos
		c.view = c.view.Pan(delta.X, delta.Y)
		c.scheduleDraw()
		return
	}

	if c.dataset == nil {
		return
	}
	match, ok := proximity.Find(pos, c.dataset.Correspondences, c.view, hoverThreshold)
	if !ok {
		if c.highlight != nil {
			c.highlight = nil
			c.scheduleDraw()
		}
		return
	}
	c.highlight = &match
	c.scheduleDraw()
}

// PointerUp ends a drag.
func (c *Controller) PointerUp(pos geom.Point) {
	c.dragging = false
}

// Wheel zooms about the pointer with a damped exponential step.
func (c *Controller) Wheel(pos geom.Point, delta float64) {
	if c.locked {
		return
	}
	c.view = c.view.ZoomAboutPointer(pos, -delta*wheelDamping)
	c.scheduleDraw()
}

// DoubleClick resets the view.
func (c *Controller) DoubleClick() {
	if c.locked {
		return
	}
	c.view = geom.DefaultView(render.SurfaceWidth, render.SurfaceHeight)
	c.scheduleDraw()
}

// --- Compute pipeline ---

// recompute tags and issues a fresh engine request. An in-flight request
// is not cancelled; its result becomes stale by tag comparison.
func (c *Controller) recompute() {
	c.latestTag++
	tag := c.latestTag
	req := c.buildRequest()
	c.state = StateComputing

	go func() {
		ds, err := c.cfg.Sampler.SampleReflection(context.Background(), req)
		c.cfg.Deliver(func() {
			c.applyResult(result{tag: tag, dataset: ds, err: err})
		})
	}()
}

func (c *Controller) buildRequest() backend.Request {
	return requestFrom(c.store.Values(), c.mirror, c.figure, c.sigmaTau, c.view, c.method, c.threshold)
}

// applyResult reconciles a resolved compute against the latest issued tag.
// Results may arrive out of request order; only the latest tag wins.
func (c *Controller) applyResult(res result) {
	if res.tag != c.latestTag {
		slog.Debug("dropping stale result", "tag", res.tag, "latest", c.latestTag)
		return
	}

	c.state = StateIdle

	if res.err != nil {
		// Keep the previous frame on screen; the session must survive a
		// failed compute.
		slog.Warn("compute failed, keeping last frame", "error", res.err)
		return
	}

	c.dataset = res.dataset
	c.highlight = nil
	c.scheduleDraw()
}

// --- Drawing ---

// scheduleDraw coalesces redraw requests into at most one pending frame,
// painted at the host's next paint opportunity. Nothing is ever drawn
// synchronously inside an input handler.
func (c *Controller) scheduleDraw() {
	if c.drawPending {
		return
	}
	c.drawPending = true
	c.cfg.Scheduler.SchedulePaint(func() {
		c.drawPending = false
		c.paint()
	})
}

func (c *Controller) paint() {
	commands := render.Compile(c.dataset, c.view, c.highlight)
	if c.cfg.OnFrame != nil {
		c.cfg.OnFrame(commands)
	}
	if c.cfg.RetainRaster {
		// Overwritten wholesale, never patched.
		c.frameBuffer = render.Rasterise(commands, c.view.Width, c.view.Height, 1)
	}
}
