package binding

// Store owns every binding created during a session. It is append-only
// with respect to keys: once a variable has been bound its binding is kept
// for the whole session, even when the variable disappears from all
// equations, so re-introducing it restores the prior value. Visibility is
// tracked separately in the slider list.
//
// The store is confined to the controller goroutine and needs no locking.
type Store struct {
	bindings map[string]Binding
	order    []string
	sliders  []Slider
}

// Slider is one entry of the ordered slider list shown to the user.
// Sliders keep their identity and position across equation edits; only
// their visibility toggles.
type Slider struct {
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
}

// PatchOp describes one slider list mutation.
type PatchOp string

const (
	PatchAdd  PatchOp = "add"
	PatchShow PatchOp = "show"
	PatchHide PatchOp = "hide"
)

// SliderPatch is one step of a slider reconciliation diff.
type SliderPatch struct {
	Op   PatchOp `json:"op"`
	Name string  `json:"name"`
}

// NewStore returns a store seeded with the reserved parameter bindings,
// which the engine always needs for the sampling interval and scrub
// offsets.
func NewStore() *Store {
	s := &Store{bindings: make(map[string]Binding)}
	s.Ensure("t")
	s.Ensure("s")
	return s
}

// Get returns the binding for name, if it exists.
func (s *Store) Get(name string) (Binding, bool) {
	b, ok := s.bindings[name]
	return b, ok
}

// Ensure returns the binding for name, creating it from the default table
// on first use.
func (s *Store) Ensure(name string) Binding {
	if b, ok := s.bindings[name]; ok {
		return b
	}
	b := DefaultFor(name)
	s.bindings[name] = b
	s.order = append(s.order, name)
	return b
}

// Set updates the value of a binding, clamped into its range. The binding
// is created first if absent.
func (s *Store) Set(name string, value float64) Binding {
	b := s.Ensure(name)
	b.Value = value
	b = b.Clamped()
	s.bindings[name] = b
	return b
}

// Replace installs a fully specified binding, e.g. one decoded from a
// persisted session.
func (s *Store) Replace(name string, b Binding) {
	if _, ok := s.bindings[name]; !ok {
		s.order = append(s.order, name)
	}
	s.bindings[name] = b.Clamped()
}

// Names returns all binding names in creation order.
func (s *Store) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Values returns the current value of every binding, keyed by name.
func (s *Store) Values() map[string]float64 {
	out := make(map[string]float64, len(s.bindings))
	for name, b := range s.bindings {
		out[name] = b.Value
	}
	return out
}

// Sliders returns a copy of the ordered slider list.
func (s *Store) Sliders() []Slider {
	out := make([]Slider, len(s.sliders))
	copy(out, s.sliders)
	return out
}

// Reconcile diffs the slider list against the set of variables currently
// free in the equations. Existing sliders are patched in place, so their
// identity and ordering survive edits; only genuinely new names are
// appended.
// The returned patches describe the minimal mutation for the UI layer.
func (s *Store) Reconcile(free []string) []SliderPatch {
	want := make(map[string]bool, len(free))
	for _, name := range free {
		if name == "s" || name == "t" {
			continue
		}
		want[name] = true
	}

	var patches []SliderPatch
	for i := range s.sliders {
		sl := &s.sliders[i]
		switch {
		case want[sl.Name] && !sl.Visible:
			sl.Visible = true
			patches = append(patches, SliderPatch{Op: PatchShow, Name: sl.Name})
		case !want[sl.Name] && sl.Visible:
			sl.Visible = false
			patches = append(patches, SliderPatch{Op: PatchHide, Name: sl.Name})
		}
		delete(want, sl.Name)
	}

	for _, name := range free {
		if !want[name] {
			continue
		}
		s.Ensure(name)
		s.sliders = append(s.sliders, Slider{Name: name, Visible: true})
		patches = append(patches, SliderPatch{Op: PatchAdd, Name: name})
	}
	return patches
}
