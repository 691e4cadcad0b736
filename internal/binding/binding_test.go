package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFor(t *testing.T) {
	assert.Equal(t, Binding{Value: -1, Min: -2, Max: 2, Step: 0.1}, DefaultFor("σ"))
	assert.Equal(t, Binding{Value: 0, Min: -2, Max: 2, Step: 0.1}, DefaultFor("τ"))
	assert.Equal(t, Binding{Value: 0, Min: -256, Max: 256, Step: 1}, DefaultFor("s"))
	assert.Equal(t, DefaultBinding, DefaultFor("x"))
}

func TestClamped(t *testing.T) {
	b := Binding{Value: 10, Min: -2, Max: 2, Step: 0.1}
	assert.Equal(t, 2.0, b.Clamped().Value)

	b.Value = -10
	assert.Equal(t, -2.0, b.Clamped().Value)

	b.Value = 1
	assert.Equal(t, 1.0, b.Clamped().Value)
}

func TestStoreSeedsReservedParameters(t *testing.T) {
	s := NewStore()

	for _, name := range []string{"s", "t"} {
		b, ok := s.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, DefaultFor(name), b)
	}
	// Seeded bindings do not become sliders.
	assert.Empty(t, s.Sliders())
}

func TestStoreSetClampsAndCreates(t *testing.T) {
	s := NewStore()

	b := s.Set("σ", 100)
	assert.Equal(t, 2.0, b.Value)

	b = s.Set("x", -3)
	assert.Equal(t, -3.0, b.Value)
}

// Once a variable has been bound, its binding survives even when the
// variable disappears from every equation.
func TestStoreIsAppendOnly(t *testing.T) {
	s := NewStore()

	s.Reconcile([]string{"x"})
	s.Set("x", 42)
	s.Reconcile(nil) // x removed from the equations

	b, ok := s.Get("x")
	require.True(t, ok)
	assert.Equal(t, 42.0, b.Value)

	// Re-introducing x restores the prior value and the prior slider.
	patches := s.Reconcile([]string{"x"})
	assert.Equal(t, []SliderPatch{{Op: PatchShow, Name: "x"}}, patches)
	b, _ = s.Get("x")
	assert.Equal(t, 42.0, b.Value)
}

func TestReconcilePreservesSliderIdentity(t *testing.T) {
	s := NewStore()

	patches := s.Reconcile([]string{"a", "b"})
	assert.Equal(t, []SliderPatch{
		{Op: PatchAdd, Name: "a"},
		{Op: PatchAdd, Name: "b"},
	}, patches)

	// Dropping a hides it in place; b keeps its slot.
	patches = s.Reconcile([]string{"b"})
	assert.Equal(t, []SliderPatch{{Op: PatchHide, Name: "a"}}, patches)
	assert.Equal(t, []Slider{
		{Name: "a", Visible: false},
		{Name: "b", Visible: true},
	}, s.Sliders())

	// A new variable appends after the existing entries.
	patches = s.Reconcile([]string{"b", "c"})
	assert.Equal(t, []SliderPatch{{Op: PatchAdd, Name: "c"}}, patches)
	assert.Equal(t, []Slider{
		{Name: "a", Visible: false},
		{Name: "b", Visible: true},
		{Name: "c", Visible: true},
	}, s.Sliders())
}

func TestReconcileSkipsReservedParameters(t *testing.T) {
	s := NewStore()
	patches := s.Reconcile([]string{"s", "t", "x"})
	assert.Equal(t, []SliderPatch{{Op: PatchAdd, Name: "x"}}, patches)
}

func TestReconcileNoChangeNoPatches(t *testing.T) {
	s := NewStore()
	s.Reconcile([]string{"x"})
	assert.Empty(t, s.Reconcile([]string{"x"}))
}

func TestStoreValues(t *testing.T) {
	s := NewStore()
	s.Set("x", 3)

	values := s.Values()
	assert.Equal(t, 3.0, values["x"])
	assert.Contains(t, values, "s")
	assert.Contains(t, values, "t")
}
