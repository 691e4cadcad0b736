// Package binding holds the per-variable slider state feeding the numeric
// engine: a persistent (value, min, max, step) tuple per variable name.
package binding

// Binding is the slider state for one variable. Invariants: Min <= Value
// <= Max and Step > 0.
type Binding struct {
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Step  float64 `json:"step"`
}

// Distinguished variables carry Greek-letter names and transformation
// specific defaults. σ is the scaling factor of the transformation; it
// defaults to -1 because plain reflection is the common case. τ is the
// translation (glide) along the mirror. The reserved parameters s and t
// are bindings too: their ranges drive the sampling interval and their
// values act as scrub offsets.
var specialDefaults = map[string]Binding{
	"σ": {Value: -1, Min: -2, Max: 2, Step: 0.1},
	"τ": {Value: 0, Min: -2, Max: 2, Step: 0.1},
	"s": {Value: 0, Min: -256, Max: 256, Step: 1},
	"t": {Value: 0, Min: -256, Max: 256, Step: 1},
}

// DefaultBinding is the fallback for generic (Latin-letter) variables and
// for session fields that fail to decode.
var DefaultBinding = Binding{Value: 0, Min: -256, Max: 256, Step: 1}

// DefaultFor returns the default binding for a variable name.
func DefaultFor(name string) Binding {
	if b, ok := specialDefaults[name]; ok {
		return b
	}
	return DefaultBinding
}

// Clamped returns the binding with its value clamped into [Min, Max].
func (b Binding) Clamped() Binding {
	if b.Value < b.Min {
		b.Value = b.Min
	}
	if b.Value > b.Max {
		b.Value = b.Max
	}
	return b
}
