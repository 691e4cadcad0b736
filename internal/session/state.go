// Package session defines the shareable session state (equations,
// bindings and the embed lock), its tolerant wire encoding, and the
// storage service for saved shares.
package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/catoptric/catoptric/client-go/internal/binding"
)

// State is everything needed to restore a visualization session. It is
// what share links carry and what the embed configuration accepts.
type State struct {
	Mirror   [2]string      `json:"mirror"`
	Figure   [2]string      `json:"figure"`
	SigmaTau [2]string      `json:"sigma_tau"`
	Bindings []NamedBinding `json:"bindings"`
	Locked   bool           `json:"locked"`
}

// NamedBinding is one persisted binding; its wire form is the pair
// ["name", {value, min, max, step}].
type NamedBinding struct {
	Name    string
	Binding binding.Binding
}

// DefaultState returns the state of a fresh session: a parabola mirror, a
// straight figure line with one generic variable, and the distinguished
// transformation variables in the scaling/translation pair.
func DefaultState() State {
	return State{
		Mirror:   [2]string{"t", "(t/10)^2"},
		Figure:   [2]string{"t", "x"},
		SigmaTau: [2]string{"σ*s", "t+τ"},
	}
}

// Encode serialises a state for persistence or share links.
func Encode(st State) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode session state: %w", err)
	}
	return data, nil
}

// Decode restores a state from its wire form. Decoding never fails: a
// malformed document degrades field by field to the defaults, so a broken
// share link still opens a working session.
func Decode(data []byte) State {
	st := DefaultState()

	var raw struct {
		Mirror   *[2]string        `json:"mirror"`
		Figure   *[2]string        `json:"figure"`
		SigmaTau *[2]string        `json:"sigma_tau"`
		Bindings []json.RawMessage `json:"bindings"`
		Locked   bool              `json:"locked"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("malformed session state, using defaults", "error", err)
		return st
	}

	if raw.Mirror != nil {
		st.Mirror = *raw.Mirror
	}
	if raw.Figure != nil {
		st.Figure = *raw.Figure
	}
	if raw.SigmaTau != nil {
		st.SigmaTau = *raw.SigmaTau
	}
	st.Locked = raw.Locked

	for _, entry := range raw.Bindings {
		nb, ok := decodeNamedBinding(entry)
		if !ok {
			slog.Warn("skipping malformed binding entry")
			continue
		}
		st.Bindings = append(st.Bindings, nb)
	}
	return st
}

// MarshalJSON encodes the pair-array form.
func (nb NamedBinding) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{nb.Name, nb.Binding})
}

// UnmarshalJSON decodes the pair-array form, repairing invalid numeric
// fields.
func (nb *NamedBinding) UnmarshalJSON(data []byte) error {
	decoded, ok := decodeNamedBinding(data)
	if !ok {
		return fmt.Errorf("decode binding pair")
	}
	*nb = decoded
	return nil
}

func decodeNamedBinding(data []byte) (NamedBinding, bool) {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil || len(pair) != 2 {
		return NamedBinding{}, false
	}

	var name string
	if err := json.Unmarshal(pair[0], &name); err != nil || name == "" {
		return NamedBinding{}, false
	}

	var fields struct {
		Value json.RawMessage `json:"value"`
		Min   json.RawMessage `json:"min"`
		Max   json.RawMessage `json:"max"`
		Step  json.RawMessage `json:"step"`
	}
	if err := json.Unmarshal(pair[1], &fields); err != nil {
		return NamedBinding{Name: name, Binding: binding.DefaultBinding}, true
	}

	value, okValue := parseNumber(fields.Value)
	min, okMin := parseNumber(fields.Min)
	max, okMax := parseNumber(fields.Max)
	step, okStep := parseNumber(fields.Step)

	return NamedBinding{Name: name, Binding: repairBinding(
		value, okValue, min, okMin, max, okMax, step, okStep,
	)}, true
}

// repairBinding rebuilds a binding from whichever numeric fields survived
// decoding. All four unparseable gives the full default; otherwise missing
// bounds are derived by mirroring the present one about zero, the value is
// clamped into range, and a non-positive or missing step is derived from
// the resulting span.
func repairBinding(value float64, okValue bool, min float64, okMin bool, max float64, okMax bool, step float64, okStep bool) binding.Binding {
	if !okValue && !okMin && !okMax && !okStep {
		return binding.DefaultBinding
	}

	switch {
	case !okMin && !okMax:
		min, max = binding.DefaultBinding.Min, binding.DefaultBinding.Max
	case !okMin:
		min = -math.Abs(max)
	case !okMax:
		max = math.Abs(min)
	}
	if min > max {
		min, max = max, min
	}
	if min == max {
		min, max = binding.DefaultBinding.Min, binding.DefaultBinding.Max
	}

	if !okValue {
		value = 0
	}

	if !okStep || step <= 0 {
		step = (max - min) / 512
	}

	b := binding.Binding{Value: value, Min: min, Max: max, Step: step}
	return b.Clamped()
}

// parseNumber accepts a JSON number or a finite numeric string; anything
// else is invalid. strconv.ParseFloat admits "NaN" and "Inf", which would
// poison the min/max/step arithmetic downstream, so non-finite values are
// rejected here.
func parseNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, isFinite(f)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, isFinite(f)
		}
	}
	return 0, false
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
