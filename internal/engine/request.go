package engine

import (
	"github.com/catoptric/catoptric/client-go/internal/backend"
	"github.com/catoptric/catoptric/client-go/internal/binding"
	"github.com/catoptric/catoptric/client-go/internal/equation"
	"github.com/catoptric/catoptric/client-go/internal/geom"
	"github.com/catoptric/catoptric/client-go/internal/session"
)

// requestFrom assembles the wire request: equations resolved against the
// current binding values, the view snapshot, and the numeric settings.
// The scrub offsets (the s and t binding values) shift only the
// transformation pair; the mirror and figure see the raw parameter.
func requestFrom(values map[string]float64, mirror, figure, sigmaTau [2]string, view geom.View, method string, threshold int) backend.Request {
	sOffset := values["s"]
	tOffset := values["t"]

	resolvePair := func(pair [2]string, sOff, tOff float64) [2]string {
		return [2]string{
			equation.Resolve(pair[0], values, sOff, tOff),
			equation.Resolve(pair[1], values, sOff, tOff),
		}
	}

	return backend.Request{
		View:      view,
		Mirror:    resolvePair(mirror, 0, 0),
		Figure:    resolvePair(figure, 0, 0),
		SigmaTau:  resolvePair(sigmaTau, sOffset, tOffset),
		Method:    method,
		Threshold: threshold,
	}
}

// RequestForState builds a one-shot request for a saved session state;
// the export path uses this without spinning up a controller. Variables
// free in the equations but absent from the saved bindings get their
// defaults.
func RequestForState(st session.State, view geom.View, method string, threshold int) backend.Request {
	store := binding.NewStore()
	for _, nb := range st.Bindings {
		store.Replace(nb.Name, nb.Binding)
	}
	for _, text := range []string{
		st.Mirror[0], st.Mirror[1],
		st.Figure[0], st.Figure[1],
		st.SigmaTau[0], st.SigmaTau[1],
	} {
		for _, name := range equation.FreeVariables(text) {
			store.Ensure(name)
		}
	}
	return requestFrom(store.Values(), st.Mirror, st.Figure, st.SigmaTau, view, method, threshold)
}
