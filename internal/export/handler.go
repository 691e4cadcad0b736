// Package export renders a saved session state into a downloadable PNG
// frame, server-side, without an interactive session.
package export

import (
	"encoding/json"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"strings"

	"github.com/catoptric/catoptric/client-go/internal/backend"
	"github.com/catoptric/catoptric/client-go/internal/engine"
	"github.com/catoptric/catoptric/client-go/internal/geom"
	"github.com/catoptric/catoptric/client-go/internal/render"
	"github.com/catoptric/catoptric/client-go/internal/session"
)

const maxRequestSize = 1 << 20 // 1MB

type Handler struct {
	sampler backend.Sampler
}

func NewHandler(sampler backend.Sampler) *Handler {
	return &Handler{sampler: sampler}
}

type frameRequest struct {
	Name             string          `json:"name"`
	State            json.RawMessage `json:"state"`
	View             *geom.View      `json:"view"`
	Method           string          `json:"method"`
	Threshold        int             `json:"threshold"`
	DevicePixelRatio float64         `json:"devicePixelRatio"`
}

// ExportFrame handles POST /export/frame.
func (h *Handler) ExportFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	var req frameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	view := geom.DefaultView(render.SurfaceWidth, render.SurfaceHeight)
	if req.View != nil {
		view = *req.View
		// The logical surface size is fixed; only origin and scale are
		// caller-controlled.
		view.Width = render.SurfaceWidth
		view.Height = render.SurfaceHeight
	}

	method := req.Method
	if method == "" {
		method = backend.MethodRasterisation
	}
	threshold := req.Threshold
	if threshold < 1 {
		threshold = 1
	}
	dpr := req.DevicePixelRatio
	if dpr < 1 {
		dpr = 1
	}
	if dpr > 4 {
		dpr = 4
	}

	name := req.Name
	if name == "" {
		name = "reflection"
	}
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)

	st := session.Decode(req.State)
	ds, err := h.sampler.SampleReflection(r.Context(), engine.RequestForState(st, view, method, threshold))
	if err != nil {
		slog.Error("export compute failed", "error", err)
		http.Error(w, "numeric engine failed", http.StatusBadGateway)
		return
	}

	commands := render.Compile(ds, view, nil)
	frame := render.Rasterise(commands, view.Width, view.Height, dpr)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.png"`, name))
	if err := png.Encode(w, frame); err != nil {
		slog.Error("encode png", "error", err)
	}

	slog.Info("frame exported", "name", name, "method", method, "dpr", dpr)
}
