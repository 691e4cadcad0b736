package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrEngineFailure is returned when the numeric engine signals that it
// could not sample the request (its failure signal is an empty body).
var ErrEngineFailure = errors.New("numeric engine failure")

// maxResponseSize bounds one engine response. Dense rasterisation grids
// are large but nowhere near this.
const maxResponseSize = 64 << 20 // 64MB

// Sampler is the contract with the external numeric engine: one call per
// recompute request. Calls may suspend; they carry a context so a host
// shutting down can abandon them. Results for superseded requests are
// dropped by the controller, not cancelled here.
type Sampler interface {
	SampleReflection(ctx context.Context, req Request) (*Dataset, error)
}

// HTTPSampler reaches a numeric engine over HTTP, posting one JSON request
// per recompute.
type HTTPSampler struct {
	url    string
	client *http.Client
}

// NewHTTPSampler returns a sampler posting to the engine at url.
func NewHTTPSampler(url string) *HTTPSampler {
	return &HTTPSampler{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// SampleReflection implements Sampler.
func (s *HTTPSampler) SampleReflection(ctx context.Context, req Request) (*Dataset, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal engine request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build engine request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call numeric engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("numeric engine: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read engine response: %w", err)
	}

	return ParseDataset(data)
}
