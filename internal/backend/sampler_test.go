package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catoptric/catoptric/client-go/internal/geom"
)

func TestHTTPSamplerRoundTrip(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Write([]byte(`{"mirror":[[0,0],[1,1]],"reflection":[[[2,2],[3,3]]]}`))
	}))
	defer srv.Close()

	s := NewHTTPSampler(srv.URL)
	ds, err := s.SampleReflection(context.Background(), Request{
		Mirror:    [2]string{"(t-0)", "(t-0)^2"},
		Method:    MethodRasterisation,
		Threshold: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, "(t-0)^2", got.Mirror[1])
	assert.Len(t, ds.Mirror, 2)
	assert.Equal(t, geom.Pt(2, 2), ds.ReflectionImage[0])
}

func TestHTTPSamplerEmptyBodyIsEngineFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := NewHTTPSampler(srv.URL).SampleReflection(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrEngineFailure)
}

func TestHTTPSamplerBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPSampler(srv.URL).SampleReflection(context.Background(), Request{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEngineFailure)
}
