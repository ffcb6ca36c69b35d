package deepface

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/pixel"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

func TestProviderImplementsInterface(t *testing.T) {
	var _ provider.Engine = (*Provider)(nil)
}

func testBuffer() *pixel.Buffer {
	return pixel.FromImage(image.NewGray(image.Rect(0, 0, 32, 32)))
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewProvider(testConfig(server.URL))
}

func TestProvider_Detect(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req RepresentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.EnforceDetection)

		_ = json.NewEncoder(w).Encode(RepresentResponse{Results: []RepresentResult{
			{FacialArea: FacialArea{X: 4, Y: 6, W: 120, H: 130}, FaceConfidence: 0.98},
			{FacialArea: FacialArea{X: 0, Y: 0, W: 32, H: 32}, FaceConfidence: 0},
		}})
	})

	faces, err := p.Detect(context.Background(), testBuffer())

	require.NoError(t, err)
	require.Len(t, faces, 2)
	assert.Equal(t, domain.FaceRegion{X: 4, Y: 6, W: 120, H: 130}, faces[0].Region)
	assert.Equal(t, 0.98, faces[0].Confidence)
	assert.Equal(t, 0.0, faces[1].Confidence)
}

func TestProvider_Represent(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      interface{}
		wantLen   int
		wantErr   bool
		wantErrIs error
	}{
		{
			name:   "returns embedding",
			status: http.StatusOK,
			body: RepresentResponse{Results: []RepresentResult{
				{Embedding: []float64{0.1, 0.2, 0.3}, FacialArea: FacialArea{W: 100, H: 100}},
			}},
			wantLen: 1,
		},
		{
			name:    "no face rejection becomes empty result",
			status:  http.StatusBadRequest,
			body:    map[string]string{"error": "Exception while representing: Face could not be detected in numpy array."},
			wantLen: 0,
		},
		{
			name:    "other client errors propagate",
			status:  http.StatusBadRequest,
			body:    map[string]string{"error": "invalid model name"},
			wantErr: true,
		},
		{
			name:      "result without embedding",
			status:    http.StatusOK,
			body:      RepresentResponse{Results: []RepresentResult{{FacialArea: FacialArea{W: 10, H: 10}}}},
			wantErr:   true,
			wantErrIs: ErrNoFaceInResponse,
		},
		{
			name:      "server failure is unavailable",
			status:    http.StatusInternalServerError,
			body:      map[string]string{"error": "boom"},
			wantErr:   true,
			wantErrIs: provider.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				var req RepresentRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.True(t, req.EnforceDetection)

				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			})

			reps, err := p.Represent(context.Background(), testBuffer())

			if tt.wantErr {
				require.Error(t, err)
				if tt.wantErrIs != nil {
					assert.ErrorIs(t, err, tt.wantErrIs)
				}
				return
			}
			require.NoError(t, err)
			assert.Len(t, reps, tt.wantLen)
		})
	}
}

func TestProvider_Name(t *testing.T) {
	assert.Equal(t, "deepface", NewProvider(DefaultConfig()).Name())
}
