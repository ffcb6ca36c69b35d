package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"face.jpg", "image/jpeg", false},
		{"face.JPEG", "image/jpeg", false},
		{"dir/face.png", "image/png", false},
		{"face.webp", "image/webp", false},
		{"face.pdf", "", true},
		{"face", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ContentTypeFor(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedExtension)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Enroll(t *testing.T) {
	var gotType, gotName string
	var gotBytes []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/enroll", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		gotType = header.Header.Get("Content-Type")
		gotName = header.Filename
		gotBytes, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"embedding":[0.1,0.2],"message":"Face enrolled successfully","face_detected":true,"quality_score":71.5,"face_size":{"width":120,"height":140},"timestamp":"2024-01-15T10:30:00Z"}`))
	}))
	defer server.Close()

	path := writeFile(t, "person.jpg", []byte("jpeg bytes"))
	resp, err := New(server.URL+"/", 0).Enroll(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, "person.jpg", gotName)
	assert.Equal(t, []byte("jpeg bytes"), gotBytes)

	assert.True(t, resp.Success)
	assert.Equal(t, []float64{0.1, 0.2}, resp.Embedding)
	require.NotNil(t, resp.QualityScore)
	assert.Equal(t, 71.5, *resp.QualityScore)
	assert.Equal(t, &FaceSize{Width: 120, Height: 140}, resp.FaceSize)
}

func TestClient_Verify(t *testing.T) {
	var stored []float64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/verify", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("stored_embedding")), &stored))

		_, _ = w.Write([]byte(`{"success":true,"match":false,"confidence":45.32,"message":"Verification completed successfully","similarity_score":0.5468,"threshold_used":0.4,"timestamp":"2024-01-15T10:36:00Z"}`))
	}))
	defer server.Close()

	path := writeFile(t, "live.png", []byte("png bytes"))
	resp, err := New(server.URL, 0).Verify(context.Background(), path, []float64{0.5, -0.25})
	require.NoError(t, err)

	assert.Equal(t, []float64{0.5, -0.25}, stored)
	assert.False(t, resp.Match)
	assert.Equal(t, 45.32, resp.Confidence)
	require.NotNil(t, resp.SimilarityScore)
	assert.Equal(t, 0.5468, *resp.SimilarityScore)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"MULTIPLE_FACES","message":"Multiple faces detected (2). Please provide image with single face."},"message":"Multiple faces detected (2). Please provide image with single face.","timestamp":"2024-01-15T10:36:00Z"}`))
	}))
	defer server.Close()

	path := writeFile(t, "group.jpg", []byte("jpeg"))
	_, err := New(server.URL, 0).Enroll(context.Background(), path)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "MULTIPLE_FACES", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "MULTIPLE_FACES")
}

func TestClient_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL, 0).Health(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestClient_RejectsUnknownExtensionBeforeSending(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	path := writeFile(t, "notes.txt", []byte("hello"))
	_, err := New(server.URL, 0).Enroll(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
	assert.False(t, called)
}

func TestEmbeddingFiles(t *testing.T) {
	dir := t.TempDir()

	t.Run("round trip wrapped form", func(t *testing.T) {
		path := filepath.Join(dir, "embedding.json")
		require.NoError(t, WriteEmbedding(path, []float64{1, -0.5}))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.JSONEq(t, `{"embedding":[1,-0.5]}`, string(raw))

		got, err := ReadEmbedding(path)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, -0.5}, got)
	})

	t.Run("bare array", func(t *testing.T) {
		path := writeFile(t, "bare.json", []byte(`[0.25, 0.75]`))
		got, err := ReadEmbedding(path)
		require.NoError(t, err)
		assert.Equal(t, []float64{0.25, 0.75}, got)
	})

	t.Run("empty", func(t *testing.T) {
		path := writeFile(t, "empty.json", []byte(`[]`))
		_, err := ReadEmbedding(path)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		path := writeFile(t, "garbage.json", []byte(`not json`))
		_, err := ReadEmbedding(path)
		assert.Error(t, err)
	})
}
