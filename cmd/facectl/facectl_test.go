package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHealthCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"healthy","service":"facegate","timestamp":"2024-01-15T10:30:00Z"}`))
	}))
	defer server.Close()

	out, err := execute(t, "--url", server.URL, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "facegate: healthy")
}

func TestEnrollThenVerifyCommands(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/enroll":
			_, _ = w.Write([]byte(`{"success":true,"embedding":[0.6,0.8],"message":"Face enrolled successfully","face_detected":true,"quality_score":80.5,"face_size":{"width":150,"height":170}}`))
		case "/verify":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "[0.6,0.8]", r.FormValue("stored_embedding"))
			_, _ = w.Write([]byte(`{"success":true,"match":true,"confidence":97.5,"message":"Verification completed successfully","similarity_score":0.025,"threshold_used":0.4}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	image := filepath.Join(dir, "face.jpg")
	require.NoError(t, os.WriteFile(image, []byte("jpeg"), 0o600))
	embedding := filepath.Join(dir, "embedding.json")

	out, err := execute(t, "--url", server.URL, "enroll", image, "--out", embedding)
	require.NoError(t, err)
	assert.Contains(t, out, "Enrollment successful")
	assert.Contains(t, out, "150x170px")

	out, err = execute(t, "--url", server.URL, "verify", image, "--embedding", embedding)
	require.NoError(t, err)
	assert.Contains(t, out, "Match:            YES")
	assert.Contains(t, out, "97.50%")
}

func TestVerifyCommandNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"match":false,"confidence":45.32,"message":"Verification completed successfully","similarity_score":0.5468,"threshold_used":0.4}`))
	}))
	defer server.Close()

	dir := t.TempDir()
	image := filepath.Join(dir, "face.png")
	require.NoError(t, os.WriteFile(image, []byte("png"), 0o600))
	embedding := filepath.Join(dir, "embedding.json")
	require.NoError(t, os.WriteFile(embedding, []byte(`[1, 0]`), 0o600))

	out, err := execute(t, "--url", server.URL, "verify", image, "--embedding", embedding)
	assert.ErrorIs(t, err, errNoMatch)
	assert.Contains(t, out, "Match:            NO")
}

func TestEnrollCommandNoFace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"embedding":null,"message":"No face detected in the image. Please ensure face is clearly visible.","face_detected":false,"quality_score":null}`))
	}))
	defer server.Close()

	image := filepath.Join(t.TempDir(), "wall.jpg")
	require.NoError(t, os.WriteFile(image, []byte("jpeg"), 0o600))

	_, err := execute(t, "--url", server.URL, "enroll", image, "--out", filepath.Join(t.TempDir(), "e.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No face detected")
}
