package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height)), nil))
	return buf.Bytes()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "happy face", r.URL.Query().Get("q"))
		assert.Equal(t, "50", r.URL.Query().Get("count"))
		assert.Equal(t, "Photo", r.URL.Query().Get("imageType"))
		assert.Equal(t, "Strict", r.URL.Query().Get("safeSearch"))

		_ = json.NewEncoder(w).Encode(searchResponse{
			Value: []ImageResult{
				{ContentURL: "https://example.com/a.jpg", Width: 640, Height: 480},
				{ContentURL: "https://example.com/b.jpg", Width: 320, Height: 240},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", Endpoint: server.URL})
	results, err := client.Search(context.Background(), "happy face", 50, 0)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://example.com/a.jpg", results[0].ContentURL)
}

func TestClient_Search_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid key"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad-key", Endpoint: server.URL})
	_, err := client.Search(context.Background(), "query", 50, 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestDownloader_Fetch(t *testing.T) {
	goodImage := jpegBytes(t, 200, 200)
	tinyImage := jpegBytes(t, 40, 40)

	// Image host serving one good, one tiny, and one duplicate image
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/good.jpg", "/duplicate.jpg":
			_, _ = w.Write(goodImage)
		case "/tiny.jpg":
			_, _ = w.Write(tinyImage)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer imageServer.Close()

	searchServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" {
			_ = json.NewEncoder(w).Encode(searchResponse{})
			return
		}
		_ = json.NewEncoder(w).Encode(searchResponse{
			Value: []ImageResult{
				{ContentURL: imageServer.URL + "/good.jpg"},
				{ContentURL: imageServer.URL + "/tiny.jpg"},
				{ContentURL: imageServer.URL + "/duplicate.jpg"},
				{ContentURL: imageServer.URL + "/missing.jpg"},
			},
		})
	}))
	defer searchServer.Close()

	saveDir := t.TempDir()
	client := NewClient(Config{APIKey: "k", Endpoint: searchServer.URL})
	downloader := NewDownloader(client, saveDir, testLogger())
	downloader.delay = time.Millisecond

	count, err := downloader.Fetch(context.Background(), []string{"neutral face"}, 10)
	require.NoError(t, err)

	// tiny rejected, duplicate rejected by hash, missing 404s
	assert.Equal(t, 1, count)

	files, err := os.ReadDir(saveDir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDownloader_Fetch_StopsAtTarget(t *testing.T) {
	images := map[string][]byte{
		"/a.jpg": jpegBytes(t, 100, 100),
		"/b.jpg": jpegBytes(t, 101, 101),
		"/c.jpg": jpegBytes(t, 102, 102),
	}

	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := images[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(data)
	}))
	defer imageServer.Close()

	searchServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(searchResponse{
			Value: []ImageResult{
				{ContentURL: imageServer.URL + "/a.jpg"},
				{ContentURL: imageServer.URL + "/b.jpg"},
				{ContentURL: imageServer.URL + "/c.jpg"},
			},
		})
	}))
	defer searchServer.Close()

	client := NewClient(Config{APIKey: "k", Endpoint: searchServer.URL})
	downloader := NewDownloader(client, t.TempDir(), testLogger())
	downloader.delay = time.Millisecond

	count, err := downloader.Fetch(context.Background(), []string{"q1", "q2"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
