package linkedin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/postsync/pkg/log"
	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var creds = models.Credentials{AccessToken: "li-token", PersonURN: "abc123"}

func TestNewUGCPost(t *testing.T) {
	t.Run("text only", func(t *testing.T) {
		post := NewUGCPost("hello", "abc123", "")

		assert.Equal(t, "urn:li:person:abc123", post.Author)
		assert.Equal(t, "PUBLISHED", post.LifecycleState)

		share := post.SpecificContent["com.linkedin.ugc.ShareContent"]
		assert.Equal(t, "hello", share.ShareCommentary.Text)
		assert.Equal(t, "NONE", share.ShareMediaCategory)
		assert.Empty(t, share.Media)
		assert.Equal(t, "PUBLIC", post.Visibility["com.linkedin.ugc.MemberNetworkVisibility"])
	})

	t.Run("with image and prefixed urn", func(t *testing.T) {
		post := NewUGCPost("hello", "urn:li:person:abc123", "urn:li:digitalmediaAsset:img")

		assert.Equal(t, "urn:li:person:abc123", post.Author)

		share := post.SpecificContent["com.linkedin.ugc.ShareContent"]
		assert.Equal(t, "IMAGE", share.ShareMediaCategory)
		require.Len(t, share.Media, 1)
		assert.Equal(t, "READY", share.Media[0].Status)
		assert.Equal(t, "urn:li:digitalmediaAsset:img", share.Media[0].Media)
	})
}

func TestClient_Publish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/ugcPosts", r.URL.Path)
		assert.Equal(t, "Bearer li-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2.0.0", r.Header.Get("X-Restli-Protocol-Version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "urn:li:person:abc123", body["author"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"urn:li:share:777"}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL}, log.Discard())

	result, err := client.Publish(context.Background(), protocol.PublishRequest{Text: "hello", Credentials: creds})
	require.NoError(t, err)
	assert.Equal(t, "urn:li:share:777", result.PostID)
	assert.Empty(t, result.Error)
}

func TestClient_Publish_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid access token"}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL}, log.Discard())

	result, err := client.Publish(context.Background(), protocol.PublishRequest{Text: "hello", Credentials: creds})
	require.NoError(t, err)
	assert.Empty(t, result.PostID)
	assert.Contains(t, result.Error, "status 401")
	assert.Contains(t, result.Error, "Invalid access token")
}

func TestClient_Publish_TimeoutIsNotRetried(t *testing.T) {
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if requests.Add(1) == 1 {
			time.Sleep(300 * time.Millisecond)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"urn:li:share:1"}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Timeout: 100 * time.Millisecond, RetryCount: 1}, log.Discard())

	result, err := client.Publish(context.Background(), protocol.PublishRequest{Text: "hello", Credentials: creds})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, protocol.IsTransient(err))
	assert.Equal(t, int32(1), requests.Load())
}

func TestClient_Publish_ServerErrorIsNotRetried(t *testing.T) {
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, RetryCount: 1}, log.Discard())

	result, err := client.Publish(context.Background(), protocol.PublishRequest{Text: "hello", Credentials: creds})
	require.NoError(t, err)
	assert.Contains(t, result.Error, "status 502")
	assert.Equal(t, int32(1), requests.Load())
}

func TestClient_Publish_MissingCredentials(t *testing.T) {
	client := New(Config{BaseURL: "http://127.0.0.1:1"}, log.Discard())

	result, err := client.Publish(context.Background(), protocol.PublishRequest{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, ErrMissingCredentials.Error(), result.Error)
}

func TestClient_UploadMedia(t *testing.T) {
	var uploaded []byte

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/v2/assets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "registerUpload", r.URL.Query().Get("action"))
		assert.Equal(t, "Bearer li-token", r.Header.Get("Authorization"))

		var body registerUploadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "urn:li:person:abc123", body.RegisterUploadRequest.Owner)
		assert.Equal(t, []string{feedshareRecipe}, body.RegisterUploadRequest.Recipes)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value": map[string]any{
				"uploadMechanism": map[string]any{
					uploadMechanismKey: map[string]any{"uploadUrl": server.URL + "/upload/img-1"},
				},
				"asset": "urn:li:digitalmediaAsset:img-1",
			},
		})
	})

	mux.HandleFunc("/upload/img-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "Bearer li-token", r.Header.Get("Authorization"))

		uploaded, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	})

	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o600))

	asset, err := New(Config{BaseURL: server.URL}, log.Discard()).UploadMedia(context.Background(), path, creds)
	require.NoError(t, err)

	assert.Equal(t, "urn:li:digitalmediaAsset:img-1", asset)
	assert.Equal(t, []byte("png-bytes"), uploaded)
}

func TestClient_UploadMedia_RegisterFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := New(Config{BaseURL: server.URL}, log.Discard()).UploadMedia(context.Background(), path, creds)
	require.Error(t, err)
	assert.True(t, protocol.IsFatal(err))
}

func TestClient_UploadMedia_RetriesRegister(t *testing.T) {
	var registers atomic.Int32

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/v2/assets", func(w http.ResponseWriter, _ *http.Request) {
		if registers.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value": map[string]any{
				"uploadMechanism": map[string]any{
					uploadMechanismKey: map[string]any{"uploadUrl": server.URL + "/upload/img-2"},
				},
				"asset": "urn:li:digitalmediaAsset:img-2",
			},
		})
	})

	mux.HandleFunc("/upload/img-2", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o600))

	client := New(Config{BaseURL: server.URL, RetryCount: 1}, log.Discard())

	asset, err := client.UploadMedia(context.Background(), path, creds)
	require.NoError(t, err)
	assert.Equal(t, "urn:li:digitalmediaAsset:img-2", asset)
	assert.Equal(t, int32(2), registers.Load())
}

func TestClient_UploadMedia_MissingCredentials(t *testing.T) {
	_, err := New(Config{}, log.Discard()).UploadMedia(context.Background(), "unused", models.Credentials{})
	require.ErrorIs(t, err, ErrMissingCredentials)
}
