package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer answers every completion with content, which is written
// verbatim as the message's JSON content.
func newTestServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, completionsPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen2-vl", req.Model)
		assert.False(t, req.Stream)
		if assert.Len(t, req.Messages, 1) {
			var parts []ContentPart
			require.NoError(t, json.Unmarshal(req.Messages[0].Content, &parts))
			if assert.Len(t, parts, 2) {
				assert.Equal(t, "text", parts[0].Type)
				assert.Equal(t, "data:image/jpeg;base64,AAAA", parts[1].ImageURL.URL)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ChatCompletionResponse{
			Model:   req.Model,
			Choices: []Choice{{Message: Message{Role: "assistant", Content: json.RawMessage(content)}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSimpleQuery(t *testing.T) {
	srv := newTestServer(t, `"A cat on a sofa."`)
	c, err := NewClient(srv.URL + "/")
	require.NoError(t, err)

	out, err := c.SimpleQuery(context.Background(), "qwen2-vl", "what?", "AAAA")
	require.NoError(t, err)
	assert.Equal(t, "A cat on a sofa.", out)
}

func TestAnalyzeImagePartsReply(t *testing.T) {
	reply := `[{"type":"text","text":"{\"primary\":{\"label\":\"cat\",\"confidence\":0.8,\"box\":{\"x\":0.1,\"y\":0.2,\"w\":0.3,\"h\":0.4}},}"}]`
	srv := newTestServer(t, reply)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	res, err := c.AnalyzeImage(context.Background(), "qwen2-vl", "where?", "AAAA")
	require.NoError(t, err)
	assert.Equal(t, "cat", res.Primary.Label)
	assert.InDelta(t, 0.4, res.Primary.Box.H, 1e-9)
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClientWithHTTP(srv.URL, srv.Client())
	require.NoError(t, err)
	_, err = c.SimpleQuery(context.Background(), "m", "p", "")
	assert.ErrorContains(t, err, "status 503")
	assert.ErrorContains(t, err, "model not loaded")
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, c.baseURL)

	_, err = NewClient("localhost:8080")
	assert.Error(t, err)
}

func TestMessageText(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "string", raw: `"hello"`, want: "hello"},
		{name: "parts", raw: `[{"type":"image_url"},{"type":"text","text":"hi"}]`, want: "hi"},
		{name: "no text", raw: `[{"type":"image_url"}]`, wantErr: true},
		{name: "number", raw: `42`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := messageText(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
