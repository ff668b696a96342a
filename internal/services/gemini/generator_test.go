package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalogsync/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T, apiKey string, handler http.HandlerFunc) *Generator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{
		APIKey:  apiKey,
		Model:   "gemini-2.0-flash",
		BaseURL: server.URL + "/",
	}, logger.NewWithWriter("error", io.Discard))
}

func TestGenerate(t *testing.T) {
	g := newTestGenerator(t, "key-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "key-1", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hi there"}]}}]}`))
	})

	text, err := g.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", text)
}

func TestGenerate_MissingKey(t *testing.T) {
	g := New(Config{Model: "gemini-2.0-flash"}, logger.NewWithWriter("error", io.Discard))

	_, err := g.Generate(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGenerateAltText(t *testing.T) {
	g := newTestGenerator(t, "key-1", func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt := req.Contents[0].Parts[0].Text
		assert.Contains(t, prompt, `Product title: "Desk Lamp"`)
		assert.Contains(t, prompt, `Variant details: "Red"`)
		assert.Contains(t, prompt, "Image number: 2")

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  Red desk lamp with brass base  \n"}]}}]}`))
	})

	alt := g.GenerateAltText(context.Background(), "Desk Lamp", "Red", 2)
	assert.Equal(t, "Red desk lamp with brass base", alt)
}

func TestAltTextPrompt_KeepsQuotesVerbatim(t *testing.T) {
	prompt := altTextPrompt(`12" Frame`, `Oak "Natural"`, 1)

	assert.Contains(t, prompt, `Product title: "12" Frame"`)
	assert.Contains(t, prompt, `Variant details: "Oak "Natural""`)
	assert.NotContains(t, prompt, `\"`)
}

func TestGenerateAltText_PromptOmitsEmptyVariant(t *testing.T) {
	g := newTestGenerator(t, "key-1", func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotContains(t, req.Contents[0].Parts[0].Text, "Variant details")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Desk lamp"}]}}]}`))
	})

	assert.Equal(t, "Desk lamp", g.GenerateAltText(context.Background(), "Desk Lamp", "", 1))
}

func TestGenerateAltText_Fallbacks(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		variant string
		want    string
	}{
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"error":{"message":"boom"}}`,
			variant: "Red",
			want:    "Desk Lamp Red img 3",
		},
		{
			name:   "no candidates",
			status: http.StatusOK,
			body:   `{"candidates":[]}`,
			want:   "Desk Lamp img 3",
		},
		{
			name:   "blank answer",
			status: http.StatusOK,
			body:   `{"candidates":[{"content":{"parts":[{"text":"   "}]}}]}`,
			want:   "Desk Lamp img 3",
		},
		{
			name:   "malformed json",
			status: http.StatusOK,
			body:   `not json`,
			want:   "Desk Lamp img 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t, "key-1", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			assert.Equal(t, tt.want, g.GenerateAltText(context.Background(), "Desk Lamp", tt.variant, 3))
		})
	}
}

func TestGenerateAltText_NoKeyFallsBack(t *testing.T) {
	g := New(Config{Model: "gemini-2.0-flash"}, logger.NewWithWriter("error", io.Discard))
	assert.Equal(t, "Desk Lamp Blue img 1", g.GenerateAltText(context.Background(), "Desk Lamp", "Blue", 1))
}

func TestGenerateAltText_Truncates(t *testing.T) {
	long := strings.Repeat("lamp ", 40)
	g := newTestGenerator(t, "key-1", func(w http.ResponseWriter, r *http.Request) {
		resp := generateResponse{Candidates: []candidate{{Content: content{Parts: []part{{Text: long}}}}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	alt := g.GenerateAltText(context.Background(), "Desk Lamp", "", 1)
	assert.LessOrEqual(t, len([]rune(alt)), MaxAltTextLength)
	assert.True(t, strings.HasPrefix(alt, "lamp lamp"))
}
