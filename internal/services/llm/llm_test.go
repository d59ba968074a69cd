package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateSuffix(t *testing.T) {
	tpl := NewTemplate("  Analyse this stock.  \n")
	assert.Equal(t, "Analyse this stock."+standardSuffix, tpl.String())

	tpl = NewTemplate("Stock {stock_id} has {signal_json}")
	assert.Equal(t, "Stock {stock_id} has {signal_json}", tpl.String())

	tpl = NewTemplate("only {stock_id}")
	assert.Equal(t, "only {stock_id}"+standardSuffix, tpl.String())
}

func TestTemplateRender(t *testing.T) {
	tpl := NewTemplate("S={stock_id}\n{signal_json}")
	out, err := tpl.Render("2330.TW", map[string]any{"a": 1, "note": "<b>"})
	require.NoError(t, err)
	assert.Equal(t, "S=2330.TW\n{\n  \"a\": 1,\n  \"note\": \"<b>\"\n}", out)

	_, err = tpl.Render("x", make(chan int))
	assert.Error(t, err)
}

func TestLoadTemplate(t *testing.T) {
	p := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(p, []byte("You are an analyst."), 0o644))
	tpl, err := LoadTemplate(p)
	require.NoError(t, err)
	assert.Contains(t, tpl.String(), "Technical Indicators:")

	_, err = LoadTemplate(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestParseSuggestion(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  Suggestion
		err   bool
	}{
		{"plain", `{"suggestion":"buy","reason":"trend up"}`, Suggestion{Suggestion: "buy", Reason: "trend up"}, false},
		{"fenced", "```json\n{\"suggestion\":\"hold\",\"reason\":\"flat\"}\n```", Suggestion{Suggestion: "hold", Reason: "flat"}, false},
		{"prose", "Here you go:\n{\"suggestion\":\"sell\",\"reason\":\"weak\",\"stock_id\":\"2330.TW\"}\nThanks", Suggestion{StockID: "2330.TW", Suggestion: "sell", Reason: "weak"}, false},
		{"none", "no idea", Suggestion{}, true},
		{"broken", "{suggestion:", Suggestion{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSuggestion(tc.reply)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRetry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	fatal := errors.New("fatal")
	err = Retry(context.Background(), 5, time.Millisecond, func(context.Context) error {
		calls++
		return Stop{Err: fatal}
	})
	assert.Same(t, fatal, err)
	assert.Equal(t, 1, calls)

	calls = 0
	err = Retry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return errors.New("always")
	})
	assert.EqualError(t, err, "always")
	assert.Equal(t, 2, calls)
}

func TestAzureOpenAIComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/gpt/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-02-01", r.URL.Query().Get("api-version"))
		assert.Equal(t, "secret", r.Header.Get("api-key"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 0.2, req.Temperature)
		assert.Equal(t, 100, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		if req.Messages[0].Content == "empty" {
			_, _ = w.Write([]byte(`{"choices":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"echo: ` + req.Messages[0].Content + `"}}]}`))
	}))
	defer srv.Close()

	c := NewAzureOpenAI(AzureConfig{
		Endpoint:        srv.URL + "/",
		APIVersion:      "2024-02-01",
		Deployment:      "gpt",
		SubscriptionKey: "secret",
		Temperature:     0.2,
		MaxTokens:       100,
		Timeout:         time.Second,
	})
	out, err := c.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", out)

	_, err = c.Complete(context.Background(), "empty")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}
