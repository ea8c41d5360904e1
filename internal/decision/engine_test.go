package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type fakeBackend struct {
	reply  string
	err    error
	calls  int
	prompt string
}

func (f *fakeBackend) Complete(_ context.Context, _, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.reply, f.err
}

type panicBackend struct{}

func (panicBackend) Complete(context.Context, string, string) (string, error) { panic("boom") }

func TestDecideSwap(t *testing.T) {
	p := testPolicy()
	backend := &fakeBackend{reply: "```json\n" + swapJSON + "\n```"}
	engine := NewEngine(zerolog.Nop(), backend, "SOL", p.Limits)

	d := engine.Decide(context.Background(), p.Agent, p.Snapshot)
	if d.Action != Swap || d.ToToken != "BONK" {
		t.Fatalf("unexpected decision %+v", d)
	}
	if backend.calls != 1 {
		t.Fatalf("expected exactly one backend call, got %d", backend.calls)
	}
	if !strings.Contains(backend.prompt, "BONK") {
		t.Fatalf("prompt did not include trending data")
	}
}

func TestDecideBackendErrorHolds(t *testing.T) {
	p := testPolicy()
	var buf bytes.Buffer
	engine := NewEngine(zerolog.New(&buf), &fakeBackend{err: errors.New("timeout")}, "SOL", p.Limits)

	d := engine.Decide(context.Background(), p.Agent, p.Snapshot)
	if d.Action != Hold || d.Reasoning != ReasonBackendError {
		t.Fatalf("expected safety HOLD, got %+v", d)
	}
	if !strings.Contains(buf.String(), "decision backend failed") {
		t.Fatalf("expected failure to be logged, got %s", buf.String())
	}
}

func TestDecidePanicHolds(t *testing.T) {
	p := testPolicy()
	d := NewEngine(zerolog.Nop(), panicBackend{}, "SOL", p.Limits).Decide(context.Background(), p.Agent, p.Snapshot)
	if d.Action != Hold || d.Reasoning != ReasonBackendError {
		t.Fatalf("expected safety HOLD after panic, got %+v", d)
	}
}

func TestOpenAIBackendComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Fatalf("missing bearer token")
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gpt-test" || len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Fatalf("unexpected request %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"action\":\"HOLD\",\"reasoning\":\"calm\"}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	backend, err := NewOpenAIBackend("sk-test", server.URL+"/v1/", "gpt-test")
	if err != nil {
		t.Fatalf("NewOpenAIBackend: %v", err)
	}
	reply, err := backend.Complete(context.Background(), "sys", "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(reply, `"HOLD"`) {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestNewOpenAIBackendRequiresKey(t *testing.T) {
	if _, err := NewOpenAIBackend(" ", "", ""); err == nil {
		t.Fatalf("expected error without api key")
	}
}
