package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func chatServer(t *testing.T, status int, body string, seen *map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if seen != nil {
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, seen)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientGenerate(t *testing.T) {
	var seen map[string]interface{}
	srv := chatServer(t, http.StatusOK, `{"agent":"writer","output":"<p>ok</p>"}`, &seen)

	out, err := NewClient(srv.URL+"/", time.Second).Generate(context.Background(), Request{
		System: "be brief",
		Prompt: "hello",
		Schema: json.RawMessage(`{"type":"object"}`),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "<p>ok</p>" {
		t.Errorf("output = %q", out)
	}
	if seen["system"] != "be brief" || seen["agent"] != "auto" {
		t.Errorf("request = %v", seen)
	}
	input, _ := seen["input"].(string)
	if !strings.HasPrefix(input, "hello") || !strings.Contains(input, `{"type":"object"}`) {
		t.Errorf("schema not embedded in input: %q", input)
	}
	if _, ok := seen["schema"]; !ok {
		t.Error("schema field missing")
	}
}

func TestClientGenerate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server error", http.StatusInternalServerError, `boom`, nil},
		{"not json", http.StatusOK, `<html>`, nil},
		{"no output", http.StatusOK, `{"agent":"x"}`, nil},
		{"blank output", http.StatusOK, `{"output":"  "}`, ErrEmptyResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := chatServer(t, tc.status, tc.body, nil)
			out, err := NewClient(srv.URL, time.Second).Generate(context.Background(), Request{Prompt: "p"})
			if err == nil || out != "" {
				t.Fatalf("Generate = %q, %v", out, err)
			}
			var ge *GenerationError
			if !errors.As(err, &ge) || ge.Backend != BackendService {
				t.Fatalf("error %v is not a service GenerationError", err)
			}
			if ge.Status != tc.status {
				t.Errorf("status = %d, want %d", ge.Status, tc.status)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Errorf("error %v does not wrap %v", err, tc.want)
			}
		})
	}
}

func TestClientGenerate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewClient(srv.URL, time.Minute).Generate(ctx, Request{Prompt: "p"})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
}

func TestNew_Backends(t *testing.T) {
	gen, err := New(context.Background(), Options{Backend: "", ServiceURL: "http://svc"})
	if err != nil {
		t.Fatal(err)
	}
	if c, ok := gen.(*Client); !ok || c.BaseURL != "http://svc" {
		t.Errorf("default backend = %#v", gen)
	}
	if gen, err := New(context.Background(), Options{Backend: "OpenAI", BaseURL: "http://llm/v1", Model: "m"}); err != nil {
		t.Fatal(err)
	} else if _, ok := gen.(*OpenAI); !ok {
		t.Errorf("openai backend = %T", gen)
	}
	if _, err := New(context.Background(), Options{Backend: "oracle"}); err == nil {
		t.Error("unknown backend accepted")
	}
}

func TestCleanHTML(t *testing.T) {
	cases := []struct{ in, want string }{
		{"```html\n<html><body>x</body></html>\n```", "<!DOCTYPE html>\n<html><body>x</body></html>"},
		{"Here it is:\n```html\n<html></html>\n```\nDone.", "<!DOCTYPE html>\n<html></html>"},
		{"<!doctype html><html></html>", "<!doctype html><html></html>"},
		{"  <html><body>plain</body></html>  ", "<!DOCTYPE html>\n<html><body>plain</body></html>"},
		{"Sure! Here is the page:\n<!DOCTYPE html><html><body>x</body></html>\nLet me know if you need changes.", "<!DOCTYPE html><html><body>x</body></html>"},
		{"Result: <html lang=\"en\"><body>y</body></HTML> done", "<!DOCTYPE html>\n<html lang=\"en\"><body>y</body></HTML>"},
		{"<html><body>unterminated", "<!DOCTYPE html>\n<html><body>unterminated"},
		{"<p>fragment</p>", "<!DOCTYPE html>\n<p>fragment</p>"},
	}
	for _, tc := range cases {
		if got := CleanHTML(tc.in); got != tc.want {
			t.Errorf("CleanHTML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFencedPayload(t *testing.T) {
	if got := FencedPayload("text ```json\n{\"a\":1}\n``` more"); got != `{"a":1}` {
		t.Errorf("FencedPayload = %q", got)
	}
	if got := FencedPayload("  {\"a\":1} "); got != `{"a":1}` {
		t.Errorf("FencedPayload without fence = %q", got)
	}
}

type closingGenerator struct{ closed int }

func (g *closingGenerator) Generate(context.Context, Request) (string, error) { return "x", nil }
func (g *closingGenerator) Close() { g.closed++ }

func TestClose(t *testing.T) {
	g := &closingGenerator{}
	Close(g)
	if g.closed != 1 {
		t.Errorf("Close called %d times, want 1", g.closed)
	}
	// backends without resources are left alone
	Close(NewClient("http://svc", time.Second))
	Close(nil)
}
