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

	"github.com/davecgh/go-spew/spew"
	"github.com/google/generative-ai-go/genai"

	"resume-filler/internal/model"
)

// ── Gemini response schema ─────────────────────────────────────────────────

func TestGenaiSchema_Record(t *testing.T) {
	s, err := genaiSchema(model.RecordSchema())
	if err != nil {
		t.Fatalf("genaiSchema: %v", err)
	}
	if s.Type != genai.TypeObject || strings.Join(s.Required, ",") != "sections" {
		t.Fatalf("root = %s", spew.Sdump(s))
	}
	sections := s.Properties["sections"]
	if sections == nil || sections.Type != genai.TypeArray || sections.Items == nil {
		t.Fatalf("sections = %s", spew.Sdump(sections))
	}
	section := sections.Items
	if section.Type != genai.TypeObject || strings.Join(section.Required, ",") != "section_name,subsections" {
		t.Errorf("section = %s", spew.Sdump(section))
	}
	if name := section.Properties["section_name"]; name == nil || name.Type != genai.TypeString {
		t.Errorf("section_name = %s", spew.Sdump(name))
	}
	subsection := section.Properties["subsections"].Items
	if subsection == nil || strings.Join(subsection.Required, ",") != "title,data" {
		t.Fatalf("subsection = %s", spew.Sdump(subsection))
	}
	data := subsection.Properties["data"]
	if data == nil || data.Type != genai.TypeArray || data.Items == nil || data.Items.Type != genai.TypeString {
		t.Errorf("data = %s", spew.Sdump(data))
	}
}

func TestGenaiSchema_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		schema string
		want   string
	}{
		{"unresolved ref", `{"type":"object","properties":{"a":{"$ref":"#/definitions/missing"}}}`, "unresolved schema reference"},
		{"self reference", `{"$ref":"#/definitions/loop","definitions":{"loop":{"$ref":"#/definitions/loop"}}}`, "too deep"},
		{"array without items", `{"type":"array"}`, "without items"},
		{"unknown type", `{"type":"null"}`, "unsupported schema type"},
		{"not json", `{`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := genaiSchema(json.RawMessage(tc.schema))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %v, want it to mention %q", err, tc.want)
			}
		})
	}
}

// ── OpenAI-compatible backend ──────────────────────────────────────────────

func completionServer(t *testing.T, status int, body string, seen *map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if seen != nil {
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const completionBody = `{"id":"c1","object":"chat.completion","model":"llama3.1",
"choices":[{"index":0,"message":{"role":"assistant","content":"{\"sections\":[]}"},"finish_reason":"stop"}],
"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`

func TestOpenAIGenerate_SendsJSONSchema(t *testing.T) {
	var seen map[string]interface{}
	srv := completionServer(t, http.StatusOK, completionBody, &seen)

	out, err := NewOpenAI(srv.URL+"/v1", "", "llama3.1").Generate(context.Background(), Request{
		System: "extract",
		Prompt: "text",
		Schema: model.RecordSchema(),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != `{"sections":[]}` {
		t.Errorf("output = %q", out)
	}
	format, _ := seen["response_format"].(map[string]interface{})
	if format["type"] != "json_schema" {
		t.Fatalf("response_format = %s", spew.Sdump(seen["response_format"]))
	}
	js, _ := format["json_schema"].(map[string]interface{})
	schema, _ := js["schema"].(map[string]interface{})
	if js["name"] != "resume_record" || schema["type"] != "object" {
		t.Errorf("json_schema = %s", spew.Sdump(js))
	}
	msgs, _ := seen["messages"].([]interface{})
	if len(msgs) != 2 {
		t.Errorf("messages = %s", spew.Sdump(msgs))
	}
}

func TestOpenAIGenerate_PlainTextHasNoResponseFormat(t *testing.T) {
	var seen map[string]interface{}
	srv := completionServer(t, http.StatusOK, completionBody, &seen)
	if _, err := NewOpenAI(srv.URL+"/v1", "", "m").Generate(context.Background(), Request{Prompt: "html"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := seen["response_format"]; ok {
		t.Errorf("response_format sent without a schema: %v", seen["response_format"])
	}
}

func TestOpenAIGenerate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"no choices", http.StatusOK, `{"id":"c","choices":[]}`, ErrEmptyResponse},
		{"blank content", http.StatusOK, `{"id":"c","choices":[{"index":0,"message":{"role":"assistant","content":"  "}}]}`, ErrEmptyResponse},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := completionServer(t, tc.status, tc.body, nil)
			_, err := NewOpenAI(srv.URL+"/v1", "", "m").Generate(context.Background(), Request{Prompt: "p"})
			var ge *GenerationError
			if !errors.As(err, &ge) || ge.Backend != BackendOpenAI {
				t.Fatalf("error %v is not an openai GenerationError", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Errorf("error %v does not wrap %v", err, tc.want)
			}
			if tc.status != http.StatusOK && ge.Status != tc.status {
				t.Errorf("status = %d, want %d", ge.Status, tc.status)
			}
		})
	}
}
