package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_Formats(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "info", "json")
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("hidden")
	log.Info("shown", "component", "test")

	var rec map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("json output expected, got %q", buf.String())
	}
	if rec["msg"] != "shown" || rec["component"] != "test" {
		t.Errorf("record = %v", rec)
	}
}

func TestNew_Rejects(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "loud", "text"); err == nil {
		t.Error("unknown level accepted")
	}
	if _, err := New(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestColoredHandler(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "debug", "pretty")
	if err != nil {
		t.Fatal(err)
	}
	log.With("request_id", "abc").Warn("slow call", "latency", "2s")
	out := buf.String()
	for _, want := range []string{"WARN", "[abc]", "slow call", `latency`, `"2s"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q lacks %q", out, want)
		}
	}
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "r-1")
	if got := RequestID(ctx); got != "r-1" {
		t.Errorf("RequestID = %q", got)
	}
	if got := RequestID(context.Background()); got != "" {
		t.Errorf("RequestID of bare context = %q", got)
	}
}
