package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"resume-filler/internal/domain"
	"resume-filler/pkg/ai"

	"github.com/davecgh/go-spew/spew"
)

type fakeGenerator struct {
	out   string
	err   error
	calls int
	last  ai.Request
	delay time.Duration
}

func (f *fakeGenerator) Generate(ctx context.Context, req ai.Request) (string, error) {
	f.calls++
	f.last = req
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.out, f.err
}

const validRecord = `{"sections":[
 {"section_name":"Skills","subsections":[{"title":"","data":["Go","SQL"]}]},
 {"section_name":"Hobbies","subsections":[{"title":"","data":["", "   "]}]}
]}`

func TestExtract_FencedPayloadIsFiltered(t *testing.T) {
	gen := &fakeGenerator{out: "Here you go:\n```json\n" + validRecord + "\n```\nThanks"}
	rec, err := New(gen, time.Second).Extract(context.Background(), "# Skills\n- Go\n- SQL")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(rec.Sections) != 1 || rec.Sections[0].Name != "Skills" {
		t.Fatalf("unexpected record: %s", spew.Sdump(rec))
	}
	if len(gen.last.Schema) == 0 {
		t.Error("extraction request carries no schema")
	}
	if !strings.Contains(gen.last.Prompt, "- SQL") {
		t.Error("prompt does not embed the document text")
	}
}

func TestExtract_BareJSON(t *testing.T) {
	gen := &fakeGenerator{out: validRecord}
	rec, err := New(gen, 0).Extract(context.Background(), "text")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(rec.Sections) != 1 {
		t.Errorf("sections = %d, want 1", len(rec.Sections))
	}
}

func TestExtract_EmptyTextSkipsGenerator(t *testing.T) {
	gen := &fakeGenerator{}
	rec, err := New(gen, 0).Extract(context.Background(), "  \n ")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times", gen.calls)
	}
	if rec.Sections == nil || len(rec.Sections) != 0 {
		t.Errorf("unexpected record: %s", spew.Sdump(rec))
	}
}

func TestExtract_GeneratorErrorIsSurfaced(t *testing.T) {
	gen := &fakeGenerator{err: ai.ErrEmptyResponse}
	_, err := New(gen, 0).Extract(context.Background(), "text")
	if !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("error = %v, want ErrEmptyResponse", err)
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want exactly once", gen.calls)
	}
}

func TestExtract_Timeout(t *testing.T) {
	gen := &fakeGenerator{out: validRecord, delay: time.Second}
	_, err := New(gen, 10*time.Millisecond).Extract(context.Background(), "text")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
}

func TestParse_SyntaxErrorCarriesOffset(t *testing.T) {
	raw := `{"sections": [ {"section_name": "Skills" "subsections": []} ]}`
	_, err := Parse(raw)
	var pe *domain.ExtractionParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ExtractionParseError", err)
	}
	at := strings.Index(raw, `"subsections"`)
	if pe.Offset < int64(at) || pe.Offset > int64(at)+1 {
		t.Errorf("Offset = %d, want near %d", pe.Offset, at)
	}
	if !strings.Contains(pe.Context, `"Skills"`) {
		t.Errorf("Context = %q", pe.Context)
	}
	if pe.Raw != raw {
		t.Errorf("Raw not preserved")
	}
}

func TestParse_TruncatedJSON(t *testing.T) {
	raw := `{"sections": [`
	_, err := Parse(raw)
	var pe *domain.ExtractionParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ExtractionParseError", err)
	}
	if pe.Offset != int64(len(raw)) {
		t.Errorf("Offset = %d, want %d", pe.Offset, len(raw))
	}
}

func TestParse_SchemaMismatchIsRejected(t *testing.T) {
	cases := map[string]string{
		"missing sections":    `{"data": []}`,
		"data not strings":    `{"sections":[{"section_name":"A","subsections":[{"title":"","data":[1,2]}]}]}`,
		"blank name":          `{"sections":[{"section_name":"  ","subsections":[{"title":"","data":["x"]}]}]}`,
		"extra property":      `{"sections":[],"summary":"x"}`,
		"top level array":     `[]`,
		"subsection no title": `{"sections":[{"section_name":"A","subsections":[{"data":["x"]}]}]}`,
	}
	for name, raw := range cases {
		_, err := Parse(raw)
		var se *domain.SchemaValidationError
		if !errors.As(err, &se) {
			t.Errorf("%s: error = %v, want *SchemaValidationError", name, err)
			continue
		}
		if se.Raw != raw {
			t.Errorf("%s: raw content not preserved", name)
		}
		if len(se.Problems) == 0 {
			t.Errorf("%s: no problems reported", name)
		}
	}
}
