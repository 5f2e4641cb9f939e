package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"resume-filler/internal/adapter/repository"
	"resume-filler/internal/extractor"
	"resume-filler/internal/filler"
	"resume-filler/internal/layout"
	"resume-filler/internal/usecase"
	"resume-filler/pkg/ai"
	"resume-filler/pkg/ai/prompts"
	"resume-filler/pkg/infrastructure"
)

// Runs an upload end to end against an in-process mock of the ai-service.

const sampleUpload = `# Test User
t@example.com | +1 555 010 2030 | github.com/testuser

## Experience
### Engineer, Acme
2021 - Present
- Did things that matter
- Shipped a data pipeline

## Skills
Go, Postgres, Redis
`

var mockRecord = map[string]interface{}{
	"sections": []interface{}{
		map[string]interface{}{"section_name": "Contact", "subsections": []interface{}{
			map[string]interface{}{"title": "Test User", "data": []string{"t@example.com", "+1 555 010 2030", "github.com/testuser"}},
		}},
		map[string]interface{}{"section_name": "Experience", "subsections": []interface{}{
			map[string]interface{}{"title": "Engineer, Acme", "data": []string{"2021 - Present", "_•_Did things that matter", "_•_Shipped a data pipeline"}},
		}},
		map[string]interface{}{"section_name": "Skills", "subsections": []interface{}{
			map[string]interface{}{"title": "Skills", "data": []string{"Go", "Postgres", "Redis"}},
		}},
	},
}

const mockTemplate = `<!DOCTYPE html>
<html><head><style>body{font-family:Calibri,sans-serif}.resume-section h2{color:#1F4E79}</style></head>
<body><div class="resume-container">
<div class="resume-header"><h1>{{NAME}}</h1><p>{{EMAIL}} | {{PHONE}}</p></div>
<div class="resume-section"><h2>Experience</h2><h3>Role, Company</h3><p>Dates</p><ul><li>Bullet</li></ul></div>
<div class="resume-section"><h2>Skills</h2><p>Skill, Skill</p></div>
</div></body></html>`

func startMockAI() (*http.Server, string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req map[string]interface{}
		_ = json.Unmarshal(body, &req)
		input, _ := req["input"].(string)
		system, _ := req["system"].(string)

		if input == "" {
			w.WriteHeader(400)
			return
		}
		var output string
		switch system {
		case prompts.ExtractionSystem:
			output = "```json\n" + mustMarshal(mockRecord) + "\n```"
		case prompts.TemplateSystem:
			output = "```html\n" + mockTemplate + "\n```"
		case prompts.FillSystem:
			output = strings.NewReplacer(
				"Role, Company", "Engineer, Acme",
				"<p>Dates</p>", "<p>2021 - Present</p>",
				"<li>Bullet</li>", "<li>Did things that matter</li><li>Shipped a data pipeline</li>",
				"Skill, Skill", "Go, Postgres, Redis",
			).Replace(mockTemplate)
		default:
			w.WriteHeader(400)
			return
		}
		b, _ := json.Marshal(map[string]interface{}{"agent": "mock", "output": output})
		w.Header().Set("Content-Type", "application/json")
		w.Write(b)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("mock ai listen: %v", err)
	}
	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Fatalf("mock ai server failed: %v", err)
		}
	}()
	return srv, "http://" + ln.Addr().String()
}

func mustMarshal(v interface{}) string { b, _ := json.Marshal(v); return string(b) }

func main() {
	srv, url := startMockAI()
	defer srv.Shutdown(context.Background())

	gen := ai.NewClient(url, 20*time.Second)
	store := repository.NewMemoryStore()
	cfg := usecase.Config{
		Records:   extractor.New(gen, 20*time.Second),
		Templates: layout.New(gen, layout.Options{Strategy: layout.StrategyGenerative, Timeout: 20 * time.Second}),
		Filler:    filler.New(gen, 20*time.Second),
		Store:     store,
	}
	// chromedp needs a local Chrome; opt in explicitly
	if os.Getenv("RENDER_PDF") != "" {
		cfg.Renderer = infrastructure.NewChromedpRenderer(os.Getenv("CHROME_PATH"), "")
	}
	processor := usecase.NewProcessor(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	res, err := processor.Ingest(ctx, "test-user", "resume.md", strings.NewReader(sampleUpload))
	if err != nil {
		fmt.Printf("Ingest failed: %v\n", err)
		os.Exit(1)
	}
	r := res.Resume
	fmt.Printf("Ingest completed. sections=%d template=%s share=%s degraded=%v name=%q links=%d\n",
		len(res.Record.Sections), res.TemplateID, r.ShareLink(), r.Degraded, r.Metadata.Name, len(r.Metadata.Links))

	if cfg.Renderer == nil {
		return
	}
	pdf, err := processor.RenderPDF(ctx, r.ShareID)
	if err != nil {
		fmt.Printf("PDF failed: %v\n", err)
		os.Exit(1)
	}
	out := "resume_" + r.ShareID + ".pdf"
	if err := os.WriteFile(out, pdf, 0o644); err != nil {
		fmt.Printf("write pdf: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", out, len(pdf))
}
