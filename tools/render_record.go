package main

import (
	"fmt"
	"os"
	"path/filepath"

	"resume-filler/internal/filler"
	"resume-filler/internal/model"
)

// Renders a record JSON file with the fallback layout.
// Usage: go run ./tools [record.json] [out.html]
func main() {
	in := "record.json"
	if len(os.Args) > 1 {
		in = os.Args[1]
	}
	b, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read record: %v\n", err)
		os.Exit(2)
	}
	rec, problems, err := model.DecodeRecord(b)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode: %v\n", err)
		os.Exit(2)
	}
	for _, p := range problems {
		fmt.Fprintf(os.Stderr, "schema: %s\n", p)
	}
	if len(problems) > 0 {
		os.Exit(2)
	}
	html, err := filler.RenderFallback(rec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(2)
	}
	out := filepath.Join(os.TempDir(), "resume_fallback.html")
	if len(os.Args) > 2 {
		out = os.Args[2]
	}
	if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(2)
	}
	fmt.Printf("wrote %s\n", out)
}
