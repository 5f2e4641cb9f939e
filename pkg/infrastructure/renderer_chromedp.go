package infrastructure

import (
	"context"
	"os"
	"path/filepath"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
)

// A4 in inches.
const (
	paperWidth  = 8.27
	paperHeight = 11.69
)

// ChromedpRenderer prints self-contained HTML to PDF with headless Chrome.
// Each call starts its own browser.
type ChromedpRenderer struct {
	allocOpts []chromedp.ExecAllocatorOption
	tmpDir    string
}

// NewChromedpRenderer returns a renderer. An empty execPath lets chromedp
// find Chrome; an empty tmpDir uses the system temp directory.
func NewChromedpRenderer(execPath, tmpDir string) *ChromedpRenderer {
	opts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+4)
	opts = append(opts, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}
	return &ChromedpRenderer{allocOpts: opts, tmpDir: tmpDir}
}

// RenderHTMLToPDF is bounded by ctx; the caller sets the deadline. Margins
// are zero so absolutely positioned pages keep their coordinates; pages
// declaring @page size win over A4.
func (r *ChromedpRenderer) RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error) {
	dir, err := os.MkdirTemp(r.tmpDir, "render-")
	if err != nil {
		return nil, errors.Wrap(err, "create render dir")
	}
	defer os.RemoveAll(dir)

	index := filepath.Join(dir, "index.html")
	if err := os.WriteFile(index, []byte(html), 0o600); err != nil {
		return nil, errors.Wrap(err, "write render input")
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocOpts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var out []byte
	printPDF := chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		out, _, err = page.PrintToPDF().
			WithPrintBackground(true).
			WithPaperWidth(paperWidth).
			WithPaperHeight(paperHeight).
			WithMarginTop(0).
			WithMarginBottom(0).
			WithMarginLeft(0).
			WithMarginRight(0).
			WithPreferCSSPageSize(true).
			Do(ctx)
		return err
	})
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+index),
		chromedp.WaitReady("body", chromedp.ByQuery),
		printPDF,
	); err != nil {
		return nil, errors.Wrap(err, "chromedp print")
	}
	return out, nil
}
