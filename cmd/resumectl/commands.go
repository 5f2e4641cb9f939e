package main

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"resume-filler/internal/contact"
	"resume-filler/internal/extractor"
	"resume-filler/internal/filler"
	"resume-filler/internal/layout"
	"resume-filler/internal/loader"
	"resume-filler/internal/model"
	"resume-filler/pkg/ai"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	showLayout   bool
	strategy     string
	refine       bool
	recordPath   string
	templatePath string
	variant      string
)

//nolint:gochecknoglobals // Cobra boilerplate
var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Print the normalized text of a PDF, DOCX, TXT or Markdown file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loader.Load(args[0])
		if err != nil {
			return err
		}
		if showLayout {
			return writeText(layout.DescribeLayout(doc.Layout))
		}
		return writeText(doc.Text)
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract the structured resume record of a file as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loader.Load(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()
		gen, err := newGenerator(ctx, cfg)
		if err != nil {
			return err
		}
		defer ai.Close(gen)
		rec, err := extractor.New(gen, cfg.ExtractTimeout).Extract(ctx, doc.Text)
		if err != nil {
			return errors.Wrapf(err, "extract %s", args[0])
		}
		return writeJSON(rec)
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var templateCmd = &cobra.Command{
	Use:   "template <file>",
	Short: "Build the HTML template of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loader.Load(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opts := layout.Options{Strategy: cfg.TemplateStrategy, Refine: cfg.TemplateRefine, Timeout: cfg.TemplateTimeout}
		if cmd.Flags().Changed("strategy") {
			if opts.Strategy, err = layout.ParseStrategy(strategy); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("refine") {
			opts.Refine = refine
		}
		ctx, cancel := commandContext()
		defer cancel()
		gen, err := newGenerator(ctx, cfg)
		if err != nil {
			return err
		}
		defer ai.Close(gen)
		tpl, err := layout.New(gen, opts).Extract(ctx, doc)
		if err != nil {
			return err
		}
		if tpl.Degraded {
			cmd.PrintErrf("template built by the %s builder\n", tpl.Source)
		}
		return writeText(tpl.Document())
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill a template with a record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := readRecord(recordPath)
		if err != nil {
			return err
		}
		raw, err := os.ReadFile(templatePath)
		if err != nil {
			return errors.Wrapf(err, "read template %s", templatePath)
		}
		tpl := model.Template{HTML: string(raw), Variant: model.Variant(variant)}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()
		gen, err := newGenerator(ctx, cfg)
		if err != nil {
			return err
		}
		defer ai.Close(gen)
		res, err := filler.New(gen, cfg.FillTimeout).Fill(ctx, tpl, rec)
		if err != nil {
			return err
		}
		if res.Degraded {
			cmd.PrintErrln("generator output rejected, rendered with the fallback layout")
		}
		return writeText(res.HTML)
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var fallbackCmd = &cobra.Command{
	Use:   "fallback <record.json>",
	Short: "Render a record without a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := readRecord(args[0])
		if err != nil {
			return err
		}
		html, err := filler.RenderFallback(rec)
		if err != nil {
			return err
		}
		return writeText(html)
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var metadataCmd = &cobra.Command{
	Use:   "metadata <record.json>",
	Short: "Print the contact details derived from a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := readRecord(args[0])
		if err != nil {
			return err
		}
		return writeJSON(contact.DeriveMetadata(rec))
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var linkifyCmd = &cobra.Command{
	Use:   "linkify [text...]",
	Short: "Wrap URLs and email addresses in anchors; reads stdin without arguments",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if len(args) == 0 {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return errors.Wrap(err, "read stdin")
			}
			text = strings.TrimRight(string(b), "\n")
		}
		return writeText(contact.Linkify(text))
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(loadCmd, extractCmd, templateCmd, fillCmd, fallbackCmd, metadataCmd, linkifyCmd)

	loadCmd.Flags().BoolVar(&showLayout, "layout", false, "Print the layout description instead of the text")

	templateCmd.Flags().StringVar(&strategy, "strategy", "", "Template strategy (generative, positioned)")
	templateCmd.Flags().BoolVar(&refine, "refine", false, "Pass positioned templates through the generator")

	fillCmd.Flags().StringVar(&recordPath, "record", "", "Record JSON file, - for stdin")
	fillCmd.Flags().StringVar(&templatePath, "template", "", "Template HTML file")
	fillCmd.Flags().StringVar(&variant, "variant", string(model.VariantFlowing), "Template variant (flowing, positioned)")
	_ = fillCmd.MarkFlagRequired("record")
	_ = fillCmd.MarkFlagRequired("template")
}
