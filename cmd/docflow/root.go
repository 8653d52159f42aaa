package main

import (
	"github.com/spf13/cobra"

	"github.com/wudi/docflow/config"
	"github.com/wudi/docflow/observability"
	"github.com/wudi/docflow/ocr"
	"github.com/wudi/docflow/ocr/tesseract"
	"github.com/wudi/docflow/pipeline"
	"github.com/wudi/docflow/sheet"
)

// app carries the state shared by every subcommand once the root
// command's pre-run has loaded the configuration.
type app struct {
	configPath string
	outputDir  string
	logLevel   string

	cfg    *config.Config
	logger observability.Logger
	sync   func()
}

func newRootCmd() *cobra.Command {
	a := &app{sync: func() {}}
	root := &cobra.Command{
		Use:   "docflow",
		Short: "Batch OCR, text layer and table extraction for PDFs and images",
		Long: `docflow turns PDFs and scanned images into structured artifacts.

Each processed document gets its own doc_<timestamp> directory holding a copy
of the original, page images, extracted text, exported tables and a
metadata.json record.

Examples:
  docflow process invoice.pdf --tables --format xlsx
  docflow batch ./scans --rename --pattern "scan_{date}_{counter}"
  docflow tables report.pdf --summary`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.sync() },
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (yaml, toml or json)")
	root.PersistentFlags().StringVarP(&a.outputDir, "output", "o", "", "output root directory (overrides config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		a.processCmd(),
		a.batchCmd(),
		a.tablesCmd(),
		a.infoCmd(),
		a.languagesCmd(),
		a.renameCmd(),
		a.organizeCmd(),
		a.duplicatesCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.outputDir != "" {
		cfg.OutputDir = a.outputDir
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	logger, sync, err := observability.NewZapLogger(cfg.Log.Level, cfg.Log.Format == "json")
	if err != nil {
		return err
	}
	if cfg.TessdataPrefix != "" {
		ocr.SetDefaultEngine(tesseract.New(tesseract.WithTessdataPrefix(cfg.TessdataPrefix)))
	}
	a.cfg, a.logger, a.sync = cfg, logger, sync
	return nil
}

func (a *app) processor() *pipeline.Processor {
	opts := append(a.cfg.ProcessorOptions(),
		pipeline.WithLogger(a.logger),
		pipeline.WithTracer(observability.NewLogTracer(a.logger)),
	)
	return pipeline.New(a.cfg.OutputDir, opts...)
}

// optionFlags registers the per-document processing flags on cmd. The
// returned function overlays the flags the user actually set on the
// configured defaults.
func (a *app) optionFlags(cmd *cobra.Command) func() pipeline.Options {
	var o pipeline.Options
	var format string
	f := cmd.Flags()
	f.BoolVar(&o.UseOCR, "ocr", true, "run OCR")
	f.StringVarP(&o.Language, "lang", "l", "", "OCR language, e.g. por, eng, por+eng")
	f.BoolVar(&o.ExtractTables, "tables", true, "extract tables from PDFs")
	f.BoolVar(&o.RenameFiles, "rename", false, "store a renamed copy of each input")
	f.StringVar(&o.RenamePattern, "pattern", "", "rename pattern: {date} {time} {counter} {original}")
	f.StringVarP(&format, "format", "f", "", "table and report format: xlsx, csv, txt, docx")

	return func() pipeline.Options {
		opts := a.cfg.Defaults
		if f.Changed("ocr") {
			opts.UseOCR = o.UseOCR
		}
		if f.Changed("tables") {
			opts.ExtractTables = o.ExtractTables
		}
		if f.Changed("rename") {
			opts.RenameFiles = o.RenameFiles
		}
		if o.Language != "" {
			opts.Language = o.Language
		}
		if o.RenamePattern != "" {
			opts.RenamePattern = o.RenamePattern
		}
		if format != "" {
			opts.OutputFormat = sheet.Format(format)
		}
		return opts
	}
}
