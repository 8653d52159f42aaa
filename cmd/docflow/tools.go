package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wudi/docflow/config"
	"github.com/wudi/docflow/document"
	"github.com/wudi/docflow/ocr"
	"github.com/wudi/docflow/rename"
	"github.com/wudi/docflow/sheet"
	"github.com/wudi/docflow/tables"
	"github.com/wudi/docflow/textlayer"
)

func (a *app) tablesCmd() *cobra.Command {
	var out, format string
	var summary bool
	cmd := &cobra.Command{
		Use:   "tables <pdf>",
		Short: "Extract the tables of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document.Detect(args[0])
			if err != nil {
				return err
			}
			if doc.Kind != document.KindPDF {
				return fmt.Errorf("%s is not a pdf", doc.Name())
			}
			e := tables.NewExtractor()
			e.Logger = a.logger
			found := e.Extract(doc.Path)
			if found.Degraded() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", found.Cause)
			}
			if len(found.Value) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no tables found")
				return nil
			}

			if format == "" {
				format = string(a.cfg.Defaults.OutputFormat)
			}
			exp, err := sheet.ExporterFor(sheet.Format(format))
			if err != nil {
				return err
			}
			if out == "" {
				out = sheet.FileName(doc.Stem()+"_tables", exp.Format())
			}
			files, err := exp.SaveTables(found.Value, out)
			if err != nil {
				return err
			}
			if summary {
				path := strings.TrimSuffix(out, filepath.Ext(out)) + "_summary.xlsx"
				if _, err := sheet.CreateSummaryReport(found.Value, path); err != nil {
					return err
				}
				files = append(files, path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d tables extracted\n", len(found.Value))
			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", f)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "target file (default <name>_tables.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "xlsx, csv, txt or docx")
	cmd.Flags().BoolVar(&summary, "summary", false, "also write a summary workbook")
	return cmd
}

func (a *app) infoCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "info <pdf>",
		Short: "Show page count, encryption and metadata of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document.Detect(args[0])
			if err != nil {
				return err
			}
			if doc.Kind != document.KindPDF {
				return fmt.Errorf("%s is not a pdf", doc.Name())
			}
			info, err := textlayer.ReadInfo(doc.Path)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "File\t%s\n", doc.Name())
			fmt.Fprintf(tw, "Size\t%s\n", humanize.Bytes(uint64(doc.Size)))
			fmt.Fprintf(tw, "Pages\t%d\n", info.Pages)
			fmt.Fprintf(tw, "Encrypted\t%t\n", info.Encrypted)
			keys := make([]string, 0, len(info.Metadata))
			for k := range info.Metadata {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(tw, "%s\t%s\n", k, info.Metadata[k])
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (a *app) languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the installed OCR languages",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			r := ocr.NewRecognizer(nil)
			r.Logger = a.logger
			for _, lang := range r.AvailableLanguages() {
				fmt.Fprintln(cmd.OutOrStdout(), lang)
			}
		},
	}
}

func (a *app) renameCmd() *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "rename <folder>",
		Short: "Rename the files of a folder in place",
		Long: `Rename every file directly inside a folder. The pattern supports {n}, the
position of the file in the sorted listing, and {name}, the original name
without extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := rename.BatchRename(args[0], pattern)
			for _, p := range pairs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", p.Old, p.New)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "file_{n}_{name}", "rename pattern")
	return cmd
}

func (a *app) organizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "organize <folder>",
		Short: "Move the files of a folder into one sub-folder per file type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			moved, err := rename.OrganizeByType(args[0])
			cats := make([]string, 0, len(moved))
			for c := range moved {
				cats = append(cats, c)
			}
			sort.Strings(cats)
			for _, c := range cats {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", c, moved[c])
			}
			return err
		},
	}
}

func (a *app) duplicatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates <folder>",
		Short: "Report files with identical content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dups, err := rename.FindDuplicates(args[0])
			if err != nil {
				return err
			}
			var wasted uint64
			for _, d := range dups {
				if fi, err := os.Stat(d.Path); err == nil {
					wasted += uint64(fi.Size())
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s duplicates %s\n", d.Path, d.Original)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d duplicates, %s reclaimable\n", len(dups), humanize.Bytes(wasted))
			return nil
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init <path>",
		Short: "Write the built-in defaults to a yaml, toml or json file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err == nil {
				return fmt.Errorf("%s already exists", args[0])
			}
			if err := config.Default().Save(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.cfg)
		},
	})
	return cmd
}
