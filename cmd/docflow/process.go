package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wudi/docflow/pipeline"
)

func (a *app) processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <file>...",
		Short: "Process one or more documents",
		Args:  cobra.MinimumNArgs(1),
	}
	options := a.optionFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		p := a.processor()
		opts := options()
		failed := 0
		for _, path := range args {
			res, err := p.Process(cmd.Context(), path, opts)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n  -> %s\n",
				res.OriginalFile, humanize.Bytes(uint64(res.Size)), res.Summary(), res.OutputDir)
			for _, w := range res.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "  warning [%s]: %s\n", w.Stage, w.Message)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(args))
		}
		return nil
	}
	return cmd
}

func (a *app) batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <folder>",
		Short: "Process every supported file below a folder and write a batch report",
		Args:  cobra.ExactArgs(1),
	}
	options := a.optionFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		p := a.processor()
		entries, err := p.BatchProcessFolder(cmd.Context(), args[0], options())
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Filename, e.Status(), e.Detail())
		}
		tw.Flush()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d files, %d failed\n",
			len(entries), pipeline.Failed(entries))
		return nil
	}
	return cmd
}
