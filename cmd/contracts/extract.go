package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contracts-tracker/internal/catalog"
	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
	"github.com/joseph-ayodele/contracts-tracker/internal/ingest"
	"github.com/joseph-ayodele/contracts-tracker/internal/ocr"
)

// documentExtractor builds the extraction pipeline alone; these commands never touch the ledger.
func documentExtractor(g *globals, page int) (*extract.PageExtractor, *ocr.Reader, *catalog.Catalog, error) {
	cfg := g.config()
	logger := g.logger()
	cat, err := catalog.Load(cfg.Catalog.Path, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	fields, err := cat.Extractor(logger)
	if err != nil {
		return nil, nil, nil, err
	}
	reader := ocr.NewReader(ocr.Config{
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
	}, logger)
	if page <= 0 {
		page = cat.ExtractPage
	}
	return extract.NewPageExtractor(reader, fields, page, logger), reader, cat, nil
}

func newExtractCmd(g *globals) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract contract fields from one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pe, _, _, err := documentExtractor(g, page)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res, err := pe.ExtractDocument(cmd.Context(), extract.Document{Name: args[0], Data: data})
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "1-based page to read (default from catalog)")
	return cmd
}

func newExtractDirCmd(g *globals) *cobra.Command {
	var (
		page          int
		includeHidden bool
		watch         bool
	)
	cmd := &cobra.Command{
		Use:   "extract-dir <dir>",
		Short: "Extract every contract document under a directory",
		Long: `extract-dir walks a directory and prints the extracted fields of every pdf, jpg,
jpeg and png file. Files with identical content are read once.
With --watch it keeps running and extracts documents as they appear.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pe, _, _, err := documentExtractor(g, page)
			if err != nil {
				return err
			}
			batch := ingest.NewBatch(pe, g.logger())
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			if watch {
				return watchDir(ctx, g, batch, args[0], !includeHidden, cmd)
			}
			results, stats, err := batch.ExtractDirectory(ctx, args[0], !includeHidden)
			for _, r := range results {
				printBatchResult(cmd, r)
			}
			fmt.Fprintf(out, "scanned=%d matched=%d succeeded=%d deduplicated=%d failed=%d\n",
				stats.Scanned, stats.Matched, stats.Succeeded, stats.Deduplicated, stats.Failed)
			return err
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "1-based page to read (default from catalog)")
	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "Also read hidden files and directories")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep watching the directory for new documents")
	return cmd
}

func watchDir(ctx context.Context, g *globals, batch *ingest.Batch, root string, skipHidden bool, cmd *cobra.Command) error {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
		Logger:      g.logger(),
	})
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case p, ok := <-events:
			if !ok {
				return nil
			}
			if skipHidden && hiddenUnder(root, p) {
				continue
			}
			r, err := batch.ExtractPath(ctx, p)
			if err != nil {
				r.Err = err.Error()
			}
			printBatchResult(cmd, r)
		case err, ok := <-errs:
			if ok && err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "watch: %v\n", err)
			}
		}
	}
}

func printBatchResult(cmd *cobra.Command, r ingest.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "== %s\n", r.Path)
	switch {
	case r.Err != "":
		fmt.Fprintf(out, "error: %s\n", r.Err)
	case r.DuplicateOf != "":
		fmt.Fprintf(out, "duplicate of %s\n", r.DuplicateOf)
		printResult(out, r.Extraction)
	default:
		printResult(out, r.Extraction)
	}
}

func newPreviewCmd(g *globals) *cobra.Command {
	var (
		output string
		width  int
		height int
		page   int
	)
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Render a document page to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reader, cat, err := documentExtractor(g, 0)
			if err != nil {
				return err
			}
			if page <= 0 {
				page = cat.PreviewPage
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			png, rendered, err := reader.Preview(cmd.Context(), extract.Document{Name: args[0], Data: data}, page, width, height)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, png, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d written to %s\n", rendered, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "preview.png", "Output PNG path")
	cmd.Flags().IntVar(&width, "width", 900, "Maximum width in pixels (0 = unbounded)")
	cmd.Flags().IntVar(&height, "height", 0, "Maximum height in pixels (0 = unbounded)")
	cmd.Flags().IntVar(&page, "page", 0, "1-based page (default from catalog; falls back to page 1)")
	return cmd
}

// hiddenUnder reports whether any element of p below root is hidden.
func hiddenUnder(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if ingest.IsHidden(part) {
			return true
		}
	}
	return false
}
