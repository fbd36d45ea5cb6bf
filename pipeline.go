package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/lipid-data/lipid.report/internal/dataset"
	"github.com/lipid-data/lipid.report/internal/fetch"
	"github.com/lipid-data/lipid.report/internal/fsutil"
	"github.com/lipid-data/lipid.report/internal/heatmap"
	"github.com/lipid-data/lipid.report/internal/workbook"
)

type pipelineConfig struct {
	Variant dataset.Variant

	// Local input overrides; empty means fetch the variant's fixed URL.
	WorkbookPath string
	StatsPath    string

	// Pre-wrangled CSV mirrors bypass extraction entirely.
	TidyCSV  string
	StatsCSV string

	// Zero thresholds fall back to the variant defaults.
	FCThreshold  float64
	FDRThreshold float64

	Relevel  bool
	Recenter bool

	FetchTimeout time.Duration
}

type pipelineResult struct {
	Table     *dataset.TidyTable
	Stats     []dataset.DifferentialStatistic
	SourceURL string
}

// runPipeline executes one batch run: acquire, extract, join, validate,
// and (when the variant has a statistics table) filter and reorder.
// Every precondition violation is fatal; there are no retries and no
// partial results.
func runPipeline(ctx context.Context, cfg pipelineConfig) (*pipelineResult, error) {
	v := cfg.Variant
	fetcher := fetch.New()
	fetcher.Client = &http.Client{Timeout: cfg.FetchTimeout}
	fsys := fsutil.OSFileSystem{}

	result := &pipelineResult{SourceURL: v.WorkbookURL}

	switch {
	case cfg.TidyCSV != "":
		f, err := os.Open(cfg.TidyCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to open tidy mirror: %w", err)
		}
		defer f.Close()
		result.Table, err = dataset.ReadTidyCSV(f, v)
		if err != nil {
			return nil, err
		}
		result.SourceURL = cfg.TidyCSV

	default:
		path := cfg.WorkbookPath
		if path == "" {
			var cleanup func()
			var err error
			path, cleanup, err = fetcher.Fetch(ctx, v.WorkbookURL)
			if err != nil {
				return nil, err
			}
			defer cleanup()
		} else {
			result.SourceURL = path
		}

		table, err := extractAndJoin(fsys, path, v)
		if err != nil {
			return nil, err
		}
		result.Table = table
	}

	if err := result.Table.MustValidate(); err != nil {
		return nil, err
	}

	stats, err := loadStats(ctx, fetcher, fsys, cfg)
	if err != nil {
		return nil, err
	}
	result.Stats = stats

	if len(stats) > 0 {
		fc := cfg.FCThreshold
		if fc == 0 {
			fc = v.FCThreshold
		}
		fdr := cfg.FDRThreshold
		if fdr == 0 {
			fdr = v.FDRThreshold
		}
		if err := result.Table.ApplySignificance(stats, fc, fdr, cfg.Relevel); err != nil {
			return nil, err
		}
		log.Printf("Significance filter kept %d analytes (|logFC|>%g, adj.P.Val<%g)",
			len(result.Table.Components()), fc, fdr)

		if cfg.Recenter {
			result.Table.Recenter(v.ReferenceGroup)
		}
	}

	return result, nil
}

// extractAndJoin runs the three sheet extractors over one workbook and
// joins their outputs.
func extractAndJoin(fsys fsutil.FileSystem, path string, v dataset.Variant) (*dataset.TidyTable, error) {
	wb, err := workbook.Open(fsys, path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	samples, err := dataset.ExtractSamples(wb, v)
	if err != nil {
		return nil, err
	}
	features, err := dataset.ExtractFeatures(wb, v)
	if err != nil {
		return nil, err
	}
	abundances, err := dataset.ExtractAbundances(wb, v)
	if err != nil {
		return nil, err
	}

	return dataset.Join(features, abundances, samples, v), nil
}

func loadStats(ctx context.Context, fetcher *fetch.Fetcher, fsys fsutil.FileSystem, cfg pipelineConfig) ([]dataset.DifferentialStatistic, error) {
	v := cfg.Variant

	if cfg.StatsCSV != "" {
		f, err := os.Open(cfg.StatsCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to open statistics mirror: %w", err)
		}
		defer f.Close()
		return dataset.ReadStatsCSV(f)
	}

	path := cfg.StatsPath
	if path == "" {
		if v.StatsURL == "" {
			return nil, nil // variant has no statistics table
		}
		var cleanup func()
		var err error
		path, cleanup, err = fetcher.Fetch(ctx, v.StatsURL)
		if err != nil {
			return nil, err
		}
		defer cleanup()
	}

	wb, err := workbook.Open(fsys, path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	return dataset.ExtractStats(wb, v.StatsSheet)
}

// buildSpec assembles the heatmap configuration record for a variant.
// Row clustering is suppressed when the significance filter releveled
// the component factor, so fold-change rank order is the literal row
// order.
func buildSpec(v dataset.Variant, releveled bool) heatmap.Spec {
	spec := heatmap.Default(v.Title)
	spec.SplitBy = "group"
	spec.Tiles = []heatmap.TileAnnotation{
		{Column: "group"},
		{Column: "sex"},
		{Column: "batch", Size: 0.5},
	}
	spec.Points = []heatmap.PointAnnotation{{Column: "cell_number"}}

	if releveled {
		spec.Clustering.Rows = false
	}
	return spec
}

// renderOutputs writes the HTML and PNG heatmaps and returns the paths
// written.
func renderOutputs(dir string, v dataset.Variant, result *pipelineResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	spec := buildSpec(v, result.Table.Domains.Component != nil)

	var html bytes.Buffer
	if err := heatmap.RenderHTML(&html, result.Table, spec); err != nil {
		return nil, err
	}
	htmlPath := outputPath(dir, v.Name, ".html")
	if err := os.WriteFile(htmlPath, html.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", htmlPath, err)
	}

	var png bytes.Buffer
	if err := heatmap.RenderPNG(&png, result.Table, spec); err != nil {
		return nil, err
	}
	pngPath := outputPath(dir, v.Name, ".png")
	if err := os.WriteFile(pngPath, png.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", pngPath, err)
	}

	return []string{htmlPath, pngPath}, nil
}
