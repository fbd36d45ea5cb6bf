// Command lipid-report fetches a published lipidomics dataset, tidies
// it into an analysis-ready observation table, optionally applies a
// differential-significance filter, and renders annotated heatmaps.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lipid-data/lipid.report/internal/dataset"
	"github.com/lipid-data/lipid.report/internal/store"
)

const dbFile = "lipid_report.db"

var (
	variantName = flag.String("variant", "app-saa", "Dataset variant to process")
	dbPath      = flag.String("db", dbFile, "Path to the sqlite run database ('' disables persistence)")
	outDir      = flag.String("out", "out", "Directory for rendered heatmaps")

	workbookPath = flag.String("workbook", "", "Local workbook path (skips fetching)")
	statsPath    = flag.String("stats", "", "Local statistics workbook path (skips fetching)")
	tidyCSV      = flag.String("tidy-csv", "", "Pre-wrangled tidy CSV mirror (bypasses extraction)")
	statsCSV     = flag.String("stats-csv", "", "Pre-wrangled statistics CSV mirror")

	fcThreshold  = flag.Float64("fc", 0, "Absolute logFC threshold (0 uses the variant default)")
	fdrThreshold = flag.Float64("fdr", 0, "Adjusted p-value threshold (0 uses the variant default)")
	noRelevel    = flag.Bool("no-relevel", false, "Keep feature order instead of fold-change rank order")
	recenter     = flag.Bool("recenter", false, "Recenter abundances on the reference group median")

	serve  = flag.Bool("serve", false, "Serve the rendered heatmaps over HTTP after the run")
	listen = flag.String("listen", ":8080", "Listen address for -serve")

	fetchTimeout = flag.Duration("fetch-timeout", 2*time.Minute, "Deadline for each download")
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		// Parse the remaining flags so -db works with the subcommand.
		flag.CommandLine.Parse(os.Args[2:])
		store.RunMigrateCommand(flag.Args(), *dbPath)
		return
	}

	flag.Parse()

	variant, err := dataset.LookupVariant(*variantName)
	if err != nil {
		log.Fatalf("Invalid variant: %v", err)
	}

	cfg := pipelineConfig{
		Variant:      variant,
		WorkbookPath: *workbookPath,
		StatsPath:    *statsPath,
		TidyCSV:      *tidyCSV,
		StatsCSV:     *statsCSV,
		FCThreshold:  *fcThreshold,
		FDRThreshold: *fdrThreshold,
		Relevel:      !*noRelevel,
		Recenter:     *recenter,
		FetchTimeout: *fetchTimeout,
	}

	result, err := runPipeline(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}
	log.Printf("Tidy table ready: %d rows, %d analytes, %d samples",
		result.Table.Len(), len(result.Table.Components()), len(result.Table.Samples()))

	if *dbPath != "" {
		if err := persistRun(*dbPath, variant, result); err != nil {
			log.Fatalf("Failed to persist run: %v", err)
		}
	}

	outputs, err := renderOutputs(*outDir, variant, result)
	if err != nil {
		log.Fatalf("Failed to render heatmaps: %v", err)
	}
	for _, o := range outputs {
		log.Printf("Wrote %s", o)
	}

	if *serve {
		serveOutputs(*outDir, *listen)
	}
}

func persistRun(path string, variant dataset.Variant, result *pipelineResult) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.MigrateUp(); err != nil {
		return err
	}

	runID, err := s.SaveRun(variant.Name, result.SourceURL, result.Table, result.Stats)
	if err != nil {
		return err
	}
	log.Printf("Recorded run %s in %s", runID, path)
	return nil
}

// serveOutputs serves the rendered files until interrupted, shutting
// down gracefully the same way the pipeline's other long-running
// surfaces do.
func serveOutputs(dir, addr string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(dir)))

	server := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		}),
	}

	go func() {
		log.Printf("Serving %s on %s", dir, addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}

func outputPath(dir, variant, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-heatmap%s", variant, ext))
}
