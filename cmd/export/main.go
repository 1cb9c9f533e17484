// Command export writes one collection's curated view to an xlsx workbook
// without starting the dashboard. It loads the collection, refreshes the
// analysis, and writes the export to EXPORT_DIR.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"catalogops/adapters/api"
	"catalogops/adapters/excel"
	"catalogops/adapters/memory"
	"catalogops/app"
	"catalogops/domain/catalog"
	"catalogops/internal/config"
)

func main() {
	collectionFlag := flag.String("collection", "", "collection to export (e.g. sinks)")
	outFlag := flag.String("out", "", "output path; defaults to EXPORT_DIR/<collection>.xlsx")
	flag.Parse()

	if *collectionFlag == "" {
		log.Fatal("Usage: export -collection <name> [-out file.xlsx]")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	collection := catalog.Collection(*collectionFlag)
	service := app.NewCurationService(api.NewClient(cfg.Backend), memory.NewAuditRepository(),
		excel.NewExporter(), []catalog.Collection{collection}, cfg.Backend.PageSize, cfg.Wizard.MaxQueue)

	ctx := context.Background()
	count, err := service.LoadCollection(ctx, collection)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", collection, err)
	}
	if _, err := service.RefreshAnalysis(ctx, collection); err != nil {
		// The export still carries computed scores without the backend analysis.
		log.Printf("Analysis refresh failed, exporting cached data only: %v", err)
	}

	outPath := *outFlag
	if outPath == "" {
		if err := os.MkdirAll(cfg.Export.Dir, 0o755); err != nil {
			log.Fatalf("Failed to create export dir: %v", err)
		}
		outPath = filepath.Join(cfg.Export.Dir, *collectionFlag+".xlsx")
	}

	f, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", outPath, err)
	}
	defer f.Close()

	if err := service.Export(f, collection); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	log.Printf("Exported %d products from %s to %s", count, collection, outPath)
}
