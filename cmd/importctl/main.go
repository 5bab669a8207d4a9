package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/campuslab/research-adm-api/internal/importer"
	"github.com/campuslab/research-adm-api/internal/service"
	"github.com/campuslab/research-adm-api/pkg/config"
	"github.com/campuslab/research-adm-api/pkg/database"
	"github.com/campuslab/research-adm-api/pkg/export"
	"github.com/campuslab/research-adm-api/pkg/logger"
)

func main() {
	domain := flag.String("domain", "", "import domain: initiatives, scholarships or units")
	reportPath := flag.String("report", "", "write the run report to this file (.csv or .pdf)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: importctl -domain <domain> [-report out.csv|out.pdf] <file.csv|file.zip>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *domain == "" || flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	content, err := os.ReadFile(path)
	if err != nil {
		logr.Sugar().Fatalw("read input file", "path", path, "error", err)
	}
	content, err = importer.ExtractCSV(filepath.Base(path), content)
	if err != nil {
		logr.Sugar().Fatalw("extract csv", "path", path, "error", err)
	}

	imports := service.NewImportService(importer.NewSQLTxRunner(db), nil, cfg.Import, logr, nil)

	report, err := imports.Run(context.Background(), *domain, bytes.NewReader(content))
	if err != nil {
		logr.Sugar().Fatalw("import failed", "domain", *domain, "error", err)
	}

	fmt.Print(report.SummaryLimited(cfg.Import.ErrorDisplayLimit))

	if *reportPath != "" {
		if err := writeReport(*reportPath, *domain, report); err != nil {
			logr.Sugar().Fatalw("write report", "path", *reportPath, "error", err)
		}
		fmt.Printf("report written to %s\n", *reportPath)
	}
}

func writeReport(path, domain string, report *importer.Report) error {
	dataset := service.ReportDataset(domain, report)

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		data, err = export.NewCSVExporter().Render(dataset)
	case ".pdf":
		data, err = export.NewPDFExporter().Render(dataset, fmt.Sprintf("Import report: %s", domain))
	default:
		return fmt.Errorf("unsupported report extension %q, use .csv or .pdf", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
