package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/edanalytica/gradelens-backend/internal/config"
	"github.com/edanalytica/gradelens-backend/internal/database"
	"github.com/edanalytica/gradelens-backend/internal/dataset"
	"github.com/edanalytica/gradelens-backend/internal/logger"
	"github.com/edanalytica/gradelens-backend/internal/repository"
)

// copyBatchSize keeps each COPY transaction small enough to report progress
// on multi-hundred-thousand row exports.
const copyBatchSize = 5000

func main() {
	var (
		file     string
		sheet    string
		truncate bool
	)
	flag.StringVar(&file, "file", "", "Path to the CSV or XLSX grade export")
	flag.StringVar(&sheet, "sheet", "", "Workbook sheet to read (XLSX only, first sheet when empty)")
	flag.BoolVar(&truncate, "truncate", false, "Empty the warehouse before loading")
	flag.Parse()

	if file == "" {
		fmt.Println("Usage: ingest --file <export.csv|export.xlsx> [--sheet <name>] [--truncate]")
		return
	}

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// ─── Parse Export ──────────────────────────────────────────────────
	var source dataset.Source
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		source = &dataset.CSVSource{Path: file}
	case ".xlsx":
		source = &dataset.XLSXSource{Path: file, Sheet: sheet}
	default:
		log.Fatal().Str("file", file).Msg("Unsupported export format, expected .csv or .xlsx")
	}

	fmt.Printf("=== Ingesting %s ===\n", source.Describe())

	rows, err := source.Rows(ctx)
	if err != nil {
		var schemaErr *dataset.SchemaError
		if errors.As(err, &schemaErr) {
			log.Fatal().
				Str("column", schemaErr.Column).
				Int("line", schemaErr.Line).
				Str("reason", schemaErr.Reason).
				Msg("Export failed schema validation")
		}
		log.Fatal().Err(err).Msg("Failed to parse export")
	}
	fmt.Printf("Parsed %d rows\n", len(rows))

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	recordRepo := repository.NewRecordRepository(pool)

	if truncate {
		if err := recordRepo.Truncate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to truncate warehouse")
		}
		fmt.Println("Truncated grade_records")
	}

	// ─── Bulk Load ─────────────────────────────────────────────────────
	var copied int64
	for start := 0; start < len(rows); start += copyBatchSize {
		end := start + copyBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		n, err := recordRepo.CopyRows(ctx, rows[start:end])
		if err != nil {
			log.Fatal().Err(err).Int("offset", start).Msg("Failed to copy batch")
		}
		copied += n
		fmt.Printf("Copied %d/%d rows...\n", copied, len(rows))
	}

	total, err := recordRepo.Count(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to count warehouse rows")
	}

	fmt.Printf("\nIngest completed! Copied %d rows, warehouse now holds %d.\n", copied, total)
}
