package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vitallink/clinic-records/backend/internal/adapters/database"
	"github.com/vitallink/clinic-records/backend/internal/adapters/events"
	"github.com/vitallink/clinic-records/backend/internal/adapters/wxml"
	"github.com/vitallink/clinic-records/backend/internal/application/services"
	"github.com/vitallink/clinic-records/backend/internal/domain/providers"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/clients/postgres"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/clients/redis"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/observability"
	"github.com/vitallink/clinic-records/backend/pkg/config"
)

// dateLayout is the operator-facing date format (DD/MM/YYYY), matching the
// vendor filename convention
const dateLayout = "02/01/2006"

func main() {
	dirFlag := flag.String("dir", "", "source directory (overrides WXML_DIR)")
	dateFlag := flag.String("date", "", "target date as DD/MM/YYYY (default: today)")
	patternFlag := flag.String("pattern", "", "glob filter on base filenames (overrides WXML_PATTERN)")
	linkFlag := flag.Bool("link-reports", true, "register and link PDF reports after ingesting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *dirFlag != "" {
		cfg.Ingest.WatchDir = *dirFlag
		if os.Getenv("REPORT_DIR") == "" {
			cfg.Ingest.ReportDir = *dirFlag
		}
	}
	if *patternFlag != "" {
		cfg.Ingest.Pattern = *patternFlag
	}

	date := time.Now()
	if *dateFlag != "" {
		date, err = time.Parse(dateLayout, *dateFlag)
		if err != nil {
			log.Fatalf("Invalid -date %q: expected DD/MM/YYYY", *dateFlag)
		}
	}

	observability.InitLogger("clinic-records-ingest", cfg.Server.Env)

	ctx := context.Background()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()

	// Redis is optional for a batch run; without it writes simply skip the
	// event fan-out and the API caches expire by TTL
	var eventBus providers.EventBus
	if redisClient, err := redis.NewClient(&cfg.Redis); err != nil {
		log.Printf("Warning: Redis unavailable, skipping event publishing: %v", err)
	} else {
		defer redisClient.Close()
		eventBus = events.NewRedisEventBus(redisClient)
		defer eventBus.Close()
	}

	patientAdapter := database.NewPatientAdapter(pgClient)
	doctorAdapter := database.NewDoctorAdapter(pgClient)
	examAdapter := database.NewExamAdapter(pgClient)
	reportAdapter := database.NewReportAdapter(pgClient)

	ingestion := services.NewIngestionService(
		wxml.NewScannerWithPattern(cfg.Ingest.WatchDir, cfg.Ingest.Pattern),
		services.NewEntityResolver(patientAdapter, doctorAdapter),
		services.NewExamUpserter(examAdapter),
		examAdapter,
		eventBus,
		nil,
		cfg.Ingest.ExamNumberMaxLen,
	)

	summary, err := ingestion.Run(ctx, date)
	if err != nil {
		log.Fatalf("Ingestion run failed: %v", err)
	}

	printSummary(summary, date)

	if *linkFlag {
		linker := services.NewReportLinkService(
			wxml.NewScanner(cfg.Ingest.ReportDir),
			reportAdapter,
			examAdapter,
			eventBus,
			cfg.Ingest.ExamNumberMaxLen,
		)
		linkSummary, err := linker.Run(ctx)
		if err != nil {
			log.Fatalf("Report linking failed: %v", err)
		}
		printLinkSummary(linkSummary)
	}

	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func printSummary(s *services.IngestionSummary, date time.Time) {
	fmt.Printf("Ingestion run %s for %s\n", s.RunID, date.Format(dateLayout))
	fmt.Printf("  files found:     %d\n", s.FilesFound)
	fmt.Printf("  processed:       %d\n", s.Processed)
	fmt.Printf("  skipped:         %d\n", s.Skipped)
	fmt.Printf("  failed:          %d\n", s.Failed)
	fmt.Printf("  patients created: %d\n", s.PatientsCreated)
	fmt.Printf("  doctors created:  %d\n", s.DoctorsCreated)
	fmt.Printf("  exams created:    %d\n", s.ExamsCreated)
	fmt.Printf("  exams updated:    %d\n", s.ExamsUpdated)
	for _, f := range s.Failures {
		fmt.Printf("  FAILED %s: %s\n", f.Path, f.Reason)
	}
}

func printLinkSummary(s *services.ReportLinkSummary) {
	fmt.Printf("Report linking\n")
	fmt.Printf("  files found: %d\n", s.FilesFound)
	fmt.Printf("  registered:  %d\n", s.Registered)
	fmt.Printf("  linked:      %d\n", s.Linked)
	fmt.Printf("  pending:     %d\n", s.Pending)
}
