package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/radszy/gerritstats/internal/gerrit"
	"github.com/radszy/gerritstats/internal/report"
	"github.com/radszy/gerritstats/internal/services"
	"github.com/radszy/gerritstats/pkg/config"
	"github.com/radszy/gerritstats/pkg/logger"
)

var (
	configPath = flag.String("config", "", "Path to the TOML config file (required)")
	sshUser    = flag.String("user", "", "Username for the ssh connection to Gerrit (required)")
	outputDir  = flag.String("output", ".", "Directory the reports are written into")
	xlsx       = flag.Bool("xlsx", false, "Also write a stats.xlsx workbook")
)

func main() {
	flag.Parse()

	if err := validateFlags(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid flags: %v\n\n", err)
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Init()

	// Fetch merged changes for every configured user
	client := gerrit.NewClient(cfg, *sshUser)
	logger.Infof("Fetching merged changes for %d users from %s. This might take a while.", len(cfg.Users), cfg.Server)
	reviews, err := client.FetchAll(context.Background(), cfg.Users)
	if err != nil {
		logger.Fatalf("Failed to fetch reviews: %v", err)
	}
	logger.Infof("Fetched %d reviews", len(reviews))

	// Aggregate
	statsService := services.NewStatisticsService(cfg.UserDateRanges(), cfg.UserNames())
	stats, err := statsService.Collect(reviews)
	if err != nil {
		logger.Fatalf("Failed to collect statistics: %v", err)
	}
	avg, err := statsService.Average(stats)
	if err != nil {
		logger.Fatalf("Failed to compute averages: %v", err)
	}

	// Write reports
	csvWriter := report.NewCSVWriter(*outputDir, cfg.UserNames())
	if err := csvWriter.WriteSimple(stats, avg); err != nil {
		logger.Fatalf("Failed to write %s: %v", report.SimpleFileName, err)
	}
	if err := csvWriter.WriteDetailed(stats); err != nil {
		logger.Fatalf("Failed to write %s: %v", report.DetailedFileName, err)
	}
	if *xlsx {
		excelWriter := report.NewExcelWriter(*outputDir, cfg.UserNames())
		if err := excelWriter.WriteWorkbook(stats, avg); err != nil {
			logger.Fatalf("Failed to write %s: %v", report.WorkbookFileName, err)
		}
	}

	logger.Infof("Reports written to %s", *outputDir)
}

func validateFlags() error {
	if *configPath == "" {
		return errors.New("-config is required")
	}
	if *sshUser == "" {
		return errors.New("-user is required")
	}
	return nil
}
