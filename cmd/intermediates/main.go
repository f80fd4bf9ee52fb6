package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/canguro-platform/growthcurves/pkg/common/config"
	"github.com/canguro-platform/growthcurves/pkg/common/database"
	"github.com/canguro-platform/growthcurves/pkg/common/kafka"
	"github.com/canguro-platform/growthcurves/pkg/common/logger"
	"github.com/canguro-platform/growthcurves/pkg/intermediates"
	"github.com/canguro-platform/growthcurves/pkg/warehouse"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  intermediates [flags] <patients.json>
  intermediates [flags] <patients.json> <identity.json> <weaning.xlsx>

Builds the intermediate growth-curve tables from the Karen exports. With
only the patient export, just the growth-measurements snapshot is written;
with all three inputs, the patients and patients-weaning snapshots are
written too.

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	logger.Init()

	optionsPath := flag.String("options", "", "YAML pipeline options file (join policy, snapshot names)")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 && len(args) != 3 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if *optionsPath == "" {
		*optionsPath = cfg.OptionsFile
	}

	opts, err := intermediates.LoadOptions(*optionsPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("invalid pipeline options")
	}

	pipeline := intermediates.New(cfg.OutputDir, opts)

	if cfg.WarehouseEnabled {
		db, err := database.GetPostgres(cfg)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to connect to the warehouse")
		}
		defer database.ClosePostgres()

		repo := warehouse.NewRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Fatal("failed to migrate warehouse tables")
		}
		pipeline = pipeline.WithWarehouse(repo)
	}

	if cfg.KafkaRefreshTopic != "" {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaRefreshTopic, cfg.KafkaWriteTimeout)
		defer producer.Close()
		pipeline = pipeline.WithPublisher(producer)
	}

	patientsPath := args[0]
	identityPath, weaningPath := "", ""
	if len(args) == 3 {
		identityPath = args[1]
		weaningPath = args[2]
	}

	result, err := pipeline.Run(context.Background(), patientsPath, identityPath, weaningPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("pipeline failed")
	}

	logger.Log.WithFields(map[string]interface{}{
		"run_id":     result.RunID,
		"row_counts": result.RowCounts,
	}).Info("Done")
}
