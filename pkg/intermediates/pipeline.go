// Package intermediates builds the intermediate tables of the growth-curve
// platform from the raw Karen exports: a growth-measurements table, a
// patients table and a patients-plus-weaning-outcomes table, persisted as
// Parquet snapshots for the analysis and visualization tooling.
package intermediates

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/canguro-platform/growthcurves/pkg/common/logger"
	"github.com/canguro-platform/growthcurves/pkg/snapshot"
	"github.com/google/uuid"
)

// EventPublisher notifies downstream consumers that the snapshots changed.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// Warehouse mirrors the snapshots into a database for dashboards that
// prefer SQL over files.
type Warehouse interface {
	Store(ctx context.Context, run RunRecord,
		growth []snapshot.GrowthMeasurementRow,
		patients []snapshot.PatientRow,
		weaning []snapshot.PatientWeaningRow) error
}

// RunRecord is the audit trail of one pipeline execution.
type RunRecord struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	RowCounts   map[string]int
	DropSummary map[string]interface{}
}

// Result reports what a successful run produced.
type Result struct {
	RunID     string
	Snapshots map[string]string
	RowCounts map[string]int
	Audit     *Audit
}

// Pipeline is the single-shot batch job. It runs synchronously start to
// finish; any failure aborts the whole run.
type Pipeline struct {
	outputDir string
	opts      Options
	publisher EventPublisher
	warehouse Warehouse
}

func New(outputDir string, opts Options) *Pipeline {
	if outputDir == "" {
		outputDir = "."
	}
	return &Pipeline{outputDir: outputDir, opts: opts}
}

func (p *Pipeline) WithPublisher(pub EventPublisher) *Pipeline {
	p.publisher = pub
	return p
}

func (p *Pipeline) WithWarehouse(w Warehouse) *Pipeline {
	p.warehouse = w
	return p
}

// Run executes the ETL. The patient export is always required; when the
// identity export and weaning spreadsheet are given, the patients and
// patients-weaning tables are built as well.
func (p *Pipeline) Run(ctx context.Context, patientsPath, identityPath, weaningPath string) (*Result, error) {
	if weaningPath != "" && identityPath == "" {
		return nil, fmt.Errorf("the weaning spreadsheet requires the identity export for the join keys")
	}

	startedAt := time.Now().UTC()
	result := &Result{
		RunID:     uuid.New().String(),
		Snapshots: make(map[string]string),
		RowCounts: make(map[string]int),
		Audit:     NewAudit(),
	}

	logger.Log.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"join_policy": string(p.opts.JoinPolicy),
		"output_dir":  p.outputDir,
	}).Info("Starting intermediate-tables run")

	patients, err := LoadPatients(patientsPath)
	if err != nil {
		return nil, err
	}
	sections := ExtractSections(patients, result.Audit)

	growth, err := BuildGrowthMeasurements(sections)
	if err != nil {
		return nil, err
	}
	if err := writeSnapshot(p, result, TableGrowthMeasurements, p.opts.GrowthSnapshot, growth); err != nil {
		return nil, err
	}

	var patientRows []snapshot.PatientRow
	var weaningRows []snapshot.PatientWeaningRow

	if identityPath != "" {
		identities, err := LoadIdentities(identityPath)
		if err != nil {
			return nil, err
		}
		patientRows, err = BuildPatients(sections, identities, result.Audit)
		if err != nil {
			return nil, err
		}
		if err := writeSnapshot(p, result, TablePatients, p.opts.PatientsSnapshot, patientRows); err != nil {
			return nil, err
		}
	}

	if weaningPath != "" {
		outcomes, err := LoadWeaningOutcomes(weaningPath)
		if err != nil {
			return nil, err
		}
		weaningRows, err = BuildPatientsWeaning(patientRows, outcomes, p.opts.JoinPolicy, result.Audit)
		if err != nil {
			return nil, err
		}
		if err := writeSnapshot(p, result, TablePatientsWeaning, p.opts.WeaningSnapshot, weaningRows); err != nil {
			return nil, err
		}
	}

	reportPath := filepath.Join(p.outputDir, p.opts.ReportFile)
	if err := os.WriteFile(reportPath, []byte(result.Audit.Render()), 0o644); err != nil {
		return nil, fmt.Errorf("write drop report: %w", err)
	}

	finishedAt := time.Now().UTC()

	if p.warehouse != nil {
		run := RunRecord{
			ID:          result.RunID,
			StartedAt:   startedAt,
			FinishedAt:  finishedAt,
			RowCounts:   result.RowCounts,
			DropSummary: result.Audit.Summary(),
		}
		if err := p.warehouse.Store(ctx, run, growth, patientRows, weaningRows); err != nil {
			return nil, fmt.Errorf("warehouse load: %w", err)
		}
	}

	if p.publisher != nil {
		data := map[string]interface{}{
			"run_id":     result.RunID,
			"snapshots":  result.Snapshots,
			"row_counts": result.RowCounts,
		}
		if err := p.publisher.PublishEvent(ctx, "intermediates.refreshed", "growthcurves-intermediates", data); err != nil {
			return nil, fmt.Errorf("publish refresh event: %w", err)
		}
	}

	logger.Log.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"duration": finishedAt.Sub(startedAt).String(),
		"tables":   len(result.Snapshots),
	}).Info("Intermediate-tables run finished")

	return result, nil
}

func writeSnapshot[T any](p *Pipeline, result *Result, table, file string, rows []T) error {
	path := filepath.Join(p.outputDir, file)
	if err := snapshot.Write(path, rows); err != nil {
		return err
	}
	result.Snapshots[table] = path
	result.RowCounts[table] = len(rows)

	logger.Log.WithFields(map[string]interface{}{
		"table": table,
		"rows":  len(rows),
		"path":  path,
	}).Info("Wrote snapshot")
	return nil
}