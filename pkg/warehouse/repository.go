package warehouse

import (
	"context"

	"github.com/canguro-platform/growthcurves/pkg/common/logger"
	"github.com/canguro-platform/growthcurves/pkg/intermediates"
	"github.com/canguro-platform/growthcurves/pkg/snapshot"
	"gorm.io/gorm"
)

const insertBatchSize = 500

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&GrowthMeasurement{},
		&Patient{},
		&PatientWeaning{},
		&PipelineRun{},
	)
}

// Store implements intermediates.Warehouse. Each run replaces the previous
// table contents wholesale, matching the snapshot overwrite semantics, and
// appends a pipeline_runs row. Everything happens in one transaction so a
// failed run leaves the previous tables in place.
func (r *Repository) Store(ctx context.Context, run intermediates.RunRecord,
	growth []snapshot.GrowthMeasurementRow,
	patients []snapshot.PatientRow,
	weaning []snapshot.PatientWeaningRow) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := replaceGrowth(tx, growth); err != nil {
			return err
		}
		if err := replacePatients(tx, patients); err != nil {
			return err
		}
		if err := replaceWeaning(tx, weaning); err != nil {
			return err
		}

		rowCounts := make(map[string]interface{}, len(run.RowCounts))
		for table, count := range run.RowCounts {
			rowCounts[table] = count
		}
		return tx.Create(&PipelineRun{
			ID:          run.ID,
			StartedAt:   run.StartedAt,
			FinishedAt:  run.FinishedAt,
			RowCounts:   rowCounts,
			DropSummary: run.DropSummary,
		}).Error
	})
	if err != nil {
		return err
	}

	logger.Log.WithFields(map[string]interface{}{
		"run_id":              run.ID,
		"growth_measurements": len(growth),
		"patients":            len(patients),
		"patients_weaning":    len(weaning),
	}).Info("Warehouse tables reloaded")
	return nil
}

func replaceGrowth(tx *gorm.DB, rows []snapshot.GrowthMeasurementRow) error {
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&GrowthMeasurement{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	records := make([]GrowthMeasurement, 0, len(rows))
	for _, row := range rows {
		records = append(records, GrowthMeasurement{
			PatientID:         row.PatientID,
			VisitNumber:       row.VisitNumber,
			Height:            row.Height,
			Weight:            row.Weight,
			HeadCircumference: row.HeadCircumference,
			CorrectedAgeDays:  row.CorrectedAgeDays,
		})
	}
	return tx.CreateInBatches(records, insertBatchSize).Error
}

func replacePatients(tx *gorm.DB, rows []snapshot.PatientRow) error {
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Patient{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	records := make([]Patient, 0, len(rows))
	for _, row := range rows {
		records = append(records, Patient{
			PatientID:    row.PatientID,
			Sex:          row.Sex,
			HospitalDays: row.HospitalDays,
			PatientCode:  row.PatientCode,
			SiteCode:     row.SiteCode,
		})
	}
	return tx.CreateInBatches(records, insertBatchSize).Error
}

func replaceWeaning(tx *gorm.DB, rows []snapshot.PatientWeaningRow) error {
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&PatientWeaning{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	records := make([]PatientWeaning, 0, len(rows))
	for _, row := range rows {
		records = append(records, PatientWeaning{
			PatientID:                 row.PatientID,
			Sex:                       row.Sex,
			HospitalDays:              row.HospitalDays,
			SiteCode:                  row.SiteCode,
			PatientCode:               row.PatientCode,
			WeaningAgeDays:            row.WeaningAgeDays,
			OxygenAtAdmission:         row.OxygenAtAdmission,
			OxygenWeaningWeight:       row.OxygenWeaningWeight,
			AnyBreastfeeding3M:        row.AnyBreastfeeding3M,
			AnyBreastfeeding6M:        row.AnyBreastfeeding6M,
			AnyBreastfeeding40W:       row.AnyBreastfeeding40W,
			ExclusiveBreastfeeding40W: row.ExclusiveBreastfeeding40W,
			ExclusiveBreastfeeding3M:  row.ExclusiveBreastfeeding3M,
			ExclusiveBreastfeeding6M:  row.ExclusiveBreastfeeding6M,
		})
	}
	return tx.CreateInBatches(records, insertBatchSize).Error
}
