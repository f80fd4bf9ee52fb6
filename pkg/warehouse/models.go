package warehouse

import (
	"time"

	"gorm.io/datatypes"
)

// The warehouse mirrors the Parquet snapshots so dashboards can query SQL
// instead of files. Column names match the snapshot columns (lowercased for
// Postgres) to keep one data contract.

type GrowthMeasurement struct {
	ID                uint     `gorm:"primaryKey;autoIncrement;column:id"`
	PatientID         string   `gorm:"column:paciente_id;index"`
	VisitNumber       int64    `gorm:"column:ac_num"`
	Height            *float64 `gorm:"column:ac_talla"`
	Weight            float64  `gorm:"column:ac_peso"`
	HeadCircumference *float64 `gorm:"column:ac_pc"`
	CorrectedAgeDays  *int64   `gorm:"column:ac_eg_dias"`
}

func (GrowthMeasurement) TableName() string {
	return "growth_measurements"
}

type Patient struct {
	PatientID    string `gorm:"primaryKey;column:paciente_id"`
	Sex          int64  `gorm:"column:iden_sexo"`
	HospitalDays *int64 `gorm:"column:hd_total_dias_hospital"`
	PatientCode  int64  `gorm:"column:iden_codigo;index:idx_patients_key"`
	SiteCode     int64  `gorm:"column:iden_sede;index:idx_patients_key"`
}

func (Patient) TableName() string {
	return "patients"
}

type PatientWeaning struct {
	PatientID                 string   `gorm:"primaryKey;column:paciente_id"`
	Sex                       int64    `gorm:"column:iden_sexo"`
	HospitalDays              *int64   `gorm:"column:hd_total_dias_hospital"`
	SiteCode                  int64    `gorm:"column:iden_sede"`
	PatientCode               int64    `gorm:"column:iden_codigo"`
	WeaningAgeDays            *float64 `gorm:"column:edaddestete"`
	OxygenAtAdmission         *float64 `gorm:"column:oxigenoalaentrada"`
	OxygenWeaningWeight       *float64 `gorm:"column:pesodesteteoxigeno"`
	AnyBreastfeeding3M        *float64 `gorm:"column:algolm3meses"`
	AnyBreastfeeding6M        *float64 `gorm:"column:algolm6meses"`
	AnyBreastfeeding40W       *float64 `gorm:"column:algolm40sem"`
	ExclusiveBreastfeeding40W *float64 `gorm:"column:lme40"`
	ExclusiveBreastfeeding3M  *float64 `gorm:"column:lme3m"`
	ExclusiveBreastfeeding6M  *float64 `gorm:"column:lme6m"`
}

func (PatientWeaning) TableName() string {
	return "patients_weaning"
}

// PipelineRun keeps one row per execution: when it ran, how many rows each
// table got and what the run excluded.
type PipelineRun struct {
	ID          string            `gorm:"primaryKey;column:id"`
	StartedAt   time.Time         `gorm:"column:started_at"`
	FinishedAt  time.Time         `gorm:"column:finished_at"`
	RowCounts   datatypes.JSONMap `gorm:"column:row_counts;type:jsonb"`
	DropSummary datatypes.JSONMap `gorm:"column:drop_summary;type:jsonb"`
}

func (PipelineRun) TableName() string {
	return "pipeline_runs"
}
