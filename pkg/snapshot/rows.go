package snapshot

// The parquet tags keep the column names the downstream analysis and
// visualization tooling has always consumed, so the snapshots stay a
// drop-in data contract.

// GrowthMeasurementRow is one point on a patient's growth curve: either a
// follow-up anthropometry visit or the birth measurements (AC_Num 0).
// AC_EG_Dias is the corrected age in days — days since birth plus the
// gestational age at birth — and is null when the birth date or gestational
// age is unknown for the patient.
type GrowthMeasurementRow struct {
	PatientID         string   `parquet:"Paciente_ID"`
	VisitNumber       int64    `parquet:"AC_Num"`
	Height            *float64 `parquet:"AC_Talla,optional"`
	Weight            float64  `parquet:"AC_Peso"`
	HeadCircumference *float64 `parquet:"AC_PC,optional"`
	CorrectedAgeDays  *int64   `parquet:"AC_EG_Dias,optional"`
}

// PatientRow is one patient with sex, hospitalization days and the
// (Iden_Codigo, Iden_Sede) join key.
type PatientRow struct {
	PatientID    string `parquet:"Paciente_ID"`
	Sex          int64  `parquet:"Iden_Sexo"`
	HospitalDays *int64 `parquet:"HD_TotalDiasHospital,optional"`
	PatientCode  int64  `parquet:"Iden_Codigo"`
	SiteCode     int64  `parquet:"Iden_Sede"`
}

// PatientWeaningRow is a PatientRow enriched with the externally computed
// oxygen-weaning and breastfeeding-outcome variables. The outcome columns
// are null for patients without a row in the weaning spreadsheet (left
// join policy).
type PatientWeaningRow struct {
	Sex                       int64    `parquet:"Iden_Sexo"`
	HospitalDays              *int64   `parquet:"HD_TotalDiasHospital,optional"`
	SiteCode                  int64    `parquet:"Iden_Sede"`
	PatientCode               int64    `parquet:"Iden_Codigo"`
	WeaningAgeDays            *float64 `parquet:"edaddestete,optional"`
	OxygenAtAdmission         *float64 `parquet:"oxigenoalaentrada,optional"`
	OxygenWeaningWeight       *float64 `parquet:"pesodesteteoxigeno,optional"`
	AnyBreastfeeding3M        *float64 `parquet:"algoLM3meses,optional"`
	AnyBreastfeeding6M        *float64 `parquet:"algoLM6meses,optional"`
	AnyBreastfeeding40W       *float64 `parquet:"algoLM40sem,optional"`
	ExclusiveBreastfeeding40W *float64 `parquet:"LME40,optional"`
	ExclusiveBreastfeeding3M  *float64 `parquet:"LME3m,optional"`
	ExclusiveBreastfeeding6M  *float64 `parquet:"LME6m,optional"`
	PatientID                 string   `parquet:"Paciente_ID"`
}
