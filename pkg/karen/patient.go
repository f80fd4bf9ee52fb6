package karen

import (
	"encoding/json"
	"fmt"
	"io"
)

// PatientDocument is one patient episode from the primary Karen export.
// Only the sections the growth-curve tables need are decoded; the rest of
// the document is ignored. The full export schema is an external contract
// owned by the Karen team.
type PatientDocument struct {
	ID              ObjectID                  `json:"_id"`
	Pediatrics      *Pediatrics               `json:"Pediatria"`
	Anthropometries []Anthropometry           `json:"Antropometria"`
	NewbornExam     *NewbornExam              `json:"ExamenRecienNacido"`
	Identification  *Identification           `json:"Identificacion"`
	Hospitalization *HospitalizationDiagnosis `json:"HospitalizacionDiagnostico"`
}

// Identification carries the patient's registration data captured at birth.
// Sex is coded 1 (boy), 2 (girl), 3 (undefined).
type Identification struct {
	BirthDate   Date  `json:"Iden_FechaParto"`
	BirthWeight Float `json:"Iden_PesoParto"`
	Sex         Int   `json:"Iden_Sexo"`
	SiteCode    Int   `json:"Iden_Sede"`
}

// NewbornExam holds the measurements taken at birth: height in cm and head
// circumference in cm.
type NewbornExam struct {
	Height            Float `json:"ERN_Talla"`
	HeadCircumference Float `json:"ERN_PC"`
}

// HospitalizationDiagnosis holds the days the infant spent hospitalized
// before entering the ambulatory program.
type HospitalizationDiagnosis struct {
	TotalHospitalDays Int `json:"HD_TotalDiasHospital"`
}

// Anthropometry is one follow-up measurement visit. VisitNumber starts at 1;
// visit 0 is reserved for the birth measurements.
type Anthropometry struct {
	VisitNumber       Int   `json:"V_id"`
	Timestamp         Date  `json:"AN_timestamp"`
	Height            Float `json:"AN_Talla"`
	Weight            Float `json:"AN_Peso"`
	HeadCircumference Float `json:"AN_PC"`
}

type Pediatrics struct {
	InitialExam *InitialPediatricExam `json:"ExamenInicialPediatria"`
}

type InitialPediatricExam struct {
	GestationalAge *GestationalAge `json:"EIP_EdadGestacionalAlNacer"`
}

// GestationalAge is the gestational age at birth in total days, plus the
// criterion the clinician selected to determine it.
type GestationalAge struct {
	TotalDays Int    `json:"EIP_EG_DiasTotales"`
	Selected  string `json:"EIP_EG_Selecciono"`
}

// DecodePatients parses the primary patient export. Every document must
// carry an _id; an export without one is structurally broken and rejected
// as a whole.
func DecodePatients(r io.Reader) ([]PatientDocument, error) {
	var docs []PatientDocument
	dec := json.NewDecoder(r)
	if err := dec.Decode(&docs); err != nil {
		return nil, err
	}
	for i, doc := range docs {
		if doc.ID.Hex == "" {
			return nil, fmt.Errorf("patient record %d has no _id", i)
		}
	}
	return docs, nil
}
