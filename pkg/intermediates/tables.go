package intermediates

import (
	"time"

	"github.com/canguro-platform/growthcurves/pkg/karen"
	"github.com/canguro-platform/growthcurves/pkg/snapshot"
)

// Audit table names. The Spanish names match the sections of the Karen
// export so the clinical team can find the records in their own system.
const (
	tableIdentification  = "Identificacion"
	tableNewbornExam     = "ExamenRecienNacido"
	tableHospitalization = "HospitalizacionDiagnostico"
	tableAnthropometry   = "Antropometria"
	tableGestationalAge  = "EdadGestacionalAlNacer"
	tableIdentityCodes   = "CodigoIdentificacion"

	// Output table names, kept from the historical artifacts.
	TableGrowthMeasurements = "antropometrias_nacimiento_evoluciones"
	TablePatients           = "pacientes"
	TablePatientsWeaning    = "pacientes_alim_ox"
)

type identificationInfo struct {
	birthDate   time.Time
	birthWeight float64
	sex         int64
}

type newbornExamInfo struct {
	height            float64
	headCircumference float64
}

type visitInfo struct {
	patientID         string
	visitNumber       int64
	timestamp         time.Time
	height            float64
	weight            float64
	headCircumference float64
}

// Sections is the per-section view of the patient export after null-row
// exclusion. A record with a null in any required column of a section is
// excluded from that section only, recorded in the audit under the first
// missing column, and keeps contributing to the sections it is complete in.
type Sections struct {
	order           []string
	identification  map[string]identificationInfo
	newbornExam     map[string]newbornExamInfo
	hospitalization map[string]int64
	gestationalAge  map[string]int64
	visits          []visitInfo
}

// ExtractSections flattens the nested clinical sections of the patient
// export into the per-section tables the builders join.
func ExtractSections(patients []karen.PatientDocument, audit *Audit) *Sections {
	s := &Sections{
		identification:  make(map[string]identificationInfo),
		newbornExam:     make(map[string]newbornExamInfo),
		hospitalization: make(map[string]int64),
		gestationalAge:  make(map[string]int64),
	}

	for _, doc := range patients {
		id := doc.ID.Hex
		s.order = append(s.order, id)

		if info, ok := extractIdentification(doc, audit); ok {
			s.identification[id] = info
		}
		if info, ok := extractNewbornExam(doc, audit); ok {
			s.newbornExam[id] = info
		}
		if days, ok := extractHospitalization(doc, audit); ok {
			s.hospitalization[id] = days
		}
		if days, ok := extractGestationalAge(doc, audit); ok {
			s.gestationalAge[id] = days
		}
		s.visits = append(s.visits, extractVisits(doc, audit)...)
	}

	return s
}

func extractIdentification(doc karen.PatientDocument, audit *Audit) (identificationInfo, bool) {
	sec := doc.Identification
	switch {
	case sec == nil || !sec.BirthDate.Valid:
		audit.RecordNull(tableIdentification, "Iden_FechaParto", doc.ID.Hex)
	case !sec.BirthWeight.Valid:
		audit.RecordNull(tableIdentification, "Iden_PesoParto", doc.ID.Hex)
	case !sec.Sex.Valid:
		audit.RecordNull(tableIdentification, "Iden_Sexo", doc.ID.Hex)
	case !sec.SiteCode.Valid:
		audit.RecordNull(tableIdentification, "Iden_Sede", doc.ID.Hex)
	default:
		return identificationInfo{
			birthDate:   sec.BirthDate.Time,
			birthWeight: sec.BirthWeight.Float64,
			sex:         sec.Sex.Int64,
		}, true
	}
	return identificationInfo{}, false
}

func extractNewbornExam(doc karen.PatientDocument, audit *Audit) (newbornExamInfo, bool) {
	sec := doc.NewbornExam
	switch {
	case sec == nil || !sec.Height.Valid:
		audit.RecordNull(tableNewbornExam, "ERN_Talla", doc.ID.Hex)
	case !sec.HeadCircumference.Valid:
		audit.RecordNull(tableNewbornExam, "ERN_PC", doc.ID.Hex)
	default:
		return newbornExamInfo{
			height:            sec.Height.Float64,
			headCircumference: sec.HeadCircumference.Float64,
		}, true
	}
	return newbornExamInfo{}, false
}

func extractHospitalization(doc karen.PatientDocument, audit *Audit) (int64, bool) {
	sec := doc.Hospitalization
	if sec == nil || !sec.TotalHospitalDays.Valid {
		audit.RecordNull(tableHospitalization, "HD_TotalDiasHospital", doc.ID.Hex)
		return 0, false
	}
	return sec.TotalHospitalDays.Int64, true
}

func extractGestationalAge(doc karen.PatientDocument, audit *Audit) (int64, bool) {
	var sec *karen.GestationalAge
	if doc.Pediatrics != nil && doc.Pediatrics.InitialExam != nil {
		sec = doc.Pediatrics.InitialExam.GestationalAge
	}
	switch {
	case sec == nil || !sec.TotalDays.Valid:
		audit.RecordNull(tableGestationalAge, "EIP_EG_DiasTotales", doc.ID.Hex)
	case sec.Selected == "":
		audit.RecordNull(tableGestationalAge, "EIP_EG_Selecciono", doc.ID.Hex)
	default:
		return sec.TotalDays.Int64, true
	}
	return 0, false
}

func extractVisits(doc karen.PatientDocument, audit *Audit) []visitInfo {
	var visits []visitInfo
	for _, an := range doc.Anthropometries {
		switch {
		case !an.VisitNumber.Valid:
			audit.RecordNull(tableAnthropometry, "V_id", doc.ID.Hex)
		case !an.Timestamp.Valid:
			audit.RecordNull(tableAnthropometry, "AN_timestamp", doc.ID.Hex)
		case !an.Height.Valid:
			audit.RecordNull(tableAnthropometry, "AN_Talla", doc.ID.Hex)
		case !an.Weight.Valid:
			audit.RecordNull(tableAnthropometry, "AN_Peso", doc.ID.Hex)
		case !an.HeadCircumference.Valid:
			audit.RecordNull(tableAnthropometry, "AN_PC", doc.ID.Hex)
		default:
			visits = append(visits, visitInfo{
				patientID:         doc.ID.Hex,
				visitNumber:       an.VisitNumber.Int64,
				timestamp:         an.Timestamp.Time,
				height:            an.Height.Float64,
				weight:            an.Weight.Float64,
				headCircumference: an.HeadCircumference.Float64,
			})
		}
	}
	return visits
}

// BuildGrowthMeasurements produces one row per anthropometry visit plus one
// birth row (AC_Num 0) per patient with complete identification. The
// corrected age joins are left joins: a visit of a patient without a birth
// date or gestational age keeps its measurements with a null corrected age.
func BuildGrowthMeasurements(s *Sections) ([]snapshot.GrowthMeasurementRow, error) {
	rows := make([]snapshot.GrowthMeasurementRow, 0, len(s.visits)+len(s.identification))

	for _, v := range s.visits {
		row := snapshot.GrowthMeasurementRow{
			PatientID:         v.patientID,
			VisitNumber:       v.visitNumber,
			Height:            ptr(v.height),
			Weight:            v.weight,
			HeadCircumference: ptr(v.headCircumference),
		}
		iden, hasIden := s.identification[v.patientID]
		eg, hasEG := s.gestationalAge[v.patientID]
		if hasIden && hasEG {
			row.CorrectedAgeDays = ptr(daysBetween(iden.birthDate, v.timestamp) + eg)
		}
		rows = append(rows, row)
	}

	for _, id := range s.order {
		iden, ok := s.identification[id]
		if !ok {
			continue
		}
		row := snapshot.GrowthMeasurementRow{
			PatientID:   id,
			VisitNumber: 0,
			Weight:      iden.birthWeight,
		}
		if exam, ok := s.newbornExam[id]; ok {
			row.Height = ptr(exam.height)
			row.HeadCircumference = ptr(exam.headCircumference)
		}
		if eg, ok := s.gestationalAge[id]; ok {
			row.CorrectedAgeDays = ptr(eg)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, EmptyResultError{Table: TableGrowthMeasurements}
	}
	return rows, nil
}

// BuildPatients joins the identification section with hospitalization days
// and the identity-mapping export. A patient without an identity mapping
// has no join key and is excluded and reported. Rows sharing a duplicated
// (Iden_Sede, Iden_Codigo) pair are all removed, duplicates being an export
// defect the clinical team has to resolve.
func BuildPatients(s *Sections, identities []karen.IdentityDocument, audit *Audit) ([]snapshot.PatientRow, error) {
	keys := make(map[string]karen.IdentityKeys, len(identities))
	for _, doc := range identities {
		sec := doc.Identification
		switch {
		case sec == nil || !sec.PatientCode.Valid:
			audit.RecordNull(tableIdentityCodes, "Iden_Codigo", doc.ID.Hex)
		case !sec.SiteCode.Valid:
			audit.RecordNull(tableIdentityCodes, "Iden_Sede", doc.ID.Hex)
		default:
			keys[doc.ID.Hex] = *sec
		}
	}

	rows := make([]snapshot.PatientRow, 0, len(s.identification))
	for _, id := range s.order {
		iden, ok := s.identification[id]
		if !ok {
			continue
		}
		key, ok := keys[id]
		if !ok {
			audit.RecordNull(TablePatients, "Iden_Codigo", id)
			continue
		}

		row := snapshot.PatientRow{
			PatientID:   id,
			Sex:         iden.sex,
			PatientCode: key.PatientCode.Int64,
			SiteCode:    key.SiteCode.Int64,
		}
		if days, ok := s.hospitalization[id]; ok {
			row.HospitalDays = ptr(days)
		}
		rows = append(rows, row)
	}

	rows = removeDuplicatePairs(rows, TablePatients, audit)
	if len(rows) == 0 {
		return nil, EmptyResultError{Table: TablePatients, Left: len(s.order), Right: len(identities)}
	}
	return rows, nil
}

// BuildPatientsWeaning attaches the weaning-outcome columns to the patients
// table. Under JoinLeft (the default and historical behavior) unmatched
// patients keep null outcome columns; under JoinInner they are dropped.
// A join matching zero patients fails: it means the spreadsheet belongs to
// a different export.
func BuildPatientsWeaning(patients []snapshot.PatientRow, outcomes []WeaningOutcome, policy JoinPolicy, audit *Audit) ([]snapshot.PatientWeaningRow, error) {
	type pair struct{ code, site int64 }

	byKey := make(map[pair]WeaningOutcome, len(outcomes))
	dupKeys := make(map[pair]bool)
	for _, out := range outcomes {
		if out.PatientCode == nil || out.SiteCode == nil {
			audit.RecordNull(TablePatientsWeaning, "Iden_Codigo", out.SourceRef())
			continue
		}
		key := pair{code: *out.PatientCode, site: *out.SiteCode}
		if _, seen := byKey[key]; seen {
			dupKeys[key] = true
			continue
		}
		byKey[key] = out
	}

	rows := make([]snapshot.PatientWeaningRow, 0, len(patients))
	matched := 0
	for _, p := range patients {
		key := pair{code: p.PatientCode, site: p.SiteCode}
		if dupKeys[key] {
			audit.RecordDuplicate(TablePatientsWeaning, p.PatientID)
			continue
		}

		row := snapshot.PatientWeaningRow{
			Sex:          p.Sex,
			HospitalDays: p.HospitalDays,
			SiteCode:     p.SiteCode,
			PatientCode:  p.PatientCode,
			PatientID:    p.PatientID,
		}
		out, ok := byKey[key]
		if ok {
			matched++
			row.WeaningAgeDays = out.WeaningAgeDays
			row.OxygenAtAdmission = out.OxygenAtAdmission
			row.OxygenWeaningWeight = out.OxygenWeaningWeight
			row.AnyBreastfeeding3M = out.AnyBreastfeeding3M
			row.AnyBreastfeeding6M = out.AnyBreastfeeding6M
			row.AnyBreastfeeding40W = out.AnyBreastfeeding40W
			row.ExclusiveBreastfeeding40W = out.ExclusiveBreastfeeding40W
			row.ExclusiveBreastfeeding3M = out.ExclusiveBreastfeeding3M
			row.ExclusiveBreastfeeding6M = out.ExclusiveBreastfeeding6M
		} else if policy == JoinInner {
			continue
		}
		rows = append(rows, row)
	}

	if matched == 0 || len(rows) == 0 {
		return nil, EmptyResultError{
			Table:   TablePatientsWeaning,
			Left:    len(patients),
			Right:   len(outcomes),
			Matched: matched,
		}
	}
	return rows, nil
}

func removeDuplicatePairs(rows []snapshot.PatientRow, table string, audit *Audit) []snapshot.PatientRow {
	type pair struct{ code, site int64 }
	counts := make(map[pair]int, len(rows))
	for _, r := range rows {
		counts[pair{code: r.PatientCode, site: r.SiteCode}]++
	}

	kept := rows[:0]
	for _, r := range rows {
		if counts[pair{code: r.PatientCode, site: r.SiteCode}] > 1 {
			audit.RecordDuplicate(table, r.PatientID)
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// daysBetween is the whole number of days from one instant to another,
// truncated toward negative infinity like a pandas timedelta.
func daysBetween(from, to time.Time) int64 {
	d := to.Sub(from)
	days := int64(d / (24 * time.Hour))
	if d%(24*time.Hour) < 0 {
		days--
	}
	return days
}

func ptr[T any](v T) *T {
	return &v
}
