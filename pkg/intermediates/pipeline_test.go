package intermediates

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/canguro-platform/growthcurves/pkg/snapshot"
)

// Two patients: p1 with a follow-up visit ten days after birth and a
// gestational age of 231 days, p2 with no newborn exam and no visits.
const patientsExport = `[
  {
    "_id": {"$oid": "p1"},
    "Identificacion": {
      "Iden_FechaParto": {"$date": {"$numberLong": "1612137600000"}},
      "Iden_PesoParto": 2450,
      "Iden_Sexo": 1,
      "Iden_Sede": 1
    },
    "ExamenRecienNacido": {"ERN_Talla": 46.5, "ERN_PC": 32},
    "HospitalizacionDiagnostico": {"HD_TotalDiasHospital": 12},
    "Pediatria": {
      "ExamenInicialPediatria": {
        "EIP_EdadGestacionalAlNacer": {
          "EIP_EG_DiasTotales": 231,
          "EIP_EG_Selecciono": "ecografia"
        }
      }
    },
    "Antropometria": [
      {
        "V_id": 1,
        "AN_timestamp": {"$date": {"$numberLong": "1613001600000"}},
        "AN_Talla": 48,
        "AN_Peso": 2700,
        "AN_PC": 33
      }
    ]
  },
  {
    "_id": {"$oid": "p2"},
    "Identificacion": {
      "Iden_FechaParto": {"$date": {"$numberLong": "1612224000000"}},
      "Iden_PesoParto": 1800,
      "Iden_Sexo": 2,
      "Iden_Sede": 1
    },
    "Pediatria": {
      "ExamenInicialPediatria": {
        "EIP_EdadGestacionalAlNacer": {
          "EIP_EG_DiasTotales": 200,
          "EIP_EG_Selecciono": "ballard"
        }
      }
    }
  }
]`

const identityExport = `[
  {"_id": {"$oid": "p1"}, "Identificacion": {"Iden_Codigo": 101, "Iden_Sede": 1}},
  {"_id": {"$oid": "p2"}, "Identificacion": {"Iden_Codigo": 102, "Iden_Sede": 1}}
]`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

type publishedEvent struct {
	eventType string
	source    string
	data      map[string]interface{}
}

type stubPublisher struct {
	events []publishedEvent
}

func (s *stubPublisher) PublishEvent(_ context.Context, eventType, source string, data map[string]interface{}) error {
	s.events = append(s.events, publishedEvent{eventType: eventType, source: source, data: data})
	return nil
}

type stubWarehouse struct {
	run      RunRecord
	growth   []snapshot.GrowthMeasurementRow
	patients []snapshot.PatientRow
	weaning  []snapshot.PatientWeaningRow
	calls    int
}

func (s *stubWarehouse) Store(_ context.Context, run RunRecord,
	growth []snapshot.GrowthMeasurementRow,
	patients []snapshot.PatientRow,
	weaning []snapshot.PatientWeaningRow) error {
	s.run = run
	s.growth = growth
	s.patients = patients
	s.weaning = weaning
	s.calls++
	return nil
}

func TestPipelineGrowthOnly(t *testing.T) {
	dir := t.TempDir()
	patientsPath := writeFixture(t, dir, "patients.json", patientsExport)

	out := filepath.Join(dir, "out")
	if err := os.Mkdir(out, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	result, err := New(out, DefaultOptions()).Run(context.Background(), patientsPath, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Snapshots) != 1 {
		t.Fatalf("expected only the growth snapshot, got %v", result.Snapshots)
	}
	if result.RowCounts[TableGrowthMeasurements] != 3 {
		t.Fatalf("expected 1 visit row + 2 birth rows, got %d", result.RowCounts[TableGrowthMeasurements])
	}

	rows, err := snapshot.Read[snapshot.GrowthMeasurementRow](result.Snapshots[TableGrowthMeasurements])
	if err != nil {
		t.Fatalf("read snapshot back: %v", err)
	}
	if rows[0].PatientID != "p1" || rows[0].VisitNumber != 1 {
		t.Fatalf("expected p1's visit first, got %+v", rows[0])
	}
	if rows[0].CorrectedAgeDays == nil || *rows[0].CorrectedAgeDays != 241 {
		t.Fatalf("expected corrected age 241, got %+v", rows[0].CorrectedAgeDays)
	}
	if rows[2].PatientID != "p2" || rows[2].Height != nil {
		t.Fatalf("expected p2's birth row without newborn-exam measurements, got %+v", rows[2])
	}

	report, err := os.ReadFile(filepath.Join(out, "reporte.txt"))
	if err != nil {
		t.Fatalf("expected drop report: %v", err)
	}
	if len(report) == 0 {
		t.Fatal("expected the report to mention p2's missing newborn exam")
	}

	if _, err := os.Stat(filepath.Join(out, "pacientes.parquet")); !os.IsNotExist(err) {
		t.Fatal("patients snapshot should not exist without the identity export")
	}
}

func TestPipelineAllTables(t *testing.T) {
	dir := t.TempDir()
	patientsPath := writeFixture(t, dir, "patients.json", patientsExport)
	identityPath := writeFixture(t, dir, "identities.json", identityExport)
	weaningPath := writeWeaningFile(t, dir, weaningHeaders, [][]interface{}{
		{101, 1, 54, 1, 2500, 1, 0, 1, 1, 1, 0},
	})

	pub := &stubPublisher{}
	wh := &stubWarehouse{}
	p := New(dir, DefaultOptions()).WithPublisher(pub).WithWarehouse(wh)

	result, err := p.Run(context.Background(), patientsPath, identityPath, weaningPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Snapshots) != 3 {
		t.Fatalf("expected three snapshots, got %v", result.Snapshots)
	}
	if result.RowCounts[TablePatients] != 2 || result.RowCounts[TablePatientsWeaning] != 2 {
		t.Fatalf("unexpected row counts %v", result.RowCounts)
	}

	weaning, err := snapshot.Read[snapshot.PatientWeaningRow](result.Snapshots[TablePatientsWeaning])
	if err != nil {
		t.Fatalf("read weaning snapshot: %v", err)
	}
	if weaning[0].PatientID != "p1" || weaning[0].WeaningAgeDays == nil || *weaning[0].WeaningAgeDays != 54 {
		t.Fatalf("expected p1's outcomes populated, got %+v", weaning[0])
	}
	if weaning[1].PatientID != "p2" || weaning[1].WeaningAgeDays != nil {
		t.Fatalf("expected p2's outcomes null under the default left join, got %+v", weaning[1])
	}

	if wh.calls != 1 {
		t.Fatalf("expected one warehouse load, got %d", wh.calls)
	}
	if wh.run.ID != result.RunID {
		t.Fatalf("warehouse run %q does not match result %q", wh.run.ID, result.RunID)
	}
	if len(wh.growth) != 3 || len(wh.patients) != 2 || len(wh.weaning) != 2 {
		t.Fatalf("unexpected warehouse payload: %d/%d/%d rows", len(wh.growth), len(wh.patients), len(wh.weaning))
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected one refresh event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.eventType != "intermediates.refreshed" {
		t.Fatalf("unexpected event type %q", ev.eventType)
	}
	if ev.data["run_id"] != result.RunID {
		t.Fatalf("event run_id %v does not match result %q", ev.data["run_id"], result.RunID)
	}
}

func TestPipelineInnerJoin(t *testing.T) {
	dir := t.TempDir()
	patientsPath := writeFixture(t, dir, "patients.json", patientsExport)
	identityPath := writeFixture(t, dir, "identities.json", identityExport)
	weaningPath := writeWeaningFile(t, dir, weaningHeaders, [][]interface{}{
		{101, 1, 54, 1, 2500, 1, 0, 1, 1, 1, 0},
	})

	opts := DefaultOptions()
	opts.JoinPolicy = JoinInner

	result, err := New(dir, opts).Run(context.Background(), patientsPath, identityPath, weaningPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RowCounts[TablePatientsWeaning] != 1 {
		t.Fatalf("expected only the matched patient under inner join, got %d", result.RowCounts[TablePatientsWeaning])
	}
}

func TestPipelineIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	patientsPath := writeFixture(t, dir, "patients.json", patientsExport)

	first := filepath.Join(dir, "first")
	second := filepath.Join(dir, "second")
	for _, out := range []string{first, second} {
		if err := os.Mkdir(out, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if _, err := New(out, DefaultOptions()).Run(context.Background(), patientsPath, "", ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	a, err := snapshot.Read[snapshot.GrowthMeasurementRow](filepath.Join(first, "antropometrias_nacimiento_evoluciones.parquet"))
	if err != nil {
		t.Fatalf("read first snapshot: %v", err)
	}
	b, err := snapshot.Read[snapshot.GrowthMeasurementRow](filepath.Join(second, "antropometrias_nacimiento_evoluciones.parquet"))
	if err != nil {
		t.Fatalf("read second snapshot: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("expected identical snapshots for identical inputs")
	}
}

func TestPipelineWeaningRequiresIdentity(t *testing.T) {
	dir := t.TempDir()
	patientsPath := writeFixture(t, dir, "patients.json", patientsExport)

	_, err := New(dir, DefaultOptions()).Run(context.Background(), patientsPath, "", "weaning.xlsx")
	if err == nil {
		t.Fatal("expected an error when the weaning spreadsheet comes without the identity export")
	}
}

func TestPipelineMissingPatientExport(t *testing.T) {
	dir := t.TempDir()
	_, err := New(dir, DefaultOptions()).Run(context.Background(), filepath.Join(dir, "missing.json"), "", "")
	if !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
