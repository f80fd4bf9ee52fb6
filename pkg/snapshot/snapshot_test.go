package snapshot

import (
	"path/filepath"
	"reflect"
	"testing"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int64) *int64     { return &v }

func TestWriteReadRoundTrip(t *testing.T) {
	rows := []GrowthMeasurementRow{
		{PatientID: "p1", VisitNumber: 1, Height: fptr(48), Weight: 2700, HeadCircumference: fptr(33), CorrectedAgeDays: iptr(241)},
		{PatientID: "p1", VisitNumber: 0, Weight: 2450, CorrectedAgeDays: iptr(231)},
		{PatientID: "p2", VisitNumber: 2, Height: fptr(51.5), Weight: 3100, HeadCircumference: nil, CorrectedAgeDays: nil},
	}

	path := filepath.Join(t.TempDir(), "growth.parquet")
	if err := Write(path, rows); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	back, err := Read[GrowthMeasurementRow](path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !reflect.DeepEqual(rows, back) {
		t.Fatalf("round trip mismatch:\nwrote %+v\nread  %+v", rows, back)
	}
}

func TestWriteReadPatientWeaningRow(t *testing.T) {
	rows := []PatientWeaningRow{
		{
			Sex: 1, HospitalDays: iptr(12), SiteCode: 1, PatientCode: 101,
			WeaningAgeDays: fptr(54), OxygenAtAdmission: fptr(1),
			ExclusiveBreastfeeding40W: fptr(0), PatientID: "p1",
		},
		{Sex: 2, SiteCode: 1, PatientCode: 102, PatientID: "p2"},
	}

	path := filepath.Join(t.TempDir(), "weaning.parquet")
	if err := Write(path, rows); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	back, err := Read[PatientWeaningRow](path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !reflect.DeepEqual(rows, back) {
		t.Fatalf("round trip mismatch:\nwrote %+v\nread  %+v", rows, back)
	}
}

func TestWriteOverwritesPreviousSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patients.parquet")

	first := []PatientRow{
		{PatientID: "p1", Sex: 1, PatientCode: 101, SiteCode: 1},
		{PatientID: "p2", Sex: 2, PatientCode: 102, SiteCode: 1},
	}
	if err := Write(path, first); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	second := []PatientRow{{PatientID: "p3", Sex: 1, PatientCode: 103, SiteCode: 2}}
	if err := Write(path, second); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	back, err := Read[PatientRow](path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !reflect.DeepEqual(second, back) {
		t.Fatalf("expected the second snapshot only, got %+v", back)
	}
}
