package intermediates

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOptionsDefaults(t *testing.T) {
	opts, err := LoadOptions("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.JoinPolicy != JoinLeft {
		t.Fatalf("expected left join default, got %q", opts.JoinPolicy)
	}
	if opts.GrowthSnapshot != "antropometrias_nacimiento_evoluciones.parquet" {
		t.Fatalf("unexpected growth snapshot name %q", opts.GrowthSnapshot)
	}
	if opts.ReportFile != "reporte.txt" {
		t.Fatalf("unexpected report file %q", opts.ReportFile)
	}
}

func TestLoadOptionsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	content := "join_policy: inner\nreport_file: drops.txt\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write options: %v", err)
	}

	opts, err := LoadOptions(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.JoinPolicy != JoinInner {
		t.Fatalf("expected inner join, got %q", opts.JoinPolicy)
	}
	if opts.ReportFile != "drops.txt" {
		t.Fatalf("expected overridden report file, got %q", opts.ReportFile)
	}
	// unset fields keep their defaults
	if opts.PatientsSnapshot != "pacientes.parquet" {
		t.Fatalf("expected default patients snapshot, got %q", opts.PatientsSnapshot)
	}
}

func TestLoadOptionsRejectsUnknownPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	if err := os.WriteFile(path, []byte("join_policy: outer\n"), 0o644); err != nil {
		t.Fatalf("write options: %v", err)
	}
	if _, err := LoadOptions(path); err == nil {
		t.Fatal("expected error for unknown join policy")
	}
}

func TestLoadOptionsMissingFile(t *testing.T) {
	if _, err := LoadOptions(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing options file")
	}
}
