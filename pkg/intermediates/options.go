package intermediates

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// JoinPolicy fixes how patients without a weaning-spreadsheet row are
// handled. The historical behavior is a left join (outcome columns null),
// so that is the default; inner drops unmatched patients instead.
type JoinPolicy string

const (
	JoinLeft  JoinPolicy = "left"
	JoinInner JoinPolicy = "inner"
)

// Options are the per-run pipeline settings. They normally come from a
// small YAML file next to the job; every field has a default so the file
// is optional.
type Options struct {
	JoinPolicy       JoinPolicy `yaml:"join_policy"`
	GrowthSnapshot   string     `yaml:"growth_snapshot"`
	PatientsSnapshot string     `yaml:"patients_snapshot"`
	WeaningSnapshot  string     `yaml:"weaning_snapshot"`
	ReportFile       string     `yaml:"report_file"`
}

// DefaultOptions keeps the artifact names the downstream tooling already
// knows.
func DefaultOptions() Options {
	return Options{
		JoinPolicy:       JoinLeft,
		GrowthSnapshot:   "antropometrias_nacimiento_evoluciones.parquet",
		PatientsSnapshot: "pacientes.parquet",
		WeaningSnapshot:  "pacientes_alim_ox.parquet",
		ReportFile:       "reporte.txt",
	}
}

// LoadOptions reads the YAML options file, falling back to defaults for
// anything unset. An empty path means defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	if path == "" {
		return opts, nil
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Options{}, err
	}

	var fileOpts Options
	if err := yaml.Unmarshal(content, &fileOpts); err != nil {
		return Options{}, fmt.Errorf("options file %s: %w", path, err)
	}

	if fileOpts.JoinPolicy != "" {
		opts.JoinPolicy = fileOpts.JoinPolicy
	}
	if fileOpts.GrowthSnapshot != "" {
		opts.GrowthSnapshot = fileOpts.GrowthSnapshot
	}
	if fileOpts.PatientsSnapshot != "" {
		opts.PatientsSnapshot = fileOpts.PatientsSnapshot
	}
	if fileOpts.WeaningSnapshot != "" {
		opts.WeaningSnapshot = fileOpts.WeaningSnapshot
	}
	if fileOpts.ReportFile != "" {
		opts.ReportFile = fileOpts.ReportFile
	}

	switch opts.JoinPolicy {
	case JoinLeft, JoinInner:
	default:
		return Options{}, fmt.Errorf("options file %s: unknown join_policy %q", path, opts.JoinPolicy)
	}

	return opts, nil
}
