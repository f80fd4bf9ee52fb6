package intermediates

import (
	"os"

	"github.com/canguro-platform/growthcurves/pkg/common/logger"
	"github.com/canguro-platform/growthcurves/pkg/karen"
)

// LoadPatients reads and decodes the primary patient export.
func LoadPatients(path string) ([]karen.PatientDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NotFoundError{Path: path}
		}
		return nil, err
	}
	defer f.Close()

	docs, err := karen.DecodePatients(f)
	if err != nil {
		return nil, ParseError{Path: path, Err: err}
	}

	logger.Log.WithFields(map[string]interface{}{
		"file":    path,
		"records": len(docs),
	}).Info("Loaded patient export")
	return docs, nil
}

// LoadIdentities reads and decodes the identity-mapping export.
func LoadIdentities(path string) ([]karen.IdentityDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NotFoundError{Path: path}
		}
		return nil, err
	}
	defer f.Close()

	docs, err := karen.DecodeIdentities(f)
	if err != nil {
		return nil, ParseError{Path: path, Err: err}
	}

	logger.Log.WithFields(map[string]interface{}{
		"file":    path,
		"records": len(docs),
	}).Info("Loaded identity export")
	return docs, nil
}
