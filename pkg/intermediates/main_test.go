package intermediates

import (
	"os"
	"testing"

	"github.com/canguro-platform/growthcurves/pkg/common/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}
