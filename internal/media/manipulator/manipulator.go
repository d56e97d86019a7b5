package manipulator

import (
	"github.com/sirupsen/logrus"
)

const (
	DefaultNormalizeQuality   = 95
	DefaultLowFidelityQuality = 40
)

type Config struct {
	// JPEG quality used when pixels are re-encoded after orientation correction
	NormalizeQuality int

	// JPEG quality of low fidelity variants
	LowFidelityQuality int
}

// Manipulator runs the byte level image operations: orientation
// correction and metadata stripping at ingestion, low fidelity
// reduction when serving.
type Manipulator struct {
	cfg    Config
	logger logrus.FieldLogger
}

func New(cfg Config, logger logrus.FieldLogger) *Manipulator {
	if cfg.NormalizeQuality <= 0 || cfg.NormalizeQuality > 100 {
		cfg.NormalizeQuality = DefaultNormalizeQuality
	}

	if cfg.LowFidelityQuality <= 0 || cfg.LowFidelityQuality > 100 {
		cfg.LowFidelityQuality = DefaultLowFidelityQuality
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Manipulator{cfg: cfg, logger: logger}
}
