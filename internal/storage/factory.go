package storage

import (
	"fmt"
	"io"

	"github.com/yourname/medtracker/internal"
	"github.com/yourname/medtracker/internal/config"
)

// NewRepositories builds the configured backend. The returned closer flushes
// and releases the backend on shutdown.
func NewRepositories(cfg *config.Config, logger internal.Logger) (MedicationRepository, IntakeLogRepository, io.Closer, error) {
	switch cfg.StorageBackend {
	case "file":
		s, err := NewFileStorage(cfg.MedicationsFile, cfg.IntakeLogsFile, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, s, s, nil
	case "postgres":
		s, err := NewPostgresStorage(cfg.PostgresDSN, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, s, s, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
