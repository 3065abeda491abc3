package recorder

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/skyhook-ctl/flightcore/internal/config"
	"github.com/skyhook-ctl/flightcore/internal/storage"
	"github.com/skyhook-ctl/flightcore/internal/storage/gormstore"
	"github.com/skyhook-ctl/flightcore/internal/storage/influx"
	"github.com/skyhook-ctl/flightcore/internal/storage/memory"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.RecorderConfig, session string, start time.Time, logger zerolog.Logger) (storage.Backend, error) {
	switch cfg.Backend {
	case "memory":
		return memory.New(cfg.Memory, session, start), nil
	case "sqlite":
		b, err := gormstore.NewSQLite(cfg.SQLite, session, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "postgres":
		b, err := gormstore.NewPostgres(cfg.Postgres, session, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "influx":
		return influx.New(cfg.Influx, session, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Backend)
	}
}
