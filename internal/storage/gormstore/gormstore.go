// Package gormstore records flight samples into SQLite or PostgreSQL through GORM.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skyhook-ctl/flightcore/internal/config"
	"github.com/skyhook-ctl/flightcore/internal/storage"
)

// Options configures optional periodic dumps of a SQLite database.
type Options struct {
	DumpPath     string
	DumpInterval time.Duration
}

// Backend implements storage.Backend on a GORM connection.
type Backend struct {
	db      *gorm.DB
	session string
	opts    Options
	logger  zerolog.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New wraps an open connection. Rows are tagged with session.
func New(db *gorm.DB, session string, opts Options, logger zerolog.Logger) *Backend {
	return &Backend{
		db:      db,
		session: session,
		opts:    opts,
		logger:  logger.With().Str("component", "gormstore").Str("dialect", db.Name()).Logger(),
	}
}

// NewSQLite opens the configured SQLite database. An in-memory database is dumped to
// DumpPath every DumpInterval and on Close.
func NewSQLite(cfg config.SQLiteConfig, session string, logger zerolog.Logger) (*Backend, error) {
	db, err := OpenSQLite(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	var opts Options
	if cfg.Path == "" {
		opts = Options{DumpPath: cfg.DumpPath, DumpInterval: cfg.DumpInterval}
	}
	return New(db, session, opts, logger), nil
}

// NewPostgres opens the configured PostgreSQL database.
func NewPostgres(cfg config.PostgresConfig, session string, logger zerolog.Logger) (*Backend, error) {
	db, err := OpenPostgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return New(db, session, Options{}, logger), nil
}

// Init validates the connection, migrates the schema and starts the dump goroutine.
func (b *Backend) Init(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}

	b.logger.Info().Msg("Migrating schema")
	if err := b.db.WithContext(ctx).AutoMigrate(&SampleRow{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	b.stopChan = make(chan struct{})
	if b.opts.DumpPath != "" && b.opts.DumpInterval > 0 {
		b.wg.Add(1)
		go b.dumpLoop()
	}

	b.logger.Info().Str("session", b.session).Msg("Database setup complete")
	return nil
}

// WriteSamples inserts a batch.
func (b *Backend) WriteSamples(ctx context.Context, samples []storage.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	rows := make([]SampleRow, len(samples))
	for i, s := range samples {
		rows[i] = toRow(b.session, s)
	}

	if err := b.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert samples: %w", err)
	}
	return nil
}

// Samples reads back this session's samples in tick order.
func (b *Backend) Samples(ctx context.Context) ([]storage.Sample, error) {
	var rows []SampleRow
	err := b.db.WithContext(ctx).
		Where("session = ?", b.session).
		Order("tick").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}

	samples := make([]storage.Sample, len(rows))
	for i, r := range rows {
		samples[i] = r.Sample()
	}
	return samples, nil
}

// Close stops the dump goroutine, writes a final dump when configured and closes the
// connection.
func (b *Backend) Close(ctx context.Context) error {
	if b.stopChan != nil {
		close(b.stopChan)
		b.wg.Wait()
		b.stopChan = nil
	}

	var errs []error
	if b.opts.DumpPath != "" {
		if err := DumpToDisk(b.db.WithContext(ctx), b.opts.DumpPath); err != nil {
			errs = append(errs, err)
		}
	}

	sqlDB, err := b.db.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	return errors.Join(errs...)
}

// dumpLoop periodically dumps the database to disk via VACUUM INTO.
func (b *Backend) dumpLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.opts.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := DumpToDisk(b.db, b.opts.DumpPath); err != nil {
				b.logger.Error().Err(err).Msg("Error dumping to disk")
			} else {
				b.logger.Debug().Dur("took", time.Since(start)).Msg("Dumped to disk")
			}
		}
	}
}
