// Package influx records flight samples as InfluxDB points, falling back to a gzipped
// line protocol file while the server is unreachable.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/skyhook-ctl/flightcore/internal/config"
	"github.com/skyhook-ctl/flightcore/internal/storage"
	"github.com/skyhook-ctl/flightcore/internal/vmath"
)

// Measurement is the measurement name of every sample point.
const Measurement = "flight_sample"

// retentionSeconds applies to buckets created by the backend.
const retentionSeconds = 60 * 60 * 24 * 90

// Backend implements storage.Backend on InfluxDB.
type Backend struct {
	cfg     config.InfluxConfig
	session string
	logger  zerolog.Logger

	client influxdb2.Client
	writer influxdb2_api.WriteAPIBlocking

	mu           sync.Mutex
	isValid      bool
	backupFile   *os.File
	backupWriter *gzip.Writer
}

// New creates an InfluxDB backend. Points are tagged with session.
func New(cfg config.InfluxConfig, session string, logger zerolog.Logger) *Backend {
	return &Backend{
		cfg:     cfg,
		session: session,
		logger:  logger.With().Str("component", "influx").Logger(),
	}
}

// Init connects to the server. When the ping fails the backend writes to BackupPath instead.
func (b *Backend) Init(ctx context.Context) error {
	b.client = influxdb2.NewClientWithOptions(
		b.cfg.URL,
		b.cfg.Token,
		influxdb2.DefaultOptions().SetHTTPRequestTimeout(10),
	)

	// validate client connection health
	running, err := b.client.Ping(ctx)
	if err != nil || !running {
		if b.cfg.BackupPath == "" {
			return fmt.Errorf("influxDB unreachable at %s and no backup path set: %v", b.cfg.URL, err)
		}
		if err := b.openBackup(); err != nil {
			return err
		}
		b.logger.Warn().Str("backupPath", b.cfg.BackupPath).
			Msg("Failed to initialize InfluxDB client, writing to backup file")
		return nil
	}

	if b.cfg.CreateBucket {
		if err := b.setupOrganizationAndBucket(ctx); err != nil {
			return err
		}
	}

	b.writer = b.client.WriteAPIBlocking(b.cfg.Org, b.cfg.Bucket)
	b.isValid = true
	b.logger.Info().Str("bucket", b.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (b *Backend) openBackup() error {
	if dir := filepath.Dir(b.cfg.BackupPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating backup directory: %w", err)
		}
	}
	file, err := os.OpenFile(b.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	b.backupFile = file
	b.backupWriter = gzip.NewWriter(file)
	return nil
}

func (b *Backend) setupOrganizationAndBucket(ctx context.Context) error {
	orgs := b.client.OrganizationsAPI()

	// ensure org exists
	org, err := orgs.FindOrganizationByName(ctx, b.cfg.Org)
	if err != nil {
		b.logger.Info().Str("org", b.cfg.Org).Msg("Organization not found, creating")
		org, err = orgs.CreateOrganizationWithName(ctx, b.cfg.Org)
		if err != nil {
			return fmt.Errorf("error creating organization %q: %w", b.cfg.Org, err)
		}
	}

	if _, err := b.client.BucketsAPI().FindBucketByName(ctx, b.cfg.Bucket); err == nil {
		return nil
	}

	b.logger.Info().Str("bucket", b.cfg.Bucket).Msg("Bucket not found, creating")
	rule := domain.RetentionRuleTypeExpire
	_, err = b.client.BucketsAPI().CreateBucketWithName(ctx, org, b.cfg.Bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: retentionSeconds,
	})
	if err != nil {
		return fmt.Errorf("error creating bucket %q: %w", b.cfg.Bucket, err)
	}
	return nil
}

// Connected reports whether points go to the server rather than the backup file.
func (b *Backend) Connected() bool {
	return b.isValid
}

// WriteSamples writes one point per sample.
func (b *Backend) WriteSamples(ctx context.Context, samples []storage.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	points := make([]*influxdb2_write.Point, len(samples))
	for i, s := range samples {
		points[i] = Point(b.session, s)
	}

	if b.isValid {
		if err := b.writer.WritePoint(ctx, points...); err != nil {
			return fmt.Errorf("error sending data to InfluxDB: %w", err)
		}
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.backupWriter == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}
	for _, p := range points {
		line := strings.TrimSuffix(influxdb2_write.PointToLineProtocol(p, time.Nanosecond), "\n")
		if _, err := b.backupWriter.Write([]byte(line + "\n")); err != nil {
			return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
		}
	}
	return nil
}

// Close flushes the backup file, if any, and closes the client.
func (b *Backend) Close(_ context.Context) error {
	var errs []error

	b.mu.Lock()
	if b.backupWriter != nil {
		errs = append(errs, b.backupWriter.Close(), b.backupFile.Close())
		b.backupWriter = nil
		b.backupFile = nil
	}
	b.mu.Unlock()

	if b.client != nil {
		b.client.Close()
	}
	return errors.Join(errs...)
}

// Point builds the InfluxDB point for a sample.
func Point(session string, s storage.Sample) *influxdb2_write.Point {
	fields := map[string]any{
		"tick":       int64(s.Tick),
		"mass":       s.Mass,
		"gravity_x":  s.Gravity.X,
		"gravity_y":  s.Gravity.Y,
		"gravity_z":  s.Gravity.Z,
		"velocity_x": s.Velocity.X,
		"velocity_y": s.Velocity.Y,
		"velocity_z": s.Velocity.Z,
		"thrust_x":   s.Thrust.X,
		"thrust_y":   s.Thrust.Y,
		"thrust_z":   s.Thrust.Z,
		"torque_x":   s.TorqueRate.X,
		"torque_y":   s.TorqueRate.Y,
		"torque_z":   s.TorqueRate.Z,
	}
	for _, d := range vmath.Directions {
		fields["fraction_"+d.String()] = s.Fractions[d]
	}

	return influxdb2_write.NewPoint(
		Measurement,
		map[string]string{"session": session},
		fields,
		s.Time,
	)
}
