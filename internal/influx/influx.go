// Package influx records zone occupancy as InfluxDB points. When the server
// cannot be reached the points are written as gzip line protocol to a
// backup file instead.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/motoyard/yardmap/internal/config"
	"github.com/motoyard/yardmap/internal/locator"
	"github.com/motoyard/yardmap/pkg/core"
	"github.com/rs/zerolog"
)

const (
	// MeasurementOccupancy holds one point per occupied zone.
	MeasurementOccupancy = "zone_occupancy"
	// MeasurementTransition holds one point per marker that changed zone.
	MeasurementTransition = "zone_transition"

	retentionSeconds = 60 * 60 * 24 * 90
)

// ErrDisabled is returned by Connect when telemetry is switched off.
var ErrDisabled = errors.New("influx telemetry is disabled")

// Manager handles the InfluxDB connection and writes.
type Manager struct {
	Client  influxdb2.Client
	Writer  influxdb2_api.WriteAPI
	IsValid bool
	Logger  zerolog.Logger

	cfg config.InfluxConfig

	mu           sync.Mutex
	backupFile   *os.File
	BackupWriter *gzip.Writer
	now          func() time.Time
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, cfg config.InfluxConfig) *Manager {
	return &Manager{
		Logger: log,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Connect establishes a connection to InfluxDB, falling back to the backup
// file when the server does not answer a ping.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	m.Client = influxdb2.NewClientWithOptions(
		m.cfg.URL,
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.IsValid = false
		m.Logger.Warn().Err(err).Str("backupPath", m.cfg.BackupPath).
			Msg("InfluxDB unreachable, writing to backup file")
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.createWriter()
	m.IsValid = true
	m.Logger.Info().Str("url", m.cfg.URL).Str("bucket", m.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter != nil {
		return nil
	}
	if m.cfg.BackupPath == "" {
		return errors.New("influx backup path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(m.cfg.BackupPath), 0755); err != nil {
		return fmt.Errorf("error creating backup directory: %w", err)
	}
	file, err := os.OpenFile(m.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgName := m.cfg.Org

	org, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		org, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	if _, err = m.Client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err != nil {
		m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, org, m.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: retentionSeconds,
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", m.cfg.Bucket).Msg("Error creating bucket")
			return err
		}
	}
	return nil
}

func (m *Manager) createWriter() {
	m.Writer = m.Client.WriteAPI(m.cfg.Org, m.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Str("bucket", m.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}(m.Writer.Errors())
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	if m.IsValid {
		m.Writer.WritePoint(point)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}
	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// OccupancyPoints builds one point per zone holding at least one marker.
// Points are ordered by zone id.
func OccupancyPoints(markers []core.Marker, at time.Time) []*influxdb2_write.Point {
	counts := locator.Occupancy(markers)
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	points := make([]*influxdb2_write.Point, 0, len(ids))
	for _, id := range ids {
		points = append(points, influxdb2.NewPoint(
			MeasurementOccupancy,
			map[string]string{"zone": id},
			map[string]any{"count": counts[id]},
			at,
		))
	}
	return points
}

// TransitionPoints builds one point per marker that changed zone. An empty
// from or to zone is recorded as "none".
func TransitionPoints(transitions []locator.Transition, at time.Time) []*influxdb2_write.Point {
	points := make([]*influxdb2_write.Point, 0, len(transitions))
	for _, tr := range transitions {
		points = append(points, influxdb2.NewPoint(
			MeasurementTransition,
			map[string]string{"marker": tr.MarkerID, "from": orNone(tr.From), "to": orNone(tr.To)},
			map[string]any{"n": 1},
			at,
		))
	}
	return points
}

func orNone(id string) string {
	if id == "" {
		return "none"
	}
	return id
}

// ObserveMarkers records a marker resolution. It has the signature expected
// by surface.OnMarkersResolved. Write errors are logged.
func (m *Manager) ObserveMarkers(markers []core.Marker, transitions []locator.Transition) {
	at := m.now()
	points := append(OccupancyPoints(markers, at), TransitionPoints(transitions, at)...)
	for _, p := range points {
		if err := m.WritePoint(p); err != nil {
			m.Logger.Error().Err(err).Str("measurement", p.Name()).Msg("Failed to record occupancy")
			return
		}
	}
	m.Logger.Trace().Int("points", len(points)).Msg("Occupancy recorded")
}

// Flush pushes buffered points to the server or the backup file.
func (m *Manager) Flush(context.Context) {
	if m.IsValid {
		m.Writer.Flush()
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter != nil {
		if err := m.BackupWriter.Flush(); err != nil {
			m.Logger.Error().Err(err).Msg("Failed to flush InfluxDB backup file")
		}
	}
}

// Close flushes and releases the client or the backup file.
func (m *Manager) Close() error {
	if m.Client != nil {
		if m.IsValid {
			m.Writer.Flush()
		}
		m.Client.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter == nil {
		return nil
	}
	err := errors.Join(m.BackupWriter.Close(), m.backupFile.Close())
	m.BackupWriter, m.backupFile = nil, nil
	return err
}
