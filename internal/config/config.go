package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "yardmap.cfg.json"

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Type     string `json:"type" mapstructure:"type"` // memory, file, sqlite, postgres
	Key      string `json:"key" mapstructure:"key"`
	File     FileConfig
	SQLite   SQLiteConfig
	Postgres PostgresConfig
}

// FileConfig holds settings for the JSON file backend.
type FileConfig struct {
	Dir string `json:"dir" mapstructure:"dir"`
}

// SQLiteConfig holds settings for the SQLite backend. An empty Path keeps the
// database in memory and dumps it to DumpPath every DumpInterval.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// PostgresConfig holds connection settings for the Postgres backend.
type PostgresConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// ZoneConfig holds zone set defaults.
type ZoneConfig struct {
	IDScheme    string
	MinWidth    float64
	MinHeight   float64
	GridVisible bool
	GridSize    int
}

// ViewportConfig holds camera limits and animation tuning.
type ViewportConfig struct {
	MinScale        float64
	MaxScale        float64
	InitialScale    float64
	ZoomStep        float64
	SpringStiffness float64
	SpringDamping   float64
}

// InteractionConfig tunes zone drag and resize gestures.
type InteractionConfig struct {
	Sensitivity        float64
	ActivationDistance float64
	MaxSize            float64
	AspectRatio        float64
}

// DrawConfig tunes freehand zone creation.
type DrawConfig struct {
	MinSize float64
	Timeout time.Duration
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// InfluxConfig holds occupancy telemetry settings.
type InfluxConfig struct {
	Enabled    bool
	URL        string
	Token      string
	Org        string
	Bucket     string
	BackupPath string
}

// MarkersConfig selects the live marker feed. An empty SourceURL means markers
// are pushed by the host with :MARKERS:SET:.
type MarkersConfig struct {
	SourceURL       string
	APIKey          string
	RefreshInterval time.Duration // 0 disables the background refresh
	StatusPath      string
}

// GeorefConfig pins the yard plane to the earth.
type GeorefConfig struct {
	Enabled      bool
	OriginLon    float64
	OriginLat    float64
	WidthMeters  float64
	HeightMeters float64
}

// Load reads configuration from the JSON file in configDir and sets default values.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./yardlogs")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.key", "yard_zones")
	viper.SetDefault("storage.file.dir", "./yarddata")
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "./yarddata/yardmap.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "yardmap")

	viper.SetDefault("zones.idScheme", "timestamp")
	viper.SetDefault("zones.minWidth", 10.0)
	viper.SetDefault("zones.minHeight", 10.0)
	viper.SetDefault("zones.gridVisible", false)
	viper.SetDefault("zones.gridSize", 5)

	viper.SetDefault("viewport.minScale", 0.5)
	viper.SetDefault("viewport.maxScale", 3.0)
	viper.SetDefault("viewport.initialScale", 1.0)
	viper.SetDefault("viewport.zoomStep", 0.2)
	viper.SetDefault("viewport.springStiffness", 170.0)
	viper.SetDefault("viewport.springDamping", 26.0)

	viper.SetDefault("interaction.sensitivity", 3.0)
	viper.SetDefault("interaction.activationDistance", 4.0)
	viper.SetDefault("interaction.maxSize", 100.0)
	viper.SetDefault("interaction.aspectRatio", 0.0)

	viper.SetDefault("draw.minSize", 5.0)
	viper.SetDefault("draw.timeout", "5s")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "yardmap")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.url", "http://localhost:8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "yardmap")
	viper.SetDefault("influx.bucket", "zone_occupancy")
	viper.SetDefault("influx.backupPath", "./yardlogs/occupancy.lp.gz")

	viper.SetDefault("markers.sourceUrl", "")
	viper.SetDefault("markers.apiKey", "")
	viper.SetDefault("markers.refreshInterval", "0s")
	viper.SetDefault("markers.statusPath", "")

	viper.SetDefault("georef.enabled", false)
	viper.SetDefault("georef.originLon", 0.0)
	viper.SetDefault("georef.originLat", 0.0)
	viper.SetDefault("georef.widthMeters", 0.0)
	viper.SetDefault("georef.heightMeters", 0.0)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the persistence backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Key:  viper.GetString("storage.key"),
		File: FileConfig{
			Dir: viper.GetString("storage.file.dir"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

// GetZoneConfig returns zone set defaults.
func GetZoneConfig() ZoneConfig {
	return ZoneConfig{
		IDScheme:    viper.GetString("zones.idScheme"),
		MinWidth:    viper.GetFloat64("zones.minWidth"),
		MinHeight:   viper.GetFloat64("zones.minHeight"),
		GridVisible: viper.GetBool("zones.gridVisible"),
		GridSize:    viper.GetInt("zones.gridSize"),
	}
}

// GetViewportConfig returns camera settings.
func GetViewportConfig() ViewportConfig {
	return ViewportConfig{
		MinScale:        viper.GetFloat64("viewport.minScale"),
		MaxScale:        viper.GetFloat64("viewport.maxScale"),
		InitialScale:    viper.GetFloat64("viewport.initialScale"),
		ZoomStep:        viper.GetFloat64("viewport.zoomStep"),
		SpringStiffness: viper.GetFloat64("viewport.springStiffness"),
		SpringDamping:   viper.GetFloat64("viewport.springDamping"),
	}
}

// GetInteractionConfig returns gesture tuning.
func GetInteractionConfig() InteractionConfig {
	return InteractionConfig{
		Sensitivity:        viper.GetFloat64("interaction.sensitivity"),
		ActivationDistance: viper.GetFloat64("interaction.activationDistance"),
		MaxSize:            viper.GetFloat64("interaction.maxSize"),
		AspectRatio:        viper.GetFloat64("interaction.aspectRatio"),
	}
}

// GetDrawConfig returns freehand creation settings.
func GetDrawConfig() DrawConfig {
	return DrawConfig{
		MinSize: viper.GetFloat64("draw.minSize"),
		Timeout: viper.GetDuration("draw.timeout"),
	}
}

// GetOTelConfig returns OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns occupancy telemetry settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		URL:        viper.GetString("influx.url"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetMarkersConfig returns the marker feed settings.
func GetMarkersConfig() MarkersConfig {
	return MarkersConfig{
		SourceURL:       viper.GetString("markers.sourceUrl"),
		APIKey:          viper.GetString("markers.apiKey"),
		RefreshInterval: viper.GetDuration("markers.refreshInterval"),
		StatusPath:      viper.GetString("markers.statusPath"),
	}
}

// GetGeorefConfig returns the yard georeference.
func GetGeorefConfig() GeorefConfig {
	return GeorefConfig{
		Enabled:      viper.GetBool("georef.enabled"),
		OriginLon:    viper.GetFloat64("georef.originLon"),
		OriginLat:    viper.GetFloat64("georef.originLat"),
		WidthMeters:  viper.GetFloat64("georef.widthMeters"),
		HeightMeters: viper.GetFloat64("georef.heightMeters"),
	}
}
