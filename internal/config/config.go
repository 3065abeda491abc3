package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the application config file looked up in the config directory.
const FileName = "flightcore.cfg.json"

// LoggingConfig holds log level, log directory and the optional Graylog sink.
type LoggingConfig struct {
	Level          string
	Dir            string
	GraylogEnabled bool
	GraylogAddress string
}

// LoopConfig holds the control loop cadence.
type LoopConfig struct {
	TickInterval time.Duration
	// RefreshEvery is the number of ticks between mass and actuator refreshes.
	RefreshEvery int
	// MaxThrustEvery is the number of ticks between thruster rating refreshes.
	MaxThrustEvery int
	OptionsFile    string
	// StatusFile is rewritten every StatusInterval. Empty disables it.
	StatusFile     string
	StatusInterval time.Duration
}

// MemoryConfig holds in-memory/JSON recorder backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds sqlite recorder backend settings. An empty Path keeps the
// database in memory and dumps it to DumpPath every DumpInterval.
type SQLiteConfig struct {
	Path         string
	DumpPath     string
	DumpInterval time.Duration
}

// PostgresConfig holds postgres connection settings.
type PostgresConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// InfluxConfig holds InfluxDB connection settings.
type InfluxConfig struct {
	URL          string
	Token        string
	Org          string
	Bucket       string
	CreateBucket bool
	// BackupPath receives gzipped line protocol while the server is unreachable.
	BackupPath string
}

// RecorderConfig holds flight data recorder settings.
type RecorderConfig struct {
	Enabled       bool
	Backend       string
	SampleEvery   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	Memory        MemoryConfig
	SQLite        SQLiteConfig
	Postgres      PostgresConfig
	Influx        InfluxConfig
}

// OTelConfig holds OpenTelemetry metric export settings.
type OTelConfig struct {
	Enabled        bool
	ServiceName    string
	ExportInterval time.Duration
	MetricsFile    string
}

// SimConfig describes the simulated vehicle driven by the runner.
type SimConfig struct {
	Mass float64
	// Gravity is the magnitude of gravity along world -Y, in m/s².
	Gravity float64
	// ThrusterForce is the rating of each thruster in newtons.
	ThrusterForce    float64
	ThrustersPerSide int
	Gyros            int
	Dampeners        bool
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("loop.tickInterval", "16ms")
	viper.SetDefault("loop.refreshEvery", 100)
	viper.SetDefault("loop.maxThrustEvery", 10)
	viper.SetDefault("loop.optionsFile", "flightcore.options.json")
	viper.SetDefault("loop.statusFile", "./logs/flightcore.status.json")
	viper.SetDefault("loop.statusInterval", "1s")

	viper.SetDefault("recorder.enabled", true)
	viper.SetDefault("recorder.backend", "memory")
	viper.SetDefault("recorder.sampleEvery", 1)
	viper.SetDefault("recorder.queueSize", 10000)
	viper.SetDefault("recorder.batchSize", 500)
	viper.SetDefault("recorder.flushInterval", "1s")

	viper.SetDefault("recorder.memory.outputDir", "./recordings")
	viper.SetDefault("recorder.memory.compressOutput", true)

	viper.SetDefault("recorder.sqlite.path", "")
	viper.SetDefault("recorder.sqlite.dumpPath", "./recordings/flightcore.db")
	viper.SetDefault("recorder.sqlite.dumpInterval", "3m")

	viper.SetDefault("recorder.postgres.host", "localhost")
	viper.SetDefault("recorder.postgres.port", "5432")
	viper.SetDefault("recorder.postgres.username", "postgres")
	viper.SetDefault("recorder.postgres.password", "postgres")
	viper.SetDefault("recorder.postgres.database", "flightcore")

	viper.SetDefault("recorder.influx.url", "http://localhost:8086")
	viper.SetDefault("recorder.influx.token", "supersecrettoken")
	viper.SetDefault("recorder.influx.org", "flightcore")
	viper.SetDefault("recorder.influx.bucket", "flight_data")
	viper.SetDefault("recorder.influx.createBucket", false)
	viper.SetDefault("recorder.influx.backupPath", "./recordings/influx_backup.lp.gz")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "flightcore")
	viper.SetDefault("otel.exportInterval", "10s")
	viper.SetDefault("otel.metricsFile", "")

	viper.SetDefault("sim.mass", 1000.0)
	viper.SetDefault("sim.gravity", 9.81)
	viper.SetDefault("sim.thrusterForce", 20000.0)
	viper.SetDefault("sim.thrustersPerSide", 2)
	viper.SetDefault("sim.gyros", 1)
	viper.SetDefault("sim.dampeners", true)
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

// GetLoggingConfig returns the logging section.
func GetLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:          viper.GetString("logLevel"),
		Dir:            viper.GetString("logsDir"),
		GraylogEnabled: viper.GetBool("graylog.enabled"),
		GraylogAddress: viper.GetString("graylog.address"),
	}
}

// GetLoopConfig returns the control loop section.
func GetLoopConfig() LoopConfig {
	return LoopConfig{
		TickInterval:   viper.GetDuration("loop.tickInterval"),
		RefreshEvery:   viper.GetInt("loop.refreshEvery"),
		MaxThrustEvery: viper.GetInt("loop.maxThrustEvery"),
		OptionsFile:    viper.GetString("loop.optionsFile"),

		StatusFile:     viper.GetString("loop.statusFile"),
		StatusInterval: viper.GetDuration("loop.statusInterval"),
	}
}

// GetRecorderConfig returns the recorder section with every backend's settings.
func GetRecorderConfig() RecorderConfig {
	return RecorderConfig{
		Enabled:       viper.GetBool("recorder.enabled"),
		Backend:       viper.GetString("recorder.backend"),
		SampleEvery:   viper.GetInt("recorder.sampleEvery"),
		QueueSize:     viper.GetInt("recorder.queueSize"),
		BatchSize:     viper.GetInt("recorder.batchSize"),
		FlushInterval: viper.GetDuration("recorder.flushInterval"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("recorder.memory.outputDir"),
			CompressOutput: viper.GetBool("recorder.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("recorder.sqlite.path"),
			DumpPath:     viper.GetString("recorder.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("recorder.sqlite.dumpInterval"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("recorder.postgres.host"),
			Port:     viper.GetString("recorder.postgres.port"),
			Username: viper.GetString("recorder.postgres.username"),
			Password: viper.GetString("recorder.postgres.password"),
			Database: viper.GetString("recorder.postgres.database"),
		},
		Influx: InfluxConfig{
			URL:          viper.GetString("recorder.influx.url"),
			Token:        viper.GetString("recorder.influx.token"),
			Org:          viper.GetString("recorder.influx.org"),
			Bucket:       viper.GetString("recorder.influx.bucket"),
			CreateBucket: viper.GetBool("recorder.influx.createBucket"),
			BackupPath:   viper.GetString("recorder.influx.backupPath"),
		},
	}
}

// GetOTelConfig returns the metrics section.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		ExportInterval: viper.GetDuration("otel.exportInterval"),
		MetricsFile:    viper.GetString("otel.metricsFile"),
	}
}

// GetSimConfig returns the simulated vehicle section.
func GetSimConfig() SimConfig {
	return SimConfig{
		Mass:             viper.GetFloat64("sim.mass"),
		Gravity:          viper.GetFloat64("sim.gravity"),
		ThrusterForce:    viper.GetFloat64("sim.thrusterForce"),
		ThrustersPerSide: viper.GetInt("sim.thrustersPerSide"),
		Gyros:            viper.GetInt("sim.gyros"),
		Dampeners:        viper.GetBool("sim.dampeners"),
	}
}
