package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// EngineConfig holds search settings. Angles are in degrees.
type EngineConfig struct {
	PopulationSize int
	MutationRate   float64
	VelocityStep   float64
	AngleStep      float64
	Crossover      string
	Elitism        bool
	MaxGenerations int
	Tolerance      float64
	StallWindow    int
	MinImprovement float64
	Seed           int64
	OvershootScale float64

	WallDistance float64
	WallHeight   float64
	VelocityMin  float64
	VelocityMax  float64
	AngleMin     float64
	AngleMax     float64
	Gravity      float64
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// PostgresConfig holds connection settings for the postgres backend
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// StorageConfig selects and configures the run-history backend
type StorageConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	Memory   MemoryConfig   `json:"memory" mapstructure:"memory"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"-"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled        bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName    string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout   time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	MetricInterval time.Duration `json:"metricInterval" mapstructure:"metricInterval"` // engine and dispatcher metrics export period
	Endpoint       string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `json:"insecure" mapstructure:"insecure"`
}

// InfluxConfig holds InfluxDB settings
type InfluxConfig struct {
	Enabled   bool
	Protocol  string
	Host      string
	Port      string
	Token     string
	Org       string
	Bucket    string
	BackupDir string
}

// ServerURL is the URL the influx client connects to.
func (c InfluxConfig) ServerURL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// GraylogConfig holds the GELF sink settings
type GraylogConfig struct {
	Enabled bool
	Address string
}

// MonitorConfig holds status monitor settings
type MonitorConfig struct {
	Enabled    bool
	Interval   time.Duration
	StatusFile string
}

// PlotConfig holds trajectory plot settings
type PlotConfig struct {
	Enabled   bool
	OutputDir string
	Width     float64 // centimetres
	Height    float64 // centimetres
	MaxPaths  int     // generations drawn besides the final best
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./plannerlogs")

	viper.SetDefault("engine.populationSize", 50)
	viper.SetDefault("engine.mutationRate", 0.05)
	viper.SetDefault("engine.velocityStep", 2.0)
	viper.SetDefault("engine.angleStep", 5.0)
	viper.SetDefault("engine.crossover", "uniform")
	viper.SetDefault("engine.elitism", true)
	viper.SetDefault("engine.maxGenerations", 100)
	viper.SetDefault("engine.tolerance", 1.0)
	viper.SetDefault("engine.stallWindow", 5)
	viper.SetDefault("engine.minImprovement", 0.05)
	viper.SetDefault("engine.seed", 1)
	viper.SetDefault("engine.overshootScale", 1.0)

	viper.SetDefault("wall.distance", 10.0)
	viper.SetDefault("wall.height", 1.0)

	viper.SetDefault("bounds.velocity.min", 1.0)
	viper.SetDefault("bounds.velocity.max", 50.0)
	viper.SetDefault("bounds.angle.min", 1.0)
	viper.SetDefault("bounds.angle.max", 89.0)

	viper.SetDefault("physics.gravity", 9.81)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./runs")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "./runs/planner.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "planner")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "planner-metrics")
	viper.SetDefault("influx.bucket", "planner")
	viper.SetDefault("influx.backupDir", "./runs")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "firing-planner")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.metricInterval", "30s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("monitor.enabled", false)
	viper.SetDefault("monitor.interval", "1s")
	viper.SetDefault("monitor.statusFile", "./runs/status.json")

	viper.SetDefault("plot.enabled", true)
	viper.SetDefault("plot.outputDir", "./runs")
	viper.SetDefault("plot.width", 16.0)
	viper.SetDefault("plot.height", 10.0)
	viper.SetDefault("plot.maxPaths", 5)

	viper.SetConfigName("firing_planner.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
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

// GetEngineConfig returns the search, wall, bounds and physics settings.
func GetEngineConfig() EngineConfig {
	return EngineConfig{
		PopulationSize: viper.GetInt("engine.populationSize"),
		MutationRate:   viper.GetFloat64("engine.mutationRate"),
		VelocityStep:   viper.GetFloat64("engine.velocityStep"),
		AngleStep:      viper.GetFloat64("engine.angleStep"),
		Crossover:      viper.GetString("engine.crossover"),
		Elitism:        viper.GetBool("engine.elitism"),
		MaxGenerations: viper.GetInt("engine.maxGenerations"),
		Tolerance:      viper.GetFloat64("engine.tolerance"),
		StallWindow:    viper.GetInt("engine.stallWindow"),
		MinImprovement: viper.GetFloat64("engine.minImprovement"),
		Seed:           viper.GetInt64("engine.seed"),
		OvershootScale: viper.GetFloat64("engine.overshootScale"),
		WallDistance:   viper.GetFloat64("wall.distance"),
		WallHeight:     viper.GetFloat64("wall.height"),
		VelocityMin:    viper.GetFloat64("bounds.velocity.min"),
		VelocityMax:    viper.GetFloat64("bounds.velocity.max"),
		AngleMin:       viper.GetFloat64("bounds.angle.min"),
		AngleMax:       viper.GetFloat64("bounds.angle.max"),
		Gravity:        viper.GetFloat64("physics.gravity"),
	}
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
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

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   viper.GetDuration("otel.batchTimeout"),
		MetricInterval: viper.GetDuration("otel.metricInterval"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:   viper.GetBool("influx.enabled"),
		Protocol:  viper.GetString("influx.protocol"),
		Host:      viper.GetString("influx.host"),
		Port:      viper.GetString("influx.port"),
		Token:     viper.GetString("influx.token"),
		Org:       viper.GetString("influx.org"),
		Bucket:    viper.GetString("influx.bucket"),
		BackupDir: viper.GetString("influx.backupDir"),
	}
}

// GetGraylogConfig returns the GELF sink settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetPlotConfig returns the plot settings.
func GetPlotConfig() PlotConfig {
	return PlotConfig{
		Enabled:   viper.GetBool("plot.enabled"),
		OutputDir: viper.GetString("plot.outputDir"),
		Width:     viper.GetFloat64("plot.width"),
		Height:    viper.GetFloat64("plot.height"),
		MaxPaths:  viper.GetInt("plot.maxPaths"),
	}
}

// GetMonitorConfig returns the status monitor settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:    viper.GetBool("monitor.enabled"),
		Interval:   viper.GetDuration("monitor.interval"),
		StatusFile: viper.GetString("monitor.statusFile"),
	}
}
