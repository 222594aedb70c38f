package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configFile = "firing_planner.cfg.json"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"wall": { "distance": 25, "height": 4 },
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, 25.0, viper.GetFloat64("wall.distance"))
	assert.Equal(t, 4.0, viper.GetFloat64("wall.height"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./plannerlogs", viper.GetString("logsDir"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, "5432", viper.GetString("db.port"))
	assert.Equal(t, "postgres", viper.GetString("db.username"))
	assert.Equal(t, "postgres", viper.GetString("db.password"))
	assert.Equal(t, "planner", viper.GetString("db.database"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "./runs", viper.GetString("storage.memory.outputDir"))
	assert.Equal(t, true, viper.GetBool("storage.memory.compressOutput"))
	assert.Equal(t, "3m", viper.GetString("storage.sqlite.dumpInterval"))
	assert.Equal(t, false, viper.GetBool("otel.enabled"))
	assert.Equal(t, "firing-planner", viper.GetString("otel.serviceName"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	// defaults stay usable when the file is missing
	assert.Equal(t, 50, GetEngineConfig().PopulationSize)
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetEngineConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetEngineConfig()
	assert.Equal(t, 50, cfg.PopulationSize)
	assert.Equal(t, 0.05, cfg.MutationRate)
	assert.Equal(t, 2.0, cfg.VelocityStep)
	assert.Equal(t, 5.0, cfg.AngleStep)
	assert.Equal(t, "uniform", cfg.Crossover)
	assert.True(t, cfg.Elitism)
	assert.Equal(t, 100, cfg.MaxGenerations)
	assert.Equal(t, 1.0, cfg.Tolerance)
	assert.Equal(t, 5, cfg.StallWindow)
	assert.Equal(t, 0.05, cfg.MinImprovement)
	assert.Equal(t, int64(1), cfg.Seed)
	assert.Equal(t, 1.0, cfg.OvershootScale)
	assert.Equal(t, 10.0, cfg.WallDistance)
	assert.Equal(t, 1.0, cfg.WallHeight)
	assert.Equal(t, 1.0, cfg.VelocityMin)
	assert.Equal(t, 50.0, cfg.VelocityMax)
	assert.Equal(t, 1.0, cfg.AngleMin)
	assert.Equal(t, 89.0, cfg.AngleMax)
	assert.Equal(t, 9.81, cfg.Gravity)
}

func TestGetEngineConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"engine": { "populationSize": 80, "crossover": "blend", "elitism": false, "seed": 99 },
		"bounds": { "velocity": { "max": 30 }, "angle": { "min": 10 } },
		"physics": { "gravity": 1.62 }
	}`)))

	cfg := GetEngineConfig()
	assert.Equal(t, 80, cfg.PopulationSize)
	assert.Equal(t, "blend", cfg.Crossover)
	assert.False(t, cfg.Elitism)
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, 30.0, cfg.VelocityMax)
	assert.Equal(t, 1.0, cfg.VelocityMin)
	assert.Equal(t, 10.0, cfg.AngleMin)
	assert.Equal(t, 1.62, cfg.Gravity)
	assert.Equal(t, 0.05, cfg.MutationRate)
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetStorageConfig()
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, "./runs", cfg.Memory.OutputDir)
	assert.Equal(t, true, cfg.Memory.CompressOutput)
	assert.Equal(t, "./runs/planner.db", cfg.SQLite.Path)
	assert.Equal(t, 3*time.Minute, cfg.SQLite.DumpInterval)
	assert.Equal(t, "planner", cfg.Postgres.Database)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"memory": { "outputDir": "/tmp/out", "compressOutput": false },
			"sqlite": { "path": "/tmp/runs.db", "dumpInterval": "10m" }
		}
	}`)))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/out", sc.Memory.OutputDir)
	assert.Equal(t, false, sc.Memory.CompressOutput)
	assert.Equal(t, "/tmp/runs.db", sc.SQLite.Path)
	assert.Equal(t, 10*time.Minute, sc.SQLite.DumpInterval)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetOTelConfig()
	assert.Equal(t, false, cfg.Enabled)
	assert.Equal(t, "firing-planner", cfg.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, 30*time.Second, cfg.MetricInterval)
	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, true, cfg.Insecure)
}

func TestGetOTelConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"otel": {
			"enabled": true,
			"serviceName": "my-service",
			"batchTimeout": "30s",
			"metricInterval": "1m",
			"endpoint": "localhost:4317",
			"insecure": false
		}
	}`)))

	oc := GetOTelConfig()
	assert.Equal(t, true, oc.Enabled)
	assert.Equal(t, "my-service", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.BatchTimeout)
	assert.Equal(t, time.Minute, oc.MetricInterval)
	assert.Equal(t, "localhost:4317", oc.Endpoint)
	assert.Equal(t, false, oc.Insecure)
}

func TestGetInfluxConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{ "influx": { "enabled": true, "host": "metrics", "protocol": "https" } }`)))

	ic := GetInfluxConfig()
	assert.True(t, ic.Enabled)
	assert.Equal(t, "https://metrics:8086", ic.ServerURL())
	assert.Equal(t, "planner-metrics", ic.Org)
	assert.Equal(t, "planner", ic.Bucket)
}

func TestGetGraylogAndPlotConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{ "graylog": { "enabled": true }, "plot": { "maxPaths": 3 } }`)))

	gc := GetGraylogConfig()
	assert.True(t, gc.Enabled)
	assert.Equal(t, "localhost:12201", gc.Address)

	pc := GetPlotConfig()
	assert.True(t, pc.Enabled)
	assert.Equal(t, 3, pc.MaxPaths)
	assert.Equal(t, 16.0, pc.Width)
	assert.Equal(t, 10.0, pc.Height)
	assert.Equal(t, "./runs", pc.OutputDir)
}

func TestGetMonitorConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{ "monitor": { "enabled": true, "interval": "250ms" } }`)))

	mc := GetMonitorConfig()
	assert.True(t, mc.Enabled)
	assert.Equal(t, 250*time.Millisecond, mc.Interval)
	assert.Equal(t, "./runs/status.json", mc.StatusFile)
}
