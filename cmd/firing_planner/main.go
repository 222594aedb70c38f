package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cannonfire/planner/internal/config"
	"github.com/cannonfire/planner/internal/dispatcher"
	"github.com/cannonfire/planner/internal/influx"
	"github.com/cannonfire/planner/internal/logging"
	"github.com/cannonfire/planner/internal/monitor"
	intOtel "github.com/cannonfire/planner/internal/otel"
	"github.com/cannonfire/planner/internal/session"
	"github.com/cannonfire/planner/internal/storage"
	"github.com/cannonfire/planner/internal/worker"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// BuildDate and Version can be set at build time via ldflags
var (
	Version   string = "0.1.0"
	BuildDate string = "unknown"

	ProgramName string = "firing_planner"
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// infraLogger is the zerolog logger handed to database, influx and dispatcher
	infraLogger zerolog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	// LogFile receives the session log
	LogFile     *os.File
	LogFilePath string

	SessionStartTime time.Time = time.Now()

	// Services
	runContext      = session.NewContext()
	eventDispatcher *dispatcher.Dispatcher
	workerManager   *worker.Manager
	influxManager   *influx.Manager
	monitorService  *monitor.Service
	storageBackend  storage.Backend
)

func usage(w io.Writer) {
	fmt.Fprintf(w, `%s %s

Usage:
  %[1]s run [configDir]                              search for a firing plan
  %[1]s simulate <velocity> <angleDeg> [configDir]   fly one plan at the configured wall
  %[1]s history <runId> [configDir]                  print a stored run
  %[1]s version                                      print version information
`, ProgramName, Version)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		usage(os.Stderr)
		os.Exit(2)
	}

	var err error
	switch strings.ToLower(args[0]) {
	case "run":
		err = withServices(configDirArg(args, 1), cmdRun)
	case "simulate":
		if len(args) < 3 {
			usage(os.Stderr)
			os.Exit(2)
		}
		err = cmdSimulate(args[1], args[2], configDirArg(args, 3))
	case "history":
		if len(args) < 2 {
			usage(os.Stderr)
			os.Exit(2)
		}
		err = cmdHistory(args[1], configDirArg(args, 2))
	case "version":
		fmt.Printf("%s %s (built %s)\n", ProgramName, Version, BuildDate)
	case "help", "-h", "--help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage(os.Stderr)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func configDirArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return "."
}

// setupLogging loads config and sets up the log file, OTel and the slog and
// zerolog loggers.
func setupLogging(configDir string) error {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "file", viper.ConfigFileUsed())
	}

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	LogFilePath = logging.LogFilePath(logsDir, ProgramName, SessionStartTime)
	if err := logging.RotateLogFile(LogFilePath); err != nil {
		Logger.Warn("Failed to rotate previous log file", "path", LogFilePath, "error", err)
	}

	var err error
	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to create log file %s: %w", LogFilePath, err)
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			ServiceVersion: Version,
			BatchTimeout:   otelCfg.BatchTimeout,
			LogWriter:      LogFile,
			MetricWriter:   LogFile,
			MetricInterval: otelCfg.MetricInterval,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		}
	}

	opts := []logging.SetupOption{logging.WithContext(runContext)}
	graylogCfg := config.GetGraylogConfig()
	if graylogCfg.Enabled {
		w, err := logging.NewGELFWriter(graylogCfg.Address)
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err, "address", graylogCfg.Address)
		} else {
			opts = append(opts, logging.WithGELF(w))
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(LogFile, viper.GetString("logLevel"), otelLogProvider, opts...)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath, "version", Version)

	infraLogger = logging.NewZerolog(LogFile, viper.GetString("logLevel"), "infra")
	return nil
}

// withServices runs fn with logging, storage and the run event pipeline set
// up, and tears them down afterwards.
func withServices(configDir string, fn func() error) error {
	if err := setupLogging(configDir); err != nil {
		return err
	}
	defer shutdownLogging()

	if err := initServices(); err != nil {
		return err
	}
	defer shutdownServices()

	return fn()
}

func shutdownLogging() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := SlogManager.Flush(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "failed to flush logs:", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "failed to shut down OTel:", err)
		}
	}
	if LogFile != nil {
		LogFile.Close()
	}
}

// absPath is used for user-facing output only
func absPath(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return p
}
