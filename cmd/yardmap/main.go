// Command yardmap runs the yard map engine against a script of host
// commands and prints the resulting frame.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/motoyard/yardmap/internal/api"
	"github.com/motoyard/yardmap/internal/cache"
	"github.com/motoyard/yardmap/internal/config"
	"github.com/motoyard/yardmap/internal/database"
	"github.com/motoyard/yardmap/internal/dispatcher"
	"github.com/motoyard/yardmap/internal/geo"
	"github.com/motoyard/yardmap/internal/handlers"
	"github.com/motoyard/yardmap/internal/idgen"
	"github.com/motoyard/yardmap/internal/influx"
	"github.com/motoyard/yardmap/internal/interaction"
	"github.com/motoyard/yardmap/internal/locator"
	"github.com/motoyard/yardmap/internal/logging"
	"github.com/motoyard/yardmap/internal/monitor"
	intOtel "github.com/motoyard/yardmap/internal/otel"
	"github.com/motoyard/yardmap/internal/storage"
	"github.com/motoyard/yardmap/internal/surface"
	"github.com/motoyard/yardmap/internal/viewport"
	"github.com/motoyard/yardmap/internal/zonestore"
	"github.com/motoyard/yardmap/pkg/core"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// BuildDate can be set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	AppName   = "yardmap"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	sessionStart := time.Now()

	flags := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	configDir := flags.String("config-dir", ".", "directory holding "+config.FileName)
	script := flags.StringP("script", "s", "-", "command script, - for stdin")
	flags.String("log-level", "", "log level override")
	flags.String("storage", "", "storage backend override: memory, file, sqlite, postgres")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// log to stderr until the log file is open; stdout carries results
	slogManager := logging.NewSlogManager()
	slogManager.Setup(logging.SetupOptions{File: os.Stderr, Level: "info"})
	logger := slogManager.Logger()

	if err := config.Load(*configDir); err != nil {
		logger.Warn("Failed to load config, using defaults", "error", err)
	} else {
		logger.Info("Loaded config", "file", viper.ConfigFileUsed())
	}
	_ = viper.BindPFlag("logLevel", flags.Lookup("log-level"))
	_ = viper.BindPFlag("storage.type", flags.Lookup("storage"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logging
	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}
	logFilePath := logging.LogFilePath(logsDir, AppName, sessionStart)
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	var remote io.Writer
	if viper.GetBool("graylog.enabled") {
		gelfWriter, err := gelf.NewWriter(viper.GetString("graylog.address"))
		if err != nil {
			logger.Warn("Failed to connect to Graylog", "error", err, "address", viper.GetString("graylog.address"))
		} else {
			defer gelfWriter.Close()
			remote = gelfWriter
		}
	}

	otelProvider, err := initOTel(logsDir, sessionStart)
	if err != nil {
		logger.Warn("Failed to initialize OpenTelemetry", "error", err)
	}
	var otelLogProvider *sdklog.LoggerProvider
	if otelProvider != nil {
		otelLogProvider = otelProvider.LoggerProvider()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelProvider.Shutdown(shutdownCtx); err != nil {
				fmt.Fprintf(os.Stderr, "otel shutdown: %v\n", err)
			}
		}()
	}

	logLevel := viper.GetString("logLevel")
	slogManager.Setup(logging.SetupOptions{
		File:     logFile,
		Remote:   remote,
		Provider: otelLogProvider,
		Level:    logLevel,
	})
	logger = slogManager.Logger()
	logger.Info("Starting up", "version", Version, "buildDate", BuildDate, "logFile", logFilePath)

	// storage
	storageCfg := config.GetStorageConfig()
	georefCfg := config.GetGeorefConfig()
	var georef geo.Georeference
	if georefCfg.Enabled {
		georef = geo.Georeference{
			OriginLon:    georefCfg.OriginLon,
			OriginLat:    georefCfg.OriginLat,
			WidthMeters:  georefCfg.WidthMeters,
			HeightMeters: georefCfg.HeightMeters,
		}
	}
	backend, err := createStorageBackend(storageCfg, storageDeps{
		DBManager:  database.NewManager(logging.NewZerolog(logFile, logLevel, "database")),
		LogManager: slogManager,
		Georef:     georef,
	})
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing %s storage: %w", storageCfg.Type, err)
	}
	defer closeBackend(logger, backend)

	// engine
	zoneCfg := config.GetZoneConfig()
	store := zonestore.New(zonestore.Dependencies{
		Backend:   backend,
		IDs:       idgen.New(zoneCfg.IDScheme),
		Logger:    logger,
		Key:       storageCfg.Key,
		MinWidth:  zoneCfg.MinWidth,
		MinHeight: zoneCfg.MinHeight,
		Config:    core.ZoneSetConfig{GridVisible: zoneCfg.GridVisible, GridSize: zoneCfg.GridSize},
	})
	if err := store.Load(ctx); err != nil {
		logger.Warn("Failed to load zones, starting empty", "error", err)
	}

	vpCfg := config.GetViewportConfig()
	vp := viewport.New(viewport.Config{
		MinScale:     vpCfg.MinScale,
		MaxScale:     vpCfg.MaxScale,
		InitialScale: vpCfg.InitialScale,
		ZoomStep:     vpCfg.ZoomStep,
		Spring:       viewport.SpringConfig{Stiffness: vpCfg.SpringStiffness, Damping: vpCfg.SpringDamping},
	})

	icCfg := config.GetInteractionConfig()
	minW, minH := store.MinSize()
	ic := interaction.New(store, interaction.Config{
		Sensitivity:        icCfg.Sensitivity,
		ActivationDistance: icCfg.ActivationDistance,
		MinSize:            max(minW, minH),
		MaxSize:            icCfg.MaxSize,
		AspectRatio:        icCfg.AspectRatio,
	})

	markersCfg := config.GetMarkersConfig()
	var markers *locator.StaticSource
	var markerSource locator.MarkerSource
	if markersCfg.SourceURL != "" {
		client := api.New(markersCfg.SourceURL, markersCfg.APIKey)
		if err := client.Healthcheck(ctx); err != nil {
			logger.Warn("Marker source unreachable", "error", err, "url", markersCfg.SourceURL)
		}
		markerSource = client
	} else {
		markers = locator.NewStaticSource()
		markerSource = markers
	}

	drawCfg := config.GetDrawConfig()
	surf := surface.New(surface.Dependencies{
		Store:       store,
		Viewport:    vp,
		Interaction: ic,
		Locator:     locator.New(markerSource, cache.NewAssignments()),
		Logger:      logger,
	}, surface.DrawConfig{MinSize: drawCfg.MinSize, Timeout: drawCfg.Timeout})

	slogManager.GetDrawMode = func() string { return string(surf.Mode()) }
	slogManager.GetSelectedZone = store.SelectedID
	slogManager.GetStorageType = func() string { return storageCfg.Type }

	// occupancy telemetry
	influxManager := influx.NewManager(logging.NewZerolog(logFile, logLevel, "influx"), config.GetInfluxConfig())
	switch err := influxManager.Connect(ctx); {
	case errors.Is(err, influx.ErrDisabled):
		logger.Debug("Occupancy telemetry disabled")
	case err != nil:
		logger.Warn("Failed to initialize occupancy telemetry", "error", err)
	default:
		surf.OnMarkersResolved(influxManager.ObserveMarkers)
	}
	defer func() {
		if err := influxManager.Close(); err != nil {
			logger.Error("Failed to close occupancy telemetry", "error", err)
		}
	}()

	if markersCfg.RefreshInterval > 0 {
		statusMonitor := monitor.NewService(monitor.Dependencies{
			Surface:    surf,
			LogManager: slogManager,
			StatusPath: markersCfg.StatusPath,
			Interval:   markersCfg.RefreshInterval,
		})
		if err := statusMonitor.Start(ctx); err != nil {
			logger.Warn("Failed to start status monitor", "error", err)
		}
		defer statusMonitor.Stop()
	}

	// commands
	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(logger))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	handlers.NewService(ctx, handlers.Dependencies{
		Surface:    surf,
		Markers:    markers,
		LogManager: slogManager,
		AfterSave: func(ctx context.Context) {
			influxManager.Flush(ctx)
			if otelProvider != nil {
				if err := otelProvider.Flush(ctx); err != nil {
					logger.Warn("Failed to flush OpenTelemetry logs", "error", err)
				}
			}
		},
	}).Register(eventDispatcher)
	logger.Info("Handlers registered", "commands", len(eventDispatcher.Commands()))

	in := stdin
	if *script != "-" {
		f, err := os.Open(filepath.Clean(*script))
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		in = f
	}

	n, replayErr := replay(ctx, in, stdout, eventDispatcher)
	eventDispatcher.Close()
	logger.Info("Replay finished", "commands", n, "error", replayErr)

	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Save(saveCtx); err != nil {
		logger.Error("Failed to save zones on shutdown", "error", err)
	}

	frame, err := json.Marshal(surf.Frame(saveCtx))
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	if _, err := fmt.Fprintf(stdout, "%s\n", frame); err != nil {
		return err
	}

	if err := slogManager.Flush(saveCtx); err != nil {
		fmt.Fprintf(os.Stderr, "flushing logs: %v\n", err)
	}
	return replayErr
}

// initOTel creates the OpenTelemetry provider. With no OTLP endpoint the
// records go to a JSON file next to the text log.
func initOTel(logsDir string, sessionStart time.Time) (*intOtel.Provider, error) {
	cfg := config.GetOTelConfig()
	if !cfg.Enabled {
		return nil, nil
	}

	var writer io.Writer
	if cfg.Endpoint == "" {
		path := logging.LogFilePath(logsDir, AppName+".otel", sessionStart)
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening otel log file: %w", err)
		}
		writer = f
	}

	storageCfg := config.GetStorageConfig()
	return intOtel.New(intOtel.Config{
		Enabled:      true,
		ServiceName:  cfg.ServiceName,
		BatchTimeout: cfg.BatchTimeout,
		LogWriter:    writer,
		Endpoint:     cfg.Endpoint,
		Insecure:     cfg.Insecure,
		StorageType:  storageCfg.Type,
		ZoneKey:      storageCfg.Key,
	})
}

func closeBackend(logger *slog.Logger, backend storage.Backend) {
	if err := backend.Close(); err != nil {
		logger.Error("Failed to close storage backend", "error", err)
	}
}
