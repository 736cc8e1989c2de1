package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/BrandonDHaskell/Portunus/controller/internal/config"
	"github.com/BrandonDHaskell/Portunus/controller/internal/db"
	"github.com/BrandonDHaskell/Portunus/controller/internal/device"
	"github.com/BrandonDHaskell/Portunus/controller/internal/device/serialio"
	"github.com/BrandonDHaskell/Portunus/controller/internal/device/sim"
	"github.com/BrandonDHaskell/Portunus/controller/internal/discovery"
	"github.com/BrandonDHaskell/Portunus/controller/internal/health"
	"github.com/BrandonDHaskell/Portunus/controller/internal/httpapi"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/service"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store/boltdb"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store/memory"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store/sqlite"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfgPath, logLevel string
	var showVersion bool

	flagSet := pflag.NewFlagSet("portunus-controller", pflag.ContinueOnError)
	flagSet.StringVarP(&cfgPath, "config", "c", "", "path to the YAML config file")
	flagSet.StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	flagSet.BoolVar(&showVersion, "version", false, "print the version and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Printf("portunus-controller %s\n", version)
		return nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	logger.Info("portunus-controller starting", "version", version, "module", cfg.ModuleID, "env", cfg.Env)
	if cfg.AllowAll {
		logger.Warn("allow_all is on: every well-formed credential is granted")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores
	stores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	creds, err := service.LoadCredentialStore(ctx, stores.credentials...)
	if err != nil {
		return err
	}
	logger.Info("credentials loaded", "count", creds.Len())

	// Hardware
	board, err := openBoard(cfg, logger)
	if err != nil {
		return err
	}
	defer board.Close()

	// Controller
	bus := service.NewEventBus(logger)
	status := service.NewStatusBoard()
	override := service.NewRemoteOverride(board, logger)

	var led service.LEDSetter = override
	if stores.state != nil {
		persistent := service.NewPersistentOverride(override, stores.state, logger)
		if _, err := persistent.Restore(); err != nil {
			logger.Warn("restore led override", "err", err)
		}
		led = persistent
	}

	ctrl := service.NewAccessController(service.ControllerConfig{
		ModuleID:          cfg.ModuleID,
		AllowAll:          cfg.AllowAll,
		Dwell:             cfg.Dwell(),
		TelemetryInterval: cfg.TelemetryInterval(),
	}, service.ControllerDependencies{
		Reader:   board,
		Sensors:  board,
		Store:    creds,
		Actuator: service.NewActuator(board, cfg.UnlockHold(), logger),
		Feedback: service.NewFeedbackDevice(board, board, logger),
		Motion:   service.NewMotionTracker(cfg.MotionStability()),
		Override: override,
		Events:   bus,
		Status:   status,
		Logger:   logger,
	})

	recorder := service.NewRecorder(bus, stores.events, stores.telemetry, 0, logger)
	recorder.Start(ctx)
	defer recorder.Stop()

	pruner := service.NewTelemetryPruner(stores.telemetry, service.PrunerConfig{
		RetentionDays: cfg.Retention.TelemetryDays,
		IntervalHours: cfg.Retention.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	loop := service.NewLoop(ctrl, cfg.CycleInterval(), logger)

	// gRPC health
	if cfg.GRPC.Listen != "" {
		hs := health.New(logger)
		lis, err := net.Listen("tcp", cfg.GRPC.Listen)
		if err != nil {
			return fmt.Errorf("grpc listen %s: %w", cfg.GRPC.Listen, err)
		}
		loop.OnStateChange(hs.SetServing)
		go func() {
			if err := hs.Serve(lis); err != nil {
				logger.Error("grpc server", "err", err)
			}
		}()
		defer hs.Stop()
	}

	loop.Start(ctx)
	defer loop.Stop()

	// HTTP
	var srv *httpapi.Server
	if cfg.HTTP.Listen != "" {
		srv = httpapi.NewServer(httpapi.Dependencies{
			Logger:         logger,
			Addr:           cfg.HTTP.Listen,
			Status:         status,
			LED:            led,
			Retention:      pruner,
			Events:         bus,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			Version:        version,
		})
		go func() {
			logger.Info("http listening", "addr", cfg.HTTP.Listen)
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server", "err", err)
				stop()
			}
		}()
	}

	// Remote management plane (no-op when built with no_mqtt tag).
	mq := initMQTT(ctx, bus, led, cfg, logger)
	defer mq.Stop()

	// LAN discovery
	if cfg.MDNS.Enabled {
		adv, err := newAdvertiser(cfg, logger)
		if err != nil {
			logger.Warn("mdns disabled", "err", err)
		} else {
			defer adv.Stop()
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "err", err)
		}
	}
	return nil
}

type storeSet struct {
	credentials []store.CredentialSource
	events      store.AccessEventStore
	telemetry   store.TelemetryStore
	state       *boltdb.StateStore

	closers []func()
}

func (s *storeSet) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storeSet, error) {
	s := &storeSet{}

	fromConfig, err := cfg.Credentials()
	if err != nil {
		return nil, err
	}
	s.credentials = append(s.credentials, memory.NewCredentialSource(fromConfig))

	if cfg.DB.Path != "" {
		sqlDB, err := db.Open(ctx, db.Config{Path: cfg.DB.Path, Env: cfg.Env})
		if err != nil {
			return nil, err
		}
		writer := db.NewWorker(sqlDB)
		s.closers = append(s.closers, func() { _ = sqlDB.Close() }, writer.Close)

		s.credentials = append(s.credentials, sqlite.NewCredentialSource(sqlDB))
		s.events = sqlite.NewAccessEventStore(sqlDB, writer)
		s.telemetry = sqlite.NewTelemetryStore(sqlDB, writer)
		logger.Info("database opened", "path", cfg.DB.Path)
	} else {
		s.events = memory.NewAccessEventStore()
		s.telemetry = memory.NewTelemetryStore()
		logger.Info("no database configured, audit log kept in memory")
	}

	if cfg.State.Path != "" {
		st, err := boltdb.Open(cfg.State.Path)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.state = st
		s.closers = append(s.closers, func() { _ = st.Close() })
	}

	return s, nil
}

func openBoard(cfg config.Config, logger *slog.Logger) (device.Board, error) {
	switch cfg.Hardware.Driver {
	case "serial":
		b, err := serialio.Open(cfg.Hardware.Port, cfg.Hardware.Baud, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("serial board opened", "port", cfg.Hardware.Port, "baud", cfg.Hardware.Baud)
		return b, nil
	default:
		logger.Info("using simulated board")
		return sim.New(), nil
	}
}

func newAdvertiser(cfg config.Config, logger *slog.Logger) (*discovery.Advertiser, error) {
	port, err := discovery.PortFromListen(cfg.HTTP.Listen)
	if err != nil {
		return nil, err
	}
	adv, err := discovery.NewAdvertiser(discovery.Config{
		Instance: cfg.MDNS.Instance,
		ModuleID: cfg.ModuleID,
		Version:  version,
		Port:     port,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := adv.Start(); err != nil {
		return nil, err
	}
	return adv, nil
}
