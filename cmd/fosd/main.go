package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pspoerri/fosfix/internal/config"
	"github.com/pspoerri/fosfix/internal/coord"
	"github.com/pspoerri/fosfix/internal/httpapi"
	"github.com/pspoerri/fosfix/internal/logging"
	"github.com/pspoerri/fosfix/internal/natsapi"
	"github.com/pspoerri/fosfix/internal/observability"
	"github.com/pspoerri/fosfix/internal/resection"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

const shutdownGrace = 10 * time.Second

func main() {
	var (
		configFile  string
		showVersion bool
	)
	flag.StringVar(&configFile, "config", "", "Config file (default: fosd.yaml in . or ./configs)")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fosd [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Serve FOS resections over HTTP and, optionally, NATS.\n")
		fmt.Fprintf(os.Stderr, "Every setting can be overridden with FOS_<SECTION>_<KEY>.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("fosd %s (commit %s, built %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("Config: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}).With(logging.String("service", "fosd"), logging.String("version", version))

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     version,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, logger)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	metrics, err := observability.NewCollector(nil)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	engine, err := resection.NewEngine(resection.Config{
		System:    coord.System(cfg.Engine.System),
		Precision: cfg.Engine.Precision,
	}, resection.WithLogger(logger), resection.WithRecorder(metrics))
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	app := httpapi.NewApp(httpapi.ServerConfig{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
	}, &httpapi.Dependencies{
		Engine:  engine,
		Metrics: metrics,
		Logger:  logger,
		Version: version,
	})

	g, gctx := errgroup.WithContext(ctx)

	var responder *natsapi.Responder
	if cfg.NATS.Enabled {
		conn, err := natsapi.Connect(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer conn.Close()

		responder = natsapi.NewResponder(natsapi.Config{
			Subject: cfg.NATS.Subject,
			Queue:   cfg.NATS.Queue,
		}, engine, metrics, logger)
		if err := responder.Start(gctx, conn); err != nil {
			return err
		}
	}

	g.Go(func() error {
		logger.Info(gctx, "http server starting", logging.String("addr", cfg.Server.Addr))
		if err := app.Listen(cfg.Server.Addr); err != nil {
			return fmt.Errorf("http listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "shutdown signal received, draining")

		var errs []error
		if responder != nil {
			errs = append(errs, responder.Stop())
		}
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		errs = append(errs, app.ShutdownWithContext(sctx))
		return errors.Join(errs...)
	})

	err = g.Wait()
	logger.Info(context.Background(), "server stopped")
	return err
}
