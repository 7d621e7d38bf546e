package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	objgw "github.com/objgw-labs/objgw/pkg/objgw/v1"
	objgwerrors "github.com/objgw-labs/objgw/pkg/objgw/v1/errors"
	objgwlog "github.com/objgw-labs/objgw/pkg/objgw/v1/log"

	"github.com/objgw-labs/objgw/internal/config"
	"github.com/objgw-labs/objgw/internal/events"
	"github.com/objgw-labs/objgw/internal/gateway"
	"github.com/objgw-labs/objgw/internal/logger"
	"github.com/objgw-labs/objgw/internal/metrics"
	"github.com/objgw-labs/objgw/internal/retry"
	"github.com/objgw-labs/objgw/internal/store"
	"github.com/objgw-labs/objgw/internal/tracing"
)

const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitUsageError  = 2
	ExitSigIntBase  = 128
	ExitSigInt      = ExitSigIntBase + int(syscall.SIGINT)
	ExitSigTerm     = ExitSigIntBase + int(syscall.SIGTERM)
	DefaultLogLevel = "info"
	DefaultLogFmt   = "text"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "validate" {
		runValidateCommand(os.Args[2:])
		return
	}
	if len(os.Args) == 2 && (os.Args[1] == "--version" || os.Args[1] == "-version") {
		printVersion()
		os.Exit(ExitSuccess)
	}
	exitCode := runServeCommand(os.Args[1:])
	os.Exit(exitCode)
}

func printVersion() {
	fmt.Printf("objgw version %s\n", version)
	fmt.Printf("commit: %s\n", commit)
	fmt.Printf("built: %s\n", buildDate)
	fmt.Printf("go version: %s\n", runtime.Version())
	fmt.Printf("os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("tracing backend: %v\n", tracing.BackendAvailable())
}

func runValidateCommand(args []string) {
	validateFlags := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := validateFlags.String("config", "", "Path to the gateway config YAML file to validate (required)")
	logLevel := validateFlags.String("log-level", DefaultLogLevel, "Log level for validation output (debug, info, warn, error)")

	validateFlags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s validate -config <path> [flags...]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Validates the structure and schema compatibility of an objgw config file.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		validateFlags.PrintDefaults()
	}

	if err := validateFlags.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing validate flags: %v\n", err)
		os.Exit(ExitUsageError)
	}

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -config flag is required for validation")
		validateFlags.Usage()
		os.Exit(ExitUsageError)
	}

	log := logger.NewLogger(*logLevel, "text", os.Stderr)
	log.Infof("Validating config: %s", *configPath)

	_, err := config.LoadConfigFromFile(*configPath)
	if err != nil {
		var validationErr *objgwerrors.ValidationError
		var configErr *objgwerrors.ConfigError
		if errors.As(err, &validationErr) {
			log.Errorf("Config validation failed:\n%s", validationErr.Error())
		} else if errors.As(err, &configErr) {
			log.Errorf("Config error:\n%s", configErr.Error())
		} else {
			log.Errorf("Failed to load or validate config: %v", err)
		}
		os.Exit(ExitFailure)
	}

	log.Infof("Config validation successful: %s", *configPath)
	os.Exit(ExitSuccess)
}

func runServeCommand(args []string) int {
	serveFlags := flag.NewFlagSet("objgw", flag.ExitOnError)
	configPath := serveFlags.String("config", "", "Path to the gateway config YAML file (optional, defaults apply)")
	logLevel := serveFlags.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
	logFormat := serveFlags.String("log-format", DefaultLogFmt, "Log format (text, json)")
	versionFlag := serveFlags.Bool("version", false, "Print version information and exit")

	serveFlags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags...]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Runs the objgw object-storage gateway.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		serveFlags.PrintDefaults()
	}

	if err := serveFlags.Parse(args); err != nil {
		return ExitUsageError
	}

	if *versionFlag {
		printVersion()
		return ExitSuccess
	}
	if *logFormat != "text" && *logFormat != "json" {
		fmt.Fprintln(os.Stderr, "Error: -log-format must be 'text' or 'json'")
		return ExitUsageError
	}

	var logWriter io.Writer = os.Stderr
	log := logger.NewLogger(*logLevel, *logFormat, logWriter)
	log = log.With("objgw_version", version)

	log.Infof("objgw gateway v%s starting...", version)

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadConfigFromFile(*configPath)
		if err != nil {
			log.Errorf("Failed to load config '%s': %v", *configPath, err)
			return ExitFailure
		}
		cfg = loaded
		log.Infof("Loaded config: %s", *configPath)
	} else {
		cfg = config.DefaultConfig()
		log.Infof("No config file given, using defaults.")
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	metricsProvider := metrics.NewPrometheusRegistryProvider()
	gatewayMetrics := metrics.NewGatewayMetrics(metricsProvider.Registry())

	eventBus := events.NewChannelEventBus(cfg.Events.BufferSize, log, gatewayMetrics.EventsDropped)
	defer eventBus.Close()
	listener := events.NewMetricsEventListener(eventBus, gatewayMetrics, log)
	go listener.Start(runCtx)

	tracerProvider := tracing.NewDefaultProvider(runCtx, cfg.Tracing, log)
	if tracerProvider.Enabled() {
		log.Infof("Tracing enabled, exporting to %s via %s", cfg.Tracing.Endpoint, cfg.Tracing.Protocol)
	} else {
		log.Debugf("Tracing disabled, spans are no-ops.")
	}

	objectStore := store.NewMemoryObjectStore()

	srv, err := gateway.NewServer(cfg, log,
		objgw.WithObjectStore(objectStore),
		objgw.WithEventBus(eventBus),
		objgw.WithTracerProvider(tracerProvider),
		objgw.WithMetricsRegistryProvider(metricsProvider),
	)
	if err != nil {
		log.Errorf("Failed to create gateway: %v", err)
		return ExitFailure
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var receivedSignal os.Signal
	go func() {
		select {
		case sig := <-sigChan:
			log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
			receivedSignal = sig
			cancelRun()
		case <-runCtx.Done():
		}
	}()

	serveErr := srv.Serve(runCtx)

	// Flushing buffered spans against a slow or briefly unreachable collector
	// is worth a couple of retries during shutdown.
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	retrier := retry.NewHelper(log)
	flushErr := retrier.Do(shutdownCtx, retry.Config{
		Attempts:      3,
		Delay:         500 * time.Millisecond,
		BackoffFactor: 2.0,
		OnError:       true,
		Name:          "tracer-shutdown",
	}, tracerProvider.Shutdown)
	if flushErr != nil {
		log.Warnf("Error shutting down tracer provider: %v", flushErr)
	}

	return determineExitCode(serveErr, receivedSignal, log)
}

func determineExitCode(serveErr error, sig os.Signal, log objgwlog.Logger) int {
	if sig != nil {
		switch sig {
		case syscall.SIGINT:
			log.Warnf("Gateway interrupted by signal: SIGINT")
			return ExitSigInt
		case syscall.SIGTERM:
			log.Warnf("Gateway terminated by signal: SIGTERM")
			return ExitSigTerm
		}
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		log.Errorf("Gateway exited with error: %v", serveErr)
		return ExitFailure
	}
	log.Infof("Gateway shut down cleanly.")
	return ExitSuccess
}
