package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path"
	"sync"
	"syscall"
	"time"

	"github.com/kataras/go-events"
	log "github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otellogrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdk_trace "go.opentelemetry.io/otel/sdk/trace"
	"gopkg.in/yaml.v3"

	"github.com/jiaming2012/rsa-tracker/src/eventconsumers"
	"github.com/jiaming2012/rsa-tracker/src/eventmodels"
	pubsub "github.com/jiaming2012/rsa-tracker/src/eventpubsub"
	"github.com/jiaming2012/rsa-tracker/src/eventproducers"
	"github.com/jiaming2012/rsa-tracker/src/eventproducers/splitscanner"
	"github.com/jiaming2012/rsa-tracker/src/eventservices"
	"github.com/jiaming2012/rsa-tracker/src/eventstore"
	"github.com/jiaming2012/rsa-tracker/src/handler"
	"github.com/jiaming2012/rsa-tracker/src/models"
	"github.com/jiaming2012/rsa-tracker/src/sheets"
	"github.com/jiaming2012/rsa-tracker/src/utils"
	"github.com/jiaming2012/rsa-tracker/src/worker"
)

const (
	memoryBufferCapacity = 40
	splitScanInterval    = 6 * time.Hour
)

func main() {
	run()
}

// setupOTelSDK bootstraps the OpenTelemetry pipeline.
// If it does not return an error, make sure to call shutdown for proper cleanup.
func setupOTelSDK(ctx context.Context) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	prop := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	otel.SetTextMapPropagator(prop)

	traceExporter, err := otlptrace.New(ctx, otlptracehttp.NewClient())
	if err != nil {
		return nil, err
	}

	res, _ := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", "rsa-tracker")))

	tracerProvider := sdk_trace.NewTracerProvider(
		sdk_trace.WithBatcher(traceExporter),
		sdk_trace.WithResource(res),
	)

	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	metricExporter, err := otlpmetrichttp.New(ctx)
	if err != nil {
		return nil, err
	}

	meterProvider := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(metricExporter)))
	shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
	otel.SetMeterProvider(meterProvider)

	if err = runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		log.Fatalf("runtime.Start: %v", err)
	}

	return
}

func loadConfig(projectDir string) eventmodels.TrackerConfigYAML {
	configPath := path.Join(projectDir, "config.yaml")

	var cfg eventmodels.TrackerConfigYAML

	data, err := os.ReadFile(configPath)
	if err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	if len(cfg.Roster) == 0 {
		log.Fatalf("config: roster is empty")
	}

	if len(cfg.SummaryTimes) == 0 {
		cfg.SummaryTimes = []string{"08:45", "16:30"}
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	if cfg.AuditLogPath == "" {
		cfg.AuditLogPath = path.Join(projectDir, "audit.log")
	}

	return cfg
}

func run() {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	goEnv := os.Getenv("GO_ENV")
	if goEnv == "" {
		goEnv = "development"
	}

	projectDir := os.Getenv("PROJECT_DIR")
	if projectDir == "" {
		projectDir = "."
	}

	if err := utils.InitEnvironmentVariables(projectDir, goEnv); err != nil {
		log.Fatalf("failed to init environment: %v", err)
	}

	cfg := loadConfig(projectDir)

	// Set up Telemetry
	log.AddHook(otellogrus.NewHook(otellogrus.WithLevels(
		log.PanicLevel,
		log.FatalLevel,
		log.ErrorLevel,
		log.WarnLevel,
		log.InfoLevel,
	)))

	if os.Getenv("OTEL_ENABLED") == "true" {
		otelShutdown, err := setupOTelSDK(ctx)
		if err != nil {
			log.Fatalf("failed to setup otel sdk: %v", err)
		}

		defer func() {
			if err := otelShutdown(context.Background()); err != nil {
				log.Errorf("otel shutdown: %v", err)
			}
		}()
	}

	webhookURL, err := utils.GetEnv("WEBHOOK_URL")
	if err != nil {
		log.Fatalf("$WEBHOOK_URL not set: %v", err)
	}

	pubsub.Init()

	// Tracker state
	sessions := models.NewSessionTracker()
	watchlist := models.NewWatchlistTracker()
	armed := models.NewActiveTradeSet()
	memory := models.NewMemoryBuffer(memoryBufferCapacity)

	// every inbound message lands in the conversation buffer, matched or not
	events.On(models.InboundChatMessage, func(payload ...interface{}) {
		if msg, ok := payload[0].(eventmodels.ChatMessage); ok {
			memory.Append(msg.UserID, "user", msg.Text)
		}
	})

	// Optional integrations
	var opts []eventconsumers.TrackerConsumerOption

	if os.Getenv("EVENTSTOREDB_URL") != "" {
		esdbClient, dbErr := eventstore.NewClientFromEnv()
		if dbErr != nil {
			log.Fatalf("failed to create eventstoredb client: %v", dbErr)
		}

		opts = append(opts, eventconsumers.WithEventStore(esdbClient))
	}

	if os.Getenv("GOOGLE_SECURITY_KEY_JSON_BASE64") != "" {
		sheetsSrv, sheetsErr := sheets.NewClientFromEnv(ctx)
		if sheetsErr != nil {
			log.Fatalf("failed to create google sheets client: %v", sheetsErr)
		}

		spreadsheetId, idErr := utils.GetEnv("SPREADSHEET_ID")
		if idErr != nil {
			log.Fatalf("$SPREADSHEET_ID not set: %v", idErr)
		}

		opts = append(opts, eventconsumers.WithSheets(sheetsSrv, spreadsheetId))
	}

	if os.Getenv("ASSIST_API_URL") != "" {
		assistToken, tokenErr := utils.GetEnv("ASSIST_BEARER_TOKEN")
		if tokenErr != nil {
			log.Fatalf("$ASSIST_BEARER_TOKEN not set: %v", tokenErr)
		}

		assistModel := os.Getenv("ASSIST_MODEL")
		if assistModel == "" {
			assistModel = "gpt-4o-mini"
		}

		assistClient := eventservices.NewAssistClient(
			os.Getenv("ASSIST_API_URL"),
			assistToken,
			assistModel,
			"You are a terse assistant for a reverse-split arbitrage trading desk.",
		)

		opts = append(opts, eventconsumers.WithAssistClient(assistClient))
	}

	// Producers and consumers
	eventproducers.NewChatClassifier(&wg, cfg.Roster).Start(ctx)
	eventconsumers.NewTrackerConsumer(&wg, sessions, watchlist, armed, memory, opts...).Start(ctx)
	eventconsumers.NewNotifierClient(&wg, webhookURL).Start(ctx)
	eventconsumers.NewSummaryWorker(&wg, cfg.SummaryTimes).Start(ctx)
	eventconsumers.NewAuditWriter(&wg, cfg.AuditLogPath).Start(ctx)

	if apiKey := os.Getenv("POLYGON_API_KEY"); apiKey != "" {
		splitscanner.NewScannerClient(&wg, apiKey, splitScanInterval).Start(ctx)
	}

	if gatewayURL := os.Getenv("GATEWAY_URL"); gatewayURL != "" {
		conn, connErr := worker.Connect(gatewayURL)
		if connErr != nil {
			log.Fatalf("gateway: initial connect failed: %v", connErr)
		}

		go worker.Run(ctx, gatewayURL, conn)
	}

	// Setup web server
	router := handler.Setup(&handler.TrackerHandler{
		Sessions:  sessions,
		Watchlist: watchlist,
	})

	srv := &http.Server{
		Handler: otelhttp.NewHandler(router, "rsa-tracker"),
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		log.Infof("listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("failed to start server: %v", err)
			}
		}
	}()

	// Create channel for shutdown signals.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	signal.Notify(stop, syscall.SIGTERM)

	log.Info("Main: init complete")

	// Block here until program is shut down
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}

	cancel()

	// Wait for event clients to shut down
	wg.Wait()

	log.Info("Main: gracefully stopped!")
}
