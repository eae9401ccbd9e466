package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wagerbot/config"
	"wagerbot/events"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// MetricsProvider records bet activity as OpenTelemetry metrics
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	enabled       bool
	mu            sync.RWMutex

	betsCreatedCounter   metric.Int64Counter
	betsSettledCounter   metric.Int64Counter
	betsDeletedCounter   metric.Int64Counter
	betsActiveGauge      metric.Int64UpDownCounter
	choicesCounter       metric.Int64Counter
	outcomesCounter      metric.Int64Counter
	commandErrorsCounter metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{config: cfg}
}

// Initialize sets up the exporter selected by config.
// Disabled or "none" leaves every Record call a no-op.
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		return nil
	}

	var exporter sdkmetric.Exporter
	var err error
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	)
	if err := mp.InitializeWithReader(reader); err != nil {
		return err
	}

	mp.mu.RLock()
	otel.SetMeterProvider(mp.meterProvider)
	mp.mu.RUnlock()
	return nil
}

// InitializeWithReader builds the meter provider around the given reader
func (mp *MetricsProvider) InitializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.enabled {
		log.Warn("Metrics provider already initialized")
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	mp.meter = mp.meterProvider.Meter("wagerbot")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.enabled = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.betsCreatedCounter, err = mp.meter.Int64Counter(BetsCreatedTotal,
		metric.WithDescription("Total number of bets created"))
	if err != nil {
		return fmt.Errorf("failed to create bets created counter: %w", err)
	}

	mp.betsSettledCounter, err = mp.meter.Int64Counter(BetsSettledTotal,
		metric.WithDescription("Total number of bets settled"))
	if err != nil {
		return fmt.Errorf("failed to create bets settled counter: %w", err)
	}

	mp.betsDeletedCounter, err = mp.meter.Int64Counter(BetsDeletedTotal,
		metric.WithDescription("Total number of bets deleted without settlement"))
	if err != nil {
		return fmt.Errorf("failed to create bets deleted counter: %w", err)
	}

	mp.betsActiveGauge, err = mp.meter.Int64UpDownCounter(BetsActive,
		metric.WithDescription("Number of bets accepting choices"))
	if err != nil {
		return fmt.Errorf("failed to create active bets gauge: %w", err)
	}

	mp.choicesCounter, err = mp.meter.Int64Counter(ChoicesTotal,
		metric.WithDescription("Total number of choices recorded"))
	if err != nil {
		return fmt.Errorf("failed to create choices counter: %w", err)
	}

	mp.outcomesCounter, err = mp.meter.Int64Counter(OutcomesTotal,
		metric.WithDescription("Total number of wins and losses credited"))
	if err != nil {
		return fmt.Errorf("failed to create outcomes counter: %w", err)
	}

	mp.commandErrorsCounter, err = mp.meter.Int64Counter(CommandErrorsTotal,
		metric.WithDescription("Total number of commands answered with an error"))
	if err != nil {
		return fmt.Errorf("failed to create command errors counter: %w", err)
	}

	return nil
}

// SetInitialActiveBets seeds the active gauge with bets loaded at startup
func (mp *MetricsProvider) SetInitialActiveBets(count int) {
	if !mp.isEnabled() || count == 0 {
		return
	}
	mp.betsActiveGauge.Add(context.Background(), int64(count))
}

// Register subscribes the provider to bet events on the bus
func (mp *MetricsProvider) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBetCreated, func(ctx context.Context, _ events.Event) {
		mp.record(func() {
			mp.betsCreatedCounter.Add(ctx, 1)
			mp.betsActiveGauge.Add(ctx, 1)
		})
	})
	bus.Subscribe(events.EventTypeChoiceRecorded, func(ctx context.Context, event events.Event) {
		recorded, ok := event.(events.ChoiceRecordedEvent)
		if !ok {
			return
		}
		mp.record(func() {
			mp.choicesCounter.Add(ctx, 1, metric.WithAttributes(
				attribute.Bool(LabelChanged, recorded.PreviousSlot != nil),
			))
		})
	})
	bus.Subscribe(events.EventTypeBetSettled, func(ctx context.Context, _ events.Event) {
		mp.record(func() {
			mp.betsSettledCounter.Add(ctx, 1)
			mp.betsActiveGauge.Add(ctx, -1)
		})
	})
	bus.Subscribe(events.EventTypeBetDeleted, func(ctx context.Context, _ events.Event) {
		mp.record(func() {
			mp.betsDeletedCounter.Add(ctx, 1)
			mp.betsActiveGauge.Add(ctx, -1)
		})
	})
	bus.Subscribe(events.EventTypeStatsUpdated, func(ctx context.Context, event events.Event) {
		updated, ok := event.(events.StatsUpdatedEvent)
		if !ok {
			return
		}
		mp.record(func() {
			for _, record := range updated.Records {
				mp.outcomesCounter.Add(ctx, 1, metric.WithAttributes(
					attribute.String(LabelOutcome, string(record.Outcome)),
				))
			}
		})
	})
}

// RecordCommandError counts a command that was answered with an error
func (mp *MetricsProvider) RecordCommandError(command, errorKind string) {
	mp.record(func() {
		mp.commandErrorsCounter.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String(LabelCommand, command),
			attribute.String(LabelErrorKind, errorKind),
		))
	})
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.enabled = false
	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

func (mp *MetricsProvider) record(fn func()) {
	if !mp.isEnabled() {
		return
	}
	fn()
}

func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.enabled
}
