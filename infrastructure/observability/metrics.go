package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"challenger/config"
	"challenger/events"
	"challenger/models"

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

// MetricsProvider manages OpenTelemetry metrics for arena
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	httpRequestsCounter        metric.Int64Counter
	httpRequestDurationHist    metric.Float64Histogram
	holdsCounter               metric.Int64Counter
	heldAmountGauge            metric.Int64UpDownCounter
	matchTransitionsCounter    metric.Int64Counter
	settlementsCounter         metric.Int64Counter
	platformFeesCounter        metric.Int64Counter
	balanceTransactionsCounter metric.Int64Counter
	duplicatesRemovedCounter   metric.Int64Counter
	emergencyAccessCounter     metric.Int64Counter
	natsPublishedCounter       metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
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
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	)
	return mp.initializeWithReader(reader)
}

// initializeWithReader builds the meter provider around reader; callers hold mp.mu
func (mp *MetricsProvider) initializeWithReader(reader sdkmetric.Reader) error {
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
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("arena")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.httpRequestsCounter, err = mp.meter.Int64Counter(
		HTTPRequestsTotal,
		metric.WithDescription("Total number of HTTP requests served"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http requests counter: %w", err)
	}

	mp.httpRequestDurationHist, err = mp.meter.Float64Histogram(
		HTTPRequestDuration,
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create http request duration histogram: %w", err)
	}

	mp.holdsCounter, err = mp.meter.Int64Counter(
		HoldsTotal,
		metric.WithDescription("Escrow hold state changes"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create holds counter: %w", err)
	}

	// UpDownCounter for gauge-like behavior
	mp.heldAmountGauge, err = mp.meter.Int64UpDownCounter(
		HeldAmountActive,
		metric.WithDescription("Funds currently held in escrow"),
	)
	if err != nil {
		return fmt.Errorf("failed to create held amount gauge: %w", err)
	}

	mp.matchTransitionsCounter, err = mp.meter.Int64Counter(
		MatchTransitionsTotal,
		metric.WithDescription("Committed match lifecycle transitions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create match transitions counter: %w", err)
	}

	mp.settlementsCounter, err = mp.meter.Int64Counter(
		SettlementsTotal,
		metric.WithDescription("Settled matches"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create settlements counter: %w", err)
	}

	mp.platformFeesCounter, err = mp.meter.Int64Counter(
		PlatformFeesCollected,
		metric.WithDescription("Platform fees collected at settlement"),
	)
	if err != nil {
		return fmt.Errorf("failed to create platform fees counter: %w", err)
	}

	mp.balanceTransactionsCounter, err = mp.meter.Int64Counter(
		BalanceTransactionsTotal,
		metric.WithDescription("Total number of balance transactions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create balance transactions counter: %w", err)
	}

	mp.duplicatesRemovedCounter, err = mp.meter.Int64Counter(
		DuplicatesRemovedTotal,
		metric.WithDescription("Duplicate payout rows removed by reconciliation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create duplicates removed counter: %w", err)
	}

	mp.emergencyAccessCounter, err = mp.meter.Int64Counter(
		EmergencyAccessTotal,
		metric.WithDescription("Staff operations authorized by a break-glass credential"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create emergency access counter: %w", err)
	}

	mp.natsPublishedCounter, err = mp.meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS messages published counter: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordHTTPRequest records one served request
func (mp *MetricsProvider) RecordHTTPRequest(method, route string, code int, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelMethod, method),
		attribute.String(LabelRoute, route),
		attribute.Int(LabelCode, code),
	)
	mp.httpRequestsCounter.Add(context.Background(), 1, attrs)
	mp.httpRequestDurationHist.Record(context.Background(), duration.Seconds(), attrs)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType events.EventType) {
	if !mp.isEnabled() {
		return
	}

	mp.natsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelEventType, string(eventType)),
		),
	)
}

// HandleEvent updates instruments from a committed domain event
func (mp *MetricsProvider) HandleEvent(ctx context.Context, event events.Event) {
	if !mp.isEnabled() {
		return
	}

	switch e := event.(type) {
	case events.BalanceChangeEvent:
		mp.balanceTransactionsCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String(LabelType, e.Reason)))

	case events.HoldChangedEvent:
		mp.holdsCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String(LabelStatus, string(e.Status))))
		if e.Status == models.HoldStatusHeld {
			mp.heldAmountGauge.Add(ctx, e.Amount)
		} else {
			mp.heldAmountGauge.Add(ctx, -e.Amount)
		}

	case events.MatchStateChangedEvent:
		mp.matchTransitionsCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String(LabelStatus, string(e.NewStatus))))

	case events.SettlementCompletedEvent:
		mp.settlementsCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String(LabelOutcome, string(e.Outcome))))
		if e.Fee > 0 {
			mp.platformFeesCounter.Add(ctx, e.Fee)
		}

	case events.DuplicatesRemovedEvent:
		mp.duplicatesRemovedCounter.Add(ctx, int64(e.DuplicatesRemoved))

	case events.EmergencyAccessEvent:
		mp.emergencyAccessCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String(LabelOperation, e.Operation)))
	}
}

// Attach subscribes the provider to every event type on the bus
func (mp *MetricsProvider) Attach(bus *events.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		mp.HandleEvent(context.WithoutCancel(ctx), event)
	})
}

func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider, nil before initialization
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
