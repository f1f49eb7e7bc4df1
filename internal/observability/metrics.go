package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/config"
)

const meterName = "enrollment-auth-service"

type AppMetrics struct {
	loginCounter           metric.Int64Counter
	lockoutCounter         metric.Int64Counter
	passwordChangeCounter  metric.Int64Counter
	reauthCounter          metric.Int64Counter
	tokenValidationCounter metric.Int64Counter
	accessDeniedCounter    metric.Int64Counter
	authReqDuration        metric.Float64Histogram
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

// InitMetrics configures the OTLP metric pipeline and registers the auth
// instruments. When metrics are disabled a plain provider is installed so
// Record* helpers stay no-ops.
func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)

	m, err := newAppMetrics(mp.Meter(meterName))
	if err != nil {
		return nil, err
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func newAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	loginCounter, err := meter.Int64Counter("auth.login.attempts")
	if err != nil {
		return nil, err
	}
	lockoutCounter, err := meter.Int64Counter("auth.account.lockouts")
	if err != nil {
		return nil, err
	}
	passwordChangeCounter, err := meter.Int64Counter("auth.password.changes")
	if err != nil {
		return nil, err
	}
	reauthCounter, err := meter.Int64Counter("auth.reauth.attempts")
	if err != nil {
		return nil, err
	}
	tokenValidationCounter, err := meter.Int64Counter("auth.access_token.validation.events")
	if err != nil {
		return nil, err
	}
	accessDeniedCounter, err := meter.Int64Counter("auth.access.denied")
	if err != nil {
		return nil, err
	}
	authReqDuration, err := meter.Float64Histogram(
		"auth.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of auth endpoint requests in seconds"),
	)
	if err != nil {
		return nil, err
	}
	return &AppMetrics{
		loginCounter:           loginCounter,
		lockoutCounter:         lockoutCounter,
		passwordChangeCounter:  passwordChangeCounter,
		reauthCounter:          reauthCounter,
		tokenValidationCounter: tokenValidationCounter,
		accessDeniedCounter:    accessDeniedCounter,
		authReqDuration:        authReqDuration,
	}, nil
}

func current() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordLogin(ctx context.Context, status string) {
	if m := current(); m != nil {
		m.loginCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordLockout(ctx context.Context) {
	if m := current(); m != nil {
		m.lockoutCounter.Add(ctx, 1)
	}
}

func RecordPasswordChange(ctx context.Context, status string) {
	if m := current(); m != nil {
		m.passwordChangeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordReauth(ctx context.Context, status string) {
	if m := current(); m != nil {
		m.reauthCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordTokenValidation(ctx context.Context, outcome string) {
	if m := current(); m != nil {
		m.tokenValidationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func RecordAccessDenied(ctx context.Context, resource string) {
	if m := current(); m != nil {
		m.accessDeniedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", resource)))
	}
}

func RecordAuthRequestDuration(ctx context.Context, endpoint, status string, duration time.Duration) {
	if m := current(); m != nil {
		m.authReqDuration.Record(ctx, duration.Seconds(),
			metric.WithAttributes(
				attribute.String("endpoint", endpoint),
				attribute.String("status", status),
			),
		)
	}
}
