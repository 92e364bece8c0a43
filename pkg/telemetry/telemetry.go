package telemetry

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otlplog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/denysvitali/mtpfm/pkg/config"
)

const serviceName = "mtpfm"

// Initialize sets up OpenTelemetry tracing and logging using autoexport.
// The returned function flushes and shuts the providers down.
func Initialize(cfg config.TelemetryConfig, logger *logrus.Logger) (func(), error) {
	if cfg.Endpoint != "" && os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		_ = os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Endpoint)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String("1.0.0"),
		),
	)
	if err != nil {
		return nil, err
	}

	spanExporter, err := autoexport.NewSpanExporter(context.Background())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	logExporter, err := autoexport.NewLogExporter(context.Background())
	if err != nil {
		logger.Warnf("Failed to create log exporter: %v", err)
	}

	var logProvider *sdklog.LoggerProvider
	if logExporter != nil {
		logProvider = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
			sdklog.WithResource(res),
		)
		global.SetLoggerProvider(logProvider)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := tp.Shutdown(ctx); err != nil {
			logger.Errorf("Error shutting down tracer provider: %v", err)
		}

		if logProvider != nil {
			if err := logProvider.Shutdown(ctx); err != nil {
				logger.Errorf("Error shutting down log provider: %v", err)
			}
		}
	}, nil
}

// ReportJSON reports data as JSON on a span and in the debug log
func ReportJSON(ctx context.Context, logger *logrus.Logger, operationName string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		logger.Errorf("Failed to marshal data to JSON: %v", err)
		return
	}

	reportJSONInTrace(ctx, operationName, data, jsonData)
	reportJSONInLogs(ctx, logger, operationName, data, jsonData)
}

func reportJSONInTrace(ctx context.Context, operationName string, data interface{}, jsonData []byte) {
	_, span := otel.Tracer(serviceName).Start(ctx, operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("json.data", string(jsonData)),
		attribute.String("data.type", getDataType(data)),
	)
}

func reportJSONInLogs(ctx context.Context, logger *logrus.Logger, operationName string, data interface{}, jsonData []byte) {
	logger.WithFields(logrus.Fields{
		"operation": operationName,
		"json_data": string(jsonData),
		"data_type": getDataType(data),
	}).Debug("JSON data reported")

	var record otlplog.Record
	record.SetTimestamp(time.Now())
	record.SetObservedTimestamp(time.Now())
	record.SetSeverity(otlplog.SeverityDebug)
	record.SetSeverityText("DEBUG")
	record.SetBody(otlplog.StringValue(string(jsonData)))
	record.AddAttributes(
		otlplog.String("operation", operationName),
		otlplog.String("data_type", getDataType(data)),
	)
	global.GetLoggerProvider().Logger(serviceName).Emit(ctx, record)
}

func getDataType(data interface{}) string {
	switch data.(type) {
	case map[string]interface{}:
		return "map"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case int, int32, int64:
		return "integer"
	case float32, float64:
		return "float"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return "object"
	}
}
