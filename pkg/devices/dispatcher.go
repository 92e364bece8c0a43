package devices

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/denysvitali/mtpfm/internal/models"
	"github.com/denysvitali/mtpfm/pkg/config"
	"github.com/denysvitali/mtpfm/pkg/devices/local"
	"github.com/denysvitali/mtpfm/pkg/devices/mtp"
	"github.com/denysvitali/mtpfm/pkg/executor"
	"github.com/denysvitali/mtpfm/pkg/fileops"
)

// Dispatcher routes file operations to the adapter of a device type and
// wraps every outcome in a models.Response
type Dispatcher struct {
	adapters map[DeviceType]Adapter
	logger   *logrus.Logger
	tracer   trace.Tracer
}

// New creates a dispatcher with the local and MTP adapters configured by cfg
func New(cfg *config.Config, logger *logrus.Logger) *Dispatcher {
	runner := executor.NewExecRunner(logger, cfg.MTP.Timeout)
	return NewDispatcher(logger, map[DeviceType]Adapter{
		Local: local.New(logger, runner),
		MTP:   mtp.New(cfg.MTP.Bin, runner, logger),
	})
}

// NewDispatcher creates a dispatcher over the given adapters
func NewDispatcher(logger *logrus.Logger, adapters map[DeviceType]Adapter) *Dispatcher {
	return &Dispatcher{
		adapters: adapters,
		logger:   logger,
		tracer:   otel.Tracer("mtpfm"),
	}
}

// List lists path on the device
func (d *Dispatcher) List(ctx context.Context, deviceType, path string, ignoreHidden bool) models.Response {
	return d.call(ctx, "list", deviceType, nil, func(ctx context.Context, a Adapter) (interface{}, error) {
		return a.List(ctx, path, ignoreHidden)
	})
}

// Delete removes paths from the device
func (d *Dispatcher) Delete(ctx context.Context, deviceType string, paths []string) models.Response {
	return d.call(ctx, "delete", deviceType, false, func(ctx context.Context, a Adapter) (interface{}, error) {
		return true, a.Delete(ctx, paths)
	})
}

// Rename moves oldPath to newPath on the device
func (d *Dispatcher) Rename(ctx context.Context, deviceType, oldPath, newPath string) models.Response {
	return d.call(ctx, "rename", deviceType, false, func(ctx context.Context, a Adapter) (interface{}, error) {
		return true, a.Rename(ctx, oldPath, newPath)
	})
}

// CreateFolder creates path on the device
func (d *Dispatcher) CreateFolder(ctx context.Context, deviceType, path string) models.Response {
	return d.call(ctx, "create_folder", deviceType, false, func(ctx context.Context, a Adapter) (interface{}, error) {
		return true, a.CreateFolder(ctx, path)
	})
}

// StorageList enumerates the storages of the device
func (d *Dispatcher) StorageList(ctx context.Context, deviceType string) models.Response {
	return d.call(ctx, "storage_list", deviceType, nil, func(ctx context.Context, a Adapter) (interface{}, error) {
		return a.StorageList(ctx)
	})
}

// FileExists checks whether path exists on the device
func (d *Dispatcher) FileExists(ctx context.Context, deviceType, path string) models.Response {
	return d.call(ctx, "file_exists", deviceType, false, func(ctx context.Context, a Adapter) (interface{}, error) {
		return a.FileExists(ctx, path)
	})
}

type operation func(ctx context.Context, a Adapter) (interface{}, error)

func (d *Dispatcher) call(ctx context.Context, op, deviceType string, failData interface{}, fn operation) (resp models.Response) {
	ctx, span := d.tracer.Start(ctx, "dispatch."+op)
	defer span.End()
	span.SetAttributes(attribute.String("device_type", deviceType))

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%s: unexpected failure: %v", op, r)
			span.RecordError(err)
			d.logger.WithFields(logrus.Fields{"op": op, "device_type": deviceType}).Errorf("Recovered from panic: %v", r)
			resp = newErrorResponse(err, nil)
		}
	}()

	dt, err := ParseDeviceType(deviceType)
	if err != nil {
		return newErrorResponse(err, nil)
	}
	adapter, ok := d.adapters[dt]
	if !ok {
		return newErrorResponse(fmt.Errorf("%w: %q has no adapter", ErrUnknownDeviceType, deviceType), nil)
	}

	data, err := fn(ctx, adapter)
	if err != nil {
		span.RecordError(err)
		if IsValidationError(err) {
			return newErrorResponse(err, nil)
		}
		return newErrorResponse(err, failData)
	}
	return models.NewDataResponse(data)
}

// IsValidationError reports whether err rejects the request itself rather
// than reporting a backend failure
func IsValidationError(err error) bool {
	return errors.Is(err, fileops.ErrNoFilesSelected) || errors.Is(err, ErrUnknownDeviceType)
}

func newErrorResponse(err error, data interface{}) models.Response {
	stderr := ""
	var cmdErr *executor.CommandError
	if errors.As(err, &cmdErr) {
		stderr = strings.TrimSpace(cmdErr.Stderr)
	}
	resp := models.NewErrorResponse(err.Error(), stderr, data)
	resp.Err = err
	return resp
}
