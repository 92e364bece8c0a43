package mtp

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/denysvitali/mtpfm/internal/models"
	"github.com/denysvitali/mtpfm/pkg/executor"
	"github.com/denysvitali/mtpfm/pkg/fileops"
)

// Adapter drives an MTP device through an external command-line tool.
// Every operation runs the tool once per sub-command and parses its stdout.
type Adapter struct {
	bin    string
	runner executor.Runner
	logger *logrus.Logger
	tracer trace.Tracer
}

// New creates an adapter invoking bin through runner
func New(bin string, runner executor.Runner, logger *logrus.Logger) *Adapter {
	return &Adapter{
		bin:    bin,
		runner: runner,
		logger: logger,
		tracer: otel.Tracer("mtpfm"),
	}
}

// subCommand builds the single argument the tool expects, e.g. ls "/DCIM".
// The tool parses the quotes itself, so embedded double quotes are escaped.
func subCommand(name, p string) string {
	return fmt.Sprintf(`%s "%s"`, name, strings.ReplaceAll(p, `"`, `\"`))
}

func (a *Adapter) run(ctx context.Context, op, arg string) (string, error) {
	res := a.runner.Run(ctx, a.bin, arg)
	if err := res.AsError(op); err != nil {
		a.logger.WithFields(logrus.Fields{
			"op":     op,
			"stderr": strings.TrimSpace(res.Stderr),
		}).WithError(res.Err).Error("MTP command failed")
		return "", err
	}
	return res.Stdout, nil
}

// List lists dir on the device
func (a *Adapter) List(ctx context.Context, dir string, ignoreHidden bool) ([]models.FileEntry, error) {
	ctx, span := a.tracer.Start(ctx, "mtp.list")
	defer span.End()
	span.SetAttributes(attribute.String("path", dir), attribute.Bool("ignore_hidden", ignoreHidden))

	lsOut, err := a.run(ctx, "mtp.list.ls", subCommand("ls", dir))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	lsextOut, err := a.run(ctx, "mtp.list.lsext", subCommand("lsext", dir))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	entries, skipped, err := ParseListing(dir, lsOut, lsextOut, ignoreHidden)
	if err != nil {
		span.RecordError(err)
		a.logger.WithField("op", "mtp.list").WithError(err).Errorf("Failed to pair listing of %s", dir)
		return nil, err
	}
	if skipped > 0 {
		a.logger.Debugf("Skipped %d malformed lsext rows while listing %s", skipped, dir)
	}
	return entries, nil
}

// Delete removes paths one by one and stops at the first failure.
// Paths removed before the failure stay removed.
func (a *Adapter) Delete(ctx context.Context, paths []string) error {
	ctx, span := a.tracer.Start(ctx, "mtp.delete")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("paths", paths))

	if len(paths) == 0 {
		return fileops.ErrNoFilesSelected
	}
	if err := fileops.CheckRemovable(paths, nil); err != nil {
		span.RecordError(err)
		a.logger.WithField("op", "mtp.delete").WithError(err).Error("Rejected delete batch")
		return err
	}

	argSets := make([][]string, len(paths))
	for i, p := range paths {
		argSets[i] = []string{subCommand("rm", p)}
	}

	results, failed := executor.RunAll(ctx, a.runner, a.bin, argSets)
	if failed < 0 {
		return nil
	}
	res := results[failed]
	err := res.AsError("mtp.delete")
	span.RecordError(err)
	a.logger.WithFields(logrus.Fields{
		"op":     "mtp.delete",
		"path":   paths[failed],
		"stderr": strings.TrimSpace(res.Stderr),
	}).WithError(res.Err).Error("MTP command failed")
	return fmt.Errorf("failed to delete %s: %w", paths[failed], err)
}

// Rename is not offered by the device tool
func (a *Adapter) Rename(ctx context.Context, oldPath, newPath string) error {
	if oldPath == "" || newPath == "" {
		return fileops.ErrNoFilesSelected
	}
	return fileops.ErrUnsupported
}

// CreateFolder creates path and its missing parents on the device
func (a *Adapter) CreateFolder(ctx context.Context, path string) error {
	ctx, span := a.tracer.Start(ctx, "mtp.create_folder")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	if path == "" {
		return fileops.ErrNoFilesSelected
	}
	if _, err := a.run(ctx, "mtp.create_folder", subCommand("mkpath", path)); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// StorageList enumerates the storages of the attached device
func (a *Adapter) StorageList(ctx context.Context) (models.StorageList, error) {
	ctx, span := a.tracer.Start(ctx, "mtp.storage_list")
	defer span.End()

	out, err := a.run(ctx, "mtp.storage_list", "storage-list")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return ParseStorageList(out)
}

// FileExists queries the properties of path. Any output means the path
// exists; the tool prints nothing for missing paths.
func (a *Adapter) FileExists(ctx context.Context, path string) (bool, error) {
	ctx, span := a.tracer.Start(ctx, "mtp.file_exists")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	res := a.runner.Run(ctx, a.bin, subCommand("properties", path))

	if err := ctx.Err(); err != nil {
		return false, err
	}
	// A non-zero exit is how the tool reports a missing path. Failing to
	// run the tool at all is an error.
	var exitErr *exec.ExitError
	if res.Err != nil && !errors.As(res.Err, &exitErr) {
		err := res.AsError("mtp.file_exists")
		span.RecordError(err)
		return false, err
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}
