package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/denysvitali/mtpfm/internal/models"
	"github.com/denysvitali/mtpfm/pkg/executor"
	"github.com/denysvitali/mtpfm/pkg/fileops"
)

var (
	osReadDir      = os.ReadDir
	osStat         = os.Stat
	osRemoveAll    = os.RemoveAll
	osRename       = os.Rename
	osMkdirAll     = os.MkdirAll
	diskPartitions = disk.PartitionsWithContext
)

// Adapter maps file operations onto the local filesystem
type Adapter struct {
	logger *logrus.Logger
	runner executor.Runner
	tracer trace.Tracer
}

// New creates a local adapter. runner is only used to move entries across
// filesystems, which os.Rename cannot do.
func New(logger *logrus.Logger, runner executor.Runner) *Adapter {
	return &Adapter{
		logger: logger,
		runner: runner,
		tracer: otel.Tracer("mtpfm"),
	}
}

// List reads dir and returns its entries. Junk files are always dropped,
// dotfiles only when ignoreHidden is set. Entries that disappear or cannot be
// stat'ed between the read and the stat are skipped.
func (a *Adapter) List(ctx context.Context, dir string, ignoreHidden bool) ([]models.FileEntry, error) {
	_, span := a.tracer.Start(ctx, "local.list")
	defer span.End()
	span.SetAttributes(attribute.String("path", dir), attribute.Bool("ignore_hidden", ignoreHidden))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	dirEntries, err := osReadDir(dir)
	if err != nil {
		span.RecordError(err)
		a.logger.WithField("op", "local.list").WithError(err).Errorf("Failed to read directory %s", dir)
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, classify(err))
	}

	collector := fileops.NewCollector(len(dirEntries))
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		if fileops.IsJunk(name) {
			continue
		}
		if ignoreHidden && fileops.IsHidden(name) {
			continue
		}

		fullPath := filepath.Join(dir, name)
		info, err := osStat(fullPath)
		if err != nil {
			a.logger.Debugf("Skipping %s: %v", fullPath, err)
			continue
		}

		size := info.Size()
		collector.Add(models.FileEntry{
			Name:      name,
			Path:      fullPath,
			Extension: fileops.Extension(name, info.IsDir()),
			Size:      &size,
			IsFolder:  info.IsDir(),
			DateAdded: fileops.FormatDate(info.ModTime()),
		})
	}

	if n := collector.Dropped(); n > 0 {
		a.logger.Debugf("Dropped %d duplicate paths while listing %s", n, dir)
	}
	return collector.Entries(), nil
}

// Delete removes every path recursively. Missing paths are not an error.
// A batch holding an empty path or the root is refused before anything is
// removed. Otherwise the first failure aborts the remaining removals; earlier
// removals stay done.
func (a *Adapter) Delete(ctx context.Context, paths []string) error {
	_, span := a.tracer.Start(ctx, "local.delete")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("paths", paths))

	if len(paths) == 0 {
		return fileops.ErrNoFilesSelected
	}
	if err := fileops.CheckRemovable(paths, filepath.Abs); err != nil {
		span.RecordError(err)
		a.logger.WithField("op", "local.delete").WithError(err).Error("Rejected delete batch")
		return err
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := osRemoveAll(p); err != nil {
			span.RecordError(err)
			a.logger.WithField("op", "local.delete").WithError(err).Errorf("Failed to delete %s", p)
			return fmt.Errorf("failed to delete %s: %w", p, classify(err))
		}
	}
	return nil
}

// Rename moves oldPath to newPath. When newPath is an existing directory the
// entry is moved into it.
func (a *Adapter) Rename(ctx context.Context, oldPath, newPath string) error {
	ctx, span := a.tracer.Start(ctx, "local.rename")
	defer span.End()
	span.SetAttributes(attribute.String("old_path", oldPath), attribute.String("new_path", newPath))

	if oldPath == "" || newPath == "" {
		return fileops.ErrNoFilesSelected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Like mv, an existing directory target receives the source inside it
	target := newPath
	if info, err := osStat(newPath); err == nil && info.IsDir() {
		target = filepath.Join(newPath, filepath.Base(oldPath))
	}

	err := osRename(oldPath, target)
	if errors.Is(err, syscall.EXDEV) && a.runner != nil {
		err = a.runner.Run(ctx, "mv", "--", oldPath, target).AsError("local.rename")
	}
	if err != nil {
		span.RecordError(err)
		a.logger.WithField("op", "local.rename").WithError(err).Errorf("Failed to move %s to %s", oldPath, target)
		return fmt.Errorf("failed to move %s: %w", oldPath, classify(err))
	}
	return nil
}

// CreateFolder creates path along with any missing parents
func (a *Adapter) CreateFolder(ctx context.Context, path string) error {
	_, span := a.tracer.Start(ctx, "local.create_folder")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	if path == "" {
		return fileops.ErrNoFilesSelected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := osMkdirAll(path, 0755); err != nil {
		span.RecordError(err)
		a.logger.WithField("op", "local.create_folder").WithError(err).Errorf("Failed to create %s", path)
		return fmt.Errorf("failed to create folder %s: %w", path, classify(err))
	}
	return nil
}

// FileExists reports whether path exists
func (a *Adapter) FileExists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fullPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	_, err = osStat(fullPath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, classify(err)
}

// StorageList enumerates mounted partitions, keyed by mount point.
// The first partition is selected.
func (a *Adapter) StorageList(ctx context.Context) (models.StorageList, error) {
	ctx, span := a.tracer.Start(ctx, "local.storage_list")
	defer span.End()

	partitions, err := diskPartitions(ctx, false)
	if err != nil && len(partitions) == 0 {
		span.RecordError(err)
		a.logger.WithField("op", "local.storage_list").WithError(err).Error("Failed to enumerate partitions")
		return nil, fmt.Errorf("failed to enumerate partitions: %w", err)
	}

	storages := make(models.StorageList, len(partitions))
	for _, p := range partitions {
		if _, ok := storages[p.Mountpoint]; ok {
			continue
		}
		name := p.Mountpoint
		if p.Device != "" && p.Device != p.Mountpoint {
			name = fmt.Sprintf("%s (%s)", p.Mountpoint, p.Device)
		}
		storages[p.Mountpoint] = models.Storage{
			Name:     name,
			Selected: len(storages) == 0,
		}
	}
	if len(storages) == 0 {
		return nil, fmt.Errorf("no local partitions found: %w", fileops.ErrStorageNotAccessible)
	}
	return storages, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", fileops.ErrPathNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", fileops.ErrAccessDenied, err)
	default:
		return err
	}
}
