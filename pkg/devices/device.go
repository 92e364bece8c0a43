package devices

import (
	"context"
	"errors"
	"fmt"

	"github.com/denysvitali/mtpfm/internal/models"
)

// DeviceType tags the backend a request is meant for
type DeviceType string

const (
	Local DeviceType = "local"
	MTP   DeviceType = "mtp"
)

// ErrUnknownDeviceType is returned for tags outside the known set
var ErrUnknownDeviceType = errors.New("unknown device type")

// ParseDeviceType validates s against the known device types
func ParseDeviceType(s string) (DeviceType, error) {
	switch DeviceType(s) {
	case Local:
		return Local, nil
	case MTP:
		return MTP, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDeviceType, s)
	}
}

// Adapter is a device backend
type Adapter interface {
	List(ctx context.Context, path string, ignoreHidden bool) ([]models.FileEntry, error)
	Delete(ctx context.Context, paths []string) error
	Rename(ctx context.Context, oldPath, newPath string) error
	CreateFolder(ctx context.Context, path string) error
	StorageList(ctx context.Context) (models.StorageList, error)
	FileExists(ctx context.Context, path string) (bool, error)
}
