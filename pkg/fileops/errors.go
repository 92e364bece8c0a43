package fileops

import "errors"

// Errors shared by the device adapters
var (
	ErrNoFilesSelected      = errors.New("No files selected.")
	ErrPathNotFound         = errors.New("path does not exist")
	ErrAccessDenied         = errors.New("access denied")
	ErrUnsupported          = errors.New("operation not supported by device")
	ErrStorageNotAccessible = errors.New("MTP storage not accessible")
	ErrListingMismatch      = errors.New("listing outputs do not correspond")
	ErrUnsafePath           = errors.New("refusing to remove")
)
