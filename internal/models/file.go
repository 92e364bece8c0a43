package models

// DateLayout is the layout used for FileEntry.DateAdded.
const DateLayout = "2006-01-02 15:04:05"

// FileEntry is the unified listing record returned by every device adapter
type FileEntry struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	Extension *string `json:"extension"`
	Size      *int64  `json:"size"`
	IsFolder  bool    `json:"isFolder"`
	DateAdded string  `json:"dateAdded"`
}

// Storage describes one logical storage unit of a device
type Storage struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// StorageList maps a storage identifier to its descriptor
type StorageList map[string]Storage

// ListFilesRequest represents the request to list a directory
type ListFilesRequest struct {
	DeviceType   string `json:"deviceType"`
	Path         string `json:"path"`
	IgnoreHidden *bool  `json:"ignoreHidden,omitempty"`
}

// DeleteFilesRequest represents the request to delete files
type DeleteFilesRequest struct {
	DeviceType string   `json:"deviceType"`
	FileList   []string `json:"fileList"`
}

// RenameFileRequest represents the request to rename a file
type RenameFileRequest struct {
	DeviceType  string `json:"deviceType"`
	OldFilePath string `json:"oldFilePath"`
	NewFilePath string `json:"newFilePath"`
}

// NewFolderRequest represents the request to create a folder
type NewFolderRequest struct {
	DeviceType    string `json:"deviceType"`
	NewFolderPath string `json:"newFolderPath"`
}

// FileExistsRequest represents the request to check a path
type FileExistsRequest struct {
	DeviceType string `json:"deviceType"`
	FilePath   string `json:"filePath"`
}
