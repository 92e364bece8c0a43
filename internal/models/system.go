package models

import "time"

// ServerInfo represents server information
type ServerInfo struct {
	StartTime    time.Time   `json:"start_time"`
	LastExecTime time.Time   `json:"last_execution_time"`
	MTPBin       string      `json:"mtp_bin"`
	SystemStats  SystemStats `json:"system_stats"`
}

// ServerInfoResponse is returned by the server info endpoint
type ServerInfoResponse struct {
	Uptime      float64     `json:"uptime"`
	IdleTime    float64     `json:"idle_time"`
	MTPBin      string      `json:"mtp_bin"`
	SystemStats SystemStats `json:"system_stats"`
}

// SystemStats represents process and disk statistics
type SystemStats struct {
	CPUPercent float64     `json:"cpu_percent"`
	Memory     MemoryStats `json:"memory"`
	Disk       DiskStats   `json:"disk"`
	IO         IOStats     `json:"io"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	RSS     uint64  `json:"rss"`     // Resident Set Size in bytes
	VMS     uint64  `json:"vms"`     // Virtual Memory Size in bytes
	Percent float32 `json:"percent"` // Memory usage percentage
}

// DiskStats represents disk usage statistics
type DiskStats struct {
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Free    uint64  `json:"free"`
	Percent float64 `json:"percent"`
}

// IOStats represents I/O statistics
type IOStats struct {
	ReadBytes  uint64 `json:"read_bytes"`
	WriteBytes uint64 `json:"write_bytes"`
}
