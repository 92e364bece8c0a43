package sysinfo

import (
	"os"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/sirupsen/logrus"

	"github.com/denysvitali/mtpfm/internal/models"
)

// Collect returns statistics of the current process and of the disk holding
// dir. Values that cannot be read are reported as zero.
func Collect(logger *logrus.Logger, dir string) models.SystemStats {
	var stats models.SystemStats

	if dir == "" {
		dir = "/"
	}
	if usage, err := disk.Usage(dir); err != nil {
		logger.Warnf("Failed to get disk usage: %v", err)
	} else {
		stats.Disk = models.DiskStats{
			Total:   usage.Total,
			Used:    usage.Used,
			Free:    usage.Free,
			Percent: usage.UsedPercent,
		}
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.Warnf("Failed to get process info: %v", err)
		return stats
	}

	if cpuPercent, err := proc.CPUPercent(); err != nil {
		logger.Warnf("Failed to get CPU percent: %v", err)
	} else {
		stats.CPUPercent = cpuPercent
	}

	if memInfo, err := proc.MemoryInfo(); err != nil {
		logger.Warnf("Failed to get memory info: %v", err)
	} else {
		stats.Memory.RSS = memInfo.RSS
		stats.Memory.VMS = memInfo.VMS
	}

	if memPercent, err := proc.MemoryPercent(); err != nil {
		logger.Warnf("Failed to get memory percent: %v", err)
	} else {
		stats.Memory.Percent = memPercent
	}

	if ioCounters, err := proc.IOCounters(); err != nil {
		logger.Debugf("Failed to get IO counters: %v", err)
	} else {
		stats.IO = models.IOStats{
			ReadBytes:  ioCounters.ReadBytes,
			WriteBytes: ioCounters.WriteBytes,
		}
	}

	return stats
}
