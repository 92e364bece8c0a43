package sysinfo

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestCollect(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	stats := Collect(logger, t.TempDir())
	assert.Greater(t, stats.Disk.Total, uint64(0))
	assert.Greater(t, stats.Memory.RSS, uint64(0))
	assert.GreaterOrEqual(t, stats.CPUPercent, 0.0)
}

func TestCollect_MissingDir(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	stats := Collect(logger, "/path/that/does/not/exist")
	assert.Zero(t, stats.Disk.Total)
}
