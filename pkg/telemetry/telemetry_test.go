package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/denysvitali/mtpfm/internal/models"
)

func TestGetDataType(t *testing.T) {
	assert.Equal(t, "map", getDataType(map[string]interface{}{}))
	assert.Equal(t, "array", getDataType([]interface{}{}))
	assert.Equal(t, "string", getDataType("x"))
	assert.Equal(t, "integer", getDataType(3))
	assert.Equal(t, "float", getDataType(1.5))
	assert.Equal(t, "boolean", getDataType(true))
	assert.Equal(t, "null", getDataType(nil))
	assert.Equal(t, "object", getDataType(models.Response{}))
}

func TestReportJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	ReportJSON(context.Background(), logger, "list_request", map[string]interface{}{"path": "/DCIM"})

	assert.Contains(t, buf.String(), "operation=list_request")
	assert.Contains(t, buf.String(), `/DCIM`)
}
