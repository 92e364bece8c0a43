package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/denysvitali/mtpfm/internal/models"
	"github.com/denysvitali/mtpfm/pkg/devices"
	"github.com/denysvitali/mtpfm/pkg/fileops"
	"github.com/denysvitali/mtpfm/pkg/sysinfo"
	"github.com/denysvitali/mtpfm/pkg/telemetry"
)

// handleAlive handles health check requests
func (s *Server) handleAlive(c *gin.Context) {
	if s.dispatcher == nil {
		c.JSON(http.StatusOK, gin.H{"status": "not initialized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleServerInfo handles server info requests
func (s *Server) handleServerInfo(c *gin.Context) {
	currentTime := time.Now()
	uptime := currentTime.Sub(s.startTime).Seconds()
	idleTime := currentTime.Sub(s.lastExec()).Seconds()

	response := models.ServerInfoResponse{
		Uptime:      uptime,
		IdleTime:    idleTime,
		MTPBin:      s.config.MTP.Bin,
		SystemStats: sysinfo.Collect(s.logger, "/"),
	}

	s.logger.Debugf("Server info endpoint response: uptime=%.2fs, idle_time=%.2fs", uptime, idleTime)
	c.JSON(http.StatusOK, response)
}

func (s *Server) handleListFiles(c *gin.Context) {
	var req models.ListFilesRequest
	if !s.bind(c, &req) {
		return
	}

	ignoreHidden := s.config.Files.IgnoreHidden
	if req.IgnoreHidden != nil {
		ignoreHidden = *req.IgnoreHidden
	}

	s.serve(c, "list", req.DeviceType, req, func(ctx context.Context) models.Response {
		return s.dispatcher.List(ctx, req.DeviceType, req.Path, ignoreHidden)
	})
}

func (s *Server) handleDeleteFiles(c *gin.Context) {
	var req models.DeleteFilesRequest
	if !s.bind(c, &req) {
		return
	}
	s.serve(c, "delete", req.DeviceType, req, func(ctx context.Context) models.Response {
		return s.dispatcher.Delete(ctx, req.DeviceType, req.FileList)
	})
}

func (s *Server) handleRenameFile(c *gin.Context) {
	var req models.RenameFileRequest
	if !s.bind(c, &req) {
		return
	}
	s.serve(c, "rename", req.DeviceType, req, func(ctx context.Context) models.Response {
		return s.dispatcher.Rename(ctx, req.DeviceType, req.OldFilePath, req.NewFilePath)
	})
}

func (s *Server) handleNewFolder(c *gin.Context) {
	var req models.NewFolderRequest
	if !s.bind(c, &req) {
		return
	}
	s.serve(c, "create_folder", req.DeviceType, req, func(ctx context.Context) models.Response {
		return s.dispatcher.CreateFolder(ctx, req.DeviceType, req.NewFolderPath)
	})
}

func (s *Server) handleFileExists(c *gin.Context) {
	var req models.FileExistsRequest
	if !s.bind(c, &req) {
		return
	}
	s.serve(c, "file_exists", req.DeviceType, req, func(ctx context.Context) models.Response {
		return s.dispatcher.FileExists(ctx, req.DeviceType, req.FilePath)
	})
}

func (s *Server) handleStorageList(c *gin.Context) {
	deviceType := c.Query("deviceType")
	s.serve(c, "storage_list", deviceType, gin.H{"deviceType": deviceType}, func(ctx context.Context) models.Response {
		return s.dispatcher.StorageList(ctx, deviceType)
	})
}

// bind decodes the JSON body into req. A malformed body is a validation
// failure: 400 with a null data envelope.
func (s *Server) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("invalid request body: "+err.Error(), "", nil))
		return false
	}
	return true
}

func (s *Server) serve(c *gin.Context, op, deviceType string, req interface{}, fn func(ctx context.Context) models.Response) {
	tracer := otel.Tracer("mtpfm")
	ctx, span := tracer.Start(c.Request.Context(), "handle_"+op)
	defer span.End()
	span.SetAttributes(attribute.String("device_type", deviceType))

	if s.config.Telemetry.Enabled {
		telemetry.ReportJSON(ctx, s.logger, op+"_request", req)
	}

	s.touch()
	resp := fn(ctx)

	if s.config.Telemetry.Enabled {
		telemetry.ReportJSON(ctx, s.logger, op+"_response", resp)
	}

	c.JSON(statusFor(resp.Err), resp)
}

// statusFor maps an operation failure onto an HTTP status code
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case devices.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, fileops.ErrPathNotFound):
		return http.StatusNotFound
	case errors.Is(err, fileops.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, fileops.ErrUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
